package core

import (
	"fmt"
	"sort"
	"strings"
)

// CheatsheetItem is a single learned strategy note.
type CheatsheetItem struct {
	ID               string  `json:"id"`
	Category         string  `json:"category"`
	Content          string  `json:"content"`
	HelpfulnessScore float64 `json:"helpfulness_score"`
	TimesUsed        int     `json:"times_used"`
	AddedAfterGame   int     `json:"added_after_game,omitempty"`
	SourceEvent      string  `json:"source_event,omitempty"`
}

// Cheatsheet is a versioned set of strategy notes owned by one player. The
// curator produces version v+1 as a new value; prior versions are retained
// immutably for history and diffing.
type Cheatsheet struct {
	Version int              `json:"version"`
	Items   []CheatsheetItem `json:"items"`
}

// Clone returns a deep copy safe for independent mutation.
func (c Cheatsheet) Clone() Cheatsheet {
	items := make([]CheatsheetItem, len(c.Items))
	copy(items, c.Items)
	return Cheatsheet{Version: c.Version, Items: items}
}

// PromptFormat renders the top maxItems notes, grouped by category and
// ordered by helpfulness, for inclusion in an actor prompt.
func (c Cheatsheet) PromptFormat(maxItems int) string {
	if len(c.Items) == 0 {
		return "No strategies accumulated yet."
	}

	sorted := make([]CheatsheetItem, len(c.Items))
	copy(sorted, c.Items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].HelpfulnessScore > sorted[j].HelpfulnessScore
	})
	if maxItems > 0 && len(sorted) > maxItems {
		sorted = sorted[:maxItems]
	}

	byCategory := map[string][]CheatsheetItem{}
	var categories []string
	for _, item := range sorted {
		if _, ok := byCategory[item.Category]; !ok {
			categories = append(categories, item.Category)
		}
		byCategory[item.Category] = append(byCategory[item.Category], item)
	}
	sort.Strings(categories)

	var b strings.Builder
	for _, cat := range categories {
		fmt.Fprintf(&b, "\n## %s\n", cat)
		for _, item := range byCategory[cat] {
			fmt.Fprintf(&b, "- [%d%%] %s\n", int(item.HelpfulnessScore*100), item.Content)
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}
