package reflection

import (
	"fmt"
	"strings"

	"github.com/mafiarena/mafiarena/core"
)

// Transcript renders one game's events as the viewer-perspective log the
// Reflector analyzes. Only outcome-bearing public events appear; night
// choices stay hidden so the transcript matches what a spectator saw.
func Transcript(events []core.GameEvent, gameID string) string {
	var lines []string
	for _, ev := range events {
		if gameID != "" && ev.GameID != gameID {
			continue
		}
		switch ev.Type {
		case core.EventSpeech:
			name, _ := ev.Payload["player_name"].(string)
			content, _ := ev.Payload["content"].(string)
			lines = append(lines, fmt.Sprintf("[DAY] %s: %s", name, content))
		case core.EventVoteCast:
			voter, _ := ev.Payload["voter_name"].(string)
			vote, _ := ev.Payload["vote"].(string)
			lines = append(lines, fmt.Sprintf("[VOTE] %s voted for %s", voter, vote))
		case core.EventLynchResult:
			if lynched, ok := ev.Payload["lynched"].(string); ok && lynched != "" {
				role := payloadRole(ev.Payload, "lynched_role")
				lines = append(lines, fmt.Sprintf("[LYNCH] %s was lynched (was %s)", lynched, role))
			} else {
				lines = append(lines, "[LYNCH] No one was lynched")
			}
		case core.EventNightResult:
			if killed, ok := ev.Payload["killed"].(string); ok && killed != "" {
				role := payloadRole(ev.Payload, "killed_role")
				lines = append(lines, fmt.Sprintf("[NIGHT] %s was killed (was %s)", killed, role))
			} else if saved, _ := ev.Payload["was_saved"].(bool); saved {
				lines = append(lines, "[NIGHT] Someone was saved by the doctor")
			} else {
				lines = append(lines, "[NIGHT] No one was killed")
			}
		case core.EventGameEnded:
			winner := "unknown"
			switch w := ev.Payload["winner"].(type) {
			case string:
				winner = w
			case core.Winner:
				winner = string(w)
			}
			lines = append(lines, fmt.Sprintf("[END] Game ended - %s wins", winner))
		}
	}
	if len(lines) == 0 {
		return "No events recorded"
	}
	return strings.Join(lines, "\n")
}

// payloadRole tolerates both the in-memory core.Role value and the string a
// JSON round-trip produces.
func payloadRole(payload map[string]any, key string) string {
	switch v := payload[key].(type) {
	case string:
		return v
	case core.Role:
		return string(v)
	default:
		return "unknown"
	}
}
