package actor

import (
	"fmt"
	"strings"

	"github.com/mafiarena/mafiarena/core"
)

const cheatsheetPromptItems = 10

// buildGameContext renders the shared game-state block embedded in every
// system prompt.
func buildGameContext(gc Context) string {
	alive := strings.Join(gc.AlivePlayers(), ", ")
	dead := strings.Join(gc.DeadPlayers(), ", ")
	if dead == "" {
		dead = "none"
	}
	discussion := strings.Join(gc.Discussion, "\n")
	if discussion == "" {
		discussion = "(No discussion yet)"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are playing a game of Mafia with %d players.\n\n", len(gc.Players))
	fmt.Fprintf(&b, "CURRENT GAME STATE:\n- Day %d\n- Alive players: %s\n- Dead players: %s\n\n", gc.Day, alive, dead)
	fmt.Fprintf(&b, "YOUR IDENTITY:\n- Name: %s\n- Role: %s\n%s\n\n", gc.Self.Name, gc.Self.Role, roleInfo(gc))
	fmt.Fprintf(&b, "YOUR CHEATSHEET (strategies you've learned):\n%s\n\n", gc.Self.Cheatsheet.PromptFormat(cheatsheetPromptItems))
	fmt.Fprintf(&b, "DISCUSSION SO FAR TODAY:\n%s", discussion)
	return b.String()
}

func roleInfo(gc Context) string {
	switch gc.Self.Role {
	case core.RoleMafia:
		partners := strings.Join(gc.MafiaPartners, ", ")
		if partners == "" {
			partners = "none (you're alone)"
		}
		return fmt.Sprintf(`As Mafia, your goal is to eliminate all town players without being caught.
- You know who your fellow Mafia members are: %s
- At night, you choose one player to kill
- During the day, blend in and deflect suspicion onto innocent players`, partners)
	case core.RoleDoctor:
		return `As Doctor, your goal is to protect innocent players.
- Each night, you choose one player to protect from the Mafia
- If the Mafia targets the player you protected, they survive`
	case core.RoleDeputy:
		return `As Deputy, your goal is to identify the Mafia.
- Each night, you investigate one player
- You learn if they are "good" (Town) or "bad" (Mafia)
- Use this information carefully - revealing yourself makes you a target`
	default:
		return `As Townsperson, your goal is to identify and eliminate the Mafia.
- You have no special abilities
- Use discussion and voting to find suspicious players
- Pay attention to voting patterns and contradictions`
	}
}

func speechSystemPrompt(gc Context) string {
	return fmt.Sprintf(`You are %s, a player in a game of Mafia. Give a speech to the group.

%s

Your speech should:
1. Be 2-4 sentences
2. Sound natural and in-character
3. Advance your goals based on your role
4. Reference what others have said if relevant

Respond with JSON:
{"content": "your speech here", "addressing": ["player_name1", "player_name2"]}

The "addressing" field should list players you're directly responding to or accusing.`, gc.Self.Name, buildGameContext(gc))
}

func voteSystemPrompt(gc Context) string {
	return fmt.Sprintf(`You are %s. It's time to vote on who to lynch.

%s

Based on the discussion, choose who to vote for.%s

Respond with JSON:
{"vote": "player_name_or_no_lynch", "reasoning": "brief explanation"}`, gc.Self.Name, buildGameContext(gc), voteSkipHint(gc))
}

func voteSkipHint(gc Context) string {
	if gc.AllowSkip {
		return ` You may also vote "no_lynch" if you don't want anyone lynched.`
	}
	return ""
}

func nightSystemPrompt(gc Context) string {
	switch gc.Action {
	case core.NightActionKill:
		return fmt.Sprintf(`You are %s, a Mafia member. It's night time - choose who to kill.

%s

Consider:
- Who is most dangerous to the Mafia (Deputy, active investigators)?
- Who might the Doctor protect?
- Who can you eliminate without raising suspicion?

Respond with JSON:
{"target": "player_name", "reasoning": "brief explanation"}`, gc.Self.Name, buildGameContext(gc))
	case core.NightActionProtect:
		return fmt.Sprintf(`You are %s, the Doctor. It's night time - choose who to protect.

%s

Consider:
- Who is the Mafia most likely to target?
- Who is most valuable to the town?

Respond with JSON:
{"target": "player_name", "reasoning": "brief explanation"}`, gc.Self.Name, buildGameContext(gc))
	default:
		return fmt.Sprintf(`You are %s, the Deputy. It's night time - choose who to investigate.

%s

Consider:
- Who has been acting suspiciously?
- Who haven't you investigated yet?
- Who would give you the most useful information?

Respond with JSON:
{"target": "player_name", "reasoning": "brief explanation"}`, gc.Self.Name, buildGameContext(gc))
	}
}

func voteUserPrompt(gc Context) string {
	targets := strings.Join(gc.TargetNames(), ", ")
	if gc.AllowSkip {
		return fmt.Sprintf("Cast your vote. Valid targets: %s, or 'no_lynch'", targets)
	}
	return fmt.Sprintf("Cast your vote. Valid targets: %s", targets)
}

func nightUserPrompt(gc Context) string {
	targets := strings.Join(gc.TargetNames(), ", ")
	switch gc.Action {
	case core.NightActionKill:
		return fmt.Sprintf("Choose your target. Valid targets: %s", targets)
	case core.NightActionProtect:
		return fmt.Sprintf("Choose who to protect. Valid targets: %s", targets)
	default:
		return fmt.Sprintf("Choose who to investigate. Valid targets: %s", targets)
	}
}
