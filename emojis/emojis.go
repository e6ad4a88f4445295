package emojis

import "github.com/bwmarrin/discordgo"

const (
	Confirm = "✅"
	Abort   = "🚫"
	Verify  = "✅"
	Wave    = "👋"
	Rocket  = "🚀"
	Siren   = "🚨"
	Warning = "⚠️"
	Lock    = "🔒"
	Unlock  = "🔓"
)

// Key returns the form reactions are compared by: the unicode character for
// standard emoji, name:id for custom ones.
func Key(emoji discordgo.Emoji) string {
	if emoji.ID != "" {
		return emoji.Name + ":" + emoji.ID
	}
	return emoji.Name
}

// Strip normalizes user input: <:name:id> and <a:name:id> become name:id.
func Strip(input string) string {
	if len(input) > 3 && input[0] == '<' && input[len(input)-1] == '>' {
		inner := input[1 : len(input)-1]
		if len(inner) > 2 && inner[0] == 'a' && inner[1] == ':' {
			inner = inner[1:]
		}
		if len(inner) > 1 && inner[0] == ':' {
			return inner[1:]
		}
	}
	return input
}
