package mod

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	humanize "github.com/dustin/go-humanize"
	"github.com/xgctrenches/xgcbot/helpers"
)

const casesShown = 10

// listCases shows the newest cases recorded against a user
func (h *Handler) listCases(ctx context.Context, msg *discordgo.Message, content string) {
	query := strings.TrimSpace(content)
	if query == "" {
		h.send(msg.ChannelID, "bot.arguments.too-few")
		return
	}

	targetID := ""
	target := helpers.ParseUserTarget(query)
	if target.Kind != helpers.ByName {
		// banned users are no members anymore
		targetID = target.Value
	} else {
		member, err := helpers.ResolveMember(h.platform, msg.GuildID, query)
		if err != nil {
			helpers.SendError(h.platform, msg, err)
			return
		}
		targetID = member.User.ID
	}

	if h.cases == nil {
		h.send(msg.ChannelID, "plugins.mod.cases-none", targetID)
		return
	}
	cases, err := h.cases.ForTarget(ctx, msg.GuildID, targetID, casesShown)
	if err != nil {
		helpers.SendError(h.platform, msg, err)
		return
	}
	if len(cases) == 0 {
		h.send(msg.ChannelID, "plugins.mod.cases-none", targetID)
		return
	}

	lines := make([]string, 0, len(cases))
	for _, c := range cases {
		line := fmt.Sprintf("`%s` **%s** by <@%s> %s", shortRef(c.Reference), c.Action, c.ModeratorID, humanize.Time(c.CreatedAt))
		if c.Reason != "" {
			line += "\n> " + c.Reason
		}
		lines = append(lines, line)
	}

	_, err = h.platform.SendEmbed(msg.ChannelID, &discordgo.MessageEmbed{
		Title:       helpers.GetTextF("plugins.mod.cases-title", targetID),
		Description: helpers.Truncate(strings.Join(lines, "\n"), 4096),
		Color:       helpers.ColorOrange,
	})
	helpers.RelaxMessage(err)
}

func shortRef(ref string) string {
	if len(ref) > 8 {
		return ref[:8]
	}
	return ref
}
