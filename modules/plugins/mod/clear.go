package mod

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/xgctrenches/xgcbot/helpers"
	"github.com/xgctrenches/xgcbot/models"
)

const (
	clearDefault = 10
	clearMax     = 100

	// messages older than this can not be bulk deleted
	bulkDeleteMaxAge = 14 * 24 * time.Hour
)

// clear deletes the command message and the given number of messages before it
func (h *Handler) clear(ctx context.Context, msg *discordgo.Message, content string) {
	amount := clearDefault
	if arg := strings.TrimSpace(content); arg != "" {
		var ok bool
		amount, ok = helpers.ParseIntInRange(arg, 1, clearMax)
		if !ok {
			helpers.SendError(h.platform, msg, helpers.Invalid("plugins.mod.clear-range", clearMax))
			return
		}
	}

	err := h.platform.DeleteMessage(msg.ChannelID, msg.ID)
	helpers.RelaxMessage(err)

	messages, err := h.platform.ChannelMessages(msg.ChannelID, amount, "")
	if err != nil {
		helpers.SendError(h.platform, msg, err)
		return
	}

	var bulk, single []string
	for _, m := range messages {
		if m.ID == msg.ID {
			continue
		}
		if !m.Timestamp.IsZero() && time.Since(m.Timestamp) > bulkDeleteMaxAge {
			single = append(single, m.ID)
			continue
		}
		bulk = append(bulk, m.ID)
	}
	if len(bulk) == 1 {
		single, bulk = append(single, bulk...), nil
	}

	deleted := 0
	if len(bulk) > 0 {
		if err := h.platform.BulkDeleteMessages(msg.ChannelID, bulk); err != nil {
			helpers.SendError(h.platform, msg, err)
			return
		}
		deleted += len(bulk)
	}
	for _, id := range single {
		if err := h.platform.DeleteMessage(msg.ChannelID, id); err != nil {
			logger().WithField("message", id).Warnf("deleting message failed: %s", err)
			continue
		}
		deleted++
	}

	notice, err := h.platform.SendMessage(msg.ChannelID, helpers.GetTextF("plugins.mod.cleared", deleted))
	helpers.RelaxMessage(err)
	if notice != nil {
		time.AfterFunc(h.noticeDelay, func() {
			if err := h.platform.DeleteMessage(notice.ChannelID, notice.ID); err != nil {
				logger().Debugf("deleting clear notice failed: %s", err)
			}
		})
	}

	h.record(ctx, &models.ModerationCase{
		GuildID:     msg.GuildID,
		Action:      models.ModlogActionClear,
		TargetID:    msg.ChannelID,
		ModeratorID: msg.Author.ID,
		Count:       deleted,
	})
}

