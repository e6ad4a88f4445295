// Package mod holds the moderation commands: kick, ban, unban, clear and the
// case history.
package mod

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
	"github.com/xgctrenches/xgcbot/cache"
	"github.com/xgctrenches/xgcbot/helpers"
	"github.com/xgctrenches/xgcbot/metrics"
	"github.com/xgctrenches/xgcbot/models"
	"github.com/xgctrenches/xgcbot/modlog"
	"github.com/xgctrenches/xgcbot/platform"
)

// ClearNoticeDelay is how long the clear confirmation stays visible
const ClearNoticeDelay = 3 * time.Second

type Handler struct {
	prompter    *helpers.Prompter
	cases       modlog.Recorder
	noticeDelay time.Duration
	platform    platform.Platform
}

func logger() *logrus.Entry {
	return cache.GetLogger().WithField("module", "mod")
}

func New(prompter *helpers.Prompter, cases modlog.Recorder, noticeDelay time.Duration) *Handler {
	return &Handler{
		prompter:    prompter,
		cases:       cases,
		noticeDelay: noticeDelay,
	}
}

func (h *Handler) Commands() []string {
	return []string{
		"kick",
		"ban",
		"unban",
		"clear",
		"cases",
	}
}

func (h *Handler) Init(p platform.Platform) {
	h.platform = p
}

func (h *Handler) Action(command string, content string, msg *discordgo.Message, p platform.Platform) {
	ctx := context.Background()

	switch command {
	case "kick": // [p]kick <user> [reason]
		helpers.RequireMod(p, msg, func() {
			h.remove(ctx, msg, content, models.ModlogActionKick)
		}, discordgo.PermissionKickMembers, discordgo.PermissionBanMembers)
	case "ban": // [p]ban <user> [reason]
		helpers.RequireMod(p, msg, func() {
			h.remove(ctx, msg, content, models.ModlogActionBan)
		}, discordgo.PermissionBanMembers)
	case "unban": // [p]unban <user id|name>
		helpers.RequireMod(p, msg, func() {
			h.unban(ctx, msg, content)
		}, discordgo.PermissionBanMembers)
	case "clear": // [p]clear [amount]
		helpers.RequireMod(p, msg, func() {
			h.clear(ctx, msg, content)
		}, discordgo.PermissionManageMessages, discordgo.PermissionBanMembers)
	case "cases": // [p]cases <user>
		helpers.RequireMod(p, msg, func() {
			h.listCases(ctx, msg, content)
		}, discordgo.PermissionKickMembers, discordgo.PermissionBanMembers)
	}
}

// record stores a case; a failing case log never fails the command
func (h *Handler) record(ctx context.Context, c *models.ModerationCase) {
	metrics.ModerationActions.Add(1)

	if h.cases == nil {
		return
	}
	if err := h.cases.Record(ctx, c); err != nil {
		logger().WithFields(logrus.Fields{
			"action": c.Action,
			"target": c.TargetID,
		}).Errorf("recording case failed: %s", err)
	}
}

func (h *Handler) send(channelID, key string, args ...interface{}) {
	_, err := h.platform.SendMessage(channelID, helpers.GetTextF(key, args...))
	helpers.RelaxMessage(err)
}
