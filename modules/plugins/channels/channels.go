// Package channels manages channel groups, stored per-role permission flags
// and their application to the live channel overwrites.
package channels

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
	"github.com/xgctrenches/xgcbot/cache"
	"github.com/xgctrenches/xgcbot/helpers"
	"github.com/xgctrenches/xgcbot/platform"
	"github.com/xgctrenches/xgcbot/store"
)

type Handler struct {
	store    store.PermissionStore
	prompter *helpers.Prompter
	pause    time.Duration
	platform platform.Platform
}

type channelsAction func(ctx context.Context, args []string, in *discordgo.Message, out **discordgo.MessageSend) (next channelsAction)

func logger() *logrus.Entry {
	return cache.GetLogger().WithField("module", "channels")
}

// New returns the channels command. pause is the wait between two channel
// updates, ApplyPause in production.
func New(s store.PermissionStore, prompter *helpers.Prompter, pause time.Duration) *Handler {
	return &Handler{
		store:    s,
		prompter: prompter,
		pause:    pause,
	}
}

func (h *Handler) Commands() []string {
	return []string{
		"channels",
		"quicksetup",
	}
}

func (h *Handler) Init(p platform.Platform) {
	h.platform = p
}

func (h *Handler) Action(command string, content string, msg *discordgo.Message, p platform.Platform) {
	ctx := context.Background()

	var result *discordgo.MessageSend
	args := helpers.SplitArgs(content)
	if command == "quicksetup" {
		args = append([]string{"quicksetup"}, args...)
	}

	action := h.actionStart
	for action != nil {
		action = action(ctx, args, msg, &result)
	}
}

func (h *Handler) actionStart(ctx context.Context, args []string, in *discordgo.Message, out **discordgo.MessageSend) channelsAction {
	if !helpers.IsAdmin(h.platform, in) {
		*out = h.newMsg("admin.no_permission")
		return h.actionFinish
	}

	if len(args) < 1 {
		return h.actionHelp
	}

	switch strings.ToLower(args[0]) {
	case "list":
		return h.actionList
	case "create_group":
		return h.actionCreateGroup
	case "delete_group":
		return h.actionDeleteGroup
	case "add_to_group":
		return h.actionAddToGroup
	case "remove_from_group":
		return h.actionRemoveFromGroup
	case "set_group_permission":
		return h.actionSetGroupPermission
	case "set_permission":
		return h.actionSetPermission
	case "info":
		return h.actionInfo
	case "apply", "apply_permissions":
		return h.actionApply
	case "set_public":
		return h.actionSetPublic
	case "set_verified_only":
		return h.actionSetVerifiedOnly
	case "all_verified_only":
		return h.actionAllVerifiedOnly
	case "preset":
		return h.actionPreset
	case "lockdown":
		return h.actionLockdown
	case "quicksetup":
		return h.actionQuickSetup
	case "role":
		return h.actionRole
	}

	return h.actionHelp
}

func (h *Handler) actionHelp(ctx context.Context, args []string, in *discordgo.Message, out **discordgo.MessageSend) channelsAction {
	prefix := helpers.GetConfig().Prefix
	*out = &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       helpers.GetText("plugins.channels.help-title"),
			Description: helpers.GetTextF("plugins.channels.help", prefix, strings.Join(FlagNames(), ", ")),
			Color:       helpers.ColorBlue,
		}},
	}
	return h.actionFinish
}

func (h *Handler) actionFinish(ctx context.Context, args []string, in *discordgo.Message, out **discordgo.MessageSend) channelsAction {
	if *out == nil {
		return nil
	}
	_, err := h.platform.SendComplex(in.ChannelID, *out)
	helpers.RelaxMessage(err)

	return nil
}

// actionError replies with err and ends the chain
func (h *Handler) actionError(err error) channelsAction {
	return func(ctx context.Context, args []string, in *discordgo.Message, out **discordgo.MessageSend) channelsAction {
		helpers.SendError(h.platform, in, err)
		return nil
	}
}

func (h *Handler) newMsg(key string, args ...interface{}) *discordgo.MessageSend {
	return &discordgo.MessageSend{Content: helpers.GetTextF(key, args...)}
}

// guildState loads what most actions need in one go
type guildState struct {
	channels   []*discordgo.Channel
	roles      []*discordgo.Role
	everyoneID string
	verifiedID string
}

func (h *Handler) loadGuild(guildID string) (*guildState, error) {
	channels, err := h.platform.GuildChannels(guildID)
	if err != nil {
		return nil, err
	}
	roles, err := h.platform.GuildRoles(guildID)
	if err != nil {
		return nil, err
	}

	state := &guildState{
		channels:   channels,
		roles:      roles,
		everyoneID: helpers.EveryoneRoleID(guildID),
	}
	if verified := helpers.FindRoleByID(roles, helpers.GetConfig().VerifiedRoleID); verified != nil {
		state.verifiedID = verified.ID
	}
	return state, nil
}

// loadGuildVerified is loadGuild for actions that rewrite @everyone. Without
// a verified role they would hide every channel from every member.
func (h *Handler) loadGuildVerified(guildID string) (*guildState, error) {
	g, err := h.loadGuild(guildID)
	if err != nil {
		return nil, err
	}
	if g.verifiedID == "" {
		return nil, helpers.NotFound("plugins.channels.verified-role-missing")
	}
	return g, nil
}

func (g *guildState) roleExists(roleID string) bool {
	return helpers.FindRoleByID(g.roles, roleID) != nil
}

func (g *guildState) channelName(channelID string) string {
	for _, channel := range g.channels {
		if channel.ID == channelID {
			return channel.Name
		}
	}
	return channelID
}

// targetName renders an overwrite target for embeds
func (g *guildState) targetName(o *discordgo.PermissionOverwrite) string {
	if o.Type == discordgo.PermissionOverwriteTypeMember {
		return "<@" + o.ID + ">"
	}
	if o.ID == g.everyoneID {
		return "@everyone"
	}
	if role := helpers.FindRoleByID(g.roles, o.ID); role != nil {
		return "@" + role.Name
	}
	return o.ID
}

// resolveChannels resolves every argument or fails on the first unknown one
func (h *Handler) resolveChannels(guildID string, args []string) ([]*discordgo.Channel, error) {
	channels := make([]*discordgo.Channel, 0, len(args))
	for _, arg := range args {
		channel, err := helpers.ResolveChannel(h.platform, guildID, arg)
		if err != nil {
			return nil, err
		}
		channels = append(channels, channel)
	}
	return channels, nil
}

// apply sends a status line, runs the plan and reports the result
func (h *Handler) apply(ctx context.Context, in *discordgo.Message, g *guildState, plan []ChannelPlan) *discordgo.MessageSend {
	if len(plan) == 0 {
		return h.newMsg("plugins.channels.nothing-to-apply")
	}

	_, err := h.platform.SendMessage(in.ChannelID, helpers.GetTextF("plugins.channels.applying", len(plan)))
	helpers.RelaxMessage(err)

	result := ApplyPlan(ctx, h.platform, plan, h.pause)

	logger().WithFields(logrus.Fields{
		"guild":   in.GuildID,
		"applied": len(result.Applied),
		"failed":  len(result.Failed),
	}).Info("applied channel permissions")

	return h.resultMsg(g, result)
}

func (h *Handler) resultMsg(g *guildState, result Result) *discordgo.MessageSend {
	text := helpers.GetTextF("plugins.channels.applied", len(result.Applied), len(result.Failed))
	for _, failure := range result.Failed {
		text += fmt.Sprintf("\n• #%s: %s", g.channelName(failure.ChannelID), helpers.Describe(failure.Err))
	}
	return &discordgo.MessageSend{Content: helpers.Truncate(text, 2000)}
}

func mentionChannels(ids []string) string {
	if len(ids) == 0 {
		return helpers.GetText("plugins.channels.no-channels")
	}
	mentions := make([]string, 0, len(ids))
	for _, id := range ids {
		mentions = append(mentions, "<#"+id+">")
	}
	return helpers.Truncate(strings.Join(mentions, ", "), 1024)
}

func channelNames(channels []*discordgo.Channel) string {
	if len(channels) == 0 {
		return helpers.GetText("plugins.channels.no-channels")
	}
	names := make([]string, 0, len(channels))
	for _, channel := range channels {
		names = append(names, "#"+channel.Name)
	}
	return helpers.Truncate(strings.Join(names, ", "), 1024)
}
