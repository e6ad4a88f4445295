package channels

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/xgctrenches/xgcbot/helpers"
)

// _channels role <view|allow|deny|reset|copy> ...
func (h *Handler) actionRole(ctx context.Context, args []string, in *discordgo.Message, out **discordgo.MessageSend) channelsAction {
	if len(args) < 3 {
		*out = h.newMsg("plugins.channels.role-usage")
		return h.actionFinish
	}

	switch strings.ToLower(args[1]) {
	case "view":
		return h.actionRoleView
	case "allow", "deny":
		return h.actionRoleSet
	case "reset":
		return h.actionRoleReset
	case "copy":
		return h.actionRoleCopy
	}

	*out = h.newMsg("plugins.channels.role-usage")
	return h.actionFinish
}

// _channels role view <role>
func (h *Handler) actionRoleView(ctx context.Context, args []string, in *discordgo.Message, out **discordgo.MessageSend) channelsAction {
	role, err := helpers.ResolveRole(h.platform, in.GuildID, strings.Join(args[2:], " "))
	if err != nil {
		return h.actionError(err)
	}
	g, err := h.loadGuild(in.GuildID)
	if err != nil {
		return h.actionError(err)
	}
	config, err := h.store.Config(ctx)
	if err != nil {
		return h.actionError(err)
	}

	var lines []string
	for _, channel := range textChannels(g.channels) {
		if o := findOverwrite(channel, role.ID); o != nil {
			lines = append(lines, fmt.Sprintf("**#%s**\n%s", channel.Name, describeOverwrite(o)))
		}
	}
	if len(lines) == 0 {
		lines = append(lines, helpers.GetText("plugins.channels.role-no-overwrites"))
	}

	embed := &discordgo.MessageEmbed{
		Title:       helpers.GetTextF("plugins.channels.role-view-title", role.Name),
		Description: helpers.Truncate(strings.Join(lines, "\n"), 4096),
		Color:       role.Color,
	}
	if stored := storedFlags(config.RolePermissions[role.ID], g); len(stored) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  helpers.GetText("plugins.channels.role-stored"),
			Value: helpers.Truncate(strings.Join(stored, "\n"), 1024),
		})
	}

	*out = &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{embed}}
	return h.actionFinish
}

// _channels role <allow|deny> <role> <#channel|all> <flag...>
func (h *Handler) actionRoleSet(ctx context.Context, args []string, in *discordgo.Message, out **discordgo.MessageSend) channelsAction {
	if len(args) < 5 {
		*out = h.newMsg("bot.arguments.too-few")
		return h.actionFinish
	}

	allow := strings.ToLower(args[1]) == "allow"
	role, err := helpers.ResolveRole(h.platform, in.GuildID, args[2])
	if err != nil {
		return h.actionError(err)
	}
	g, err := h.loadGuild(in.GuildID)
	if err != nil {
		return h.actionError(err)
	}
	targets, err := h.channelScope(in.GuildID, g, args[3])
	if err != nil {
		return h.actionError(err)
	}

	var bits int64
	for _, flag := range args[4:] {
		bit, ok := FlagBit(flag)
		if !ok {
			return h.actionError(helpers.Invalid("plugins.channels.invalid-flag", flag, strings.Join(FlagNames(), ", ")))
		}
		bits |= bit
	}

	result := h.forEach(ctx, targets, func(channel *discordgo.Channel) error {
		o := &discordgo.PermissionOverwrite{ID: role.ID, Type: discordgo.PermissionOverwriteTypeRole}
		if existing := findOverwrite(channel, role.ID); existing != nil {
			*o = *existing
		}
		setBit(o, bits, allow)
		return h.platform.SetChannelOverwrite(channel.ID, o)
	})

	*out = h.resultMsg(g, result)
	return h.actionFinish
}

// _channels role reset <role> <#channel|all>
func (h *Handler) actionRoleReset(ctx context.Context, args []string, in *discordgo.Message, out **discordgo.MessageSend) channelsAction {
	if len(args) < 4 {
		*out = h.newMsg("bot.arguments.too-few")
		return h.actionFinish
	}

	role, err := helpers.ResolveRole(h.platform, in.GuildID, args[2])
	if err != nil {
		return h.actionError(err)
	}
	g, err := h.loadGuild(in.GuildID)
	if err != nil {
		return h.actionError(err)
	}
	targets, err := h.channelScope(in.GuildID, g, args[3])
	if err != nil {
		return h.actionError(err)
	}

	var affected []*discordgo.Channel
	for _, channel := range targets {
		if findOverwrite(channel, role.ID) != nil {
			affected = append(affected, channel)
		}
	}

	result := h.forEach(ctx, affected, func(channel *discordgo.Channel) error {
		return h.platform.DeleteChannelOverwrite(channel.ID, role.ID)
	})

	*out = h.resultMsg(g, result)
	return h.actionFinish
}

// _channels role copy <from role> <to role>
func (h *Handler) actionRoleCopy(ctx context.Context, args []string, in *discordgo.Message, out **discordgo.MessageSend) channelsAction {
	if len(args) < 4 {
		*out = h.newMsg("bot.arguments.too-few")
		return h.actionFinish
	}

	from, err := helpers.ResolveRole(h.platform, in.GuildID, args[2])
	if err != nil {
		return h.actionError(err)
	}
	to, err := helpers.ResolveRole(h.platform, in.GuildID, args[3])
	if err != nil {
		return h.actionError(err)
	}
	g, err := h.loadGuild(in.GuildID)
	if err != nil {
		return h.actionError(err)
	}

	var sources []*discordgo.Channel
	for _, channel := range textChannels(g.channels) {
		if findOverwrite(channel, from.ID) != nil {
			sources = append(sources, channel)
		}
	}

	result := h.forEach(ctx, sources, func(channel *discordgo.Channel) error {
		source := findOverwrite(channel, from.ID)
		return h.platform.SetChannelOverwrite(channel.ID, &discordgo.PermissionOverwrite{
			ID:    to.ID,
			Type:  discordgo.PermissionOverwriteTypeRole,
			Allow: source.Allow,
			Deny:  source.Deny,
		})
	})

	if err := h.store.CopyRole(ctx, from.ID, to.ID); err != nil {
		return h.actionError(err)
	}

	*out = h.resultMsg(g, result)
	(*out).Content = helpers.GetTextF("plugins.channels.role-copied", from.Name, to.Name) + "\n" + (*out).Content
	return h.actionFinish
}

// channelScope resolves "all" to every text channel
func (h *Handler) channelScope(guildID string, g *guildState, arg string) ([]*discordgo.Channel, error) {
	if strings.EqualFold(arg, "all") {
		return textChannels(g.channels), nil
	}
	channel, err := helpers.ResolveChannel(h.platform, guildID, arg)
	if err != nil {
		return nil, err
	}
	return []*discordgo.Channel{channel}, nil
}

// forEach runs fn per channel with the handler pause in between
func (h *Handler) forEach(ctx context.Context, channels []*discordgo.Channel, fn func(*discordgo.Channel) error) Result {
	var result Result
	for i, channel := range channels {
		if i > 0 && h.pause > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(h.pause):
			}
		}
		if err := ctx.Err(); err != nil {
			result.Failed = append(result.Failed, Failure{ChannelID: channel.ID, Err: err})
			continue
		}
		if err := fn(channel); err != nil {
			result.Failed = append(result.Failed, Failure{ChannelID: channel.ID, Err: err})
			continue
		}
		result.Applied = append(result.Applied, channel.ID)
	}
	return result
}

func findOverwrite(channel *discordgo.Channel, targetID string) *discordgo.PermissionOverwrite {
	for _, o := range channel.PermissionOverwrites {
		if o.ID == targetID {
			return o
		}
	}
	return nil
}
