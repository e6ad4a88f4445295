package channels

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/xgctrenches/xgcbot/helpers"
	"github.com/xgctrenches/xgcbot/models"
)

// _channels list
func (h *Handler) actionList(ctx context.Context, args []string, in *discordgo.Message, out **discordgo.MessageSend) channelsAction {
	config, err := h.store.Config(ctx)
	if err != nil {
		return h.actionError(err)
	}

	embed := &discordgo.MessageEmbed{
		Title: helpers.GetText("plugins.channels.list-title"),
		Color: helpers.ColorBlue,
	}
	for _, name := range config.GroupNames() {
		if len(embed.Fields) >= 24 {
			break
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("%s (%d)", name, len(config.ChannelGroups[name])),
			Value: mentionChannels(config.ChannelGroups[name]),
		})
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:  helpers.GetText("plugins.channels.public-channels"),
		Value: mentionChannels(config.PublicChannels),
	})

	*out = &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{embed}}
	return h.actionFinish
}

// _channels create_group <name>
func (h *Handler) actionCreateGroup(ctx context.Context, args []string, in *discordgo.Message, out **discordgo.MessageSend) channelsAction {
	if len(args) < 2 {
		*out = h.newMsg("bot.arguments.too-few")
		return h.actionFinish
	}

	name := strings.ToLower(args[1])
	if err := h.store.CreateGroup(ctx, name); err != nil {
		return h.actionError(err)
	}

	*out = h.newMsg("plugins.channels.group-created", name)
	return h.actionFinish
}

// _channels delete_group <name>
func (h *Handler) actionDeleteGroup(ctx context.Context, args []string, in *discordgo.Message, out **discordgo.MessageSend) channelsAction {
	if len(args) < 2 {
		*out = h.newMsg("bot.arguments.too-few")
		return h.actionFinish
	}

	name := strings.ToLower(args[1])
	if err := h.store.DeleteGroup(ctx, name); err != nil {
		return h.actionError(err)
	}

	*out = h.newMsg("plugins.channels.group-deleted", name)
	return h.actionFinish
}

// _channels add_to_group <name> <#channel...>
func (h *Handler) actionAddToGroup(ctx context.Context, args []string, in *discordgo.Message, out **discordgo.MessageSend) channelsAction {
	if len(args) < 3 {
		*out = h.newMsg("bot.arguments.too-few")
		return h.actionFinish
	}

	channels, err := h.resolveChannels(in.GuildID, args[2:])
	if err != nil {
		return h.actionError(err)
	}

	group := strings.ToLower(args[1])
	added, err := h.store.AddToGroup(ctx, group, channelIDs(channels)...)
	if err != nil {
		return h.actionError(err)
	}

	*out = h.newMsg("plugins.channels.added-to-group", added, group, len(channels)-added)
	return h.actionFinish
}

// _channels remove_from_group <name> <#channel...>
func (h *Handler) actionRemoveFromGroup(ctx context.Context, args []string, in *discordgo.Message, out **discordgo.MessageSend) channelsAction {
	if len(args) < 3 {
		*out = h.newMsg("bot.arguments.too-few")
		return h.actionFinish
	}

	channels, err := h.resolveChannels(in.GuildID, args[2:])
	if err != nil {
		return h.actionError(err)
	}

	group := strings.ToLower(args[1])
	removed, err := h.store.RemoveFromGroup(ctx, group, channelIDs(channels)...)
	if err != nil {
		return h.actionError(err)
	}

	*out = h.newMsg("plugins.channels.removed-from-group", removed, group)
	return h.actionFinish
}

// _channels set_group_permission <group> <role> <flag> <true|false>
func (h *Handler) actionSetGroupPermission(ctx context.Context, args []string, in *discordgo.Message, out **discordgo.MessageSend) channelsAction {
	if len(args) < 5 {
		*out = h.newMsg("bot.arguments.too-few")
		return h.actionFinish
	}

	role, flag, value, err := h.parseFlagArgs(in.GuildID, args[2], args[3], args[4])
	if err != nil {
		return h.actionError(err)
	}

	group := strings.ToLower(args[1])
	if err := h.store.SetGroupFlag(ctx, role.ID, group, flag, value); err != nil {
		return h.actionError(err)
	}

	*out = h.newMsg("plugins.channels.group-flag-set", flag, value, role.Name, group)
	return h.actionFinish
}

// _channels set_permission <#channel> <role> <flag> <true|false>
func (h *Handler) actionSetPermission(ctx context.Context, args []string, in *discordgo.Message, out **discordgo.MessageSend) channelsAction {
	if len(args) < 5 {
		*out = h.newMsg("bot.arguments.too-few")
		return h.actionFinish
	}

	channel, err := helpers.ResolveChannel(h.platform, in.GuildID, args[1])
	if err != nil {
		return h.actionError(err)
	}
	role, flag, value, err := h.parseFlagArgs(in.GuildID, args[2], args[3], args[4])
	if err != nil {
		return h.actionError(err)
	}

	if err := h.store.SetChannelFlag(ctx, role.ID, channel.ID, flag, value); err != nil {
		return h.actionError(err)
	}

	*out = h.newMsg("plugins.channels.channel-flag-set", flag, value, role.Name, channel.ID)
	return h.actionFinish
}

func (h *Handler) parseFlagArgs(guildID, roleArg, flagArg, valueArg string) (*discordgo.Role, string, bool, error) {
	role, err := helpers.ResolveRole(h.platform, guildID, roleArg)
	if err != nil {
		return nil, "", false, err
	}

	flag := strings.ToLower(flagArg)
	if _, ok := FlagBit(flag); !ok {
		return nil, "", false, helpers.Invalid("plugins.channels.invalid-flag", flagArg, strings.Join(FlagNames(), ", "))
	}

	value, ok := helpers.ParseBool(valueArg)
	if !ok {
		return nil, "", false, helpers.Invalid("bot.arguments.invalid-bool", valueArg)
	}

	return role, flag, value, nil
}

// _channels info [#channel]
func (h *Handler) actionInfo(ctx context.Context, args []string, in *discordgo.Message, out **discordgo.MessageSend) channelsAction {
	channelArg := in.ChannelID
	if len(args) > 1 {
		channelArg = args[1]
	}

	channel, err := helpers.ResolveChannel(h.platform, in.GuildID, channelArg)
	if err != nil {
		return h.actionError(err)
	}
	config, err := h.store.Config(ctx)
	if err != nil {
		return h.actionError(err)
	}
	g, err := h.loadGuild(in.GuildID)
	if err != nil {
		return h.actionError(err)
	}

	groups := config.GroupsOf(channel.ID)
	groupText := helpers.GetText("plugins.channels.no-groups")
	if len(groups) > 0 {
		groupText = strings.Join(groups, ", ")
	}

	embed := &discordgo.MessageEmbed{
		Title: helpers.GetTextF("plugins.channels.info-title", channel.Name),
		Color: helpers.ColorBlue,
		Fields: []*discordgo.MessageEmbedField{
			{Name: helpers.GetText("plugins.channels.info-groups"), Value: groupText, Inline: true},
			{Name: helpers.GetText("plugins.channels.info-public"), Value: yesNo(config.IsPublic(channel.ID)), Inline: true},
		},
	}

	for _, o := range channel.PermissionOverwrites {
		if len(embed.Fields) >= 25 {
			break
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  g.targetName(o),
			Value: describeOverwrite(o),
		})
	}

	*out = &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{embed}}
	return h.actionFinish
}

func describeOverwrite(o *discordgo.PermissionOverwrite) string {
	var lines []string
	if allowed := describeBits(o.Allow); len(allowed) > 0 {
		lines = append(lines, "✅ "+strings.Join(allowed, ", "))
	}
	if denied := describeBits(o.Deny); len(denied) > 0 {
		lines = append(lines, "❌ "+strings.Join(denied, ", "))
	}
	if len(lines) == 0 {
		return helpers.GetText("plugins.channels.overwrite-other")
	}
	return strings.Join(lines, "\n")
}

func yesNo(v bool) string {
	if v {
		return helpers.GetText("bot.yes")
	}
	return helpers.GetText("bot.no")
}

// storedFlags renders the stored settings of a role for the role view
func storedFlags(rp *models.RolePermissions, g *guildState) []string {
	if rp == nil {
		return nil
	}
	var lines []string
	for _, group := range sortedKeys(rp.Groups) {
		lines = append(lines, fmt.Sprintf("group %s: %s", group, describeFlagSet(rp.Groups[group])))
	}
	for _, channelID := range sortedKeys(rp.Channels) {
		lines = append(lines, fmt.Sprintf("#%s: %s", g.channelName(channelID), describeFlagSet(rp.Channels[channelID])))
	}
	return lines
}

func describeFlagSet(set models.FlagSet) string {
	parts := make([]string, 0, len(set))
	for _, flag := range sortedKeys(set) {
		mark := "❌"
		if set[flag] {
			mark = "✅"
		}
		parts = append(parts, mark+" "+flag)
	}
	return strings.Join(parts, ", ")
}
