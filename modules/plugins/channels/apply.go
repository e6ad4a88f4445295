package channels

import (
	"context"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/xgctrenches/xgcbot/helpers"
	"github.com/xgctrenches/xgcbot/models"
)

// _channels apply
func (h *Handler) actionApply(ctx context.Context, args []string, in *discordgo.Message, out **discordgo.MessageSend) channelsAction {
	g, err := h.loadGuildVerified(in.GuildID)
	if err != nil {
		return h.actionError(err)
	}
	config, err := h.store.Config(ctx)
	if err != nil {
		return h.actionError(err)
	}

	plan := BuildPlan(config, g.channels, g.everyoneID, g.verifiedID, g.roleExists)
	*out = h.apply(ctx, in, g, plan)
	return h.actionFinish
}

// _channels set_public <#channel...>
func (h *Handler) actionSetPublic(ctx context.Context, args []string, in *discordgo.Message, out **discordgo.MessageSend) channelsAction {
	return h.setVisibility(ctx, args, in, out, true)
}

// _channels set_verified_only <#channel...>
func (h *Handler) actionSetVerifiedOnly(ctx context.Context, args []string, in *discordgo.Message, out **discordgo.MessageSend) channelsAction {
	return h.setVisibility(ctx, args, in, out, false)
}

func (h *Handler) setVisibility(ctx context.Context, args []string, in *discordgo.Message, out **discordgo.MessageSend, public bool) channelsAction {
	if len(args) < 2 {
		*out = h.newMsg("bot.arguments.too-few")
		return h.actionFinish
	}

	g, err := h.loadGuildVerified(in.GuildID)
	if err != nil {
		return h.actionError(err)
	}
	channels, err := h.resolveChannels(in.GuildID, args[1:])
	if err != nil {
		return h.actionError(err)
	}
	for _, channel := range channels {
		if err := h.store.SetPublic(ctx, channel.ID, public); err != nil {
			return h.actionError(err)
		}
	}

	config, err := h.store.Config(ctx)
	if err != nil {
		return h.actionError(err)
	}

	plan := Only(BuildPlan(config, g.channels, g.everyoneID, g.verifiedID, g.roleExists), channelIDs(channels)...)
	*out = h.apply(ctx, in, g, plan)
	return h.actionFinish
}

// _channels all_verified_only [excluded channel...]
func (h *Handler) actionAllVerifiedOnly(ctx context.Context, args []string, in *discordgo.Message, out **discordgo.MessageSend) channelsAction {
	g, err := h.loadGuildVerified(in.GuildID)
	if err != nil {
		return h.actionError(err)
	}

	excluded, included := splitExcluded(textChannels(g.channels), args[1:])

	ok, err := h.prompter.Confirm(ctx, h.platform, in.ChannelID, in.Author,
		helpers.GetTextF("plugins.channels.all-verified-confirm", len(included), channelNames(excluded)))
	if err != nil {
		return h.actionError(err)
	}
	if !ok {
		*out = h.newMsg("plugins.channels.cancelled")
		return h.actionFinish
	}

	err = h.store.Update(ctx, func(c *models.PermissionConfig) error {
		c.PublicChannels = channelIDs(excluded)
		for _, channel := range included {
			c.RemoveFromGroup(models.GroupPublic, channel.ID)
		}
		if _, ok := c.ChannelGroups[models.GroupVerifiedOnly]; !ok {
			c.ChannelGroups[models.GroupVerifiedOnly] = []string{}
		}
		c.AddToGroup(models.GroupVerifiedOnly, channelIDs(included)...)
		c.RemoveFromGroup(models.GroupVerifiedOnly, channelIDs(excluded)...)
		return nil
	})
	if err != nil {
		return h.actionError(err)
	}

	config, err := h.store.Config(ctx)
	if err != nil {
		return h.actionError(err)
	}

	plan := BuildPlan(config, g.channels, g.everyoneID, g.verifiedID, g.roleExists)
	*out = h.apply(ctx, in, g, plan)
	return h.actionFinish
}

// splitExcluded matches arguments against channels by mention, id or a
// case-insensitive part of the name.
func splitExcluded(channels []*discordgo.Channel, args []string) (excluded, included []*discordgo.Channel) {
	for _, channel := range channels {
		matched := false
		for _, arg := range args {
			target := helpers.ParseChannelTarget(arg)
			if target.Kind != helpers.ByName {
				matched = target.Value == channel.ID
			} else {
				matched = target.Value != "" && strings.Contains(strings.ToLower(channel.Name), strings.ToLower(target.Value))
			}
			if matched {
				break
			}
		}
		if matched {
			excluded = append(excluded, channel)
		} else {
			included = append(included, channel)
		}
	}
	return excluded, included
}

// _channels preset <crypto|community|minimal>
func (h *Handler) actionPreset(ctx context.Context, args []string, in *discordgo.Message, out **discordgo.MessageSend) channelsAction {
	if len(args) < 2 {
		*out = h.newMsg("plugins.channels.preset-usage", strings.Join(PresetNames(), ", "))
		return h.actionFinish
	}

	preset, ok := GetPreset(args[1])
	if !ok {
		return h.actionError(helpers.Invalid("plugins.channels.preset-unknown", args[1], strings.Join(PresetNames(), ", ")))
	}
	g, err := h.loadGuildVerified(in.GuildID)
	if err != nil {
		return h.actionError(err)
	}

	roles := FindPresetRoles(g.roles, g.everyoneID, g.verifiedID)
	classified := preset.Classify(g.channels, roles.TraderID != "")

	err = h.store.Update(ctx, func(c *models.PermissionConfig) error {
		Record(c, classified)
		return nil
	})
	if err != nil {
		return h.actionError(err)
	}

	result := h.apply(ctx, in, g, roles.Plan(classified))
	_, err = h.platform.SendComplex(in.ChannelID, result)
	helpers.RelaxMessage(err)

	embed := &discordgo.MessageEmbed{
		Title: helpers.GetTextF("plugins.channels.preset-applied", strings.ToLower(args[1])),
		Color: helpers.ColorGreen,
	}
	for _, category := range presetCategories {
		if len(classified[category]) == 0 {
			continue
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  helpers.GetText("plugins.channels.category-" + category),
			Value: channelNames(classified[category]),
		})
	}

	*out = &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{embed}}
	return h.actionFinish
}

// _channels lockdown [all|public|verified|unlock]
func (h *Handler) actionLockdown(ctx context.Context, args []string, in *discordgo.Message, out **discordgo.MessageSend) channelsAction {
	mode := LockAll
	if len(args) > 1 {
		mode = strings.ToLower(args[1])
	}
	if !ValidLockMode(mode) {
		return h.actionError(helpers.Invalid("plugins.channels.lockdown-mode", mode))
	}

	g, err := h.loadGuild(in.GuildID)
	if err != nil {
		return h.actionError(err)
	}

	if mode == LockRelease {
		state, err := h.store.ClearLockdown(ctx)
		if err != nil {
			return h.actionError(err)
		}
		result := ApplyPlan(ctx, h.platform, RestorePlan(state, g.channels), h.pause)
		*out = h.resultMsg(g, result)
		(*out).Content = helpers.GetTextF("plugins.channels.unlocked", len(result.Applied)) + "\n" + (*out).Content
		return h.actionFinish
	}

	config, err := h.store.Config(ctx)
	if err != nil {
		return h.actionError(err)
	}
	targets := LockTargets(mode, config, g.channels)
	if err := h.store.SetLockdown(ctx, Snapshot(mode, targets)); err != nil {
		return h.actionError(err)
	}

	result := ApplyPlan(ctx, h.platform, LockPlan(targets, g.everyoneID, g.verifiedID), h.pause)
	*out = h.resultMsg(g, result)
	(*out).Content = helpers.GetTextF("plugins.channels.locked", len(result.Applied), helpers.GetConfig().Prefix) + "\n" + (*out).Content
	return h.actionFinish
}

// _quicksetup
func (h *Handler) actionQuickSetup(ctx context.Context, args []string, in *discordgo.Message, out **discordgo.MessageSend) channelsAction {
	g, err := h.loadGuildVerified(in.GuildID)
	if err != nil {
		return h.actionError(err)
	}

	var summary QuickSetupSummary
	err = h.store.Update(ctx, func(c *models.PermissionConfig) error {
		summary = QuickSetup(c, g.channels, g.verifiedID)
		return nil
	})
	if err != nil {
		return h.actionError(err)
	}

	embed := &discordgo.MessageEmbed{
		Title:       helpers.GetText("plugins.channels.quicksetup-title"),
		Description: helpers.GetText("plugins.channels.quicksetup-description"),
		Color:       helpers.ColorGreen,
	}
	if len(summary.CreatedGroups) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  helpers.GetText("plugins.channels.quicksetup-created"),
			Value: strings.Join(summary.CreatedGroups, ", "),
		})
	}
	for _, group := range sortedKeys(summary.Assigned) {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  group,
			Value: channelNames(summary.Assigned[group]),
		})
	}
	_, err = h.platform.SendEmbed(in.ChannelID, embed)
	helpers.RelaxMessage(err)

	config, err := h.store.Config(ctx)
	if err != nil {
		return h.actionError(err)
	}
	*out = h.apply(ctx, in, g, BuildPlan(config, g.channels, g.everyoneID, g.verifiedID, g.roleExists))
	return h.actionFinish
}
