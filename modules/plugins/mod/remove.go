package mod

import (
	"context"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
	"github.com/xgctrenches/xgcbot/helpers"
	"github.com/xgctrenches/xgcbot/models"
)

// remove kicks or bans a member after the author confirmed it
func (h *Handler) remove(ctx context.Context, msg *discordgo.Message, content, action string) {
	args := strings.Fields(content)
	if len(args) < 1 {
		h.send(msg.ChannelID, "bot.arguments.too-few")
		return
	}

	target, err := helpers.ResolveMember(h.platform, msg.GuildID, args[0])
	if err != nil {
		helpers.SendError(h.platform, msg, err)
		return
	}
	reason := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(content), args[0]))

	guild, err := h.platform.Guild(msg.GuildID)
	if err != nil {
		helpers.SendError(h.platform, msg, err)
		return
	}
	if err := h.checkHierarchy(guild, msg.Author.ID, target, action); err != nil {
		helpers.SendError(h.platform, msg, err)
		return
	}

	shownReason := reason
	if shownReason == "" {
		shownReason = helpers.GetText("plugins.mod.no-reason")
	}
	ok, err := h.prompter.Confirm(ctx, h.platform, msg.ChannelID, msg.Author,
		helpers.GetTextF("plugins.mod."+action+"-confirm", target.User.Username, shownReason))
	if err != nil {
		helpers.SendError(h.platform, msg, err)
		return
	}
	if !ok {
		h.send(msg.ChannelID, "plugins.mod.cancelled")
		return
	}

	fullReason := helpers.GetTextF("plugins.mod."+action+"-reason", msg.Author.Username)
	if reason != "" {
		fullReason = helpers.GetTextF("plugins.mod."+action+"-reason-with", msg.Author.Username, reason)
	}

	// best effort, members may have DMs disabled
	if err := h.platform.SendDirectMessage(target.User.ID, helpers.GetTextF("plugins.mod."+action+"-dm", guild.Name, fullReason)); err != nil {
		logger().WithField("user", target.User.ID).Debugf("could not DM member: %s", err)
	}

	if action == models.ModlogActionBan {
		err = h.platform.BanMember(msg.GuildID, target.User.ID, fullReason, 0)
	} else {
		err = h.platform.KickMember(msg.GuildID, target.User.ID, fullReason)
	}
	if err != nil {
		helpers.SendError(h.platform, msg, err)
		return
	}

	logger().WithFields(logrus.Fields{
		"action":    action,
		"target":    target.User.ID,
		"moderator": msg.Author.ID,
		"guild":     msg.GuildID,
	}).Info(fullReason)

	color := helpers.ColorOrange
	if action == models.ModlogActionBan {
		color = helpers.ColorRed
	}
	_, err = h.platform.SendEmbed(msg.ChannelID, &discordgo.MessageEmbed{
		Title:       helpers.GetText("plugins.mod." + action + "-title"),
		Description: helpers.GetTextF("plugins.mod."+action+"-description", target.User.ID),
		Color:       color,
		Fields: []*discordgo.MessageEmbedField{
			{Name: helpers.GetText("plugins.mod.reason"), Value: shownReason},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: helpers.GetTextF("plugins.mod."+action+"-footer", msg.Author.Username)},
	})
	helpers.RelaxMessage(err)

	h.record(ctx, &models.ModerationCase{
		GuildID:     msg.GuildID,
		Action:      action,
		TargetID:    target.User.ID,
		ModeratorID: msg.Author.ID,
		Reason:      reason,
	})
}

// checkHierarchy refuses targets at or above the bot's top role, or at or
// above the author's top role unless the author owns the guild.
func (h *Handler) checkHierarchy(guild *discordgo.Guild, authorID string, target *discordgo.Member, action string) error {
	if target.User.ID == guild.OwnerID || target.User.ID == h.platform.BotUser().ID {
		return helpers.Denied("plugins.mod.bot-hierarchy", action)
	}

	roles, err := h.platform.GuildRoles(guild.ID)
	if err != nil {
		return err
	}
	targetTop := helpers.TopRolePosition(roles, target)

	botTop, err := helpers.BotTopRolePosition(h.platform, guild.ID)
	if err != nil {
		return err
	}
	if targetTop >= botTop {
		return helpers.Denied("plugins.mod.bot-hierarchy", action)
	}

	if authorID == guild.OwnerID {
		return nil
	}
	author, err := h.platform.GuildMember(guild.ID, authorID)
	if err != nil {
		return err
	}
	if targetTop >= helpers.TopRolePosition(roles, author) {
		return helpers.Denied("plugins.mod.author-hierarchy", action)
	}
	return nil
}

// unban lifts a ban by user id, name#discriminator or username
func (h *Handler) unban(ctx context.Context, msg *discordgo.Message, content string) {
	query := strings.TrimSpace(content)
	if query == "" {
		h.send(msg.ChannelID, "bot.arguments.too-few")
		return
	}
	if target := helpers.ParseUserTarget(query); target.Kind != helpers.ByName {
		query = target.Value
	}

	bans, err := h.platform.GuildBans(msg.GuildID)
	if err != nil {
		helpers.SendError(h.platform, msg, err)
		return
	}

	var banned *discordgo.User
	for _, ban := range bans {
		if ban.User == nil {
			continue
		}
		if ban.User.ID == query || ban.User.String() == query || strings.EqualFold(ban.User.Username, query) {
			banned = ban.User
			break
		}
	}
	if banned == nil {
		helpers.SendError(h.platform, msg, helpers.NotFound("plugins.mod.ban-not-found", query))
		return
	}

	if err := h.platform.UnbanMember(msg.GuildID, banned.ID); err != nil {
		helpers.SendError(h.platform, msg, err)
		return
	}

	h.send(msg.ChannelID, "plugins.mod.unbanned", banned.Username, banned.ID)
	h.record(ctx, &models.ModerationCase{
		GuildID:     msg.GuildID,
		Action:      models.ModlogActionUnban,
		TargetID:    banned.ID,
		ModeratorID: msg.Author.ID,
	})
}
