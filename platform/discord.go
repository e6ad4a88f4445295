package platform

import (
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
)

// Discord implements Platform on top of a discordgo session. Lookups hit the
// gateway state first and fall back to REST.
type Discord struct {
	Session *discordgo.Session
}

func NewDiscord(session *discordgo.Session) *Discord {
	return &Discord{Session: session}
}

func (d *Discord) Guild(guildID string) (*discordgo.Guild, error) {
	if guild, err := d.Session.State.Guild(guildID); err == nil {
		return guild, nil
	}
	return d.Session.Guild(guildID)
}

func (d *Discord) Channel(channelID string) (*discordgo.Channel, error) {
	if channel, err := d.Session.State.Channel(channelID); err == nil {
		return channel, nil
	}
	return d.Session.Channel(channelID)
}

func (d *Discord) GuildChannels(guildID string) ([]*discordgo.Channel, error) {
	if guild, err := d.Session.State.Guild(guildID); err == nil && len(guild.Channels) > 0 {
		return guild.Channels, nil
	}
	return d.Session.GuildChannels(guildID)
}

func (d *Discord) GuildRoles(guildID string) ([]*discordgo.Role, error) {
	if guild, err := d.Session.State.Guild(guildID); err == nil && len(guild.Roles) > 0 {
		return guild.Roles, nil
	}
	return d.Session.GuildRoles(guildID)
}

func (d *Discord) GuildMember(guildID, userID string) (*discordgo.Member, error) {
	if member, err := d.Session.State.Member(guildID, userID); err == nil {
		return member, nil
	}
	return d.Session.GuildMember(guildID, userID)
}

// GuildMembers pages through the member list, 1000 at a time.
func (d *Discord) GuildMembers(guildID string) ([]*discordgo.Member, error) {
	var (
		members []*discordgo.Member
		after   string
	)
	for {
		page, err := d.Session.GuildMembers(guildID, after, 1000)
		if err != nil {
			return nil, errors.Wrap(err, "listing guild members")
		}
		members = append(members, page...)
		if len(page) < 1000 {
			return members, nil
		}
		after = page[len(page)-1].User.ID
	}
}

func (d *Discord) User(userID string) (*discordgo.User, error) {
	return d.Session.User(userID)
}

func (d *Discord) BotUser() *discordgo.User {
	return d.Session.State.User
}

func (d *Discord) Latency() time.Duration {
	return d.Session.HeartbeatLatency()
}

func (d *Discord) SendMessage(channelID, content string) (*discordgo.Message, error) {
	return d.Session.ChannelMessageSend(channelID, content)
}

func (d *Discord) SendEmbed(channelID string, embed *discordgo.MessageEmbed) (*discordgo.Message, error) {
	return d.Session.ChannelMessageSendEmbed(channelID, embed)
}

func (d *Discord) SendComplex(channelID string, data *discordgo.MessageSend) (*discordgo.Message, error) {
	return d.Session.ChannelMessageSendComplex(channelID, data)
}

func (d *Discord) EditMessage(channelID, messageID, content string) (*discordgo.Message, error) {
	return d.Session.ChannelMessageEdit(channelID, messageID, content)
}

func (d *Discord) ChannelMessage(channelID, messageID string) (*discordgo.Message, error) {
	return d.Session.ChannelMessage(channelID, messageID)
}

func (d *Discord) DeleteMessage(channelID, messageID string) error {
	return d.Session.ChannelMessageDelete(channelID, messageID)
}

func (d *Discord) BulkDeleteMessages(channelID string, messageIDs []string) error {
	return d.Session.ChannelMessagesBulkDelete(channelID, messageIDs)
}

func (d *Discord) ChannelMessages(channelID string, limit int, beforeID string) ([]*discordgo.Message, error) {
	return d.Session.ChannelMessages(channelID, limit, beforeID, "", "")
}

func (d *Discord) AddReaction(channelID, messageID, emoji string) error {
	return d.Session.MessageReactionAdd(channelID, messageID, emoji)
}

func (d *Discord) SendDirectMessage(userID, content string) error {
	channel, err := d.Session.UserChannelCreate(userID)
	if err != nil {
		return err
	}
	_, err = d.Session.ChannelMessageSend(channel.ID, content)
	return err
}

func (d *Discord) AddMemberRole(guildID, userID, roleID string) error {
	return d.Session.GuildMemberRoleAdd(guildID, userID, roleID)
}

func (d *Discord) RemoveMemberRole(guildID, userID, roleID string) error {
	return d.Session.GuildMemberRoleRemove(guildID, userID, roleID)
}

func (d *Discord) KickMember(guildID, userID, reason string) error {
	return d.Session.GuildMemberDeleteWithReason(guildID, userID, reason)
}

func (d *Discord) BanMember(guildID, userID, reason string, deleteDays int) error {
	return d.Session.GuildBanCreateWithReason(guildID, userID, reason, deleteDays)
}

func (d *Discord) UnbanMember(guildID, userID string) error {
	return d.Session.GuildBanDelete(guildID, userID)
}

func (d *Discord) GuildBans(guildID string) ([]*discordgo.GuildBan, error) {
	return d.Session.GuildBans(guildID, 1000, "", "")
}

func (d *Discord) CreateChannel(guildID string, data discordgo.GuildChannelCreateData) (*discordgo.Channel, error) {
	return d.Session.GuildChannelCreateComplex(guildID, data)
}

// ReplaceChannelOverwrites sets the complete overwrite list of a channel.
// ChannelEdit drops an empty list from the body, which keeps the old
// overwrites, so the list is always sent.
func (d *Discord) ReplaceChannelOverwrites(channelID string, overwrites []*discordgo.PermissionOverwrite) error {
	if overwrites == nil {
		overwrites = []*discordgo.PermissionOverwrite{}
	}
	data := struct {
		PermissionOverwrites []*discordgo.PermissionOverwrite `json:"permission_overwrites"`
	}{overwrites}

	endpoint := discordgo.EndpointChannel(channelID)
	_, err := d.Session.RequestWithBucketID("PATCH", endpoint, data, endpoint)
	return errors.Wrap(err, "replacing channel overwrites")
}

func (d *Discord) SetChannelOverwrite(channelID string, overwrite *discordgo.PermissionOverwrite) error {
	return d.Session.ChannelPermissionSet(channelID, overwrite.ID, overwrite.Type, overwrite.Allow, overwrite.Deny)
}

func (d *Discord) DeleteChannelOverwrite(channelID, targetID string) error {
	return d.Session.ChannelPermissionDelete(channelID, targetID)
}

func (d *Discord) CreateRole(guildID string, params *discordgo.RoleParams) (*discordgo.Role, error) {
	return d.Session.GuildRoleCreate(guildID, params)
}

func (d *Discord) EditRole(guildID, roleID string, params *discordgo.RoleParams) (*discordgo.Role, error) {
	return d.Session.GuildRoleEdit(guildID, roleID, params)
}
