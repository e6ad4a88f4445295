// Package platform is the narrow surface the plugins use to talk to Discord.
// The production implementation wraps a discordgo session, tests use
// platformtest.Fake.
package platform

import (
	"time"

	"github.com/bwmarrin/discordgo"
)

// Directory resolves guild entities by id.
type Directory interface {
	Guild(guildID string) (*discordgo.Guild, error)
	Channel(channelID string) (*discordgo.Channel, error)
	GuildChannels(guildID string) ([]*discordgo.Channel, error)
	GuildRoles(guildID string) ([]*discordgo.Role, error)
	GuildMember(guildID, userID string) (*discordgo.Member, error)
	GuildMembers(guildID string) ([]*discordgo.Member, error)
	User(userID string) (*discordgo.User, error)
}

// Platform is everything a command or listener may do on the chat platform.
type Platform interface {
	Directory

	BotUser() *discordgo.User
	Latency() time.Duration

	SendMessage(channelID, content string) (*discordgo.Message, error)
	SendEmbed(channelID string, embed *discordgo.MessageEmbed) (*discordgo.Message, error)
	SendComplex(channelID string, data *discordgo.MessageSend) (*discordgo.Message, error)
	EditMessage(channelID, messageID, content string) (*discordgo.Message, error)
	DeleteMessage(channelID, messageID string) error
	BulkDeleteMessages(channelID string, messageIDs []string) error
	ChannelMessage(channelID, messageID string) (*discordgo.Message, error)
	ChannelMessages(channelID string, limit int, beforeID string) ([]*discordgo.Message, error)
	AddReaction(channelID, messageID, emoji string) error
	SendDirectMessage(userID, content string) error

	AddMemberRole(guildID, userID, roleID string) error
	RemoveMemberRole(guildID, userID, roleID string) error
	KickMember(guildID, userID, reason string) error
	BanMember(guildID, userID, reason string, deleteDays int) error
	UnbanMember(guildID, userID string) error
	GuildBans(guildID string) ([]*discordgo.GuildBan, error)

	CreateChannel(guildID string, data discordgo.GuildChannelCreateData) (*discordgo.Channel, error)
	// ReplaceChannelOverwrites sets the complete overwrite list of a channel.
	ReplaceChannelOverwrites(channelID string, overwrites []*discordgo.PermissionOverwrite) error
	SetChannelOverwrite(channelID string, overwrite *discordgo.PermissionOverwrite) error
	DeleteChannelOverwrite(channelID, targetID string) error

	CreateRole(guildID string, params *discordgo.RoleParams) (*discordgo.Role, error)
	EditRole(guildID, roleID string, params *discordgo.RoleParams) (*discordgo.Role, error)
}
