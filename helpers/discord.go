package helpers

import (
	"github.com/bwmarrin/discordgo"
	"github.com/xgctrenches/xgcbot/platform"
)

// MemberPermissions sums the guild-level permissions of a member. The owner
// and administrators get every bit.
func MemberPermissions(guild *discordgo.Guild, member *discordgo.Member) int64 {
	if member == nil || member.User == nil {
		return 0
	}
	if member.User.ID == guild.OwnerID {
		return discordgo.PermissionAll
	}

	var perms int64
	for _, role := range guild.Roles {
		if role.ID == guild.ID {
			perms |= role.Permissions
			continue
		}
		for _, userRole := range member.Roles {
			if userRole == role.ID {
				perms |= role.Permissions
			}
		}
	}

	if perms&discordgo.PermissionAdministrator == discordgo.PermissionAdministrator {
		return discordgo.PermissionAll
	}
	return perms
}

// HasPermission reports whether the user holds every bit of perm in the guild
func HasPermission(dir platform.Directory, guildID, userID string, perm int64) bool {
	guild, err := dir.Guild(guildID)
	if err != nil {
		return false
	}
	member, err := dir.GuildMember(guildID, userID)
	if err != nil {
		return false
	}
	return MemberPermissions(guild, member)&perm == perm
}

// HasRole reports whether the member holds roleID
func HasRole(member *discordgo.Member, roleID string) bool {
	if member == nil || roleID == "" {
		return false
	}
	for _, id := range member.Roles {
		if id == roleID {
			return true
		}
	}
	return false
}

func IsAdmin(dir platform.Directory, msg *discordgo.Message) bool {
	return HasPermission(dir, msg.GuildID, msg.Author.ID, discordgo.PermissionAdministrator)
}

// IsMod accepts the configured mod role or any of the given permissions
func IsMod(dir platform.Directory, msg *discordgo.Message, perms ...int64) bool {
	for _, perm := range perms {
		if HasPermission(dir, msg.GuildID, msg.Author.ID, perm) {
			return true
		}
	}
	if IsAdmin(dir, msg) {
		return true
	}
	member, err := dir.GuildMember(msg.GuildID, msg.Author.ID)
	if err != nil {
		return false
	}
	return HasRole(member, GetConfig().ModRoleID)
}

// RequireAdmin only calls $cb if the author is an administrator
func RequireAdmin(p platform.Platform, msg *discordgo.Message, cb Callback) {
	if !IsAdmin(p, msg) {
		p.SendMessage(msg.ChannelID, GetText("admin.no_permission"))
		return
	}

	cb()
}

// RequireMod only calls $cb if the author passes IsMod
func RequireMod(p platform.Platform, msg *discordgo.Message, cb Callback, perms ...int64) {
	if !IsMod(p, msg, perms...) {
		p.SendMessage(msg.ChannelID, GetText("mod.no_permission"))
		return
	}

	cb()
}

// TopRolePosition returns the highest role position a member holds. Members
// without roles sit at 0 with @everyone.
func TopRolePosition(roles []*discordgo.Role, member *discordgo.Member) int {
	top := 0
	for _, role := range roles {
		if role.Position > top && HasRole(member, role.ID) {
			top = role.Position
		}
	}
	return top
}

// BotTopRolePosition is TopRolePosition for the bot user
func BotTopRolePosition(p platform.Platform, guildID string) (int, error) {
	roles, err := p.GuildRoles(guildID)
	if err != nil {
		return 0, err
	}
	member, err := p.GuildMember(guildID, p.BotUser().ID)
	if err != nil {
		return 0, err
	}
	return TopRolePosition(roles, member), nil
}

// CanBotManageRole reports whether the role sits below the bot's top role
func CanBotManageRole(p platform.Platform, guildID string, role *discordgo.Role) (bool, error) {
	top, err := BotTopRolePosition(p, guildID)
	if err != nil {
		return false, err
	}
	return role.Position < top, nil
}

// EveryoneRoleID is the id of the implicit @everyone role
func EveryoneRoleID(guildID string) string {
	return guildID
}

// FindRoleByID returns the role with the given id
func FindRoleByID(roles []*discordgo.Role, roleID string) *discordgo.Role {
	for _, role := range roles {
		if role.ID == roleID {
			return role
		}
	}
	return nil
}
