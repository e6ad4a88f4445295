package helpers

import (
	"regexp"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/xgctrenches/xgcbot/platform"
)

// TargetKind tells how an argument referred to a user, role or channel.
type TargetKind int

const (
	ByName TargetKind = iota
	ByID
	ByMention
)

// Target is a parsed "mention or id or name" argument.
type Target struct {
	Kind  TargetKind
	Value string
}

// ParseTarget classifies input against the given mention pattern.
// Mentions and raw ids yield the id, anything else is kept as a name.
func ParseTarget(input string, mention *regexp.Regexp) Target {
	input = strings.TrimSpace(input)

	if m := mention.FindStringSubmatch(input); m != nil {
		return Target{Kind: ByMention, Value: m[1]}
	}
	if SnowflakeRegex.MatchString(input) {
		return Target{Kind: ByID, Value: input}
	}
	return Target{Kind: ByName, Value: input}
}

func ParseUserTarget(input string) Target    { return ParseTarget(input, UserRegexStrict) }
func ParseRoleTarget(input string) Target    { return ParseTarget(input, RoleRegexStrict) }
func ParseChannelTarget(input string) Target { return ParseTarget(strings.TrimPrefix(input, "#"), ChannelRegexStrict) }

// ResolveRole finds a guild role by mention, id, or name. Exact names win
// over case-insensitive matches.
func ResolveRole(dir platform.Directory, guildID, input string) (*discordgo.Role, error) {
	roles, err := dir.GuildRoles(guildID)
	if err != nil {
		return nil, err
	}

	target := ParseRoleTarget(input)
	if target.Kind != ByName {
		for _, role := range roles {
			if role.ID == target.Value {
				return role, nil
			}
		}
		return nil, NotFound("bot.arguments.role-not-found", input)
	}

	var folded *discordgo.Role
	for _, role := range roles {
		if role.Name == target.Value {
			return role, nil
		}
		if folded == nil && strings.EqualFold(role.Name, target.Value) {
			folded = role
		}
	}
	if folded != nil {
		return folded, nil
	}
	return nil, NotFound("bot.arguments.role-not-found", input)
}

// ResolveMember finds a guild member by mention, id, username, global name or
// nickname (case-insensitive).
func ResolveMember(dir platform.Directory, guildID, input string) (*discordgo.Member, error) {
	target := ParseUserTarget(input)
	if target.Kind != ByName {
		member, err := dir.GuildMember(guildID, target.Value)
		if err != nil {
			if Classify(err) == KindNotFound {
				return nil, NotFound("bot.arguments.user-not-found", input)
			}
			return nil, err
		}
		return member, nil
	}

	members, err := dir.GuildMembers(guildID)
	if err != nil {
		return nil, err
	}
	name := strings.TrimPrefix(target.Value, "@")
	for _, member := range members {
		if member.User == nil {
			continue
		}
		if strings.EqualFold(member.User.Username, name) ||
			strings.EqualFold(member.User.GlobalName, name) ||
			(member.Nick != "" && strings.EqualFold(member.Nick, name)) {
			return member, nil
		}
	}
	return nil, NotFound("bot.arguments.user-not-found", input)
}

// ResolveChannel finds a guild channel by mention, id, or name
// (case-insensitive, leading # ignored).
func ResolveChannel(dir platform.Directory, guildID, input string) (*discordgo.Channel, error) {
	target := ParseChannelTarget(input)
	if target.Kind != ByName {
		channel, err := dir.Channel(target.Value)
		if err != nil || channel.GuildID != guildID {
			return nil, NotFound("bot.arguments.channel-not-found", input)
		}
		return channel, nil
	}

	channels, err := dir.GuildChannels(guildID)
	if err != nil {
		return nil, err
	}
	for _, channel := range channels {
		if channel.Type != discordgo.ChannelTypeGuildCategory && strings.EqualFold(channel.Name, target.Value) {
			return channel, nil
		}
	}
	return nil, NotFound("bot.arguments.channel-not-found", input)
}

// ResolveCategory finds a category channel by name (case-insensitive) or id.
func ResolveCategory(dir platform.Directory, guildID, input string) (*discordgo.Channel, error) {
	channels, err := dir.GuildChannels(guildID)
	if err != nil {
		return nil, err
	}
	for _, channel := range channels {
		if channel.Type != discordgo.ChannelTypeGuildCategory {
			continue
		}
		if channel.ID == input || strings.EqualFold(channel.Name, input) {
			return channel, nil
		}
	}
	return nil, NotFound("bot.arguments.category-not-found", input)
}
