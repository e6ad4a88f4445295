package plugins

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	humanize "github.com/dustin/go-humanize"
	"github.com/xgctrenches/xgcbot/helpers"
	"github.com/xgctrenches/xgcbot/models"
	"github.com/xgctrenches/xgcbot/platform"
)

// Roles lets members pick self-assignable roles and moderators hand out others.
type Roles struct{}

func (r *Roles) Commands() []string {
	return []string{
		"getrole",
		"assign",
		"remove",
		"role",
		"role_info",
	}
}

func (r *Roles) Init(p platform.Platform) {

}

func (r *Roles) Action(command string, content string, msg *discordgo.Message, p platform.Platform) {
	switch command {
	case "getrole": // [p]getrole [name]
		r.getRole(p, msg, content)
	case "assign", "remove": // [p]assign|remove <user> <role>
		helpers.RequireMod(p, msg, func() {
			r.change(p, msg, content, command)
		}, discordgo.PermissionManageRoles)
	case "role": // [p]role <user> <role>
		helpers.RequireMod(p, msg, func() {
			r.change(p, msg, content, "toggle")
		}, discordgo.PermissionManageRoles)
	case "role_info": // [p]role_info <role>
		helpers.RequireMod(p, msg, func() {
			r.info(p, msg, content)
		}, discordgo.PermissionManageRoles)
	}
}

func (r *Roles) available() string {
	keys := make([]string, 0, len(models.SelfAssignableRoles))
	for _, role := range models.SelfAssignableRoles {
		keys = append(keys, "`"+role.Key+"`")
	}
	return strings.Join(keys, ", ")
}

func (r *Roles) getRole(p platform.Platform, msg *discordgo.Message, content string) {
	if content == "" {
		r.send(p, msg.ChannelID, "plugins.roles.available", r.available())
		return
	}

	assignable, ok := models.FindAssignableRole(content)
	if !ok {
		r.send(p, msg.ChannelID, "plugins.roles.not-assignable", content, r.available())
		return
	}

	role, err := helpers.ResolveRole(p, msg.GuildID, assignable.Name)
	if err != nil {
		if helpers.Classify(err) == helpers.KindNotFound {
			err = helpers.NotFound("plugins.roles.role-missing", assignable.Name)
		}
		helpers.SendError(p, msg, err)
		return
	}
	member, err := p.GuildMember(msg.GuildID, msg.Author.ID)
	if err != nil {
		helpers.SendError(p, msg, err)
		return
	}

	added, err := r.apply(p, msg.GuildID, member, role, "toggle")
	if err != nil {
		helpers.SendError(p, msg, err)
		return
	}
	if added {
		r.send(p, msg.ChannelID, "plugins.roles.self-added", role.Name)
	} else {
		r.send(p, msg.ChannelID, "plugins.roles.self-removed", role.Name)
	}
}

// change handles assign, remove and toggle for another member
func (r *Roles) change(p platform.Platform, msg *discordgo.Message, content, mode string) {
	args := helpers.SplitArgs(content)
	if len(args) < 2 {
		r.send(p, msg.ChannelID, "bot.arguments.too-few")
		return
	}

	member, err := helpers.ResolveMember(p, msg.GuildID, args[0])
	if err != nil {
		helpers.SendError(p, msg, err)
		return
	}
	role, err := helpers.ResolveRole(p, msg.GuildID, strings.Join(args[1:], " "))
	if err != nil {
		helpers.SendError(p, msg, err)
		return
	}

	added, err := r.apply(p, msg.GuildID, member, role, mode)
	if err != nil {
		helpers.SendError(p, msg, err)
		return
	}

	key := "plugins.roles.removed"
	if added {
		key = "plugins.roles.assigned"
	}
	r.send(p, msg.ChannelID, key, role.Name, role.ID, member.User.String(), member.User.ID)
}

// apply adds or removes role; toggle picks whichever the member lacks. It
// reports whether the role was added.
func (r *Roles) apply(p platform.Platform, guildID string, member *discordgo.Member, role *discordgo.Role, mode string) (bool, error) {
	manageable, err := helpers.CanBotManageRole(p, guildID, role)
	if err != nil {
		return false, err
	}
	if !manageable {
		return false, helpers.Denied("plugins.roles.above-bot", role.Name)
	}

	add := mode == "assign" || (mode == "toggle" && !helpers.HasRole(member, role.ID))
	if add {
		return true, p.AddMemberRole(guildID, member.User.ID, role.ID)
	}
	return false, p.RemoveMemberRole(guildID, member.User.ID, role.ID)
}

func (r *Roles) info(p platform.Platform, msg *discordgo.Message, content string) {
	if content == "" {
		r.send(p, msg.ChannelID, "bot.arguments.too-few")
		return
	}

	role, err := helpers.ResolveRole(p, msg.GuildID, content)
	if err != nil {
		helpers.SendError(p, msg, err)
		return
	}
	members, err := p.GuildMembers(msg.GuildID)
	if err != nil {
		helpers.SendError(p, msg, err)
		return
	}

	count := 0
	for _, member := range members {
		if role.ID == helpers.EveryoneRoleID(msg.GuildID) || helpers.HasRole(member, role.ID) {
			count++
		}
	}

	created := helpers.GetText("plugins.about.unknown")
	if createdAt, err := discordgo.SnowflakeTimestamp(role.ID); err == nil {
		created = fmt.Sprintf("%s (%s)", createdAt.Format("2006-01-02"), humanize.Time(createdAt))
	}

	_, err = p.SendEmbed(msg.ChannelID, &discordgo.MessageEmbed{
		Title: helpers.GetTextF("plugins.roles.info-title", role.Name),
		Color: role.Color,
		Fields: []*discordgo.MessageEmbedField{
			{Name: helpers.GetText("plugins.roles.info-id"), Value: role.ID, Inline: true},
			{Name: helpers.GetText("plugins.roles.info-color"), Value: fmt.Sprintf("#%06X", role.Color), Inline: true},
			{Name: helpers.GetText("plugins.roles.info-position"), Value: strconv.Itoa(role.Position), Inline: true},
			{Name: helpers.GetText("plugins.roles.info-members"), Value: humanize.Comma(int64(count)), Inline: true},
			{Name: helpers.GetText("plugins.roles.info-mentionable"), Value: yesNo(role.Mentionable), Inline: true},
			{Name: helpers.GetText("plugins.roles.info-hoisted"), Value: yesNo(role.Hoist), Inline: true},
			{Name: helpers.GetText("plugins.roles.info-created"), Value: created},
		},
	})
	helpers.RelaxMessage(err)
}

func (r *Roles) send(p platform.Platform, channelID, key string, args ...interface{}) {
	_, err := p.SendMessage(channelID, helpers.GetTextF(key, args...))
	helpers.RelaxMessage(err)
}

func yesNo(value bool) string {
	if value {
		return helpers.GetText("bot.yes")
	}
	return helpers.GetText("bot.no")
}
