package plugins

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/xgctrenches/xgcbot/helpers"
	"github.com/xgctrenches/xgcbot/modules/plugins/channels"
	"github.com/xgctrenches/xgcbot/platform"
)

// ServerSetup builds the default server layout and manages categories,
// channels and roles. Every command is for administrators.
type ServerSetup struct {
	verification *Verification
	pause        time.Duration
}

func NewServerSetup(verification *Verification, pause time.Duration) *ServerSetup {
	return &ServerSetup{verification: verification, pause: pause}
}

func (s *ServerSetup) Commands() []string {
	return []string{
		"setup",
		"create_category",
		"create_channel",
		"add_role_to_channels",
		"setup_role",
		"make_role_pingable",
		"make_role_unpingable",
	}
}

func (s *ServerSetup) Init(p platform.Platform) {

}

func (s *ServerSetup) Action(command string, content string, msg *discordgo.Message, p platform.Platform) {
	ctx := context.Background()

	helpers.RequireAdmin(p, msg, func() {
		args := helpers.SplitArgs(content)

		switch command {
		case "setup": // [p]setup <server|permissions|help>
			sub := ""
			if len(args) > 0 {
				sub = strings.ToLower(args[0])
			}
			switch sub {
			case "server":
				s.setupServer(p, msg)
			case "permissions":
				s.setupPermissions(ctx, p, msg)
			case "help":
				s.help(p, msg)
			default:
				s.send(p, msg.ChannelID, "plugins.setup.usage", helpers.GetConfig().Prefix)
			}
		case "create_category": // [p]create_category <name>
			s.createCategory(p, msg, strings.Trim(content, "\"'"))
		case "create_channel": // [p]create_channel "<category>" <name> [public]
			s.createChannel(p, msg, args)
		case "add_role_to_channels": // [p]add_role_to_channels "<role>" ["<category>"] [can_view] [can_send]
			s.addRoleToChannels(ctx, p, msg, args)
		case "setup_role": // [p]setup_role <role> [#hex] [permission...]
			s.setupRole(p, msg, args)
		case "make_role_pingable", "make_role_unpingable": // [p]make_role_pingable <role>
			s.setMentionable(p, msg, content, command == "make_role_pingable")
		}
	})
}

// verifiedRole is the configured verified role, it has to exist
func (s *ServerSetup) verifiedRole(p platform.Platform, guildID string) (*discordgo.Role, error) {
	roleID := helpers.GetConfig().VerifiedRoleID
	roles, err := p.GuildRoles(guildID)
	if err != nil {
		return nil, err
	}
	role := helpers.FindRoleByID(roles, roleID)
	if roleID == "" || role == nil {
		return nil, helpers.NotFound("plugins.setup.no-verified-role")
	}
	return role, nil
}

func roleOverwrite(roleID string, allow, deny int64) *discordgo.PermissionOverwrite {
	return &discordgo.PermissionOverwrite{
		ID:    roleID,
		Type:  discordgo.PermissionOverwriteTypeRole,
		Allow: allow,
		Deny:  deny,
	}
}

// layout is the category and channel structure setup server creates
var layout = []struct {
	category string
	public   bool
	channels []string
}{
	{"• INFORMATION", true, []string{"welcome", "rules", "announcements", "verification"}},
	{"• COMMUNITY", false, []string{"general", "crypto-talk", "trading", "market-analysis"}},
	{"• RESOURCES", false, []string{"useful-links", "tutorials", "tools"}},
	{"• BOT COMMANDS", false, []string{"bot-commands"}},
}

func (s *ServerSetup) setupServer(p platform.Platform, msg *discordgo.Message) {
	verified, err := s.verifiedRole(p, msg.GuildID)
	if err != nil {
		helpers.SendError(p, msg, err)
		return
	}
	everyoneID := helpers.EveryoneRoleID(msg.GuildID)

	s.send(p, msg.ChannelID, "plugins.setup.server-started")

	var verification *discordgo.Channel
	for _, entry := range layout {
		overwrites := []*discordgo.PermissionOverwrite{
			roleOverwrite(verified.ID, channels.WriteAccess, 0),
			roleOverwrite(everyoneID, 0, discordgo.PermissionViewChannel),
		}
		if entry.public {
			overwrites[1] = roleOverwrite(everyoneID, discordgo.PermissionViewChannel, discordgo.PermissionSendMessages)
		}

		category, err := p.CreateChannel(msg.GuildID, discordgo.GuildChannelCreateData{
			Name:                 entry.category,
			Type:                 discordgo.ChannelTypeGuildCategory,
			PermissionOverwrites: overwrites,
		})
		if err != nil {
			helpers.SendError(p, msg, err)
			return
		}

		for _, name := range entry.channels {
			channel, err := p.CreateChannel(msg.GuildID, discordgo.GuildChannelCreateData{
				Name:                 name,
				Type:                 discordgo.ChannelTypeGuildText,
				ParentID:             category.ID,
				PermissionOverwrites: overwrites,
			})
			if err != nil {
				helpers.SendError(p, msg, err)
				return
			}
			if name == "verification" {
				verification = channel
			}
		}
	}

	s.send(p, msg.ChannelID, "plugins.setup.server-done")
	if verification == nil {
		return
	}
	s.send(p, msg.ChannelID, "plugins.setup.verification-channel", verification.ID)

	posted, err := s.verification.post(p, verification.ID)
	if err != nil {
		helpers.SendError(p, msg, err)
		return
	}
	s.send(p, msg.ChannelID, "plugins.setup.verification-message", posted.ID)
}

var publicChannelKeywords = []string{"welcome", "verification", "rules", "announcements"}

// isPublicChannel decides which channels unverified members may read
func isPublicChannel(channel *discordgo.Channel) bool {
	cfg := helpers.GetConfig()
	if channel.ID == cfg.VerificationChannelID || channel.ID == cfg.WelcomeChannelID {
		return true
	}
	name := strings.ToLower(channel.Name)
	for _, keyword := range publicChannelKeywords {
		if strings.Contains(name, keyword) {
			return true
		}
	}
	return false
}

func (s *ServerSetup) setupPermissions(ctx context.Context, p platform.Platform, msg *discordgo.Message) {
	verified, err := s.verifiedRole(p, msg.GuildID)
	if err != nil {
		helpers.SendError(p, msg, err)
		return
	}
	guildChannels, err := p.GuildChannels(msg.GuildID)
	if err != nil {
		helpers.SendError(p, msg, err)
		return
	}

	plan := channels.VisibilityPlan(guildChannels, helpers.EveryoneRoleID(msg.GuildID), verified.ID, isPublicChannel)
	publicCount := 0
	for _, channel := range guildChannels {
		if (channel.Type == discordgo.ChannelTypeGuildText || channel.Type == discordgo.ChannelTypeGuildNews) && isPublicChannel(channel) {
			publicCount++
		}
	}

	status, err := p.SendMessage(msg.ChannelID, helpers.GetText("plugins.setup.permissions-started"))
	helpers.RelaxMessage(err)

	result := channels.ApplyPlan(ctx, p, plan, s.pause)

	text := helpers.GetTextF("plugins.setup.permissions-done", len(result.Applied), publicCount, len(plan)-publicCount)
	for _, failure := range result.Failed {
		text += "\n" + helpers.GetTextF("plugins.setup.channel-failed", failure.ChannelID, helpers.Describe(failure.Err))
	}
	if status != nil {
		_, err = p.EditMessage(status.ChannelID, status.ID, text)
	} else {
		_, err = p.SendMessage(msg.ChannelID, text)
	}
	helpers.RelaxMessage(err)
}

func (s *ServerSetup) help(p platform.Platform, msg *discordgo.Message) {
	prefix := strings.NewReplacer("{p}", helpers.GetConfig().Prefix)

	embed := &discordgo.MessageEmbed{
		Title:       helpers.GetText("plugins.setup.help.title"),
		Description: helpers.GetText("plugins.setup.help.description"),
		Color:       helpers.ColorBlue,
	}
	for _, section := range []string{"basic", "channels", "roles"} {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  helpers.GetText("plugins.setup.help." + section + "-title"),
			Value: prefix.Replace(helpers.GetText("plugins.setup.help." + section)),
		})
	}
	_, err := p.SendEmbed(msg.ChannelID, embed)
	helpers.RelaxMessage(err)
}

func (s *ServerSetup) createCategory(p platform.Platform, msg *discordgo.Message, name string) {
	if name == "" {
		s.send(p, msg.ChannelID, "bot.arguments.too-few")
		return
	}
	verified, err := s.verifiedRole(p, msg.GuildID)
	if err != nil {
		helpers.SendError(p, msg, err)
		return
	}

	_, err = p.CreateChannel(msg.GuildID, discordgo.GuildChannelCreateData{
		Name: name,
		Type: discordgo.ChannelTypeGuildCategory,
		PermissionOverwrites: []*discordgo.PermissionOverwrite{
			roleOverwrite(verified.ID, channels.WriteAccess, 0),
			roleOverwrite(helpers.EveryoneRoleID(msg.GuildID), 0, discordgo.PermissionViewChannel),
		},
	})
	if err != nil {
		helpers.SendError(p, msg, err)
		return
	}
	s.send(p, msg.ChannelID, "plugins.setup.category-created", name)
}

func (s *ServerSetup) createChannel(p platform.Platform, msg *discordgo.Message, args []string) {
	if len(args) < 2 {
		s.send(p, msg.ChannelID, "bot.arguments.too-few")
		return
	}
	public := false
	if len(args) > 2 {
		var ok bool
		public, ok = helpers.ParseBool(args[2])
		if !ok && strings.EqualFold(args[2], "public") {
			public, ok = true, true
		}
		if !ok {
			helpers.SendError(p, msg, helpers.Invalid("bot.arguments.invalid-bool", args[2]))
			return
		}
	}

	category, err := helpers.ResolveCategory(p, msg.GuildID, args[0])
	if err != nil {
		helpers.SendError(p, msg, err)
		return
	}
	verified, err := s.verifiedRole(p, msg.GuildID)
	if err != nil {
		helpers.SendError(p, msg, err)
		return
	}

	everyone := roleOverwrite(helpers.EveryoneRoleID(msg.GuildID), 0, channels.WriteAccess)
	visibility := helpers.GetText("plugins.setup.private")
	if public {
		everyone = roleOverwrite(everyone.ID, channels.WriteAccess, 0)
		visibility = helpers.GetText("plugins.setup.public")
	}

	channel, err := p.CreateChannel(msg.GuildID, discordgo.GuildChannelCreateData{
		Name:     args[1],
		Type:     discordgo.ChannelTypeGuildText,
		ParentID: category.ID,
		PermissionOverwrites: []*discordgo.PermissionOverwrite{
			roleOverwrite(verified.ID, channels.WriteAccess, 0),
			everyone,
		},
	})
	if err != nil {
		helpers.SendError(p, msg, err)
		return
	}
	s.send(p, msg.ChannelID, "plugins.setup.channel-created", channel.ID, category.Name, visibility)
}

func (s *ServerSetup) addRoleToChannels(ctx context.Context, p platform.Platform, msg *discordgo.Message, args []string) {
	if len(args) < 1 {
		s.send(p, msg.ChannelID, "bot.arguments.too-few")
		return
	}
	role, err := helpers.ResolveRole(p, msg.GuildID, args[0])
	if err != nil {
		helpers.SendError(p, msg, err)
		return
	}
	rest := args[1:]

	var category *discordgo.Channel
	if len(rest) > 0 {
		if _, isBool := helpers.ParseBool(rest[0]); !isBool {
			category, err = helpers.ResolveCategory(p, msg.GuildID, rest[0])
			if err != nil {
				helpers.SendError(p, msg, err)
				return
			}
			rest = rest[1:]
		}
	}
	canView, canSend := true, true
	for i, target := range []*bool{&canView, &canSend} {
		if i >= len(rest) {
			break
		}
		value, ok := helpers.ParseBool(rest[i])
		if !ok {
			helpers.SendError(p, msg, helpers.Invalid("bot.arguments.invalid-bool", rest[i]))
			return
		}
		*target = value
	}

	guildChannels, err := p.GuildChannels(msg.GuildID)
	if err != nil {
		helpers.SendError(p, msg, err)
		return
	}
	var targets []*discordgo.Channel
	for _, channel := range guildChannels {
		if category != nil {
			if channel.ParentID == category.ID {
				targets = append(targets, channel)
			}
			continue
		}
		if channel.Type == discordgo.ChannelTypeGuildText || channel.Type == discordgo.ChannelTypeGuildNews {
			targets = append(targets, channel)
		}
	}
	sort.SliceStable(targets, func(i, j int) bool { return targets[i].Position < targets[j].Position })

	status, err := p.SendMessage(msg.ChannelID, helpers.GetTextF("plugins.setup.role-channels-started", role.Name))
	helpers.RelaxMessage(err)

	modified := 0
	var failures []string
	for i, channel := range targets {
		if i > 0 && s.pause > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.pause):
			}
		}

		overwrite := roleOverwrite(role.ID, 0, 0)
		for _, o := range channel.PermissionOverwrites {
			if o.ID == role.ID {
				overwrite.Allow, overwrite.Deny = o.Allow, o.Deny
			}
		}
		setPermissionBit(overwrite, discordgo.PermissionViewChannel, canView)
		setPermissionBit(overwrite, discordgo.PermissionSendMessages, canSend)

		if err := p.SetChannelOverwrite(channel.ID, overwrite); err != nil {
			failures = append(failures, helpers.GetTextF("plugins.setup.channel-failed", channel.ID, helpers.Describe(err)))
			continue
		}
		modified++
	}

	scope := helpers.GetText("plugins.setup.scope-server")
	if category != nil {
		scope = helpers.GetTextF("plugins.setup.scope-category", category.Name)
	}
	text := helpers.GetTextF("plugins.setup.role-channels-done", modified, scope, role.Name, canOrNot(canView), role.Name, canOrNot(canSend))
	if len(failures) > 0 {
		text += "\n" + strings.Join(failures, "\n")
	}
	if status != nil {
		_, err = p.EditMessage(status.ChannelID, status.ID, text)
	} else {
		_, err = p.SendMessage(msg.ChannelID, text)
	}
	helpers.RelaxMessage(err)
}

func setPermissionBit(overwrite *discordgo.PermissionOverwrite, bit int64, allow bool) {
	if allow {
		overwrite.Allow |= bit
		overwrite.Deny &^= bit
		return
	}
	overwrite.Deny |= bit
	overwrite.Allow &^= bit
}

func canOrNot(value bool) string {
	if value {
		return helpers.GetText("plugins.setup.can")
	}
	return helpers.GetText("plugins.setup.cannot")
}

// rolePermissions maps the names setup_role accepts to permission bits
var rolePermissions = map[string]int64{
	"administrator":        discordgo.PermissionAdministrator,
	"manage_guild":         discordgo.PermissionManageServer,
	"manage_roles":         discordgo.PermissionManageRoles,
	"manage_channels":      discordgo.PermissionManageChannels,
	"manage_messages":      discordgo.PermissionManageMessages,
	"kick_members":         discordgo.PermissionKickMembers,
	"ban_members":          discordgo.PermissionBanMembers,
	"mention_everyone":     discordgo.PermissionMentionEveryone,
	"read_messages":        discordgo.PermissionViewChannel,
	"view_channel":         discordgo.PermissionViewChannel,
	"send_messages":        discordgo.PermissionSendMessages,
	"embed_links":          discordgo.PermissionEmbedLinks,
	"attach_files":         discordgo.PermissionAttachFiles,
	"read_message_history": discordgo.PermissionReadMessageHistory,
	"add_reactions":        discordgo.PermissionAddReactions,
	"change_nickname":      discordgo.PermissionChangeNickname,
}

func permissionNames(bits int64) []string {
	var names []string
	for name, bit := range rolePermissions {
		if name != "read_messages" && bits&bit == bit {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func (s *ServerSetup) setupRole(p platform.Platform, msg *discordgo.Message, args []string) {
	if len(args) < 1 {
		s.send(p, msg.ChannelID, "bot.arguments.too-few")
		return
	}

	role, err := helpers.ResolveRole(p, msg.GuildID, args[0])
	if err != nil {
		if helpers.Classify(err) != helpers.KindNotFound {
			helpers.SendError(p, msg, err)
			return
		}
		role, err = p.CreateRole(msg.GuildID, &discordgo.RoleParams{Name: args[0]})
		if err != nil {
			helpers.SendError(p, msg, err)
			return
		}
		s.send(p, msg.ChannelID, "plugins.setup.role-created", role.Name, role.ID)
	}
	rest := args[1:]

	if len(rest) > 0 && helpers.HexColorRegex.MatchString(rest[0]) {
		color := helpers.GetDiscordColorFromHex(rest[0])
		if role, err = p.EditRole(msg.GuildID, role.ID, &discordgo.RoleParams{Color: &color}); err != nil {
			helpers.SendError(p, msg, err)
			return
		}
		s.send(p, msg.ChannelID, "plugins.setup.role-color", role.Name, role.ID)
		rest = rest[1:]
	}

	if len(rest) > 0 {
		var perms int64
		for _, name := range rest {
			bit, ok := rolePermissions[strings.ToLower(name)]
			if !ok {
				s.send(p, msg.ChannelID, "plugins.setup.unknown-permission", name)
				continue
			}
			perms |= bit
		}
		if role, err = p.EditRole(msg.GuildID, role.ID, &discordgo.RoleParams{Permissions: &perms}); err != nil {
			helpers.SendError(p, msg, err)
			return
		}
		s.send(p, msg.ChannelID, "plugins.setup.role-permissions", role.Name, role.ID)
	}

	enabled := strings.Join(permissionNames(role.Permissions), ", ")
	if enabled == "" {
		enabled = helpers.GetText("plugins.setup.none")
	}
	_, err = p.SendEmbed(msg.ChannelID, &discordgo.MessageEmbed{
		Title:       helpers.GetText("plugins.setup.role-done-title"),
		Description: helpers.GetTextF("plugins.setup.role-done-description", role.Name, role.ID),
		Color:       role.Color,
		Fields: []*discordgo.MessageEmbedField{
			{Name: helpers.GetText("plugins.roles.info-color"), Value: fmt.Sprintf("#%06X", role.Color), Inline: true},
			{Name: helpers.GetText("plugins.setup.permissions"), Value: enabled},
		},
	})
	helpers.RelaxMessage(err)
}

func (s *ServerSetup) setMentionable(p platform.Platform, msg *discordgo.Message, content string, mentionable bool) {
	if content == "" {
		s.send(p, msg.ChannelID, "bot.arguments.too-few")
		return
	}
	role, err := helpers.ResolveRole(p, msg.GuildID, strings.Trim(content, "\"'"))
	if err != nil {
		helpers.SendError(p, msg, err)
		return
	}
	if _, err := p.EditRole(msg.GuildID, role.ID, &discordgo.RoleParams{Mentionable: &mentionable}); err != nil {
		helpers.SendError(p, msg, err)
		return
	}

	key := "plugins.setup.role-unpingable"
	if mentionable {
		key = "plugins.setup.role-pingable"
	}
	s.send(p, msg.ChannelID, key, role.Name, role.ID)
}

func (s *ServerSetup) send(p platform.Platform, channelID, key string, args ...interface{}) {
	_, err := p.SendMessage(channelID, helpers.GetTextF(key, args...))
	helpers.RelaxMessage(err)
}
