package plugins

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
	"github.com/xgctrenches/xgcbot/emojis"
	"github.com/xgctrenches/xgcbot/helpers"
	"github.com/xgctrenches/xgcbot/models"
	"github.com/xgctrenches/xgcbot/platform"
	"github.com/xgctrenches/xgcbot/store"
)

// RoleMenu is a reaction role message: reacting grants the mapped role,
// removing the reaction takes it away again.
type RoleMenu struct {
	store store.RoleMenuStore
}

func NewRoleMenu(s store.RoleMenuStore) *RoleMenu {
	return &RoleMenu{store: s}
}

func (rm *RoleMenu) Commands() []string {
	return []string{
		"rolemenu",
	}
}

func (rm *RoleMenu) Init(p platform.Platform) {

}

func (rm *RoleMenu) Action(command string, content string, msg *discordgo.Message, p platform.Platform) {
	ctx := context.Background()

	args := strings.Fields(content)
	if len(args) < 1 {
		args = []string{"show"}
	}

	switch args[0] {
	case "show": // [p]rolemenu show
		rm.show(ctx, p, msg)
	case "create": // [p]rolemenu create
		helpers.RequireAdmin(p, msg, func() {
			rm.create(ctx, p, msg)
		})
	case "add": // [p]rolemenu add <emoji> <role>
		helpers.RequireAdmin(p, msg, func() {
			if len(args) < 3 {
				rm.send(p, msg.ChannelID, "bot.arguments.too-few")
				return
			}
			if !helpers.IsEmoji(args[1]) {
				rm.send(p, msg.ChannelID, "plugins.rolemenu.invalid-emoji", args[1])
				return
			}
			rm.add(ctx, p, msg, emojis.Strip(args[1]), strings.Join(args[2:], " "))
		})
	case "remove": // [p]rolemenu remove <emoji>
		helpers.RequireAdmin(p, msg, func() {
			if len(args) < 2 {
				rm.send(p, msg.ChannelID, "bot.arguments.too-few")
				return
			}
			emoji := emojis.Strip(args[1])
			if err := rm.store.RemoveOption(ctx, emoji); err != nil {
				helpers.SendError(p, msg, err)
				return
			}
			rm.send(p, msg.ChannelID, "plugins.rolemenu.removed", displayEmoji(emoji))
		})
	default:
		rm.send(p, msg.ChannelID, "bot.arguments.invalid")
	}
}

func (rm *RoleMenu) menuEmbed(menu models.RoleMenu) *discordgo.MessageEmbed {
	lines := make([]string, 0, len(menu.Options))
	for _, option := range menu.Options {
		lines = append(lines, fmt.Sprintf("%s **%s**", displayEmoji(option.Emoji), option.Role))
	}
	description := helpers.GetText("plugins.rolemenu.embed-description")
	if len(lines) > 0 {
		description += "\n\n" + strings.Join(lines, "\n")
	}

	return &discordgo.MessageEmbed{
		Title:       helpers.GetText("plugins.rolemenu.embed-title"),
		Description: description,
		Color:       helpers.ColorBlue,
	}
}

func (rm *RoleMenu) show(ctx context.Context, p platform.Platform, msg *discordgo.Message) {
	menu, err := rm.store.Menu(ctx)
	if err != nil {
		helpers.SendError(p, msg, err)
		return
	}

	embed := rm.menuEmbed(menu)
	if menu.MessageID != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: helpers.GetTextF("plugins.rolemenu.posted-in", menu.ChannelID, menu.MessageID)}
	}
	_, err = p.SendEmbed(msg.ChannelID, embed)
	helpers.RelaxMessage(err)
}

// create posts the menu in the current channel and moves the listener to it
func (rm *RoleMenu) create(ctx context.Context, p platform.Platform, msg *discordgo.Message) {
	menu, err := rm.store.Menu(ctx)
	if err != nil {
		helpers.SendError(p, msg, err)
		return
	}

	posted, err := p.SendEmbed(msg.ChannelID, rm.menuEmbed(menu))
	if err != nil {
		helpers.SendError(p, msg, err)
		return
	}
	for _, option := range menu.Options {
		if err := p.AddReaction(posted.ChannelID, posted.ID, option.Emoji); err != nil {
			logger("rolemenu").WithField("emoji", option.Emoji).Warnf("adding menu reaction failed: %s", err)
		}
	}

	if err := rm.store.SetMessage(ctx, posted.ChannelID, posted.ID); err != nil {
		helpers.SendError(p, msg, err)
		return
	}
	logger("rolemenu").WithField("message", posted.ID).Info("role menu posted")
}

func (rm *RoleMenu) add(ctx context.Context, p platform.Platform, msg *discordgo.Message, emoji, roleInput string) {
	role, err := helpers.ResolveRole(p, msg.GuildID, roleInput)
	if err != nil {
		helpers.SendError(p, msg, err)
		return
	}
	if err := rm.store.SetOption(ctx, emoji, role.Name); err != nil {
		helpers.SendError(p, msg, err)
		return
	}

	menu, err := rm.store.Menu(ctx)
	if err == nil && menu.MessageID != "" {
		err = p.AddReaction(menu.ChannelID, menu.MessageID, emoji)
		helpers.RelaxMessage(err)
	}
	rm.send(p, msg.ChannelID, "plugins.rolemenu.added", displayEmoji(emoji), role.Name)
}

// option returns the menu option a reaction refers to
func (rm *RoleMenu) option(reaction *discordgo.MessageReaction) (models.RoleMenuOption, bool) {
	menu, err := rm.store.Menu(context.Background())
	if err != nil || menu.MessageID == "" || reaction.MessageID != menu.MessageID {
		return models.RoleMenuOption{}, false
	}
	return menu.Option(emojis.Key(reaction.Emoji))
}

func (rm *RoleMenu) OnReactionAdd(reaction *discordgo.MessageReaction, p platform.Platform) {
	rm.react(reaction, p, true)
}

func (rm *RoleMenu) OnReactionRemove(reaction *discordgo.MessageReaction, p platform.Platform) {
	rm.react(reaction, p, false)
}

func (rm *RoleMenu) react(reaction *discordgo.MessageReaction, p platform.Platform, grant bool) {
	option, ok := rm.option(reaction)
	if !ok {
		return
	}

	log := logger("rolemenu").WithFields(logrus.Fields{
		"user": reaction.UserID,
		"role": option.Role,
	})

	member, err := p.GuildMember(reaction.GuildID, reaction.UserID)
	if err != nil {
		log.Warnf("looking up member failed: %s", err)
		return
	}
	if member.User.Bot {
		return
	}
	role, err := helpers.ResolveRole(p, reaction.GuildID, option.Role)
	if err != nil {
		log.Warnf("menu role missing: %s", helpers.Describe(err))
		return
	}

	if grant {
		err = p.AddMemberRole(reaction.GuildID, reaction.UserID, role.ID)
	} else {
		err = p.RemoveMemberRole(reaction.GuildID, reaction.UserID, role.ID)
	}
	if err != nil {
		log.Errorf("updating menu role failed: %s", helpers.Describe(err))
	}
}

func (rm *RoleMenu) send(p platform.Platform, channelID, key string, args ...interface{}) {
	_, err := p.SendMessage(channelID, helpers.GetTextF(key, args...))
	helpers.RelaxMessage(err)
}

// displayEmoji renders a stored emoji key, custom emoji are name:id
func displayEmoji(key string) string {
	if strings.Contains(key, ":") {
		return "<:" + key + ">"
	}
	return key
}
