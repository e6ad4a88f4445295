package plugins

import (
	"github.com/bwmarrin/discordgo"
	"github.com/xgctrenches/xgcbot/helpers"
	"github.com/xgctrenches/xgcbot/platform"
)

// Greeter welcomes joining members in the welcome channel and sends them the
// verification instructions.
type Greeter struct{}

func (g *Greeter) Commands() []string {
	return []string{
		"welcome",
	}
}

func (g *Greeter) Init(p platform.Platform) {

}

func (g *Greeter) Action(command string, content string, msg *discordgo.Message, p platform.Platform) {
	// [p]welcome <user>
	helpers.RequireAdmin(p, msg, func() {
		if content == "" {
			_, err := p.SendMessage(msg.ChannelID, helpers.GetText("bot.arguments.too-few"))
			helpers.RelaxMessage(err)
			return
		}

		member, err := helpers.ResolveMember(p, msg.GuildID, content)
		if err != nil {
			helpers.SendError(p, msg, err)
			return
		}

		channelID := helpers.GetConfig().WelcomeChannelID
		if channelID == "" {
			_, err = p.SendMessage(msg.ChannelID, helpers.GetText("plugins.greeter.no-welcome-channel"))
			helpers.RelaxMessage(err)
			return
		}

		if err := g.welcome(p, member); err != nil {
			helpers.SendError(p, msg, err)
			return
		}
		_, err = p.SendMessage(msg.ChannelID, helpers.GetTextF("plugins.greeter.welcome-sent", displayName(member), channelID))
		helpers.RelaxMessage(err)
	})
}

func (g *Greeter) welcome(p platform.Platform, member *discordgo.Member) error {
	cfg := helpers.GetConfig()
	_, err := p.SendMessage(cfg.WelcomeChannelID, helpers.GetTextF("plugins.greeter.welcome", member.User.Mention(), cfg.VerificationChannelID))
	return err
}

func (g *Greeter) OnGuildMemberAdd(member *discordgo.Member, p platform.Platform) {
	cfg := helpers.GetConfig()

	if cfg.WelcomeChannelID != "" {
		if err := g.welcome(p, member); err != nil {
			logger("greeter").WithField("user", member.User.ID).Warnf("sending welcome failed: %s", err)
		}
	}

	if member.User.Bot {
		return
	}
	// members with closed DMs are expected
	if err := p.SendDirectMessage(member.User.ID, helpers.GetTextF("plugins.greeter.verification-dm", cfg.VerificationChannelID)); err != nil {
		logger("greeter").WithField("user", member.User.ID).Debugf("could not DM member: %s", err)
	}
}

func (g *Greeter) OnGuildMemberRemove(member *discordgo.Member, p platform.Platform) {
	channelID := helpers.GetConfig().WelcomeChannelID
	if channelID == "" {
		return
	}

	_, err := p.SendMessage(channelID, helpers.GetTextF("plugins.greeter.goodbye", displayName(member)))
	if err != nil {
		logger("greeter").WithField("user", member.User.ID).Warnf("sending goodbye failed: %s", err)
	}
}

// displayName prefers the nickname, then the global name
func displayName(member *discordgo.Member) string {
	switch {
	case member.Nick != "":
		return member.Nick
	case member.User.GlobalName != "":
		return member.User.GlobalName
	}
	return member.User.Username
}
