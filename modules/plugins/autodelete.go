package plugins

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/xgctrenches/xgcbot/helpers"
	"github.com/xgctrenches/xgcbot/platform"
	"github.com/xgctrenches/xgcbot/store"
)

const (
	// CleanPause is the wait between single message deletions
	CleanPause = 500 * time.Millisecond

	cleanScanLimit = 100
	maxDeleteDelay = 24 * 60 * 60
)

// AutoDelete keeps channels like the verification channel free of chatter:
// member messages vanish after a delay unless protected.
type AutoDelete struct {
	store store.AutoDeleteStore
	pause time.Duration
}

func NewAutoDelete(s store.AutoDeleteStore, pause time.Duration) *AutoDelete {
	return &AutoDelete{store: s, pause: pause}
}

func (a *AutoDelete) Commands() []string {
	return []string{
		"set_auto_delete",
		"protect_message",
		"clean_verify_channel",
	}
}

func (a *AutoDelete) Init(p platform.Platform) {

}

func (a *AutoDelete) Action(command string, content string, msg *discordgo.Message, p platform.Platform) {
	ctx := context.Background()
	args := strings.Fields(content)

	helpers.RequireAdmin(p, msg, func() {
		switch command {
		case "set_auto_delete": // [p]set_auto_delete <#channel> <seconds|off>
			a.setDelay(ctx, p, msg, args)
		case "protect_message": // [p]protect_message <message id> [#channel]
			a.protect(ctx, p, msg, args)
		case "clean_verify_channel": // [p]clean_verify_channel [#channel]
			channelID := helpers.GetConfig().VerificationChannelID
			if len(args) > 0 {
				channel, err := helpers.ResolveChannel(p, msg.GuildID, args[0])
				if err != nil {
					helpers.SendError(p, msg, err)
					return
				}
				channelID = channel.ID
			}
			if channelID == "" {
				a.send(p, msg.ChannelID, "plugins.verification.no-channel")
				return
			}
			a.cleanAndReport(ctx, p, msg, channelID)
		}
	})
}

func (a *AutoDelete) setDelay(ctx context.Context, p platform.Platform, msg *discordgo.Message, args []string) {
	if len(args) < 2 {
		a.send(p, msg.ChannelID, "bot.arguments.too-few")
		return
	}
	channel, err := helpers.ResolveChannel(p, msg.GuildID, args[0])
	if err != nil {
		helpers.SendError(p, msg, err)
		return
	}

	seconds := 0
	if on, ok := helpers.ParseBool(args[1]); !ok || on {
		seconds, ok = helpers.ParseIntInRange(args[1], 1, maxDeleteDelay)
		if !ok {
			helpers.SendError(p, msg, helpers.Invalid("plugins.autodelete.delay-range", maxDeleteDelay))
			return
		}
	}

	if err := a.store.SetDelay(ctx, channel.ID, seconds); err != nil {
		helpers.SendError(p, msg, err)
		return
	}
	if seconds == 0 {
		a.send(p, msg.ChannelID, "plugins.autodelete.disabled", channel.ID)
		return
	}

	a.cleanAndReport(ctx, p, msg, channel.ID)
	a.send(p, msg.ChannelID, "plugins.autodelete.enabled", channel.ID, seconds)
}

func (a *AutoDelete) protect(ctx context.Context, p platform.Platform, msg *discordgo.Message, args []string) {
	if len(args) < 1 {
		a.send(p, msg.ChannelID, "bot.arguments.too-few")
		return
	}
	if !helpers.SnowflakeRegex.MatchString(args[0]) {
		helpers.SendError(p, msg, helpers.Invalid("plugins.autodelete.invalid-message", args[0]))
		return
	}

	channelID := msg.ChannelID
	if len(args) > 1 {
		channel, err := helpers.ResolveChannel(p, msg.GuildID, args[1])
		if err != nil {
			helpers.SendError(p, msg, err)
			return
		}
		channelID = channel.ID
	}

	if err := a.store.Protect(ctx, channelID, args[0]); err != nil {
		helpers.SendError(p, msg, err)
		return
	}
	a.send(p, msg.ChannelID, "plugins.autodelete.protected", args[0])
}

func (a *AutoDelete) cleanAndReport(ctx context.Context, p platform.Platform, msg *discordgo.Message, channelID string) {
	deleted, kept, err := a.Clean(ctx, p, channelID)
	if err != nil {
		helpers.SendError(p, msg, err)
		return
	}
	a.send(p, msg.ChannelID, "plugins.autodelete.cleaned", deleted, kept)
}

// Clean deletes the recent messages of a channel except protected ones and
// the bot's own embeds, which become protected. It stops at the first
// permission error.
func (a *AutoDelete) Clean(ctx context.Context, p platform.Platform, channelID string) (deleted, kept int, err error) {
	settings, err := a.store.Settings(ctx)
	if err != nil {
		return 0, 0, err
	}
	messages, err := p.ChannelMessages(channelID, cleanScanLimit, "")
	if err != nil {
		return 0, 0, err
	}

	botID := p.BotUser().ID
	for _, m := range messages {
		if settings.IsProtected(channelID, m.ID) {
			kept++
			continue
		}
		if m.Author != nil && m.Author.ID == botID && len(m.Embeds) > 0 {
			if err := a.store.Protect(ctx, channelID, m.ID); err != nil {
				return deleted, kept, err
			}
			kept++
			continue
		}

		if deleted > 0 && a.pause > 0 {
			select {
			case <-ctx.Done():
				return deleted, kept, ctx.Err()
			case <-time.After(a.pause):
			}
		}
		if err := p.DeleteMessage(channelID, m.ID); err != nil {
			switch helpers.Classify(err) {
			case helpers.KindNotFound:
				continue
			case helpers.KindPermission:
				return deleted, kept, err
			}
			logger("autodelete").WithField("message", m.ID).Warnf("deleting message failed: %s", err)
			continue
		}
		deleted++
	}
	return deleted, kept, nil
}

func (a *AutoDelete) OnMessage(content string, msg *discordgo.Message, p platform.Platform) {
	if msg.Author == nil || msg.Author.Bot {
		return
	}

	settings, err := a.store.Settings(context.Background())
	if err != nil {
		return
	}
	setting, ok := settings.Channels[msg.ChannelID]
	if !ok || setting.DeleteAfter < 1 {
		return
	}

	channelID, messageID := msg.ChannelID, msg.ID
	time.AfterFunc(time.Duration(setting.DeleteAfter)*time.Second, func() {
		// it may have been protected in the meantime
		current, err := a.store.Settings(context.Background())
		if err == nil && current.IsProtected(channelID, messageID) {
			return
		}
		if err := p.DeleteMessage(channelID, messageID); err != nil && helpers.Classify(err) != helpers.KindNotFound {
			logger("autodelete").WithField("message", messageID).Warnf("auto-delete failed: %s", err)
		}
	})
}

func (a *AutoDelete) send(p platform.Platform, channelID, key string, args ...interface{}) {
	_, err := p.SendMessage(channelID, helpers.GetTextF(key, args...))
	helpers.RelaxMessage(err)
}
