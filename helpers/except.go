// Except.go: Contains functions to make handling panics less PITA

package helpers

import (
	"fmt"
	"runtime"

	"github.com/bwmarrin/discordgo"
	"github.com/getsentry/raven-go"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/xgctrenches/xgcbot/cache"
	"github.com/xgctrenches/xgcbot/platform"
)

// DEBUG_MODE adds stack traces to error replies
var DEBUG_MODE = false

// RecoverDiscord recover()s and reports the failure into the channel of msg
func RecoverDiscord(p platform.Platform, msg *discordgo.Message) {
	err := recover()
	if err != nil {
		ReportPanic(p, msg, err)
	}
}

// Recover recover()s and logs the error
func Recover() {
	err := recover()
	if err != nil {
		ref := capture(toError(err), nil)
		cache.GetLogger().WithFields(logrus.Fields{
			"module":    "helpers",
			"reference": ref,
		}).Errorf("recovered from panic: %v", err)
	}
}

// Relax is a helper to reduce if-checks if panicking is allowed
// If $err is nil this is a no-op. Panics otherwise.
func Relax(err error) {
	if err != nil {
		if DEBUG_MODE {
			fmt.Printf("%#v\n", err)
		}
		panic(err)
	}
}

// RelaxMessage does nothing if $err is nil or if there are no permissions to send a message, else sends it to Relax()
func RelaxMessage(err error) {
	if err != nil && !IsPermissionError(err) {
		Relax(err)
	}
}

// SendError replies with a formatted error. Expected failures carry their
// own text, everything else gets a generic message.
func SendError(p platform.Platform, msg *discordgo.Message, err error) {
	if err == nil || msg == nil {
		return
	}

	var text string
	if Classify(err) == KindUnknown {
		ref := capture(err, msg)
		cache.GetLogger().WithFields(logrus.Fields{
			"module":    "helpers",
			"reference": ref,
			"channel":   msg.ChannelID,
		}).Error(err)
		text = GetTextF("bot.errors.unexpected", ref)
	} else {
		cache.GetLogger().WithFields(logrus.Fields{
			"module":  "helpers",
			"kind":    Classify(err).String(),
			"channel": msg.ChannelID,
		}).Debug(err)
		text = Describe(err)
	}

	_, sendErr := p.SendMessage(msg.ChannelID, text)
	if sendErr != nil {
		cache.GetLogger().WithField("module", "helpers").Warnf("failed to report error: %s", sendErr)
	}
}

// ReportPanic handles a recovered value at the command boundary.
func ReportPanic(p platform.Platform, msg *discordgo.Message, recovered interface{}) {
	err := toError(recovered)
	ref := capture(err, msg)

	entry := cache.GetLogger().WithFields(logrus.Fields{
		"module":    "helpers",
		"reference": ref,
	})
	if msg != nil {
		entry = entry.WithField("content", msg.Content)
	}
	entry.Errorf("command panicked: %v", err)

	if msg == nil || p == nil {
		return
	}

	text := GetTextF("bot.errors.unexpected", ref)
	if DEBUG_MODE {
		buf := make([]byte, 1<<16)
		stackSize := runtime.Stack(buf, false)
		text += "\n```\n" + fmt.Sprintf("%#v\n", err) + string(buf[0:stackSize]) + "\n```"
	}
	p.SendMessage(msg.ChannelID, text)
}

func toError(recovered interface{}) error {
	if err, ok := recovered.(error); ok {
		return err
	}
	return errors.Errorf("%v", recovered)
}

// capture sends the error to sentry and returns the reference shown to the user
func capture(err error, msg *discordgo.Message) string {
	ref := uuid.New().String()

	tags := map[string]string{"reference": ref}
	if msg != nil {
		tags["ChannelID"] = msg.ChannelID
		tags["GuildID"] = msg.GuildID
		tags["Content"] = msg.Content
		if msg.Author != nil {
			raven.SetUserContext(&raven.User{
				ID:       msg.Author.ID,
				Username: msg.Author.Username,
			})
		}
	}
	raven.CaptureError(err, tags)

	return ref
}
