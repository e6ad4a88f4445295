package plugins

import (
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/xgctrenches/xgcbot/helpers"
	"github.com/xgctrenches/xgcbot/platform"
)

type Ping struct{}

func (p *Ping) Commands() []string {
	return []string{
		"ping",
	}
}

func (p *Ping) Init(pl platform.Platform) {

}

// Action answers with the heartbeat latency, then edits in how long the
// REST round trip took.
func (p *Ping) Action(command string, content string, msg *discordgo.Message, pl platform.Platform) {
	text := helpers.GetTextF("plugins.ping.message", pl.Latency().Milliseconds())

	started := time.Now()
	sent, err := pl.SendMessage(msg.ChannelID, text)
	if err != nil {
		helpers.RelaxMessage(err)
		return
	}
	apiTaken := time.Since(started)

	_, err = pl.EditMessage(msg.ChannelID, sent.ID, text+"\n"+helpers.GetTextF("plugins.ping.api", apiTaken.Round(time.Millisecond).String()))
	helpers.RelaxMessage(err)
}
