// Package crypto answers price questions from the XRP Ledger DEX order books.
package crypto

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/xgctrenches/xgcbot/cache"
	"github.com/xgctrenches/xgcbot/helpers"
	"github.com/xgctrenches/xgcbot/platform"
)

// LookupTimeout bounds one price command, all ledger requests included
const LookupTimeout = 15 * time.Second

type cryptoAction func(args []string, in *discordgo.Message, out **discordgo.MessageSend) (next cryptoAction)

type Handler struct {
	ledger   Quoter
	platform platform.Platform
}

func logger() *logrus.Entry {
	return cache.GetLogger().WithField("module", "crypto")
}

// New returns the handler, a nil ledger is replaced by the configured node on
// Init.
func New(ledger Quoter) *Handler {
	return &Handler{ledger: ledger}
}

func (h *Handler) Commands() []string {
	return []string{
		"xgcprice",
		"xrpprice",
		"xgcusd",
		"cryptodisclaimer",
		"crypto",
	}
}

func (h *Handler) Init(p platform.Platform) {
	h.platform = p

	if h.ledger == nil {
		h.ledger = NewLedger(helpers.GetConfig().XRPLEndpoint, helpers.NewHTTPClient(LookupTimeout))
	}
}

func (h *Handler) Action(command string, content string, msg *discordgo.Message, p platform.Platform) {
	var result *discordgo.MessageSend
	args := helpers.SplitArgs(content)

	var action cryptoAction
	switch command {
	case "xgcprice": // [p]xgcprice
		action = h.actionXGCPrice
	case "xrpprice": // [p]xrpprice
		action = h.actionXRPPrice
	case "xgcusd": // [p]xgcusd
		action = h.actionXGCUSD
	case "cryptodisclaimer", "crypto": // [p]cryptodisclaimer
		action = h.actionDisclaimer
	default:
		return
	}

	for action != nil {
		action = action(args, msg, &result)
	}
}

func (h *Handler) actionXGCPrice(args []string, in *discordgo.Message, out **discordgo.MessageSend) cryptoAction {
	ctx, cancel := context.WithTimeout(context.Background(), LookupTimeout)
	defer cancel()

	quote, err := h.ledger.BestOffer(ctx, XGCBook)
	if err != nil {
		return h.actionFailed(err, "plugins.crypto.xgc-unavailable", out)
	}

	embed := h.newEmbed(in, "plugins.crypto.xgc-title", helpers.ColorGreen)
	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "XGC/XRP", Value: helpers.GetTextF("plugins.crypto.xgc-value", quote.Price)},
		{Name: helpers.GetText("plugins.crypto.trade-details"), Value: helpers.GetTextF("plugins.crypto.xgc-trade", quote.Gets, quote.Pays), Inline: true},
		{Name: helpers.GetText("plugins.crypto.source"), Value: helpers.GetText("plugins.crypto.source-dex"), Inline: true},
	}
	*out = &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{embed}}
	return h.actionFinish
}

func (h *Handler) actionXRPPrice(args []string, in *discordgo.Message, out **discordgo.MessageSend) cryptoAction {
	ctx, cancel := context.WithTimeout(context.Background(), LookupTimeout)
	defer cancel()

	quote, err := h.ledger.BestOffer(ctx, USDBook)
	if err != nil {
		return h.actionFailed(err, "plugins.crypto.xrp-unavailable", out)
	}

	embed := h.newEmbed(in, "plugins.crypto.xrp-title", helpers.ColorGreen)
	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "XRP/USD", Value: helpers.GetTextF("plugins.crypto.xrp-value", quote.Price)},
		{Name: helpers.GetText("plugins.crypto.trade-details"), Value: helpers.GetTextF("plugins.crypto.xrp-trade", quote.Gets, quote.Pays), Inline: true},
		{Name: helpers.GetText("plugins.crypto.source"), Value: helpers.GetText("plugins.crypto.source-bitstamp"), Inline: true},
	}
	*out = &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{embed}}
	return h.actionFinish
}

// XGC has no USD book of its own, the price goes through XRP
func (h *Handler) actionXGCUSD(args []string, in *discordgo.Message, out **discordgo.MessageSend) cryptoAction {
	ctx, cancel := context.WithTimeout(context.Background(), LookupTimeout)
	defer cancel()

	xgc, err := h.ledger.BestOffer(ctx, XGCBook)
	if err != nil {
		return h.actionFailed(err, "plugins.crypto.xgc-unavailable", out)
	}
	xrp, err := h.ledger.BestOffer(ctx, USDBook)
	if err != nil {
		return h.actionFailed(err, "plugins.crypto.xrp-unavailable", out)
	}

	embed := h.newEmbed(in, "plugins.crypto.xgcusd-title", helpers.ColorGreen)
	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "XGC/USD", Value: helpers.GetTextF("plugins.crypto.xgcusd-value", xgc.Price*xrp.Price)},
		{Name: "XGC/XRP", Value: helpers.GetTextF("plugins.crypto.xgc-value", xgc.Price), Inline: true},
		{Name: "XRP/USD", Value: helpers.GetTextF("plugins.crypto.xrp-value", xrp.Price), Inline: true},
		{Name: helpers.GetText("plugins.crypto.source"), Value: helpers.GetText("plugins.crypto.source-combined")},
	}
	*out = &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{embed}}
	return h.actionFinish
}

func (h *Handler) actionDisclaimer(args []string, in *discordgo.Message, out **discordgo.MessageSend) cryptoAction {
	embed := h.newEmbed(in, "plugins.crypto.disclaimer.title", helpers.ColorGold)
	embed.Description = helpers.GetText("plugins.crypto.disclaimer.description")
	for _, section := range []string{"advice", "risk", "dyor", "pump"} {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  helpers.GetText("plugins.crypto.disclaimer." + section + ".__"),
			Value: helpers.GetText("plugins.crypto.disclaimer." + section + ".text"),
		})
	}
	*out = &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{embed}}
	return h.actionFinish
}

// actionFailed turns a lookup error into the reply. An empty book is a normal
// answer, upstream failures get an error embed, anything else goes to the
// generic error path.
func (h *Handler) actionFailed(err error, unavailableKey string, out **discordgo.MessageSend) cryptoAction {
	if errors.Cause(err) == ErrNoOffers {
		embed := &discordgo.MessageEmbed{
			Title:       helpers.GetText(unavailableKey),
			Description: helpers.GetText(unavailableKey + ".description"),
			Color:       helpers.ColorRed,
			Timestamp:   time.Now().Format(time.RFC3339),
		}
		*out = &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{embed}}
		return h.actionFinish
	}

	if helpers.Classify(err) == helpers.KindUpstream {
		logger().WithError(err).Warn("price lookup failed")
		embed := &discordgo.MessageEmbed{
			Title:       helpers.GetText("plugins.crypto.error-title"),
			Description: helpers.GetTextF("plugins.crypto.fetch-failed", helpers.Describe(err)),
			Color:       helpers.ColorRed,
			Timestamp:   time.Now().Format(time.RFC3339),
		}
		*out = &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{embed}}
		return h.actionFinish
	}

	*out = nil
	return func(args []string, in *discordgo.Message, out **discordgo.MessageSend) cryptoAction {
		helpers.SendError(h.platform, in, err)
		return nil
	}
}

func (h *Handler) actionFinish(args []string, in *discordgo.Message, out **discordgo.MessageSend) cryptoAction {
	_, err := h.platform.SendComplex(in.ChannelID, *out)
	helpers.RelaxMessage(err)

	return nil
}

func (h *Handler) newEmbed(in *discordgo.Message, titleKey string, color int) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       helpers.GetText(titleKey),
		Description: helpers.GetText("plugins.crypto.live-description"),
		Color:       color,
		Timestamp:   time.Now().Format(time.RFC3339),
	}
	if in.Author != nil {
		embed.Footer = &discordgo.MessageEmbedFooter{
			Text: helpers.GetTextF("plugins.crypto.requested-by", in.Author.Username),
		}
	}
	return embed
}
