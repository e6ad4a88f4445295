package crypto

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Jeffail/gabs"
	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xgctrenches/xgcbot/helpers"
	"github.com/xgctrenches/xgcbot/platform/platformtest"
)

const (
	xgcOffers = `{"result":{"status":"success","offers":[
		{"TakerGets":"2000000","TakerPays":{"currency":"XGC","issuer":"rM4qkDcRyMDks5v1hYakKnLbTeppmgCpM1","value":"4"}},
		{"TakerGets":"1000000","TakerPays":{"currency":"XGC","issuer":"rM4qkDcRyMDks5v1hYakKnLbTeppmgCpM1","value":"1"}}]}}`
	usdOffers = `{"result":{"status":"success","offers":[
		{"TakerGets":{"currency":"USD","issuer":"rvYAfWj5gh67oV6fW32ZzP3Aw4Eubs59B","value":"3"},"TakerPays":"1500000"}]}}`
	noOffers = `{"result":{"status":"success","offers":[]}}`
)

// ledgerServer answers book_offers by the currency the taker pays
func ledgerServer(t *testing.T, books map[string]string, status int) (*httptest.Server, *int32) {
	t.Helper()

	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)

		raw, _ := io.ReadAll(r.Body)
		json, err := gabs.ParseJSON(raw)
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}

		pays, _ := json.S("params").Index(0).Path("taker_pays.currency").Data().(string)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, books[pays])
	}))
	t.Cleanup(server.Close)

	return server, &calls
}

func newHandler(t *testing.T, endpoint string) (*Handler, *platformtest.Fake) {
	t.Helper()

	fake := platformtest.New()
	fake.AddGuild("g", "owner")
	fake.AddChannel("g", "c", "prices", discordgo.ChannelTypeGuildText, "")

	h := New(NewLedger(endpoint, helpers.NewHTTPClient(time.Second)))
	h.Init(fake)
	return h, fake
}

func run(h *Handler, fake *platformtest.Fake, command string) *discordgo.MessageEmbed {
	msg := &discordgo.Message{
		ID:        "cmd",
		ChannelID: "c",
		GuildID:   "g",
		Content:   "!" + command,
		Author:    &discordgo.User{ID: "u", Username: "alice"},
	}
	h.Action(command, "", msg, fake)

	sent := fake.Sent("c")
	if len(sent) == 0 || len(sent[len(sent)-1].Embeds) == 0 {
		return nil
	}
	return sent[len(sent)-1].Embeds[0]
}

func TestParseBestOffer(t *testing.T) {
	quote, err := parseBestOffer([]byte(xgcOffers))
	require.NoError(t, err)
	assert.InDelta(t, 2.0, quote.Gets, 1e-9)
	assert.InDelta(t, 4.0, quote.Pays, 1e-9)
	assert.InDelta(t, 0.5, quote.Price, 1e-9)

	quote, err = parseBestOffer([]byte(usdOffers))
	require.NoError(t, err)
	assert.InDelta(t, 2.0, quote.Price, 1e-9)
}

func TestParseBestOfferUnusable(t *testing.T) {
	for name, body := range map[string]string{
		"empty book":     noOffers,
		"no result":      `{}`,
		"not json":       `<html>`,
		"zero pays":      `{"result":{"offers":[{"TakerGets":"1000000","TakerPays":{"currency":"XGC","value":"0"}}]}}`,
		"zero gets":      `{"result":{"offers":[{"TakerGets":"0","TakerPays":{"currency":"XGC","value":"3"}}]}}`,
		"missing value":  `{"result":{"offers":[{"TakerGets":"1000000","TakerPays":{"currency":"XGC"}}]}}`,
		"garbled drops":  `{"result":{"offers":[{"TakerGets":"lots","TakerPays":{"currency":"XGC","value":"3"}}]}}`,
		"negative value": `{"result":{"offers":[{"TakerGets":"1000000","TakerPays":{"currency":"XGC","value":"-3"}}]}}`,
	} {
		_, err := parseBestOffer([]byte(body))
		assert.Equal(t, ErrNoOffers, err, name)
	}
}

func TestParseBestOfferLedgerError(t *testing.T) {
	_, err := parseBestOffer([]byte(`{"result":{"status":"error","error":"srcCurMalformed"}}`))
	require.Error(t, err)
	assert.Equal(t, helpers.KindUpstream, helpers.Classify(err))
}

func TestBookOffersRequest(t *testing.T) {
	body, err := bookOffersRequest(XGCBook)
	require.NoError(t, err)

	json, err := gabs.ParseJSON(body)
	require.NoError(t, err)
	assert.Equal(t, "book_offers", json.Path("method").Data())

	params := json.S("params").Index(0)
	assert.Equal(t, "XRP", params.Path("taker_gets.currency").Data())
	assert.False(t, params.ExistsP("taker_gets.issuer"))
	assert.Equal(t, "XGC", params.Path("taker_pays.currency").Data())
	assert.Equal(t, XGCIssuer, params.Path("taker_pays.issuer").Data())
	assert.EqualValues(t, bookLimit, params.Path("limit").Data())
}

func TestLedgerUpstreamStatusIsNotRetried(t *testing.T) {
	server, calls := ledgerServer(t, nil, http.StatusServiceUnavailable)
	ledger := NewLedger(server.URL, helpers.NewHTTPClient(time.Second))

	_, err := ledger.BestOffer(context.Background(), XGCBook)
	require.Error(t, err)
	assert.Equal(t, helpers.KindUpstream, helpers.Classify(err))
	assert.EqualValues(t, 1, atomic.LoadInt32(calls))
}

func TestXGCPrice(t *testing.T) {
	server, _ := ledgerServer(t, map[string]string{"XGC": xgcOffers, "XRP": usdOffers}, http.StatusOK)
	h, fake := newHandler(t, server.URL)

	embed := run(h, fake, "xgcprice")
	require.NotNil(t, embed)
	assert.Equal(t, "XGC Price", embed.Title)
	assert.Equal(t, helpers.ColorGreen, embed.Color)
	assert.Equal(t, "**0.500000 XRP**", embed.Fields[0].Value)
	assert.Contains(t, embed.Footer.Text, "alice")
}

func TestXRPPrice(t *testing.T) {
	server, _ := ledgerServer(t, map[string]string{"XGC": xgcOffers, "XRP": usdOffers}, http.StatusOK)
	h, fake := newHandler(t, server.URL)

	embed := run(h, fake, "xrpprice")
	require.NotNil(t, embed)
	assert.Equal(t, "**$2.0000 USD**", embed.Fields[0].Value)
}

func TestXGCUSD(t *testing.T) {
	server, calls := ledgerServer(t, map[string]string{"XGC": xgcOffers, "XRP": usdOffers}, http.StatusOK)
	h, fake := newHandler(t, server.URL)

	embed := run(h, fake, "xgcusd")
	require.NotNil(t, embed)
	assert.Equal(t, "**$1.000000 USD**", embed.Fields[0].Value)
	assert.Equal(t, "**0.500000 XRP**", embed.Fields[1].Value)
	assert.Equal(t, "**$2.0000 USD**", embed.Fields[2].Value)
	assert.EqualValues(t, 2, atomic.LoadInt32(calls))
}

func TestEmptyBookIsNotAvailable(t *testing.T) {
	server, calls := ledgerServer(t, map[string]string{"XGC": noOffers, "XRP": usdOffers}, http.StatusOK)
	h, fake := newHandler(t, server.URL)

	embed := run(h, fake, "xgcusd")
	require.NotNil(t, embed)
	assert.Equal(t, "XGC Price Not Available", embed.Title)
	assert.Equal(t, helpers.ColorRed, embed.Color)
	// the second book is never asked for
	assert.EqualValues(t, 1, atomic.LoadInt32(calls))
}

func TestUpstreamFailureShowsStatus(t *testing.T) {
	server, _ := ledgerServer(t, nil, http.StatusServiceUnavailable)
	h, fake := newHandler(t, server.URL)

	embed := run(h, fake, "xrpprice")
	require.NotNil(t, embed)
	assert.Equal(t, "Error", embed.Title)
	assert.Contains(t, embed.Description, "HTTP 503")
}

func TestDisclaimer(t *testing.T) {
	h, fake := newHandler(t, "http://127.0.0.1:0")

	embed := run(h, fake, "cryptodisclaimer")
	require.NotNil(t, embed)
	assert.Equal(t, "Cryptocurrency Disclaimer", embed.Title)
	assert.Equal(t, helpers.ColorGold, embed.Color)
	require.Len(t, embed.Fields, 4)
	assert.Equal(t, "Not Financial Advice", embed.Fields[0].Name)
	assert.Equal(t, "DYOR", embed.Fields[2].Name)
}

func TestDisclaimerAlias(t *testing.T) {
	h, fake := newHandler(t, "http://127.0.0.1:0")

	embed := run(h, fake, "crypto")
	require.NotNil(t, embed)
	assert.Equal(t, "Cryptocurrency Disclaimer", embed.Title)
}
