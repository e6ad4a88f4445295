package youtube

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xgctrenches/xgcbot/helpers"
	"github.com/xgctrenches/xgcbot/models"
	"github.com/xgctrenches/xgcbot/platform/platformtest"
	"github.com/xgctrenches/xgcbot/store"
)

const (
	channelsResponse = `{"items":[{"id":"UCxgc","snippet":{"title":"XGC Trenches"}}]}`
	searchResponse   = `{"items":[{"id":{"kind":"youtube#video","videoId":"vid9"},
		"snippet":{"channelId":"UCxgc","channelTitle":"XGC Trenches","title":"Ledger deep dive","publishedAt":"2024-05-01T12:00:00Z"}}]}`
)

// fakeAPI serves the three endpoints the handler uses. With badKey set every
// call is refused like an unknown key.
func fakeAPI(t *testing.T, badKey *int32) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if atomic.LoadInt32(badKey) == 1 {
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, `{"error":{"code":400,"message":"API key not valid","errors":[{"reason":"keyInvalid"}]}}`)
			return
		}

		switch r.URL.Path {
		case "/youtube/v3/channels":
			io.WriteString(w, channelsResponse)
		case "/youtube/v3/search":
			io.WriteString(w, searchResponse)
		case "/youtube/v3/videos":
			io.WriteString(w, `{"items":[{"id":"pop"}]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

type handlerFixture struct {
	handler *Handler
	store   store.YoutubeStore
	fake    *platformtest.Fake
	badKey  int32
}

func newFixture(t *testing.T, apiKey string) *handlerFixture {
	t.Helper()

	helpers.SetConfig(&helpers.Config{Prefix: "!", YoutubeAPIKey: apiKey})
	t.Cleanup(func() { helpers.SetConfig(nil) })

	fx := &handlerFixture{}
	server := fakeAPI(t, &fx.badKey)

	s, closer, err := store.OpenYoutube("")
	require.NoError(t, err)
	t.Cleanup(func() { closer() })

	fake := platformtest.New()
	fake.AddGuild("g", "owner")
	fake.AddChannel("g", "cmds", "bot-commands", discordgo.ChannelTypeGuildText, "")
	fake.AddChannel("g", "news", "news", discordgo.ChannelTypeGuildText, "")
	fake.AddMember("g", "owner", "owner", false)
	fake.AddMember("g", "member", "member", false)

	h := New(s, server.URL+"/", 0)
	h.Init(fake)
	t.Cleanup(func() { h.Uninit(fake) })

	fx.handler, fx.store, fx.fake = h, s, fake
	return fx
}

func (fx *handlerFixture) run(author, content string) *discordgo.Message {
	msg := &discordgo.Message{
		ID:        "cmd",
		ChannelID: "cmds",
		GuildID:   "g",
		Content:   "!youtube " + content,
		Author:    &discordgo.User{ID: author, Username: author},
	}
	fx.handler.Action("youtube", content, msg, fx.fake)

	sent := fx.fake.Sent("cmds")
	if len(sent) == 0 {
		return nil
	}
	return sent[len(sent)-1]
}

func TestYoutubeNeedsAdmin(t *testing.T) {
	fx := newFixture(t, "env-key")

	reply := fx.run("member", "list")
	require.NotNil(t, reply)
	assert.Equal(t, helpers.GetText("admin.no_permission"), reply.Content)
}

func TestAddSeedsLatestVideo(t *testing.T) {
	fx := newFixture(t, "env-key")

	reply := fx.run("owner", "add https://www.youtube.com/channel/UCxgc news")
	require.NotNil(t, reply)
	require.Len(t, reply.Embeds, 1)
	assert.Equal(t, "YouTube Channel Added", reply.Embeds[0].Title)

	config, err := fx.store.Config(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.YoutubeChannelEntry{
		Name:             "XGC Trenches",
		LastVideoID:      "vid9",
		DiscordChannelID: "news",
	}, config.Channels["UCxgc"])
}

func TestAddWithoutKey(t *testing.T) {
	fx := newFixture(t, "")

	reply := fx.run("owner", "add UCxgc news")
	require.NotNil(t, reply)
	assert.Contains(t, reply.Content, "API key")

	config, err := fx.store.Config(context.Background())
	require.NoError(t, err)
	assert.Empty(t, config.Channels)
}

func TestRemoveAndList(t *testing.T) {
	fx := newFixture(t, "env-key")
	fx.run("owner", "add UCxgc news")

	reply := fx.run("owner", "list")
	require.Len(t, reply.Embeds, 1)
	require.Len(t, reply.Embeds[0].Fields, 1)
	assert.Contains(t, reply.Embeds[0].Fields[0].Value, "<#news>")

	reply = fx.run("owner", "remove UCxgc")
	assert.Contains(t, reply.Content, "XGC Trenches")

	reply = fx.run("owner", "remove UCxgc")
	assert.Contains(t, reply.Content, "UCxgc")

	reply = fx.run("owner", "list")
	assert.Equal(t, helpers.GetText("plugins.youtube.no-entry"), reply.Content)
}

func TestSetIntervalClamps(t *testing.T) {
	fx := newFixture(t, "env-key")

	fx.run("owner", "setinterval 2")

	config, err := fx.store.Config(context.Background())
	require.NoError(t, err)
	assert.Equal(t, MinInterval, config.CheckInterval)
	assert.True(t, fx.handler.feeds.running())

	reply := fx.run("owner", "setinterval soon")
	assert.Equal(t, helpers.GetText("plugins.youtube.interval-invalid"), reply.Content)
}

func TestSetAPIKey(t *testing.T) {
	fx := newFixture(t, "")

	atomic.StoreInt32(&fx.badKey, 1)
	reply := fx.run("owner", "setapikey broken-key")
	assert.True(t, strings.HasPrefix(reply.Content, "❌"), reply.Content)
	assert.Nil(t, fx.handler.current())

	atomic.StoreInt32(&fx.badKey, 0)
	reply = fx.run("owner", "setapikey fresh-key")
	assert.Equal(t, helpers.GetText("plugins.youtube.key-saved"), reply.Content)
	assert.NotNil(t, fx.handler.current())

	config, err := fx.store.Config(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh-key", config.APIKey)
	assert.NotEmpty(t, fx.fake.DirectMessages("owner"))
}

func TestForceDoesNotTouchTracking(t *testing.T) {
	fx := newFixture(t, "env-key")
	require.NoError(t, fx.store.AddChannel(context.Background(), "UCxgc", models.YoutubeChannelEntry{
		Name:             "XGC Trenches",
		LastVideoID:      "older",
		DiscordChannelID: "news",
	}))

	fx.run("owner", "force UCxgc")

	posted := fx.fake.Sent("news")
	require.Len(t, posted, 1)
	require.Len(t, posted[0].Embeds, 1)
	assert.Contains(t, posted[0].Embeds[0].Title, "Ledger deep dive")

	config, err := fx.store.Config(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "older", config.Channels["UCxgc"].LastVideoID)
}

func TestDebugReportsBrokenKey(t *testing.T) {
	fx := newFixture(t, "env-key")

	reply := fx.run("owner", "debug")
	require.Len(t, reply.Embeds, 1)
	assert.Equal(t, helpers.ColorGreen, reply.Embeds[0].Color)

	atomic.StoreInt32(&fx.badKey, 1)
	reply = fx.run("owner", "debug")
	require.Len(t, reply.Embeds, 1)
	assert.Equal(t, helpers.ColorRed, reply.Embeds[0].Color)
	require.NotEmpty(t, reply.Embeds[0].Fields)
	assert.Contains(t, reply.Embeds[0].Fields[0].Value, "API key not valid")
}

func TestTestShowsPreview(t *testing.T) {
	fx := newFixture(t, "env-key")

	reply := fx.run("owner", "test UCxgc")
	require.NotNil(t, reply)
	assert.Contains(t, reply.Content, "Ledger deep dive")
	require.Len(t, reply.Embeds, 1)
	assert.Empty(t, fx.fake.Sent("news"))
}
