package youtube

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xgctrenches/xgcbot/models"
	"github.com/xgctrenches/xgcbot/platform/platformtest"
	"github.com/xgctrenches/xgcbot/store"
	"go.uber.org/goleak"
	youtubeAPI "google.golang.org/api/youtube/v3"
)

type stubSearcher struct {
	sync.Mutex
	videos map[string]string
	errs   map[string]error
	calls  []string
}

func (s *stubSearcher) LatestVideo(ctx context.Context, channelId string) (*youtubeAPI.SearchResult, error) {
	s.Lock()
	defer s.Unlock()

	s.calls = append(s.calls, channelId)
	if err := s.errs[channelId]; err != nil {
		return nil, err
	}
	id, ok := s.videos[channelId]
	if !ok {
		return nil, nil
	}
	return &youtubeAPI.SearchResult{
		Id: &youtubeAPI.ResourceId{Kind: "youtube#video", VideoId: id},
		Snippet: &youtubeAPI.SearchResultSnippet{
			ChannelId:    channelId,
			ChannelTitle: "XGC Trenches",
			Title:        "video " + id,
			PublishedAt:  "2024-05-01T12:00:00Z",
		},
	}, nil
}

func newTestFeeds(t *testing.T, source searcher) (*feeds, store.YoutubeStore, *platformtest.Fake) {
	t.Helper()

	s, closer, err := store.OpenYoutube("")
	require.NoError(t, err)
	t.Cleanup(func() { closer() })

	fake := platformtest.New()
	fake.AddGuild("g", "owner")
	fake.AddChannel("g", "news", "news", discordgo.ChannelTypeGuildText, "")

	f := newFeeds(s, func() searcher { return source }, 0)
	f.platform = fake
	return f, s, fake
}

func track(t *testing.T, s store.YoutubeStore, id, lastVideo string) {
	t.Helper()

	err := s.AddChannel(context.Background(), id, models.YoutubeChannelEntry{
		Name:             id,
		LastVideoID:      lastVideo,
		DiscordChannelID: "news",
	})
	require.NoError(t, err)
}

func lastVideo(t *testing.T, s store.YoutubeStore, id string) string {
	t.Helper()

	config, err := s.Config(context.Background())
	require.NoError(t, err)
	return config.Channels[id].LastVideoID
}

func TestFirstCheckOnlyRecords(t *testing.T) {
	stub := &stubSearcher{videos: map[string]string{"UC1": "v1"}}
	f, s, fake := newTestFeeds(t, stub)
	track(t, s, "UC1", "")

	posted, err := f.check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, posted)
	assert.Equal(t, "v1", lastVideo(t, s, "UC1"))
	assert.Empty(t, fake.Sent("news"))
}

func TestNewVideoIsPosted(t *testing.T) {
	stub := &stubSearcher{videos: map[string]string{"UC1": "v2"}}
	f, s, fake := newTestFeeds(t, stub)
	track(t, s, "UC1", "v1")

	posted, err := f.check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, posted)
	assert.Equal(t, "v2", lastVideo(t, s, "UC1"))

	sent := fake.Sent("news")
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].Content, "🚨 **New Content Alert!** 🚨")
	assert.Contains(t, sent[0].Content, "XGC Trenches")
	require.Len(t, sent[0].Embeds, 1)
	assert.Equal(t, "https://www.youtube.com/watch?v=v2", sent[0].Embeds[0].URL)

	// the same video is not posted twice
	posted, err = f.check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, posted)
	assert.Len(t, fake.Sent("news"), 1)
}

func TestFailingChannelDoesNotStopTheRound(t *testing.T) {
	stub := &stubSearcher{
		videos: map[string]string{"UC2": "new"},
		errs:   map[string]error{"UC1": errors.New("quota")},
	}
	f, s, fake := newTestFeeds(t, stub)
	track(t, s, "UC1", "a")
	track(t, s, "UC2", "b")

	posted, err := f.check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, posted)
	assert.Equal(t, []string{"UC1", "UC2"}, stub.calls)
	assert.Equal(t, "a", lastVideo(t, s, "UC1"))
	assert.Len(t, fake.Sent("news"), 1)
}

func TestCheckWithoutServiceDoesNothing(t *testing.T) {
	s, closer, err := store.OpenYoutube("")
	require.NoError(t, err)
	defer closer()
	track(t, s, "UC1", "a")

	f := newFeeds(s, func() searcher { return nil }, 0)
	posted, err := f.check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, posted)
}

func TestCancelledCheckStops(t *testing.T) {
	stub := &stubSearcher{videos: map[string]string{"UC1": "v2"}}
	f, s, _ := newTestFeeds(t, stub)
	f.pause = time.Hour
	track(t, s, "UC1", "v1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.check(ctx)
	assert.Equal(t, context.Canceled, err)
	assert.Empty(t, stub.calls)
}

func TestScheduleStartStop(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	f := newFeeds(nil, func() searcher { return nil }, 0)
	assert.False(t, f.running())

	require.NoError(t, f.start(10))
	assert.True(t, f.running())
	first := f.entry

	// rescheduling replaces the entry
	require.NoError(t, f.start(5))
	assert.NotEqual(t, first, f.entry)
	assert.Len(t, f.cron.Entries(), 1)

	f.stop()
	assert.False(t, f.running())
	f.stop()
}
