package service

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xgctrenches/xgcbot/helpers"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *Service {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	s, err := New(context.Background(), "test-key", server.URL+"/", time.Second)
	require.NoError(t, err)
	return s
}

func TestNewNeedsAPIKey(t *testing.T) {
	_, err := New(context.Background(), "", "", time.Second)
	require.Error(t, err)
	assert.Equal(t, helpers.KindInvalid, helpers.Classify(err))
}

func TestLatestVideo(t *testing.T) {
	s := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/youtube/v3/search", r.URL.Path)
		query := r.URL.Query()
		assert.Equal(t, "test-key", query.Get("key"))
		assert.Equal(t, "UCxgc", query.Get("channelId"))
		assert.Equal(t, "date", query.Get("order"))
		assert.Equal(t, "1", query.Get("maxResults"))
		assert.Equal(t, "video", query.Get("type"))
		assert.Equal(t, "snippet", query.Get("part"))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"items":[{"id":{"kind":"youtube#video","videoId":"vid1"},
			"snippet":{"channelId":"UCxgc","channelTitle":"XGC","title":"Weekly update","publishedAt":"2024-05-01T12:00:00Z"}}]}`)
	})

	video, err := s.LatestVideo(context.Background(), "UCxgc")
	require.NoError(t, err)
	require.NotNil(t, video)
	assert.Equal(t, "vid1", video.Id.VideoId)
	assert.Equal(t, "Weekly update", video.Snippet.Title)
}

func TestLatestVideoEmptyChannel(t *testing.T) {
	s := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"items":[]}`)
	})

	video, err := s.LatestVideo(context.Background(), "UCempty")
	require.NoError(t, err)
	assert.Nil(t, video)
}

func TestChannelNotFound(t *testing.T) {
	s := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/youtube/v3/channels", r.URL.Path)
		io.WriteString(w, `{"items":[]}`)
	})

	_, err := s.Channel(context.Background(), "UCnope")
	require.Error(t, err)
	assert.Equal(t, helpers.KindNotFound, helpers.Classify(err))
}

func TestQuotaExceeded(t *testing.T) {
	s := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		io.WriteString(w, `{"error":{"code":403,"message":"quota","errors":[{"reason":"quotaExceeded","message":"quota"}]}}`)
	})

	err := s.Check(context.Background())
	require.Error(t, err)

	var own *helpers.Error
	require.ErrorAs(t, err, &own)
	assert.Equal(t, "plugins.youtube.daily-limit-exceeded", own.Key)
	assert.Equal(t, helpers.KindUpstream, helpers.Classify(err))
}

func TestServerErrorKeepsStatus(t *testing.T) {
	s := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := s.LatestVideo(context.Background(), "UCxgc")
	require.Error(t, err)

	var own *helpers.Error
	require.ErrorAs(t, err, &own)
	assert.Equal(t, []interface{}{http.StatusBadGateway}, own.Args)
}

func TestChannelID(t *testing.T) {
	s := newTestService(t, func(w http.ResponseWriter, r *http.Request) {})

	assert.Equal(t, "UCxgc", s.ChannelID("https://www.youtube.com/channel/UCxgc"))
	assert.Equal(t, "UCxgc", s.ChannelID("UCxgc"))
}
