package service

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/xgctrenches/xgcbot/helpers"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/googleapi/transport"
	"google.golang.org/api/option"
	youtubeAPI "google.golang.org/api/youtube/v3"
)

// DefaultTimeout bounds a single API call
const DefaultTimeout = 10 * time.Second

// Service is a YouTube Data API client bound to one API key
type Service struct {
	service *youtubeAPI.Service
	filter  *urlfilter
}

// New builds a client for apiKey. An empty endpoint means the public API.
func New(ctx context.Context, apiKey, endpoint string, timeout time.Duration) (*Service, error) {
	if apiKey == "" {
		return nil, helpers.Invalid("plugins.youtube.api-key-missing")
	}

	client := &http.Client{
		Timeout: timeout,
		Transport: &transport.APIKey{
			Key:       apiKey,
			Transport: http.DefaultTransport,
		},
	}

	opts := []option.ClientOption{option.WithHTTPClient(client)}
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}

	api, err := youtubeAPI.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "creating youtube client")
	}

	return &Service{
		service: api,
		filter:  newUrlFilter(),
	}, nil
}

// LatestVideo returns the newest upload of a channel.
// returns (nil, nil) when the channel has no videos.
func (s *Service) LatestVideo(ctx context.Context, channelId string) (*youtubeAPI.SearchResult, error) {
	call := s.service.Search.List([]string{"snippet"}).
		ChannelId(channelId).
		Order("date").
		MaxResults(1).
		Type("video").
		Context(ctx)

	response, err := call.Do()
	if err != nil {
		return nil, handleGoogleAPIError(err)
	}

	if len(response.Items) < 1 || response.Items[0].Id == nil || response.Items[0].Snippet == nil {
		return nil, nil
	}

	return response.Items[0], nil
}

// Channel looks up a channel by id
func (s *Service) Channel(ctx context.Context, channelId string) (*youtubeAPI.Channel, error) {
	call := s.service.Channels.List([]string{"snippet"}).
		Id(channelId).
		MaxResults(1).
		Context(ctx)

	response, err := call.Do()
	if err != nil {
		return nil, handleGoogleAPIError(err)
	}

	if len(response.Items) < 1 || response.Items[0].Snippet == nil {
		return nil, helpers.NotFound("plugins.youtube.channel-not-found", channelId)
	}

	return response.Items[0], nil
}

// Check makes the cheapest call there is to see if the key works
func (s *Service) Check(ctx context.Context) error {
	call := s.service.Videos.List([]string{"id"}).
		Chart("mostPopular").
		MaxResults(1).
		Context(ctx)

	_, err := call.Do()
	if err != nil {
		return handleGoogleAPIError(err)
	}
	return nil
}

// ChannelID extracts the channel id from a channel url, other input is
// returned as is.
func (s *Service) ChannelID(input string) string {
	id, _ := s.filter.GetId(input)
	return id
}

func handleGoogleAPIError(err error) error {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return helpers.Upstream(0, err)
	}

	// Handle google API error by code
	switch apiErr.Code {
	case http.StatusForbidden:
		for _, item := range apiErr.Errors {
			if item.Reason == "quotaExceeded" || item.Reason == "dailyLimitExceeded" {
				return &helpers.Error{Kind: helpers.KindUpstream, Key: "plugins.youtube.daily-limit-exceeded", Err: err}
			}
		}
		return &helpers.Error{Kind: helpers.KindUpstream, Key: "plugins.youtube.key-rejected", Args: []interface{}{apiErr.Message}, Err: err}
	case http.StatusBadRequest:
		return &helpers.Error{Kind: helpers.KindUpstream, Key: "plugins.youtube.key-rejected", Args: []interface{}{apiErr.Message}, Err: err}
	default:
		return helpers.Upstream(apiErr.Code, err)
	}
}
