package store

import (
	"context"
	"path/filepath"

	"github.com/xgctrenches/xgcbot/helpers"
	"github.com/xgctrenches/xgcbot/models"
)

// YoutubeStore persists the tracked youtube channels.
type YoutubeStore interface {
	Config(ctx context.Context) (models.YoutubeConfig, error)
	SetAPIKey(ctx context.Context, key string) error
	SetInterval(ctx context.Context, minutes int) error
	AddChannel(ctx context.Context, youtubeChannelID string, entry models.YoutubeChannelEntry) error
	RemoveChannel(ctx context.Context, youtubeChannelID string) (models.YoutubeChannelEntry, error)
	SetLastVideo(ctx context.Context, youtubeChannelID, videoID string) error
}

type fileYoutubeStore struct {
	doc *Document[models.YoutubeConfig]
}

func OpenYoutube(dir string) (YoutubeStore, func() error, error) {
	path := ""
	if dir != "" {
		path = filepath.Join(dir, models.YoutubeFile)
	}

	doc, err := Open(path, Schema[models.YoutubeConfig]{
		Default: models.DefaultYoutubeConfig,
		Clone:   models.YoutubeConfig.Clone,
		Normalize: func(c *models.YoutubeConfig) {
			if c.Channels == nil {
				c.Channels = map[string]models.YoutubeChannelEntry{}
			}
			if c.CheckInterval < 1 {
				c.CheckInterval = models.YoutubeDefaultInterval
			}
		},
	})
	if err != nil {
		return nil, nil, err
	}
	return &fileYoutubeStore{doc: doc}, doc.Close, nil
}

func (s *fileYoutubeStore) Config(ctx context.Context) (models.YoutubeConfig, error) {
	return s.doc.Snapshot(ctx)
}

func (s *fileYoutubeStore) SetAPIKey(ctx context.Context, key string) error {
	return s.doc.Update(ctx, func(c *models.YoutubeConfig) error {
		c.APIKey = key
		return nil
	})
}

func (s *fileYoutubeStore) SetInterval(ctx context.Context, minutes int) error {
	return s.doc.Update(ctx, func(c *models.YoutubeConfig) error {
		if minutes < 1 {
			return helpers.Invalid("plugins.youtube.interval-invalid")
		}
		c.CheckInterval = minutes
		return nil
	})
}

func (s *fileYoutubeStore) AddChannel(ctx context.Context, youtubeChannelID string, entry models.YoutubeChannelEntry) error {
	return s.doc.Update(ctx, func(c *models.YoutubeConfig) error {
		c.Channels[youtubeChannelID] = entry
		return nil
	})
}

func (s *fileYoutubeStore) RemoveChannel(ctx context.Context, youtubeChannelID string) (models.YoutubeChannelEntry, error) {
	var removed models.YoutubeChannelEntry
	err := s.doc.Update(ctx, func(c *models.YoutubeConfig) error {
		entry, ok := c.Channels[youtubeChannelID]
		if !ok {
			return helpers.NotFound("plugins.youtube.not-tracked", youtubeChannelID)
		}
		removed = entry
		delete(c.Channels, youtubeChannelID)
		return nil
	})
	return removed, err
}

func (s *fileYoutubeStore) SetLastVideo(ctx context.Context, youtubeChannelID, videoID string) error {
	return s.doc.Update(ctx, func(c *models.YoutubeConfig) error {
		entry, ok := c.Channels[youtubeChannelID]
		if !ok {
			return helpers.NotFound("plugins.youtube.not-tracked", youtubeChannelID)
		}
		entry.LastVideoID = videoID
		c.Channels[youtubeChannelID] = entry
		return nil
	})
}
