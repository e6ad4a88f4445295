package store

import (
	"context"
	"path/filepath"

	"github.com/xgctrenches/xgcbot/models"
)

// AutoDeleteStore persists per-channel auto-delete settings.
type AutoDeleteStore interface {
	Settings(ctx context.Context) (models.AutoDeleteConfig, error)
	// SetDelay enables auto-delete for a channel, seconds < 1 disables it
	SetDelay(ctx context.Context, channelID string, seconds int) error
	Protect(ctx context.Context, channelID, messageID string) error
}

type fileAutoDeleteStore struct {
	doc *Document[models.AutoDeleteConfig]
}

func OpenAutoDelete(dir string) (AutoDeleteStore, func() error, error) {
	path := ""
	if dir != "" {
		path = filepath.Join(dir, models.AutoDeleteFile)
	}

	doc, err := Open(path, Schema[models.AutoDeleteConfig]{
		Default: models.DefaultAutoDeleteConfig,
		Clone:   models.AutoDeleteConfig.Clone,
		Normalize: func(c *models.AutoDeleteConfig) {
			if c.Channels == nil {
				c.Channels = map[string]models.AutoDeleteChannel{}
			}
		},
	})
	if err != nil {
		return nil, nil, err
	}
	return &fileAutoDeleteStore{doc: doc}, doc.Close, nil
}

func (s *fileAutoDeleteStore) Settings(ctx context.Context) (models.AutoDeleteConfig, error) {
	return s.doc.Snapshot(ctx)
}

func (s *fileAutoDeleteStore) SetDelay(ctx context.Context, channelID string, seconds int) error {
	return s.doc.Update(ctx, func(c *models.AutoDeleteConfig) error {
		if seconds < 1 {
			delete(c.Channels, channelID)
			return nil
		}
		setting := c.Channels[channelID]
		setting.DeleteAfter = seconds
		c.Channels[channelID] = setting
		return nil
	})
}

func (s *fileAutoDeleteStore) Protect(ctx context.Context, channelID, messageID string) error {
	return s.doc.Update(ctx, func(c *models.AutoDeleteConfig) error {
		setting := c.Channels[channelID]
		for _, id := range setting.Protected {
			if id == messageID {
				return nil
			}
		}
		setting.Protected = append(setting.Protected, messageID)
		c.Channels[channelID] = setting
		return nil
	})
}
