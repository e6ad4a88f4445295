package store

import (
	"context"
	"path/filepath"

	"github.com/xgctrenches/xgcbot/models"
)

// VerificationStore remembers the posted verification message across restarts.
type VerificationStore interface {
	Post(ctx context.Context) (models.VerificationPost, error)
	SetPost(ctx context.Context, channelID, messageID string) error
}

type fileVerificationStore struct {
	doc *Document[models.VerificationPost]
}

func OpenVerification(dir string) (VerificationStore, func() error, error) {
	path := ""
	if dir != "" {
		path = filepath.Join(dir, models.VerificationFile)
	}

	doc, err := Open(path, Schema[models.VerificationPost]{
		Default: func() models.VerificationPost { return models.VerificationPost{} },
		Clone:   func(p models.VerificationPost) models.VerificationPost { return p },
	})
	if err != nil {
		return nil, nil, err
	}
	return &fileVerificationStore{doc: doc}, doc.Close, nil
}

func (s *fileVerificationStore) Post(ctx context.Context) (models.VerificationPost, error) {
	return s.doc.Snapshot(ctx)
}

func (s *fileVerificationStore) SetPost(ctx context.Context, channelID, messageID string) error {
	return s.doc.Update(ctx, func(p *models.VerificationPost) error {
		p.ChannelID = channelID
		p.MessageID = messageID
		return nil
	})
}
