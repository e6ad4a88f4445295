package store

import (
	"context"
	"path/filepath"

	"github.com/xgctrenches/xgcbot/helpers"
	"github.com/xgctrenches/xgcbot/models"
)

// RoleMenuStore persists the reaction role menu.
type RoleMenuStore interface {
	Menu(ctx context.Context) (models.RoleMenu, error)
	SetMessage(ctx context.Context, channelID, messageID string) error
	SetOption(ctx context.Context, emoji, role string) error
	RemoveOption(ctx context.Context, emoji string) error
}

type fileRoleMenuStore struct {
	doc *Document[models.RoleMenu]
}

// OpenRoleMenu opens roles_data.json inside dir, seeding it with defaults
func OpenRoleMenu(dir string, defaults []models.RoleMenuOption) (RoleMenuStore, func() error, error) {
	path := ""
	if dir != "" {
		path = filepath.Join(dir, models.RoleMenuFile)
	}

	doc, err := Open(path, Schema[models.RoleMenu]{
		Default: func() models.RoleMenu {
			return models.RoleMenu{Options: append([]models.RoleMenuOption{}, defaults...)}
		},
		Clone: models.RoleMenu.Clone,
	})
	if err != nil {
		return nil, nil, err
	}
	return &fileRoleMenuStore{doc: doc}, doc.Close, nil
}

func (s *fileRoleMenuStore) Menu(ctx context.Context) (models.RoleMenu, error) {
	return s.doc.Snapshot(ctx)
}

func (s *fileRoleMenuStore) SetMessage(ctx context.Context, channelID, messageID string) error {
	return s.doc.Update(ctx, func(m *models.RoleMenu) error {
		m.ChannelID = channelID
		m.MessageID = messageID
		return nil
	})
}

func (s *fileRoleMenuStore) SetOption(ctx context.Context, emoji, role string) error {
	return s.doc.Update(ctx, func(m *models.RoleMenu) error {
		for i := range m.Options {
			if m.Options[i].Emoji == emoji {
				m.Options[i].Role = role
				return nil
			}
		}
		m.Options = append(m.Options, models.RoleMenuOption{Emoji: emoji, Role: role})
		return nil
	})
}

func (s *fileRoleMenuStore) RemoveOption(ctx context.Context, emoji string) error {
	return s.doc.Update(ctx, func(m *models.RoleMenu) error {
		for i := range m.Options {
			if m.Options[i].Emoji == emoji {
				m.Options = append(m.Options[:i:i], m.Options[i+1:]...)
				return nil
			}
		}
		return helpers.NotFound("plugins.rolemenu.option-not-found", emoji)
	})
}
