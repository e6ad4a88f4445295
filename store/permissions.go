package store

import (
	"context"
	"path/filepath"

	"github.com/xgctrenches/xgcbot/helpers"
	"github.com/xgctrenches/xgcbot/models"
)

// PermissionStore persists channel groups and per-role permission overrides.
type PermissionStore interface {
	Config(ctx context.Context) (models.PermissionConfig, error)
	Update(ctx context.Context, fn func(*models.PermissionConfig) error) error

	CreateGroup(ctx context.Context, name string) error
	DeleteGroup(ctx context.Context, name string) error
	AddToGroup(ctx context.Context, group string, channelIDs ...string) (int, error)
	RemoveFromGroup(ctx context.Context, group string, channelIDs ...string) (int, error)
	SetGroupFlag(ctx context.Context, roleID, group, flag string, value bool) error
	SetChannelFlag(ctx context.Context, roleID, channelID, flag string, value bool) error
	SetPublic(ctx context.Context, channelID string, public bool) error
	ResetRole(ctx context.Context, roleID string) error
	CopyRole(ctx context.Context, fromRoleID, toRoleID string) error

	// SetLockdown refuses to overwrite an active lockdown.
	SetLockdown(ctx context.Context, state models.LockdownState) error
	// ClearLockdown returns the stored snapshot and forgets it.
	ClearLockdown(ctx context.Context) (models.LockdownState, error)
}

type filePermissionStore struct {
	doc *Document[models.PermissionConfig]
}

// OpenPermissions opens channel_permissions.json inside dir. An empty dir
// keeps the document in memory.
func OpenPermissions(dir string) (PermissionStore, func() error, error) {
	path := ""
	if dir != "" {
		path = filepath.Join(dir, models.PermissionsFile)
	}

	doc, err := Open(path, Schema[models.PermissionConfig]{
		Default:   models.DefaultPermissionConfig,
		Clone:     models.PermissionConfig.Clone,
		Normalize: (*models.PermissionConfig).Normalize,
	})
	if err != nil {
		return nil, nil, err
	}
	return &filePermissionStore{doc: doc}, doc.Close, nil
}

func (s *filePermissionStore) Config(ctx context.Context) (models.PermissionConfig, error) {
	return s.doc.Snapshot(ctx)
}

func (s *filePermissionStore) Update(ctx context.Context, fn func(*models.PermissionConfig) error) error {
	return s.doc.Update(ctx, fn)
}

func (s *filePermissionStore) CreateGroup(ctx context.Context, name string) error {
	return s.doc.Update(ctx, func(c *models.PermissionConfig) error {
		if _, ok := c.ChannelGroups[name]; ok {
			return helpers.Invalid("plugins.channels.group-exists", name)
		}
		c.ChannelGroups[name] = []string{}
		return nil
	})
}

func (s *filePermissionStore) DeleteGroup(ctx context.Context, name string) error {
	return s.doc.Update(ctx, func(c *models.PermissionConfig) error {
		if _, ok := c.ChannelGroups[name]; !ok {
			return helpers.NotFound("plugins.channels.group-not-found", name)
		}
		delete(c.ChannelGroups, name)
		for _, rp := range c.RolePermissions {
			delete(rp.Groups, name)
		}
		return nil
	})
}

func (s *filePermissionStore) AddToGroup(ctx context.Context, group string, channelIDs ...string) (int, error) {
	var added int
	err := s.doc.Update(ctx, func(c *models.PermissionConfig) error {
		if _, ok := c.ChannelGroups[group]; !ok {
			return helpers.NotFound("plugins.channels.group-not-found", group)
		}
		added = c.AddToGroup(group, channelIDs...)
		return nil
	})
	return added, err
}

func (s *filePermissionStore) RemoveFromGroup(ctx context.Context, group string, channelIDs ...string) (int, error) {
	var removed int
	err := s.doc.Update(ctx, func(c *models.PermissionConfig) error {
		if _, ok := c.ChannelGroups[group]; !ok {
			return helpers.NotFound("plugins.channels.group-not-found", group)
		}
		removed = c.RemoveFromGroup(group, channelIDs...)
		return nil
	})
	return removed, err
}

func (s *filePermissionStore) SetGroupFlag(ctx context.Context, roleID, group, flag string, value bool) error {
	return s.doc.Update(ctx, func(c *models.PermissionConfig) error {
		if _, ok := c.ChannelGroups[group]; !ok {
			return helpers.NotFound("plugins.channels.group-not-found", group)
		}
		c.Role(roleID).SetGroupFlag(group, flag, value)
		return nil
	})
}

func (s *filePermissionStore) SetChannelFlag(ctx context.Context, roleID, channelID, flag string, value bool) error {
	return s.doc.Update(ctx, func(c *models.PermissionConfig) error {
		c.Role(roleID).SetChannelFlag(channelID, flag, value)
		return nil
	})
}

func (s *filePermissionStore) SetPublic(ctx context.Context, channelID string, public bool) error {
	return s.doc.Update(ctx, func(c *models.PermissionConfig) error {
		c.SetPublic(channelID, public)
		if public {
			c.RemoveFromGroup(models.GroupVerifiedOnly, channelID)
		} else if _, ok := c.ChannelGroups[models.GroupVerifiedOnly]; ok {
			c.AddToGroup(models.GroupVerifiedOnly, channelID)
		}
		return nil
	})
}

func (s *filePermissionStore) ResetRole(ctx context.Context, roleID string) error {
	return s.doc.Update(ctx, func(c *models.PermissionConfig) error {
		delete(c.RolePermissions, roleID)
		return nil
	})
}

func (s *filePermissionStore) CopyRole(ctx context.Context, fromRoleID, toRoleID string) error {
	return s.doc.Update(ctx, func(c *models.PermissionConfig) error {
		rp, ok := c.RolePermissions[fromRoleID]
		if !ok || rp == nil {
			delete(c.RolePermissions, toRoleID)
			return nil
		}
		c.RolePermissions[toRoleID] = rp.Clone()
		return nil
	})
}

func (s *filePermissionStore) SetLockdown(ctx context.Context, state models.LockdownState) error {
	return s.doc.Update(ctx, func(c *models.PermissionConfig) error {
		if c.Lockdown != nil {
			return helpers.Invalid("plugins.channels.lockdown-active", c.Lockdown.Mode)
		}
		if state.Channels == nil {
			state.Channels = map[string][]models.StoredOverwrite{}
		}
		c.Lockdown = &state
		return nil
	})
}

func (s *filePermissionStore) ClearLockdown(ctx context.Context) (models.LockdownState, error) {
	var state models.LockdownState
	err := s.doc.Update(ctx, func(c *models.PermissionConfig) error {
		if c.Lockdown == nil {
			return helpers.NotFound("plugins.channels.lockdown-inactive")
		}
		state = *c.Lockdown
		c.Lockdown = nil
		return nil
	})
	return state, err
}
