package models

import "sort"

const (
	PermissionsFile = "channel_permissions.json"

	GroupPublic        = "public"
	GroupVerifiedOnly  = "verified_only"
	GroupModeratorOnly = "moderator_only"
)

// FlagSet maps a permission flag name to allow (true) or deny (false)
type FlagSet map[string]bool

// RolePermissions are the stored overrides of one role
type RolePermissions struct {
	Groups   map[string]FlagSet `json:"groups"`
	Channels map[string]FlagSet `json:"channels"`
}

// StoredOverwrite is a channel overwrite as saved for lockdown restores
type StoredOverwrite struct {
	ID    string `json:"id"`
	Type  int    `json:"type"`
	Allow int64  `json:"allow"`
	Deny  int64  `json:"deny"`
}

// LockdownState remembers what a lockdown replaced
type LockdownState struct {
	Mode     string                       `json:"mode"`
	Channels map[string][]StoredOverwrite `json:"channels"`
}

// PermissionConfig is the channel_permissions.json document
type PermissionConfig struct {
	PublicChannels  []string                    `json:"public_channels"`
	ChannelGroups   map[string][]string         `json:"channel_groups"`
	RolePermissions map[string]*RolePermissions `json:"role_permissions"`
	Lockdown        *LockdownState              `json:"lockdown,omitempty"`
}

// DefaultPermissionConfig is used when no file exists yet
func DefaultPermissionConfig() PermissionConfig {
	return PermissionConfig{
		PublicChannels: []string{},
		ChannelGroups: map[string][]string{
			GroupPublic:        {},
			GroupVerifiedOnly:  {},
			GroupModeratorOnly: {},
		},
		RolePermissions: map[string]*RolePermissions{},
	}
}

// Normalize fills nil maps left by hand-edited files
func (c *PermissionConfig) Normalize() {
	if c.PublicChannels == nil {
		c.PublicChannels = []string{}
	}
	if c.ChannelGroups == nil {
		c.ChannelGroups = map[string][]string{}
	}
	for name, channels := range c.ChannelGroups {
		c.ChannelGroups[name] = uniqueStrings(channels)
	}
	if c.RolePermissions == nil {
		c.RolePermissions = map[string]*RolePermissions{}
	}
	for _, rp := range c.RolePermissions {
		rp.normalize()
	}
}

// Role returns the overrides of roleID, creating the entry
func (c *PermissionConfig) Role(roleID string) *RolePermissions {
	rp, ok := c.RolePermissions[roleID]
	if !ok || rp == nil {
		rp = &RolePermissions{}
		c.RolePermissions[roleID] = rp
	}
	rp.normalize()
	return rp
}

// GroupNames returns the group names sorted
func (c *PermissionConfig) GroupNames() []string {
	names := make([]string, 0, len(c.ChannelGroups))
	for name := range c.ChannelGroups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GroupsOf returns the sorted names of every group containing channelID
func (c *PermissionConfig) GroupsOf(channelID string) []string {
	var groups []string
	for _, name := range c.GroupNames() {
		if containsString(c.ChannelGroups[name], channelID) {
			groups = append(groups, name)
		}
	}
	return groups
}

// IsPublic reports whether the channel is listed public or sits in the public group
func (c *PermissionConfig) IsPublic(channelID string) bool {
	return containsString(c.PublicChannels, channelID) || containsString(c.ChannelGroups[GroupPublic], channelID)
}

// AddToGroup adds channels with set semantics and returns how many were new
func (c *PermissionConfig) AddToGroup(group string, channelIDs ...string) int {
	added := 0
	members := c.ChannelGroups[group]
	for _, id := range channelIDs {
		if !containsString(members, id) {
			members = append(members, id)
			added++
		}
	}
	c.ChannelGroups[group] = members
	return added
}

// RemoveFromGroup removes channels and returns how many were present
func (c *PermissionConfig) RemoveFromGroup(group string, channelIDs ...string) int {
	removed := 0
	for _, id := range channelIDs {
		var ok bool
		c.ChannelGroups[group], ok = removeString(c.ChannelGroups[group], id)
		if ok {
			removed++
		}
	}
	return removed
}

// SetPublic marks or unmarks a channel as public
func (c *PermissionConfig) SetPublic(channelID string, public bool) {
	if public {
		if !containsString(c.PublicChannels, channelID) {
			c.PublicChannels = append(c.PublicChannels, channelID)
		}
		return
	}
	c.PublicChannels, _ = removeString(c.PublicChannels, channelID)
	c.ChannelGroups[GroupPublic], _ = removeString(c.ChannelGroups[GroupPublic], channelID)
}

func (rp *RolePermissions) normalize() {
	if rp.Groups == nil {
		rp.Groups = map[string]FlagSet{}
	}
	if rp.Channels == nil {
		rp.Channels = map[string]FlagSet{}
	}
}

// SetGroupFlag stores a flag for a group
func (rp *RolePermissions) SetGroupFlag(group, flag string, value bool) {
	rp.normalize()
	if rp.Groups[group] == nil {
		rp.Groups[group] = FlagSet{}
	}
	rp.Groups[group][flag] = value
}

// SetChannelFlag stores a flag for a channel
func (rp *RolePermissions) SetChannelFlag(channelID, flag string, value bool) {
	rp.normalize()
	if rp.Channels[channelID] == nil {
		rp.Channels[channelID] = FlagSet{}
	}
	rp.Channels[channelID][flag] = value
}

// Clone deep-copies the role overrides
func (rp *RolePermissions) Clone() *RolePermissions {
	out := &RolePermissions{Groups: map[string]FlagSet{}, Channels: map[string]FlagSet{}}
	for k, v := range rp.Groups {
		out.Groups[k] = v.Clone()
	}
	for k, v := range rp.Channels {
		out.Channels[k] = v.Clone()
	}
	return out
}

func (f FlagSet) Clone() FlagSet {
	out := make(FlagSet, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Clone deep-copies the whole document so readers never share maps with the writer
func (c PermissionConfig) Clone() PermissionConfig {
	out := PermissionConfig{
		PublicChannels:  append([]string{}, c.PublicChannels...),
		ChannelGroups:   make(map[string][]string, len(c.ChannelGroups)),
		RolePermissions: make(map[string]*RolePermissions, len(c.RolePermissions)),
	}
	for k, v := range c.ChannelGroups {
		out.ChannelGroups[k] = append([]string{}, v...)
	}
	for k, v := range c.RolePermissions {
		if v != nil {
			out.RolePermissions[k] = v.Clone()
		}
	}
	if c.Lockdown != nil {
		lock := &LockdownState{Mode: c.Lockdown.Mode, Channels: map[string][]StoredOverwrite{}}
		for k, v := range c.Lockdown.Channels {
			lock.Channels[k] = append([]StoredOverwrite{}, v...)
		}
		out.Lockdown = lock
	}
	return out
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func removeString(list []string, s string) ([]string, bool) {
	for i, item := range list {
		if item == s {
			return append(list[:i:i], list[i+1:]...), true
		}
	}
	return list, false
}

func uniqueStrings(list []string) []string {
	out := make([]string, 0, len(list))
	for _, item := range list {
		if !containsString(out, item) {
			out = append(out, item)
		}
	}
	return out
}
