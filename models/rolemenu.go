package models

import "strings"

const RoleMenuFile = "roles_data.json"

// RoleMenuOption binds a reaction emoji to a role name
type RoleMenuOption struct {
	Emoji string `json:"emoji"`
	Role  string `json:"role"`
}

// RoleMenu is the roles_data.json document
type RoleMenu struct {
	MessageID string           `json:"message_id"`
	ChannelID string           `json:"channel_id"`
	Options   []RoleMenuOption `json:"options"`
}

// Option returns the option bound to emoji
func (m RoleMenu) Option(emoji string) (RoleMenuOption, bool) {
	for _, option := range m.Options {
		if option.Emoji == emoji {
			return option, true
		}
	}
	return RoleMenuOption{}, false
}

// Clone copies the options slice
func (m RoleMenu) Clone() RoleMenu {
	m.Options = append([]RoleMenuOption{}, m.Options...)
	return m
}

// AssignableRole is a role members may give themselves
type AssignableRole struct {
	Key   string
	Name  string
	Emoji string
}

var SelfAssignableRoles = []AssignableRole{
	{Key: "trader", Name: "Trader", Emoji: "📈"},
	{Key: "hodler", Name: "HODLer", Emoji: "💎"},
	{Key: "analyst", Name: "Analyst", Emoji: "📊"},
	{Key: "developer", Name: "Developer", Emoji: "💻"},
	{Key: "investor", Name: "Investor", Emoji: "💰"},
}

// FindAssignableRole looks a role up by its key, case-insensitive
func FindAssignableRole(key string) (AssignableRole, bool) {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, role := range SelfAssignableRoles {
		if role.Key == key {
			return role, true
		}
	}
	return AssignableRole{}, false
}

// DefaultRoleMenuOptions seeds a fresh roles_data.json
func DefaultRoleMenuOptions() []RoleMenuOption {
	options := make([]RoleMenuOption, 0, len(SelfAssignableRoles))
	for _, role := range SelfAssignableRoles {
		options = append(options, RoleMenuOption{Emoji: role.Emoji, Role: role.Name})
	}
	return options
}
