package channels

import (
	"sort"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/xgctrenches/xgcbot/models"
)

// Preset categories, checked in this order
const (
	CategoryPublic       = "public"
	CategoryInfoOnly     = "info_only"
	CategoryVerifiedOnly = "verified_only"
	CategoryTraderOnly   = "trader_only"
	CategoryAdminOnly    = "admin_only"
)

var presetCategories = []string{
	CategoryPublic,
	CategoryInfoOnly,
	CategoryVerifiedOnly,
	CategoryTraderOnly,
	CategoryAdminOnly,
}

// Preset maps categories to channel name keywords
type Preset map[string][]string

var presets = map[string]Preset{
	"crypto": {
		CategoryPublic:       {"welcome", "rules", "verification", "faq", "announcements"},
		CategoryInfoOnly:     {"announcements", "news", "updates"},
		CategoryVerifiedOnly: {"general", "chat", "discussion", "price", "trading", "market", "analysis", "signals"},
		CategoryTraderOnly:   {"signals", "vip", "premium"},
		CategoryAdminOnly:    {"admin", "mod", "staff"},
	},
	"community": {
		CategoryPublic:       {"welcome", "rules", "verification", "announcements"},
		CategoryInfoOnly:     {"announcements", "news", "updates", "rules"},
		CategoryVerifiedOnly: {"general", "chat", "discussion", "media", "memes", "showcase", "support"},
		CategoryAdminOnly:    {"admin", "mod", "staff"},
	},
	"minimal": {
		CategoryPublic:       {"welcome", "rules", "verification"},
		CategoryVerifiedOnly: {"general", "chat"},
		CategoryAdminOnly:    {"admin"},
	},
}

// PresetNames returns the known presets, sorted
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func GetPreset(name string) (Preset, bool) {
	preset, ok := presets[strings.ToLower(name)]
	return preset, ok
}

// PresetRoles are the roles a preset grants access to
type PresetRoles struct {
	EveryoneID string
	VerifiedID string
	TraderID   string
	AdminID    string
}

// FindPresetRoles picks the first role named like an admin and the first
// named like a trader, premium or vip role.
func FindPresetRoles(roles []*discordgo.Role, everyoneID, verifiedID string) PresetRoles {
	found := PresetRoles{EveryoneID: everyoneID, VerifiedID: verifiedID}
	for _, role := range roles {
		if found.AdminID == "" && nameContainsAny(role.Name, []string{"admin"}) {
			found.AdminID = role.ID
		}
		if found.TraderID == "" && nameContainsAny(role.Name, []string{"trader", "premium", "vip"}) {
			found.TraderID = role.ID
		}
	}
	return found
}

// Classify sorts text channels into preset categories by their name. The
// trader category only exists when a trader role does; unmatched channels
// become verified-only.
func (p Preset) Classify(channels []*discordgo.Channel, hasTrader bool) map[string][]*discordgo.Channel {
	out := make(map[string][]*discordgo.Channel)
	for _, channel := range textChannels(channels) {
		category := CategoryVerifiedOnly
		for _, candidate := range presetCategories {
			if candidate == CategoryTraderOnly && !hasTrader {
				continue
			}
			if nameContainsAny(channel.Name, p[candidate]) {
				category = candidate
				break
			}
		}
		out[category] = append(out[category], channel)
	}
	return out
}

// Plan turns a classification into overwrites
func (r PresetRoles) Plan(classified map[string][]*discordgo.Channel) []ChannelPlan {
	var plan []ChannelPlan
	for _, category := range presetCategories {
		for _, channel := range classified[category] {
			set := newOverwriteSet()
			everyone := set.role(r.EveryoneID)
			var verified *discordgo.PermissionOverwrite
			if r.VerifiedID != "" {
				verified = set.role(r.VerifiedID)
			}

			switch category {
			case CategoryPublic:
				everyone.Allow |= ReadAccess
				if verified != nil {
					verified.Allow |= WriteAccess
				}
			case CategoryInfoOnly:
				everyone.Allow |= ReadAccess
				everyone.Deny |= discordgo.PermissionSendMessages
				if verified != nil {
					verified.Allow |= discordgo.PermissionViewChannel
					verified.Deny |= discordgo.PermissionSendMessages
				}
			case CategoryVerifiedOnly:
				everyone.Deny |= discordgo.PermissionViewChannel
				if verified != nil {
					verified.Allow |= WriteAccess
				}
			case CategoryTraderOnly, CategoryAdminOnly:
				everyone.Deny |= discordgo.PermissionViewChannel
				if verified != nil {
					verified.Deny |= discordgo.PermissionViewChannel
				}
				owner := r.TraderID
				if category == CategoryAdminOnly {
					owner = r.AdminID
				}
				if owner != "" {
					set.role(owner).Allow |= WriteAccess
				}
			}

			plan = append(plan, ChannelPlan{ChannelID: channel.ID, Name: channel.Name, Overwrites: set.list()})
		}
	}
	return plan
}

// Record stores a classification: every preset category becomes a group
// holding exactly its channels, the public ones are also listed public.
func Record(config *models.PermissionConfig, classified map[string][]*discordgo.Channel) {
	config.PublicChannels = channelIDs(classified[CategoryPublic])
	for _, category := range presetCategories {
		config.ChannelGroups[category] = channelIDs(classified[category])
	}
}

func channelIDs(channels []*discordgo.Channel) []string {
	ids := make([]string, 0, len(channels))
	for _, channel := range channels {
		ids = append(ids, channel.ID)
	}
	return ids
}
