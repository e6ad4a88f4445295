package channels

import (
	"github.com/bwmarrin/discordgo"
	"github.com/xgctrenches/xgcbot/models"
)

var quickSetupGroups = []string{"public", "verified_only", "community", "trading", "announcements", "admin"}

// quickSetupRules are tried in order, the first matching rule wins
var quickSetupRules = []struct {
	group    string
	keywords []string
}{
	{"public", []string{"welcome", "verify", "rules"}},
	{"trading", []string{"trading", "market", "price"}},
	{"community", []string{"general", "chat", "discussion"}},
	{"admin", []string{"admin", "mod", "staff"}},
}

// QuickSetupSummary tells what QuickSetup changed
type QuickSetupSummary struct {
	CreatedGroups []string
	Assigned      map[string][]*discordgo.Channel
}

// QuickSetup creates the default groups, gives the verified role full access
// to verified-only channels and sorts channels into groups by name. Public
// channels are also listed public. Existing settings are kept.
func QuickSetup(config *models.PermissionConfig, channels []*discordgo.Channel, verifiedID string) QuickSetupSummary {
	summary := QuickSetupSummary{Assigned: make(map[string][]*discordgo.Channel)}

	for _, group := range quickSetupGroups {
		if _, ok := config.ChannelGroups[group]; !ok {
			config.ChannelGroups[group] = []string{}
			summary.CreatedGroups = append(summary.CreatedGroups, group)
		}
	}

	if verifiedID != "" {
		rp := config.Role(verifiedID)
		if _, ok := rp.Groups[models.GroupVerifiedOnly]; !ok {
			for _, flag := range []string{"read_messages", "send_messages", "embed_links", "attach_files", "read_message_history"} {
				rp.SetGroupFlag(models.GroupVerifiedOnly, flag, true)
			}
		}
	}

	for _, channel := range textChannels(channels) {
		for _, rule := range quickSetupRules {
			if !nameContainsAny(channel.Name, rule.keywords) {
				continue
			}
			if rule.group == "public" {
				config.SetPublic(channel.ID, true)
			} else {
				config.AddToGroup(rule.group, channel.ID)
			}
			summary.Assigned[rule.group] = append(summary.Assigned[rule.group], channel)
			break
		}
	}

	return summary
}
