package channels

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
	"github.com/xgctrenches/xgcbot/models"
	"github.com/xgctrenches/xgcbot/platform"
)

// ApplyPause is the wait between two channel updates
const ApplyPause = 500 * time.Millisecond

// ChannelPlan is the complete overwrite set one channel should end up with.
type ChannelPlan struct {
	ChannelID  string
	Name       string
	Overwrites []*discordgo.PermissionOverwrite
}

// Failure is a channel the platform refused to update.
type Failure struct {
	ChannelID string
	Err       error
}

// Result of ApplyPlan. Channels are listed in plan order.
type Result struct {
	Applied []string
	Failed  []Failure
}

// BuildPlan derives the overwrites of every text and announcement channel
// from the stored configuration. Roles for which roleExists returns false are
// ignored; a nil roleExists accepts every role.
func BuildPlan(
	config models.PermissionConfig,
	channels []*discordgo.Channel,
	everyoneID, verifiedID string,
	roleExists func(roleID string) bool,
) []ChannelPlan {
	if roleExists == nil {
		roleExists = func(string) bool { return true }
	}

	roleIDs := make([]string, 0, len(config.RolePermissions))
	for roleID := range config.RolePermissions {
		roleIDs = append(roleIDs, roleID)
	}
	sort.Strings(roleIDs)

	var plan []ChannelPlan
	for _, channel := range textChannels(channels) {
		set := newOverwriteSet()

		if config.IsPublic(channel.ID) {
			set.role(everyoneID).Allow |= ReadAccess
		} else {
			set.role(everyoneID).Deny |= discordgo.PermissionViewChannel
		}

		if verifiedID != "" {
			set.role(verifiedID).Allow |= FullAccess
		}

		for _, roleID := range roleIDs {
			if !roleExists(roleID) {
				continue
			}
			resolved := ResolveFlags(config, roleID, channel.ID)
			if len(resolved) == 0 {
				continue
			}
			applyFlags(set.role(roleID), resolved)
		}

		plan = append(plan, ChannelPlan{
			ChannelID:  channel.ID,
			Name:       channel.Name,
			Overwrites: set.list(),
		})
	}
	return plan
}

// ResolveFlags composes the stored flags of one role for one channel.
// Across the groups containing the channel a deny beats an allow, and flags
// stored for the channel itself override whatever the groups said.
func ResolveFlags(config models.PermissionConfig, roleID, channelID string) models.FlagSet {
	rp, ok := config.RolePermissions[roleID]
	if !ok || rp == nil {
		return nil
	}

	out := models.FlagSet{}
	for _, group := range config.GroupsOf(channelID) {
		for flag, value := range rp.Groups[group] {
			if current, seen := out[flag]; seen && !current {
				continue
			}
			out[flag] = value
		}
	}
	for flag, value := range rp.Channels[channelID] {
		out[flag] = value
	}
	return out
}

// ApplyPlan replaces the overwrites of each planned channel, one platform
// call per channel with pause in between. A failed channel does not stop the
// rest and nothing is rolled back.
func ApplyPlan(ctx context.Context, p platform.Platform, plan []ChannelPlan, pause time.Duration) Result {
	var result Result

	for i, item := range plan {
		if i > 0 && pause > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(pause):
			}
		}
		if err := ctx.Err(); err != nil {
			for _, rest := range plan[i:] {
				result.Failed = append(result.Failed, Failure{ChannelID: rest.ChannelID, Err: err})
			}
			break
		}

		err := p.ReplaceChannelOverwrites(item.ChannelID, item.Overwrites)
		if err != nil {
			logger().WithFields(logrus.Fields{
				"channel": item.ChannelID,
				"name":    item.Name,
			}).Warnf("applying overwrites failed: %s", err)
			result.Failed = append(result.Failed, Failure{ChannelID: item.ChannelID, Err: err})
			continue
		}
		result.Applied = append(result.Applied, item.ChannelID)
	}

	return result
}

// Only returns the plan entries of the given channels
func Only(plan []ChannelPlan, channelIDs ...string) []ChannelPlan {
	var out []ChannelPlan
	for _, item := range plan {
		for _, id := range channelIDs {
			if item.ChannelID == id {
				out = append(out, item)
				break
			}
		}
	}
	return out
}

// textChannels keeps text and announcement channels in position order
func textChannels(channels []*discordgo.Channel) []*discordgo.Channel {
	var out []*discordgo.Channel
	for _, channel := range channels {
		switch channel.Type {
		case discordgo.ChannelTypeGuildText, discordgo.ChannelTypeGuildNews:
			out = append(out, channel)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

func applyFlags(overwrite *discordgo.PermissionOverwrite, set models.FlagSet) {
	for flag, value := range set {
		bit, ok := FlagBit(flag)
		if !ok {
			continue
		}
		setBit(overwrite, bit, value)
	}
}

func setBit(overwrite *discordgo.PermissionOverwrite, bit int64, allow bool) {
	if allow {
		overwrite.Allow |= bit
		overwrite.Deny &^= bit
		return
	}
	overwrite.Deny |= bit
	overwrite.Allow &^= bit
}

// overwriteSet collects overwrites keyed by target, in insertion order
type overwriteSet struct {
	order []string
	byID  map[string]*discordgo.PermissionOverwrite
}

func newOverwriteSet() *overwriteSet {
	return &overwriteSet{byID: make(map[string]*discordgo.PermissionOverwrite)}
}

func (s *overwriteSet) role(id string) *discordgo.PermissionOverwrite {
	return s.target(id, discordgo.PermissionOverwriteTypeRole)
}

func (s *overwriteSet) target(id string, kind discordgo.PermissionOverwriteType) *discordgo.PermissionOverwrite {
	if o, ok := s.byID[id]; ok {
		return o
	}
	o := &discordgo.PermissionOverwrite{ID: id, Type: kind}
	s.byID[id] = o
	s.order = append(s.order, id)
	return o
}

func (s *overwriteSet) list() []*discordgo.PermissionOverwrite {
	out := make([]*discordgo.PermissionOverwrite, 0, len(s.order))
	for _, id := range s.order {
		o := s.byID[id]
		if o.Allow == 0 && o.Deny == 0 {
			continue
		}
		out = append(out, o)
	}
	return out
}

func nameContainsAny(name string, keywords []string) bool {
	name = strings.ToLower(name)
	for _, keyword := range keywords {
		if strings.Contains(name, keyword) {
			return true
		}
	}
	return false
}
