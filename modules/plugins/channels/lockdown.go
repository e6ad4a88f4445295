package channels

import (
	"github.com/bwmarrin/discordgo"
	"github.com/xgctrenches/xgcbot/models"
)

// Lockdown modes
const (
	LockAll      = "all"
	LockPublic   = "public"
	LockVerified = "verified"
	LockRelease  = "unlock"
)

func ValidLockMode(mode string) bool {
	switch mode {
	case LockAll, LockPublic, LockVerified, LockRelease:
		return true
	}
	return false
}

// LockTargets selects the text channels a lockdown mode covers
func LockTargets(mode string, config models.PermissionConfig, channels []*discordgo.Channel) []*discordgo.Channel {
	var out []*discordgo.Channel
	for _, channel := range textChannels(channels) {
		public := config.IsPublic(channel.ID)
		switch {
		case mode == LockAll,
			mode == LockPublic && public,
			mode == LockVerified && !public:
			out = append(out, channel)
		}
	}
	return out
}

// Snapshot copies the live overwrites of the channels for a later restore
func Snapshot(mode string, channels []*discordgo.Channel) models.LockdownState {
	state := models.LockdownState{Mode: mode, Channels: make(map[string][]models.StoredOverwrite, len(channels))}
	for _, channel := range channels {
		stored := make([]models.StoredOverwrite, 0, len(channel.PermissionOverwrites))
		for _, o := range channel.PermissionOverwrites {
			stored = append(stored, models.StoredOverwrite{
				ID:    o.ID,
				Type:  int(o.Type),
				Allow: o.Allow,
				Deny:  o.Deny,
			})
		}
		state.Channels[channel.ID] = stored
	}
	return state
}

// LockPlan keeps the current overwrites and denies sending for @everyone and
// the verified role.
func LockPlan(channels []*discordgo.Channel, everyoneID, verifiedID string) []ChannelPlan {
	plan := make([]ChannelPlan, 0, len(channels))
	for _, channel := range channels {
		set := newOverwriteSet()
		for _, o := range channel.PermissionOverwrites {
			copied := set.target(o.ID, o.Type)
			copied.Allow, copied.Deny = o.Allow, o.Deny
		}
		setBit(set.role(everyoneID), discordgo.PermissionSendMessages, false)
		if verifiedID != "" {
			setBit(set.role(verifiedID), discordgo.PermissionSendMessages, false)
		}
		plan = append(plan, ChannelPlan{ChannelID: channel.ID, Name: channel.Name, Overwrites: set.list()})
	}
	return plan
}

// VisibilityPlan rebuilds the @everyone and verified role overwrites of every
// text channel and keeps all others: the verified role gets full access,
// @everyone may read channels for which public returns true and nothing else.
func VisibilityPlan(channels []*discordgo.Channel, everyoneID, verifiedID string, public func(*discordgo.Channel) bool) []ChannelPlan {
	var plan []ChannelPlan
	for _, channel := range textChannels(channels) {
		set := newOverwriteSet()
		for _, o := range channel.PermissionOverwrites {
			if o.ID == everyoneID || o.ID == verifiedID {
				continue
			}
			copied := set.target(o.ID, o.Type)
			copied.Allow, copied.Deny = o.Allow, o.Deny
		}

		if public(channel) {
			set.role(everyoneID).Allow = ReadAccess
		} else {
			set.role(everyoneID).Deny = discordgo.PermissionViewChannel
		}
		if verifiedID != "" {
			set.role(verifiedID).Allow = FullAccess
		}
		plan = append(plan, ChannelPlan{ChannelID: channel.ID, Name: channel.Name, Overwrites: set.list()})
	}
	return plan
}

// RestorePlan brings back the snapshot. Channels deleted since the lockdown
// are skipped.
func RestorePlan(state models.LockdownState, channels []*discordgo.Channel) []ChannelPlan {
	var plan []ChannelPlan
	for _, channel := range textChannels(channels) {
		stored, ok := state.Channels[channel.ID]
		if !ok {
			continue
		}
		overwrites := make([]*discordgo.PermissionOverwrite, 0, len(stored))
		for _, o := range stored {
			overwrites = append(overwrites, &discordgo.PermissionOverwrite{
				ID:    o.ID,
				Type:  discordgo.PermissionOverwriteType(o.Type),
				Allow: o.Allow,
				Deny:  o.Deny,
			})
		}
		plan = append(plan, ChannelPlan{ChannelID: channel.ID, Name: channel.Name, Overwrites: overwrites})
	}
	return plan
}
