package channels

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xgctrenches/xgcbot/models"
)

func TestPresetClassify(t *testing.T) {
	preset, ok := GetPreset("Crypto")
	require.True(t, ok)

	channels := []*discordgo.Channel{
		textChannel("1", "welcome"),
		textChannel("2", "news"),
		textChannel("3", "price-talk"),
		textChannel("4", "vip-lounge"),
		textChannel("5", "staff-room"),
		textChannel("6", "random"),
	}

	classified := preset.Classify(channels, true)
	assert.Equal(t, []string{"1"}, channelIDs(classified[CategoryPublic]))
	assert.Equal(t, []string{"2"}, channelIDs(classified[CategoryInfoOnly]))
	assert.Equal(t, []string{"3", "6"}, channelIDs(classified[CategoryVerifiedOnly]))
	assert.Equal(t, []string{"4"}, channelIDs(classified[CategoryTraderOnly]))
	assert.Equal(t, []string{"5"}, channelIDs(classified[CategoryAdminOnly]))

	withoutTrader := preset.Classify(channels, false)
	assert.Empty(t, withoutTrader[CategoryTraderOnly])
	assert.Contains(t, channelIDs(withoutTrader[CategoryVerifiedOnly]), "4")
}

func TestPresetRolesAndRecord(t *testing.T) {
	roles := FindPresetRoles([]*discordgo.Role{
		{ID: "a", Name: "Server Admin"},
		{ID: "v", Name: "VIP"},
		{ID: "b", Name: "admins-2"},
	}, "g", "verified")
	assert.Equal(t, "a", roles.AdminID)
	assert.Equal(t, "v", roles.TraderID)

	preset, _ := GetPreset("minimal")
	classified := preset.Classify([]*discordgo.Channel{textChannel("1", "rules"), textChannel("2", "admin")}, false)

	config := models.DefaultPermissionConfig()
	Record(&config, classified)
	assert.Equal(t, []string{"1"}, config.PublicChannels)
	assert.Equal(t, []string{"2"}, config.ChannelGroups[CategoryAdminOnly])

	plan := roles.Plan(classified)
	admin := findPlanned(t, plan, "2", "a")
	require.NotNil(t, admin)
	assert.Equal(t, int64(WriteAccess), admin.Allow)
	assert.Equal(t, int64(discordgo.PermissionViewChannel), findPlanned(t, plan, "2", "verified").Deny)
}

func TestQuickSetupAssignsOnce(t *testing.T) {
	config := models.DefaultPermissionConfig()
	channels := []*discordgo.Channel{
		textChannel("1", "welcome"),
		textChannel("2", "price-chat"),
		textChannel("3", "general"),
		textChannel("4", "mod-log"),
	}

	first := QuickSetup(&config, channels, "verified")
	assert.ElementsMatch(t, []string{"community", "trading", "announcements", "admin"}, first.CreatedGroups)

	second := QuickSetup(&config, channels, "verified")
	assert.Empty(t, second.CreatedGroups)

	assert.Equal(t, []string{"1"}, config.PublicChannels)
	assert.Equal(t, []string{"2"}, config.ChannelGroups["trading"], "price-chat matches trading before community")
	assert.Equal(t, []string{"3"}, config.ChannelGroups["community"])
	assert.Equal(t, []string{"4"}, config.ChannelGroups["admin"])
	assert.True(t, config.RolePermissions["verified"].Groups[models.GroupVerifiedOnly]["send_messages"])
}

func TestLockdownRestoresSnapshot(t *testing.T) {
	original := []*discordgo.PermissionOverwrite{
		{ID: "g", Type: discordgo.PermissionOverwriteTypeRole, Allow: ReadAccess},
		{ID: "u", Type: discordgo.PermissionOverwriteTypeMember, Allow: discordgo.PermissionSendMessages},
	}
	channel := textChannel("1", "general")
	channel.PermissionOverwrites = original

	config := models.DefaultPermissionConfig()
	targets := LockTargets(LockVerified, config, []*discordgo.Channel{channel})
	require.Len(t, targets, 1)
	assert.Empty(t, LockTargets(LockPublic, config, []*discordgo.Channel{channel}))

	state := Snapshot(LockVerified, targets)

	locked := LockPlan(targets, "g", "verified")
	everyone := findPlanned(t, locked, "1", "g")
	assert.Equal(t, int64(ReadAccess), everyone.Allow)
	assert.Equal(t, int64(discordgo.PermissionSendMessages), everyone.Deny)
	assert.Equal(t, int64(discordgo.PermissionSendMessages), findPlanned(t, locked, "1", "verified").Deny)
	assert.NotNil(t, findPlanned(t, locked, "1", "u"), "member overwrites survive a lockdown")

	restored := RestorePlan(state, []*discordgo.Channel{channel})
	require.Len(t, restored, 1)
	assert.Equal(t, original, restored[0].Overwrites)
}
