package channels

import (
	"context"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xgctrenches/xgcbot/helpers"
	"github.com/xgctrenches/xgcbot/models"
	"github.com/xgctrenches/xgcbot/platform/platformtest"
)

func textChannel(id, name string) *discordgo.Channel {
	return &discordgo.Channel{ID: id, Name: name, Type: discordgo.ChannelTypeGuildText}
}

func findPlanned(t *testing.T, plan []ChannelPlan, channelID, targetID string) *discordgo.PermissionOverwrite {
	t.Helper()
	for _, item := range plan {
		if item.ChannelID != channelID {
			continue
		}
		for _, o := range item.Overwrites {
			if o.ID == targetID {
				return o
			}
		}
		return nil
	}
	t.Fatalf("channels.BuildPlan() has no entry for %s", channelID)
	return nil
}

func TestBuildPlanBaseOverwrites(t *testing.T) {
	config := models.DefaultPermissionConfig()
	config.SetPublic("pub", true)

	channels := []*discordgo.Channel{
		textChannel("pub", "welcome"),
		textChannel("priv", "general"),
		{ID: "voice", Name: "Lounge", Type: discordgo.ChannelTypeGuildVoice},
		{ID: "cat", Name: "INFO", Type: discordgo.ChannelTypeGuildCategory},
	}

	plan := BuildPlan(config, channels, "g", "verified", nil)
	require.Len(t, plan, 2, "voice and category channels are not planned")

	everyone := findPlanned(t, plan, "pub", "g")
	assert.Equal(t, int64(ReadAccess), everyone.Allow)
	assert.Zero(t, everyone.Deny)

	everyone = findPlanned(t, plan, "priv", "g")
	assert.Equal(t, int64(discordgo.PermissionViewChannel), everyone.Deny)

	verified := findPlanned(t, plan, "priv", "verified")
	assert.Equal(t, int64(FullAccess), verified.Allow)
}

func TestResolveFlagsChannelOverridesGroupAndDenyWins(t *testing.T) {
	config := models.DefaultPermissionConfig()
	config.ChannelGroups["g1"] = []string{"c"}
	config.ChannelGroups["g2"] = []string{"c"}

	role := config.Role("r")
	role.SetGroupFlag("g1", "send_messages", true)
	role.SetGroupFlag("g1", "embed_links", true)
	role.SetGroupFlag("g2", "send_messages", false)
	role.SetGroupFlag("g2", "add_reactions", true)
	role.SetChannelFlag("c", "embed_links", false)
	role.SetChannelFlag("c", "attach_files", true)

	flags := ResolveFlags(config, "r", "c")
	assert.Equal(t, models.FlagSet{
		"send_messages": false,
		"embed_links":   false,
		"add_reactions": true,
		"attach_files":  true,
	}, flags)

	o := findPlanned(t, BuildPlan(config, []*discordgo.Channel{textChannel("c", "chat")}, "g", "", nil), "c", "r")
	assert.Equal(t, int64(discordgo.PermissionAddReactions|discordgo.PermissionAttachFiles), o.Allow)
	assert.Equal(t, int64(discordgo.PermissionSendMessages|discordgo.PermissionEmbedLinks), o.Deny)
}

func TestBuildPlanSkipsDeletedRoles(t *testing.T) {
	config := models.DefaultPermissionConfig()
	config.Role("gone").SetChannelFlag("c", "send_messages", true)

	plan := BuildPlan(config, []*discordgo.Channel{textChannel("c", "chat")}, "g", "", func(id string) bool { return id != "gone" })
	if o := findPlanned(t, plan, "c", "gone"); o != nil {
		t.Fatalf("channels.BuildPlan() kept an overwrite for a deleted role: %+v", o)
	}
}

func newGuild() *platformtest.Fake {
	fake := platformtest.New()
	fake.AddGuild("g", "owner")
	fake.AddMember("g", "owner", "owner", false)
	fake.AddRole("g", "verified", "Verified", 2, 0)
	fake.AddChannel("g", "c1", "welcome", discordgo.ChannelTypeGuildText, "")
	fake.AddChannel("g", "c2", "general", discordgo.ChannelTypeGuildText, "")
	fake.AddChannel("g", "c3", "trading-chat", discordgo.ChannelTypeGuildText, "")
	return fake
}

func TestApplyPlanIsIdempotent(t *testing.T) {
	fake := newGuild()
	channels, err := fake.GuildChannels("g")
	require.NoError(t, err)

	config := models.DefaultPermissionConfig()
	config.SetPublic("c1", true)
	config.Role("verified").SetChannelFlag("c2", "mention_everyone", false)
	plan := BuildPlan(config, channels, "g", "verified", nil)

	first := ApplyPlan(context.Background(), fake, plan, 0)
	require.Empty(t, first.Failed)
	once := map[string][]discordgo.PermissionOverwrite{}
	for _, id := range []string{"c1", "c2", "c3"} {
		once[id] = fake.Overwrites(id)
	}

	second := ApplyPlan(context.Background(), fake, plan, 0)
	require.Empty(t, second.Failed)
	assert.Equal(t, first.Applied, second.Applied)
	for id, overwrites := range once {
		assert.Equal(t, overwrites, fake.Overwrites(id), "channel %s changed on the second apply", id)
	}
}

func TestApplyPlanReportsFailuresAndContinues(t *testing.T) {
	fake := newGuild()
	fake.FailOn("ReplaceChannelOverwrites", "c2", platformtest.Forbidden())
	channels, _ := fake.GuildChannels("g")

	result := ApplyPlan(context.Background(), fake, BuildPlan(models.DefaultPermissionConfig(), channels, "g", "", nil), 0)

	assert.Equal(t, []string{"c1", "c3"}, result.Applied)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "c2", result.Failed[0].ChannelID)
	assert.True(t, helpers.IsPermissionError(result.Failed[0].Err))
}

func TestApplyPlanStopsWhenCancelled(t *testing.T) {
	fake := newGuild()
	channels, _ := fake.GuildChannels("g")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := ApplyPlan(ctx, fake, BuildPlan(models.DefaultPermissionConfig(), channels, "g", "", nil), 0)
	assert.Empty(t, result.Applied)
	assert.Len(t, result.Failed, 3)
	assert.Empty(t, fake.Mutations())
}
