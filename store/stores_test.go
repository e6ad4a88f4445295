package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xgctrenches/xgcbot/models"
)

func TestRoleMenuOptions(t *testing.T) {
	ctx := context.Background()
	s, closer, err := OpenRoleMenu(t.TempDir(), []models.RoleMenuOption{{Emoji: "📈", Role: "Trader"}})
	require.NoError(t, err)
	defer closer()

	require.NoError(t, s.SetOption(ctx, "📈", "Day Trader"))
	require.NoError(t, s.SetOption(ctx, "💎", "HODLer"))
	require.NoError(t, s.SetMessage(ctx, "c1", "m1"))

	menu, err := s.Menu(ctx)
	require.NoError(t, err)
	assert.Equal(t, "m1", menu.MessageID)
	assert.Len(t, menu.Options, 2)

	option, ok := menu.Option("📈")
	require.True(t, ok)
	assert.Equal(t, "Day Trader", option.Role)

	require.NoError(t, s.RemoveOption(ctx, "💎"))
	assert.Error(t, s.RemoveOption(ctx, "💎"))
}

func TestYoutubeChannels(t *testing.T) {
	ctx := context.Background()
	s, closer, err := OpenYoutube(t.TempDir())
	require.NoError(t, err)
	defer closer()

	config, err := s.Config(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.YoutubeDefaultInterval, config.CheckInterval)

	require.NoError(t, s.AddChannel(ctx, "UC1", models.YoutubeChannelEntry{Name: "XGC", DiscordChannelID: "d1"}))
	require.NoError(t, s.SetLastVideo(ctx, "UC1", "v1"))
	assert.Error(t, s.SetLastVideo(ctx, "UC2", "v1"))
	assert.Error(t, s.SetInterval(ctx, 0))

	entry, err := s.RemoveChannel(ctx, "UC1")
	require.NoError(t, err)
	assert.Equal(t, "v1", entry.LastVideoID)
}

func TestAutoDeleteSettings(t *testing.T) {
	ctx := context.Background()
	s, closer, err := OpenAutoDelete("")
	require.NoError(t, err)
	defer closer()

	require.NoError(t, s.SetDelay(ctx, "c1", 5))
	require.NoError(t, s.Protect(ctx, "c1", "m1"))
	require.NoError(t, s.Protect(ctx, "c1", "m1"))

	settings, err := s.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, settings.Channels["c1"].DeleteAfter)
	assert.Equal(t, []string{"m1"}, settings.Channels["c1"].Protected)
	assert.True(t, settings.IsProtected("c1", "m1"))

	require.NoError(t, s.SetDelay(ctx, "c1", 0))
	settings, err = s.Settings(ctx)
	require.NoError(t, err)
	assert.NotContains(t, settings.Channels, "c1")
}

func TestVerificationPostSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, closer, err := OpenVerification(dir)
	require.NoError(t, err)
	require.NoError(t, s.SetPost(ctx, "verify", "m1"))
	require.NoError(t, closer())

	s, closer, err = OpenVerification(dir)
	require.NoError(t, err)
	defer closer()

	post, err := s.Post(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.VerificationPost{ChannelID: "verify", MessageID: "m1"}, post)
}
