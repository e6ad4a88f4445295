package channels

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xgctrenches/xgcbot/helpers"
	"github.com/xgctrenches/xgcbot/platform/platformtest"
	"github.com/xgctrenches/xgcbot/store"
)

func newHandler(t *testing.T) (*Handler, *platformtest.Fake) {
	t.Helper()

	helpers.SetConfig(&helpers.Config{Prefix: "!", VerifiedRoleID: "verified"})
	t.Cleanup(func() { helpers.SetConfig(nil) })

	s, closer, err := store.OpenPermissions("")
	require.NoError(t, err)
	t.Cleanup(func() { closer() })

	fake := newGuild()
	fake.AddChannel("g", "cmd", "bot-commands", discordgo.ChannelTypeGuildText, "")

	h := New(s, helpers.NewPrompter(time.Second), 0)
	h.Init(fake)
	return h, fake
}

func run(h *Handler, fake *platformtest.Fake, author, content string) *discordgo.Message {
	msg := &discordgo.Message{
		ID:        "m",
		ChannelID: "cmd",
		GuildID:   "g",
		Content:   "!channels " + content,
		Author:    &discordgo.User{ID: author, Username: author},
	}
	h.Action("channels", content, msg, fake)
	sent := fake.Sent("cmd")
	if len(sent) == 0 {
		return nil
	}
	return sent[len(sent)-1]
}

func TestGroupScenarioListsChannelOnce(t *testing.T) {
	h, fake := newHandler(t)

	run(h, fake, "owner", "create_group g1")
	run(h, fake, "owner", "add_to_group g1 <#c2>")
	run(h, fake, "owner", "add_to_group g1 general")

	reply := run(h, fake, "owner", "list")
	require.NotNil(t, reply)
	require.Len(t, reply.Embeds, 1)

	var field *discordgo.MessageEmbedField
	for _, f := range reply.Embeds[0].Fields {
		if strings.HasPrefix(f.Name, "g1 ") {
			field = f
		}
	}
	require.NotNil(t, field, "channels list has no g1 entry")
	assert.Equal(t, "g1 (1)", field.Name)
	assert.Equal(t, "<#c2>", field.Value)
}

func TestCommandsRequireAdmin(t *testing.T) {
	h, fake := newHandler(t)
	fake.AddMember("g", "pleb", "pleb", false)

	run(h, fake, "pleb", "create_group g1")
	run(h, fake, "pleb", "apply")

	assert.Empty(t, fake.Mutations())
	config, err := h.store.Config(context.Background())
	require.NoError(t, err)
	_, exists := config.ChannelGroups["g1"]
	assert.False(t, exists)
}

func TestApplyCommandWritesOverwrites(t *testing.T) {
	h, fake := newHandler(t)

	run(h, fake, "owner", "set_public welcome")
	run(h, fake, "owner", "apply")

	everyone := fake.Overwrites("c1")
	require.NotEmpty(t, everyone)
	assert.Equal(t, "g", everyone[0].ID)
	assert.Equal(t, int64(ReadAccess), everyone[0].Allow)

	for _, o := range fake.Overwrites("c2") {
		if o.ID == "g" {
			assert.Equal(t, int64(discordgo.PermissionViewChannel), o.Deny)
		}
	}
}

func TestLockdownCommandRoundTrip(t *testing.T) {
	h, fake := newHandler(t)
	run(h, fake, "owner", "apply")
	before := fake.Overwrites("c2")

	run(h, fake, "owner", "lockdown all")
	for _, o := range fake.Overwrites("c2") {
		if o.ID == "g" || o.ID == "verified" {
			assert.NotZero(t, o.Deny&discordgo.PermissionSendMessages, "%s can still send", o.ID)
		}
	}

	mutations := len(fake.Mutations())
	run(h, fake, "owner", "lockdown all")
	assert.Len(t, fake.Mutations(), mutations, "a second lockdown must be refused")

	run(h, fake, "owner", "lockdown unlock")
	assert.Equal(t, before, fake.Overwrites("c2"))
}

func TestPlanCommandsNeedVerifiedRole(t *testing.T) {
	h, fake := newHandler(t)
	helpers.SetConfig(&helpers.Config{Prefix: "!", VerifiedRoleID: "deleted-role"})

	for _, command := range []string{"apply", "apply_permissions", "set_public welcome", "all_verified_only", "preset crypto", "quicksetup"} {
		reply := run(h, fake, "owner", command)
		require.NotNil(t, reply, command)
		assert.Contains(t, reply.Content, "Verified role not found", command)
	}

	assert.Empty(t, fake.Mutations())
	config, err := h.store.Config(context.Background())
	require.NoError(t, err)
	assert.Empty(t, config.PublicChannels)
}

func TestApplyPermissionsAlias(t *testing.T) {
	h, fake := newHandler(t)

	run(h, fake, "owner", "apply_permissions")
	assert.NotEmpty(t, fake.Overwrites("c2"))
}
