package mod

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xgctrenches/xgcbot/emojis"
	"github.com/xgctrenches/xgcbot/helpers"
	"github.com/xgctrenches/xgcbot/models"
	"github.com/xgctrenches/xgcbot/modlog"
	"github.com/xgctrenches/xgcbot/platform/platformtest"
)

const targetID = "100000000000000001"

var targetMention = "<@" + targetID + ">"

type fixture struct {
	h        *Handler
	fake     *platformtest.Fake
	prompter *helpers.Prompter
	log      *modlog.Log
}

func newFixture(t *testing.T, timeout time.Duration) *fixture {
	t.Helper()

	fake := platformtest.New()
	fake.AddGuild("g", "owner")
	fake.AddRole("g", "botrole", "Bot", 10, discordgo.PermissionAdministrator)
	fake.AddRole("g", "modrole", "Moderator", 5, discordgo.PermissionKickMembers|discordgo.PermissionBanMembers)
	fake.AddRole("g", "high", "High", 20, 0)
	fake.AddChannel("g", "c", "mod-chat", discordgo.ChannelTypeGuildText, "")
	fake.AddMember("g", fake.BotUser().ID, "xgcbot", true, "botrole")
	fake.AddMember("g", "owner", "owner", false)
	fake.AddMember("g", "mod", "moddy", false, "modrole")
	fake.AddMember("g", targetID, "spammer", false)
	fake.AddMember("g", "boss", "boss", false, "high")
	fake.AddMember("g", "pleb", "pleb", false)

	log, err := modlog.Open(filepath.Join(t.TempDir(), "modlog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { log.Close() })

	prompter := helpers.NewPrompter(timeout)
	h := New(prompter, log, 10*time.Millisecond)
	h.Init(fake)

	return &fixture{h: h, fake: fake, prompter: prompter, log: log}
}

func (f *fixture) message(author, content string) *discordgo.Message {
	return &discordgo.Message{
		ID:        "cmd-" + author,
		ChannelID: "c",
		GuildID:   "g",
		Content:   content,
		Author:    &discordgo.User{ID: author, Username: author},
	}
}

// answer waits for the confirmation prompt and reacts on it as userID
func (f *fixture) answer(t *testing.T, userID, emoji string) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		for _, sent := range f.fake.Sent("c") {
			if len(sent.Embeds) == 0 || sent.Embeds[0].Footer == nil {
				continue
			}
			if f.prompter.HandleReaction(sent.ID, userID, emoji) {
				return
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("mod: no confirmation prompt appeared")
}

func (f *fixture) runConfirmed(t *testing.T, command, content, author, emoji string) {
	t.Helper()

	done := make(chan struct{})
	go func() {
		defer close(done)
		f.h.Action(command, content, f.message(author, content), f.fake)
	}()
	f.answer(t, author, emoji)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("mod.Action(%s) did not return after the answer", command)
	}
}

func mutationsWith(fake *platformtest.Fake, prefix string) []string {
	var out []string
	for _, m := range fake.Mutations() {
		if strings.HasPrefix(m, prefix) {
			out = append(out, m)
		}
	}
	return out
}

func TestKickAfterConfirmation(t *testing.T) {
	f := newFixture(t, time.Second)

	f.runConfirmed(t, "kick", targetMention+" spamming links", "mod", emojis.Confirm)

	assert.Equal(t, []string{"kick " + targetID + " Kicked by mod: spamming links"}, mutationsWith(f.fake, "kick"))
	require.Len(t, f.fake.DirectMessages(targetID), 1)
	assert.Contains(t, f.fake.DirectMessages(targetID)[0], "guild-g")
	assert.Zero(t, f.prompter.Pending())

	cases, err := f.log.ForTarget(context.Background(), "g", targetID, 10)
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, models.ModlogActionKick, cases[0].Action)
	assert.Equal(t, "spamming links", cases[0].Reason)
}

func TestBanDeletesNoMessages(t *testing.T) {
	f := newFixture(t, time.Second)

	f.runConfirmed(t, "ban", "spammer", "owner", emojis.Confirm)

	assert.Equal(t, []string{"ban " + targetID + " Banned by owner 0"}, mutationsWith(f.fake, "ban"))
	assert.True(t, f.fake.IsBanned("g", targetID))
}

func TestBanTimesOutWithoutMutation(t *testing.T) {
	f := newFixture(t, 30*time.Millisecond)

	f.h.Action("ban", targetMention+" bye", f.message("mod", targetMention+" bye"), f.fake)

	assert.Empty(t, mutationsWith(f.fake, "ban"))
	assert.Empty(t, mutationsWith(f.fake, "kick"))
	assert.False(t, f.fake.IsBanned("g", targetID))
	assert.Empty(t, f.fake.DirectMessages(targetID))
	assert.Zero(t, f.prompter.Pending())
}

func TestKickAbortedByReaction(t *testing.T) {
	f := newFixture(t, time.Second)

	f.runConfirmed(t, "kick", targetMention, "mod", emojis.Abort)

	assert.Empty(t, mutationsWith(f.fake, "kick"))
}

func TestOnlyTheAuthorCanConfirm(t *testing.T) {
	f := newFixture(t, 200*time.Millisecond)

	done := make(chan struct{})
	go func() {
		defer close(done)
		f.h.Action("kick", targetMention, f.message("mod", targetMention), f.fake)
	}()

	// someone else reacting does not count
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) && f.prompter.Pending() == 0 {
		time.Sleep(5 * time.Millisecond)
	}
	for _, sent := range f.fake.Sent("c") {
		assert.False(t, f.prompter.HandleReaction(sent.ID, "owner", emojis.Confirm))
	}
	<-done

	assert.Empty(t, mutationsWith(f.fake, "kick"))
}

func TestHierarchyIsEnforced(t *testing.T) {
	f := newFixture(t, time.Second)

	// above the bot
	f.h.Action("kick", "boss", f.message("owner", "boss"), f.fake)
	// the moderator's own level
	f.fake.AddMember("g", "peer", "peer", false, "modrole")
	f.h.Action("kick", "peer", f.message("mod", "peer"), f.fake)

	assert.Empty(t, mutationsWith(f.fake, "kick"))
	assert.Zero(t, f.prompter.Pending())
}

func TestModCommandsNeedPermission(t *testing.T) {
	f := newFixture(t, time.Second)

	f.h.Action("ban", targetMention, f.message("pleb", targetMention), f.fake)
	f.h.Action("clear", "5", f.message("pleb", "5"), f.fake)

	assert.Empty(t, f.fake.Mutations())
}

func TestClear(t *testing.T) {
	f := newFixture(t, time.Second)
	f.h.noticeDelay = 200 * time.Millisecond
	for i := 0; i < 6; i++ {
		f.fake.AddMessage("c", "pleb", "noise")
	}
	cmd := f.fake.AddMessage("c", "mod", "!clear 3")
	cmd.GuildID = "g"

	f.h.Action("clear", "3", cmd, f.fake)

	assert.Equal(t, []string{"bulk-delete c 3"}, mutationsWith(f.fake, "bulk-delete"))
	sent := f.fake.Sent("c")
	require.Len(t, sent, 4, "three of six messages stay, plus the notice")

	require.Eventually(t, func() bool { return len(f.fake.Sent("c")) == 3 }, time.Second, 5*time.Millisecond,
		"the clear notice is removed after the delay")
}

func TestClearRejectsOutOfRange(t *testing.T) {
	f := newFixture(t, time.Second)

	f.h.Action("clear", "101", f.message("mod", "101"), f.fake)
	f.h.Action("clear", "0", f.message("mod", "0"), f.fake)

	assert.Empty(t, mutationsWith(f.fake, "bulk-delete"))
}

func TestUnbanAndCases(t *testing.T) {
	f := newFixture(t, time.Second)
	require.NoError(t, f.fake.BanMember("g", targetID, "old", 0))

	f.h.Action("unban", "spammer", f.message("mod", "spammer"), f.fake)
	assert.False(t, f.fake.IsBanned("g", targetID))

	f.h.Action("unban", "nobody", f.message("mod", "nobody"), f.fake)

	f.h.Action("cases", targetMention, f.message("mod", targetMention), f.fake)
	sent := f.fake.Sent("c")
	last := sent[len(sent)-1]
	require.Len(t, last.Embeds, 1)
	assert.Contains(t, last.Embeds[0].Description, models.ModlogActionUnban)
}
