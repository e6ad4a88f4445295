package helpers

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xgctrenches/xgcbot/emojis"
	"github.com/xgctrenches/xgcbot/platform/platformtest"
)

var alice = &discordgo.User{ID: "alice", Username: "alice"}

func TestConfirmAnswersFromAuthor(t *testing.T) {
	fake := platformtest.New()
	prompter := NewPrompter(time.Second)

	done := make(chan bool, 1)
	go func() {
		ok, _ := prompter.Confirm(context.Background(), fake, "c", alice, "sure?")
		done <- ok
	}()

	require.Eventually(t, func() bool { return prompter.Pending() == 1 }, time.Second, time.Millisecond)
	prompt := fake.Sent("c")[0]
	if prompter.HandleReaction(prompt.ID, "mallory", emojis.Confirm) {
		t.Fatalf("helpers.Prompter.HandleReaction() accepted another user")
	}
	require.True(t, prompter.HandleReaction(prompt.ID, "alice", emojis.Confirm))

	assert.True(t, <-done)
	assert.Empty(t, fake.Sent("c"), "the prompt should be deleted")
	assert.Len(t, fake.Reactions(), 2)
}

func TestConfirmToleratesMissingReactionPermission(t *testing.T) {
	fake := platformtest.New()
	fake.FailOn("AddReaction", "c", platformtest.Forbidden())

	ok, err := NewPrompter(10*time.Millisecond).Confirm(context.Background(), fake, "c", alice, "sure?")
	require.NoError(t, err)
	assert.False(t, ok)

	sent := fake.Sent("c")
	require.Len(t, sent, 1)
	assert.Equal(t, GetText("bot.embeds.confirm-timeout"), sent[0].Content)
}

func TestConfirmRaisesReactionFailures(t *testing.T) {
	fake := platformtest.New()
	fake.FailOn("AddReaction", "c", errors.New("gateway gone"))
	prompter := NewPrompter(10 * time.Millisecond)

	assert.Panics(t, func() {
		prompter.Confirm(context.Background(), fake, "c", alice, "sure?")
	})
	assert.Zero(t, prompter.Pending())
	assert.Empty(t, fake.Sent("c"), "the prompt should be deleted")
}

func TestConfirmIgnoresDeletedPrompt(t *testing.T) {
	fake := platformtest.New()
	prompter := NewPrompter(20 * time.Millisecond)

	done := make(chan interface{}, 1)
	go func() {
		defer func() { done <- recover() }()
		prompter.Confirm(context.Background(), fake, "c", alice, "sure?")
	}()

	require.Eventually(t, func() bool { return prompter.Pending() == 1 }, time.Second, time.Millisecond)
	require.NoError(t, fake.DeleteMessage("c", fake.Sent("c")[0].ID))

	if r := <-done; r != nil {
		t.Fatalf("helpers.Prompter.Confirm() panicked on a deleted prompt: %v", r)
	}
}
