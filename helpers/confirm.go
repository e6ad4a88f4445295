package helpers

import (
	"context"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/xgctrenches/xgcbot/emojis"
	"github.com/xgctrenches/xgcbot/platform"
)

// ConfirmTimeout is how long a destructive command waits for its author
const ConfirmTimeout = 30 * time.Second

// Prompter asks a user to confirm via reactions. Reaction events are fed in
// through HandleReaction by the gateway handler.
type Prompter struct {
	timeout time.Duration

	mu      sync.Mutex
	waiters map[string]*confirmWaiter
}

type confirmWaiter struct {
	userID string
	answer chan bool
}

func NewPrompter(timeout time.Duration) *Prompter {
	return &Prompter{
		timeout: timeout,
		waiters: make(map[string]*confirmWaiter),
	}
}

// Confirm posts text and blocks until the author reacts with the confirm or
// abort emoji, the timeout passes, or ctx ends. Only a confirm reaction from
// the author returns true.
func (c *Prompter) Confirm(ctx context.Context, p platform.Platform, channelID string, author *discordgo.User, text string) (bool, error) {
	prompt, err := p.SendEmbed(channelID, &discordgo.MessageEmbed{
		Title:       GetTextF("bot.embeds.please-confirm-title", author.Username),
		Description: text,
		Color:       ColorOrange,
		Footer: &discordgo.MessageEmbedFooter{
			Text: GetTextF("bot.embeds.please-confirm-footer", int(c.timeout/time.Second)),
		},
	})
	if err != nil {
		return false, err
	}

	w := &confirmWaiter{userID: author.ID, answer: make(chan bool, 1)}
	c.mu.Lock()
	c.waiters[prompt.ID] = w
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.waiters, prompt.ID)
		c.mu.Unlock()
		// the prompt may already be gone
		if err := p.DeleteMessage(prompt.ChannelID, prompt.ID); Classify(err) != KindNotFound {
			RelaxMessage(err)
		}
	}()

	RelaxMessage(p.AddReaction(prompt.ChannelID, prompt.ID, emojis.Confirm))
	RelaxMessage(p.AddReaction(prompt.ChannelID, prompt.ID, emojis.Abort))

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case ok := <-w.answer:
		return ok, nil
	case <-timer.C:
		_, err := p.SendMessage(channelID, GetText("bot.embeds.confirm-timeout"))
		RelaxMessage(err)
		return false, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// HandleReaction answers a pending prompt. It returns false when the reaction
// does not belong to one.
func (c *Prompter) HandleReaction(messageID, userID, emoji string) bool {
	c.mu.Lock()
	w, ok := c.waiters[messageID]
	c.mu.Unlock()

	if !ok || w.userID != userID {
		return false
	}

	var answer bool
	switch emoji {
	case emojis.Confirm:
		answer = true
	case emojis.Abort:
		answer = false
	default:
		return false
	}

	select {
	case w.answer <- answer:
	default:
	}
	return true
}

// Pending reports how many prompts are waiting
func (c *Prompter) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.waiters)
}
