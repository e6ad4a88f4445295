package modules

import (
	"github.com/bwmarrin/discordgo"
	"github.com/xgctrenches/xgcbot/platform"
)

// Plugin owns one or more command words.
type Plugin interface {
	Commands() []string

	Init(p platform.Platform)

	Action(
		command string,
		content string,
		msg *discordgo.Message,
		p platform.Platform,
	)
}

// MessageListener sees every guild message that is not a command.
type MessageListener interface {
	OnMessage(
		content string,
		msg *discordgo.Message,
		p platform.Platform,
	)
}

// MemberListener follows members joining and leaving.
type MemberListener interface {
	OnGuildMemberAdd(
		member *discordgo.Member,
		p platform.Platform,
	)

	OnGuildMemberRemove(
		member *discordgo.Member,
		p platform.Platform,
	)
}

// ReactionListener follows reactions on any message.
type ReactionListener interface {
	OnReactionAdd(
		reaction *discordgo.MessageReaction,
		p platform.Platform,
	)

	OnReactionRemove(
		reaction *discordgo.MessageReaction,
		p platform.Platform,
	)
}

// ReadyListener runs once the gateway session is ready.
type ReadyListener interface {
	OnReady(p platform.Platform)
}

// Uninitializer releases background work on shutdown.
type Uninitializer interface {
	Uninit(p platform.Platform)
}
