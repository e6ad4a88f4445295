package main

import (
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/getsentry/raven-go"
	"github.com/xgctrenches/xgcbot/cache"
	"github.com/xgctrenches/xgcbot/helpers"
	"github.com/xgctrenches/xgcbot/metrics"
	"github.com/xgctrenches/xgcbot/modules"
)

// dispatcher is the part of the registry the gateway handlers use
type dispatcher interface {
	Init()
	Uninit()
	Dispatch(msg *discordgo.Message, prefix string) bool
	CallOnGuildMemberAdd(member *discordgo.Member)
	CallOnGuildMemberRemove(member *discordgo.Member)
	CallOnReactionAdd(reaction *discordgo.MessageReaction)
	CallOnReactionRemove(reaction *discordgo.MessageReaction)
	CallOnReady()
}

var _ dispatcher = (*modules.Registry)(nil)

// Bot turns gateway events into registry calls
type Bot struct {
	registry dispatcher
	prefix   string

	initOnce     sync.Once
	shutdownOnce sync.Once
	ready        bool
	sync.Mutex
}

func newBot(registry dispatcher, prefix string) *Bot {
	return &Bot{registry: registry, prefix: prefix}
}

func (b *Bot) addHandlers(session *discordgo.Session) {
	session.AddHandler(b.OnReady)
	session.AddHandler(b.OnMessageCreate)
	session.AddHandler(b.OnGuildMemberAdd)
	session.AddHandler(b.OnGuildMemberRemove)
	session.AddHandler(b.OnReactionAdd)
	session.AddHandler(b.OnReactionRemove)
	session.AddHandlerOnce(metrics.OnReady)
	session.AddHandler(metrics.OnMessageCreate)
}

// inGuild is false for DMs and, when GUILD_ID is set, for other guilds
func inGuild(guildID string) bool {
	if guildID == "" {
		return false
	}
	configured := helpers.GetConfig().GuildID
	return configured == "" || configured == guildID
}

// OnReady gets called after the gateway connected. Plugins are initialized on
// the first ready only, reconnects just log.
func (b *Bot) OnReady(session *discordgo.Session, event *discordgo.Ready) {
	log := cache.GetLogger().WithField("module", "bot")

	log.Info("Connected to discord!")
	log.Info(fmt.Sprintf("Invite link: https://discord.com/oauth2/authorize?client_id=%s&scope=bot&permissions=8",
		event.User.ID))

	b.initOnce.Do(func() {
		b.registry.Init()
		b.registry.CallOnReady()

		b.Lock()
		b.ready = true
		b.Unlock()
	})
}

func (b *Bot) isReady() bool {
	b.Lock()
	defer b.Unlock()
	return b.ready
}

// OnMessageCreate gets called after a new message was sent
func (b *Bot) OnMessageCreate(session *discordgo.Session, message *discordgo.MessageCreate) {
	if !b.isReady() || message.Author == nil {
		return
	}

	// Ignore other bots and @everyone/@here
	if message.Author.Bot || message.MentionEveryone {
		return
	}
	if !inGuild(message.GuildID) {
		return
	}

	b.registry.Dispatch(message.Message, b.prefix)
}

func (b *Bot) OnGuildMemberAdd(session *discordgo.Session, member *discordgo.GuildMemberAdd) {
	if !b.isReady() || !inGuild(member.GuildID) {
		return
	}
	b.registry.CallOnGuildMemberAdd(member.Member)
}

func (b *Bot) OnGuildMemberRemove(session *discordgo.Session, member *discordgo.GuildMemberRemove) {
	if !b.isReady() || !inGuild(member.GuildID) {
		return
	}
	b.registry.CallOnGuildMemberRemove(member.Member)
}

func (b *Bot) OnReactionAdd(session *discordgo.Session, reaction *discordgo.MessageReactionAdd) {
	if reaction.MessageReaction == nil {
		raven.CaptureError(fmt.Errorf("empty reaction event"), map[string]string{})
		return
	}
	if !b.isReady() || !inGuild(reaction.GuildID) {
		return
	}
	b.registry.CallOnReactionAdd(reaction.MessageReaction)
}

func (b *Bot) OnReactionRemove(session *discordgo.Session, reaction *discordgo.MessageReactionRemove) {
	if reaction.MessageReaction == nil {
		raven.CaptureError(fmt.Errorf("empty reaction event"), map[string]string{})
		return
	}
	if !b.isReady() || !inGuild(reaction.GuildID) {
		return
	}
	b.registry.CallOnReactionRemove(reaction.MessageReaction)
}

// shutdown stops plugin background work, once
func (b *Bot) shutdown() {
	b.shutdownOnce.Do(func() {
		if b.isReady() {
			b.registry.Uninit()
		}
	})
}
