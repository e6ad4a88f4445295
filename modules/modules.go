package modules

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/xgctrenches/xgcbot/cache"
	"github.com/xgctrenches/xgcbot/helpers"
	"github.com/xgctrenches/xgcbot/metrics"
	"github.com/xgctrenches/xgcbot/platform"
	"github.com/xgctrenches/xgcbot/ratelimits"
)

// Registry routes commands and events to plugins.
type Registry struct {
	platform platform.Platform
	prompter *helpers.Prompter
	plugins  []Plugin
	commands map[string]Plugin
}

func logger() *logrus.Entry {
	return cache.GetLogger().WithField("module", "modules")
}

// NewRegistry indexes the plugins by command word. Two plugins claiming the
// same word is a programming error.
func NewRegistry(p platform.Platform, prompter *helpers.Prompter, plugins ...Plugin) (*Registry, error) {
	r := &Registry{
		platform: p,
		prompter: prompter,
		plugins:  plugins,
		commands: make(map[string]Plugin),
	}

	for _, plugin := range plugins {
		for _, cmd := range plugin.Commands() {
			cmd = strings.ToLower(cmd)
			if occupant, ok := r.commands[cmd]; ok {
				return nil, errors.Errorf("%s can not register '%s', already registered by %s",
					helpers.Typeof(plugin), cmd, helpers.Typeof(occupant))
			}
			r.commands[cmd] = plugin
		}
	}

	return r, nil
}

// Init initializes the plugins in registration order
func (r *Registry) Init() {
	for _, plugin := range r.plugins {
		logger().Info(fmt.Sprintf("[PLUG] %s reacts to [ %s ]",
			helpers.Typeof(plugin), strings.Join(plugin.Commands(), " ")))

		r.safely(nil, func() { plugin.Init(r.platform) })
	}

	logger().Infof("Initializer finished. Loaded %d plugins", len(r.plugins))
}

// Uninit lets plugins stop their background work
func (r *Registry) Uninit() {
	for _, plugin := range r.plugins {
		if u, ok := plugin.(Uninitializer); ok {
			logger().Info(fmt.Sprintf("[PLUG] %s deinitializing…", helpers.Typeof(plugin)))
			r.safely(nil, func() { u.Uninit(r.platform) })
		}
	}
}

// Commands returns every registered command word, sorted
func (r *Registry) Commands() []string {
	cmds := make([]string, 0, len(r.commands))
	for cmd := range r.commands {
		cmds = append(cmds, cmd)
	}
	sort.Strings(cmds)
	return cmds
}

// Dispatch handles a guild message: prefixed messages go to the owning
// plugin, everything else to the message listeners. It reports whether a
// command ran.
func (r *Registry) Dispatch(msg *discordgo.Message, prefix string) bool {
	if prefix == "" || !strings.HasPrefix(msg.Content, prefix) {
		r.CallOnMessage(msg.Content, msg)
		return false
	}

	parts := strings.Fields(strings.TrimPrefix(msg.Content, prefix))
	if len(parts) == 0 {
		r.CallOnMessage(msg.Content, msg)
		return false
	}

	cmd := strings.ToLower(parts[0])
	if _, ok := r.commands[cmd]; !ok {
		r.CallOnMessage(msg.Content, msg)
		return false
	}

	content := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(strings.TrimPrefix(msg.Content, prefix)), parts[0]))

	logger().Debug(fmt.Sprintf("%s (#%s): %s", msg.Author.Username, msg.Author.ID, msg.Content))

	r.CallBotPlugin(cmd, content, msg)
	return true
}

// CallBotPlugin runs a command, recovering from any panic inside
//
// command - The command that triggered this execution
// content - The content without command
// msg     - The message object
func (r *Registry) CallBotPlugin(command string, content string, msg *discordgo.Message) {
	plugin, ok := r.commands[command]
	if !ok {
		return
	}

	// Check if the user is allowed to request commands
	if err := ratelimits.Container.Drain(1, msg.Author.ID); err != nil {
		r.platform.SendMessage(msg.ChannelID, helpers.GetTextF("bot.ratelimit.hit", msg.Author.ID))
		ratelimits.Container.Set(msg.Author.ID, -1)
		return
	}

	metrics.CommandsExecuted.Add(1)
	r.safely(msg, func() { plugin.Action(command, content, msg, r.platform) })
}

func (r *Registry) CallOnMessage(content string, msg *discordgo.Message) {
	for _, plugin := range r.plugins {
		if l, ok := plugin.(MessageListener); ok {
			r.safely(nil, func() { l.OnMessage(strings.TrimSpace(content), msg, r.platform) })
		}
	}
}

func (r *Registry) CallOnGuildMemberAdd(member *discordgo.Member) {
	for _, plugin := range r.plugins {
		if l, ok := plugin.(MemberListener); ok {
			r.safely(nil, func() { l.OnGuildMemberAdd(member, r.platform) })
		}
	}
}

func (r *Registry) CallOnGuildMemberRemove(member *discordgo.Member) {
	for _, plugin := range r.plugins {
		if l, ok := plugin.(MemberListener); ok {
			r.safely(nil, func() { l.OnGuildMemberRemove(member, r.platform) })
		}
	}
}

// CallOnReactionAdd answers pending confirmations first; a reaction that
// answered one is not seen by the listeners.
func (r *Registry) CallOnReactionAdd(reaction *discordgo.MessageReaction) {
	if reaction.UserID == r.platform.BotUser().ID {
		return
	}
	if r.prompter != nil && r.prompter.HandleReaction(reaction.MessageID, reaction.UserID, reaction.Emoji.Name) {
		return
	}

	for _, plugin := range r.plugins {
		if l, ok := plugin.(ReactionListener); ok {
			r.safely(nil, func() { l.OnReactionAdd(reaction, r.platform) })
		}
	}
}

func (r *Registry) CallOnReactionRemove(reaction *discordgo.MessageReaction) {
	if reaction.UserID == r.platform.BotUser().ID {
		return
	}

	for _, plugin := range r.plugins {
		if l, ok := plugin.(ReactionListener); ok {
			r.safely(nil, func() { l.OnReactionRemove(reaction, r.platform) })
		}
	}
}

func (r *Registry) CallOnReady() {
	for _, plugin := range r.plugins {
		if l, ok := plugin.(ReadyListener); ok {
			r.safely(nil, func() { l.OnReady(r.platform) })
		}
	}
}

// safely runs fn and turns a panic into a logged, reported failure
func (r *Registry) safely(msg *discordgo.Message, fn func()) {
	defer func() {
		if err := recover(); err != nil {
			metrics.CommandErrors.Add(1)
			helpers.ReportPanic(r.platform, msg, err)
		}
	}()

	fn()
}
