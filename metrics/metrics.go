package metrics

import (
	"context"
	"expvar"
	"net/http"
	"runtime"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/xgctrenches/xgcbot/cache"
)

var (
	// MessagesReceived counts all ever received messages
	MessagesReceived = expvar.NewInt("messages_received")

	// CommandsExecuted increases after each command execution
	CommandsExecuted = expvar.NewInt("commands_executed")

	// CommandErrors counts commands that ended in a recovered panic
	CommandErrors = expvar.NewInt("command_errors")

	// MembersVerified counts verification role grants
	MembersVerified = expvar.NewInt("members_verified")

	// ModerationActions counts confirmed kicks, bans, unbans and clears
	ModerationActions = expvar.NewInt("moderation_actions")

	// PriceLookups counts ledger requests
	PriceLookups = expvar.NewInt("price_lookups")

	// YoutubeChecks counts polled youtube channels
	YoutubeChecks = expvar.NewInt("youtube_checks")

	// GuildCount counts all joined guilds
	GuildCount = expvar.NewInt("guild_count")

	// CoroutineCount counts all running coroutines
	CoroutineCount = expvar.NewInt("coroutine_count")

	// Uptime stores the timestamp of the bot's boot
	Uptime = expvar.NewInt("uptime")
)

// Init records the boot time and serves /debug/vars on addr when addr is set.
// The server stops when ctx ends.
func Init(ctx context.Context, addr string) {
	Uptime.Set(time.Now().Unix())

	if addr == "" {
		return
	}

	server := &http.Server{Addr: addr, Handler: http.DefaultServeMux}
	go func() {
		<-ctx.Done()
		server.Close()
	}()
	go func() {
		cache.GetLogger().WithField("module", "metrics").Info("Listening on " + addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			cache.GetLogger().WithField("module", "metrics").Error(err)
		}
	}()
}

// Since returns how long the bot has been up
func Since() time.Duration {
	started := Uptime.Value()
	if started == 0 {
		return 0
	}
	return time.Since(time.Unix(started, 0))
}

// OnReady listens for said discord event
func OnReady(session *discordgo.Session, event *discordgo.Ready) {
	GuildCount.Set(int64(len(event.Guilds)))
}

// OnMessageCreate listens for said discord event
func OnMessageCreate(session *discordgo.Session, event *discordgo.MessageCreate) {
	MessagesReceived.Add(1)
}

// CollectRuntimeMetrics counts all running coroutines until ctx ends
func CollectRuntimeMetrics(ctx context.Context) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		CoroutineCount.Set(int64(runtime.NumGoroutine()))

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
