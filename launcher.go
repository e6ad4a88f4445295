package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/getsentry/raven-go"
	"github.com/kz/discordrus"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/xgctrenches/xgcbot/cache"
	"github.com/xgctrenches/xgcbot/helpers"
	"github.com/xgctrenches/xgcbot/logging"
	"github.com/xgctrenches/xgcbot/metrics"
	"github.com/xgctrenches/xgcbot/models"
	"github.com/xgctrenches/xgcbot/modlog"
	"github.com/xgctrenches/xgcbot/modules"
	"github.com/xgctrenches/xgcbot/modules/plugins"
	"github.com/xgctrenches/xgcbot/modules/plugins/channels"
	"github.com/xgctrenches/xgcbot/modules/plugins/crypto"
	"github.com/xgctrenches/xgcbot/modules/plugins/mod"
	"github.com/xgctrenches/xgcbot/modules/plugins/youtube"
	"github.com/xgctrenches/xgcbot/platform"
	"github.com/xgctrenches/xgcbot/ratelimits"
	"github.com/xgctrenches/xgcbot/store"
	"github.com/xgctrenches/xgcbot/version"
	"golang.org/x/sync/errgroup"
)

const intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMembers |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsGuildMessageReactions |
	discordgo.IntentsDirectMessages |
	discordgo.IntentsMessageContent

// Entrypoint
func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "xgcbot:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "xgcbot",
		Short:         "Community bot for the XGC Trenches Discord",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Connect to discord and serve commands",
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd.Context())
			},
		},
		newSetupCommand(),
		&cobra.Command{
			Use:   "version",
			Short: "Print build information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "xgcbot %s (built %s by %s@%s, %s)\n",
					version.BOT_VERSION, version.BUILD_TIME, version.BUILD_USER, version.BUILD_HOST, version.GoVersion())
			},
		},
	)

	return root
}

func newSetupCommand() *cobra.Command {
	var (
		write bool
		file  string
	)

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Check the environment and optionally write a template of missing variables",
		RunE: func(cmd *cobra.Command, args []string) error {
			missing := checkEnvironment(cmd.OutOrStdout(), os.LookupEnv)
			if !write {
				return nil
			}

			f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
			if err != nil {
				return errors.Wrap(err, "creating template")
			}
			defer f.Close()

			if err := writeTemplate(f, missing); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d variables to %s\n", len(missing), file)
			return nil
		},
	}
	cmd.Flags().BoolVar(&write, "write", false, "write missing variables to the template file")
	cmd.Flags().StringVar(&file, "file", ".env.example", "template file to write")

	return cmd
}

// checkEnvironment prints the state of every variable and returns the unset ones
func checkEnvironment(out io.Writer, lookup func(string) (string, bool)) []helpers.EnvVar {
	var missing []helpers.EnvVar

	for _, v := range helpers.ConfigVars() {
		value, ok := lookup(v.Key)
		switch {
		case ok && value != "":
			fmt.Fprintf(out, "  ✅ %s\n", v.Key)
		case v.Required:
			fmt.Fprintf(out, "  ❌ %s (required)\n", v.Key)
			missing = append(missing, v)
		default:
			fmt.Fprintf(out, "  ➖ %s\n", v.Key)
			missing = append(missing, v)
		}
	}

	return missing
}

func writeTemplate(w io.Writer, vars []helpers.EnvVar) error {
	for _, v := range vars {
		line := v.Key + "=" + v.Default + "\n"
		if v.Required {
			line = "# required\n" + line
		}
		if _, err := io.WriteString(w, line); err != nil {
			return errors.Wrap(err, "writing template")
		}
	}
	return nil
}

func newLogger(config *helpers.Config) (*logrus.Logger, func() error) {
	closer := func() error { return nil }

	log := logrus.New()
	log.Out = os.Stdout
	log.Formatter = &logrus.TextFormatter{FullTimestamp: true, TimestampFormat: time.RFC3339}
	log.Hooks = make(logrus.LevelHooks)

	level, err := logrus.ParseLevel(config.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	if config.Debug {
		level = logrus.DebugLevel
	}
	log.Level = level

	if config.LogDiscordWebhook != "" {
		log.Hooks.Add(discordrus.NewHook(
			config.LogDiscordWebhook,
			logrus.ErrorLevel,
			&discordrus.Opts{
				Username:           "Logging",
				DisableTimestamp:   false,
				TimestampFormat:    "Jan 2 15:04:05.00000",
				EnableCustomColors: true,
				CustomLevelColors: &discordrus.LevelColors{
					Error: 13631488,
					Panic: 13631488,
					Fatal: 13631488,
				},
			},
		))
	}

	if config.LogFile != "" {
		hook, err := logging.NewFileHook(config.LogFile, level)
		if err != nil {
			log.WithField("module", "launcher").Error("logrus file hook failed, err: ", err.Error())
		} else {
			log.Hooks.Add(hook)
			closer = hook.Close
		}
	}

	return log, closer
}

// bridgeDiscordgoLogger hands discordgo's own log lines to logrus
func bridgeDiscordgoLogger(log *logrus.Logger) {
	discordgo.Logger = func(msgL, caller int, format string, a ...interface{}) {
		pc, file, line, _ := runtime.Caller(caller)

		files := strings.Split(file, "/")
		file = files[len(files)-1]

		name := runtime.FuncForPC(pc).Name()
		fns := strings.Split(name, ".")
		name = fns[len(fns)-1]

		msg := format
		if strings.Contains(msg, "%") {
			msg = fmt.Sprintf(format, a...)
		}

		entry := log.WithField("module", "discordgo")
		switch msgL {
		case discordgo.LogError:
			entry.Errorf("%s:%d:%s() %s", file, line, name, msg)
		case discordgo.LogWarning:
			entry.Warnf("%s:%d:%s() %s", file, line, name, msg)
		case discordgo.LogInformational:
			entry.Infof("%s:%d:%s() %s", file, line, name, msg)
		case discordgo.LogDebug:
			entry.Debugf("%s:%d:%s() %s", file, line, name, msg)
		}
	}
}

func run(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}

	config, err := helpers.LoadConfig()
	if err != nil {
		return err
	}

	log, closeLog := newLogger(config)
	defer closeLog()
	cache.SetLogger(log)
	launcher := log.WithField("module", "launcher")

	launcher.Info("Booting xgcbot...")

	helpers.LoadTranslations()
	version.DumpInfo()
	launcher.Info("USERAGENT: '" + helpers.DEFAULT_UA + "'")

	if config.SentryDSN != "" {
		launcher.Info("[SENTRY] Calling home...")
		if err := raven.SetDSN(config.SentryDSN); err != nil {
			return errors.Wrap(err, "configuring sentry")
		}
		raven.SetRelease(version.BOT_VERSION)
	}

	// documents
	permissions, closePermissions, err := store.OpenPermissions(config.DataDir)
	if err != nil {
		return err
	}
	defer closePermissions()

	roleMenu, closeRoleMenu, err := store.OpenRoleMenu(config.DataDir, models.DefaultRoleMenuOptions())
	if err != nil {
		return err
	}
	defer closeRoleMenu()

	verificationPost, closeVerification, err := store.OpenVerification(config.DataDir)
	if err != nil {
		return err
	}
	defer closeVerification()

	autoDelete, closeAutoDelete, err := store.OpenAutoDelete(config.DataDir)
	if err != nil {
		return err
	}
	defer closeAutoDelete()

	ytConfig, closeYoutube, err := store.OpenYoutube(config.DataDir)
	if err != nil {
		return err
	}
	defer closeYoutube()

	cases, err := modlog.Open(config.ModlogDSN)
	if err != nil {
		return err
	}
	defer cases.Close()

	bridgeDiscordgoLogger(log)
	launcher.Info("Connecting xgcbot to discord...")
	session, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return errors.Wrap(err, "creating discord session")
	}

	session.Lock()
	session.Debug = false
	session.LogLevel = discordgo.LogInformational
	session.StateEnabled = true
	session.Identify.Intents = intents
	session.Unlock()

	cache.SetSession(session)
	p := platform.NewDiscord(session)

	prompter := helpers.NewPrompter(helpers.ConfirmTimeout)
	verification := plugins.NewVerification(verificationPost)

	registry, err := modules.NewRegistry(p, prompter,
		&plugins.About{},
		&plugins.Ping{},
		&plugins.Greeter{},
		verification,
		&plugins.Roles{},
		plugins.NewRoleMenu(roleMenu),
		plugins.NewAutoDelete(autoDelete, plugins.CleanPause),
		plugins.NewServerSetup(verification, channels.ApplyPause),
		mod.New(prompter, cases, mod.ClearNoticeDelay),
		channels.New(permissions, prompter, channels.ApplyPause),
		crypto.New(nil),
		youtube.New(ytConfig, "", youtube.CheckPause),
	)
	if err != nil {
		return err
	}

	bot := newBot(registry, config.Prefix)
	bot.addHandlers(session)

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	metrics.Init(gctx, config.MetricsAddr)
	ratelimits.Container.Init(gctx)
	g.Go(func() error {
		metrics.CollectRuntimeMetrics(gctx)
		return nil
	})

	if err := session.Open(); err != nil {
		raven.CaptureErrorAndWait(err, nil)
		return errors.Wrap(err, "connecting to discord")
	}

	g.Go(func() error {
		<-gctx.Done()

		launcher.Info("Shutting down...")
		bot.shutdown()
		return session.Close()
	})

	launcher.Info("xgcbot is now running. Press CTRL-C to exit.")
	return g.Wait()
}
