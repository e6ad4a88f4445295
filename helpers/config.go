package helpers

import (
	"sync"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

// Config is read from the environment. Identifiers stay strings, that is how
// discordgo hands them around.
type Config struct {
	Token  string `envconfig:"DISCORD_TOKEN" required:"true"`
	Prefix string `envconfig:"PREFIX" default:"!"`

	GuildID               string `envconfig:"GUILD_ID"`
	WelcomeChannelID      string `envconfig:"WELCOME_CHANNEL_ID"`
	VerificationChannelID string `envconfig:"VERIFICATION_CHANNEL_ID"`
	ModChannelID          string `envconfig:"MOD_CHANNEL_ID"`
	VerificationMessageID string `envconfig:"VERIFICATION_MESSAGE_ID"`
	VerifiedRoleID        string `envconfig:"VERIFIED_ROLE_ID"`
	ModRoleID             string `envconfig:"MOD_ROLE_ID"`

	DataDir   string `envconfig:"DATA_DIR" default:"."`
	ModlogDSN string `envconfig:"MODLOG_DSN" default:"modlog.db"`

	SentryDSN         string `envconfig:"SENTRY_DSN"`
	LogDiscordWebhook string `envconfig:"LOG_DISCORD_WEBHOOK"`
	LogLevel          string `envconfig:"LOG_LEVEL" default:"info"`
	LogFile           string `envconfig:"LOG_FILE"`
	MetricsAddr       string `envconfig:"METRICS_ADDR"`

	YoutubeAPIKey string `envconfig:"YOUTUBE_API_KEY"`
	XRPLEndpoint  string `envconfig:"XRPL_ENDPOINT" default:"https://s1.ripple.com:51234/"`

	Debug bool `envconfig:"DEBUG"`
}

// EnvVar describes one configuration variable, used by the setup command.
type EnvVar struct {
	Key      string
	Required bool
	Default  string
}

var (
	config      *Config
	configMutex sync.RWMutex
)

// LoadConfig reads the environment into the process config
func LoadConfig() (*Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, errors.Wrap(err, "reading environment")
	}

	SetConfig(&c)
	return &c, nil
}

// SetConfig replaces the process config, nil restores the defaults
func SetConfig(c *Config) {
	configMutex.Lock()
	config = c
	DEBUG_MODE = c != nil && c.Debug
	configMutex.Unlock()
}

// GetConfig is a config getter. It returns an empty config before LoadConfig.
func GetConfig() *Config {
	configMutex.RLock()
	defer configMutex.RUnlock()

	if config == nil {
		return &Config{Prefix: "!"}
	}
	return config
}

// ConfigVars lists every variable the bot reads, in declaration order.
func ConfigVars() []EnvVar {
	return []EnvVar{
		{Key: "DISCORD_TOKEN", Required: true},
		{Key: "PREFIX", Default: "!"},
		{Key: "GUILD_ID"},
		{Key: "WELCOME_CHANNEL_ID"},
		{Key: "VERIFICATION_CHANNEL_ID"},
		{Key: "MOD_CHANNEL_ID"},
		{Key: "VERIFICATION_MESSAGE_ID"},
		{Key: "VERIFIED_ROLE_ID"},
		{Key: "MOD_ROLE_ID"},
		{Key: "DATA_DIR", Default: "."},
		{Key: "MODLOG_DSN", Default: "modlog.db"},
		{Key: "SENTRY_DSN"},
		{Key: "LOG_DISCORD_WEBHOOK"},
		{Key: "LOG_LEVEL", Default: "info"},
		{Key: "LOG_FILE"},
		{Key: "METRICS_ADDR"},
		{Key: "YOUTUBE_API_KEY"},
		{Key: "XRPL_ENDPOINT", Default: "https://s1.ripple.com:51234/"},
		{Key: "DEBUG"},
	}
}
