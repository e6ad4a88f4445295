package models

const (
	YoutubeFile = "youtube_config.json"

	YoutubeDefaultInterval = 10
)

// YoutubeChannelEntry is one tracked youtube channel
type YoutubeChannelEntry struct {
	Name             string `json:"name"`
	LastVideoID      string `json:"last_video_id"`
	DiscordChannelID string `json:"discord_channel_id"`
}

// YoutubeConfig is the youtube_config.json document, keyed by youtube channel id
type YoutubeConfig struct {
	APIKey        string                         `json:"api_key"`
	CheckInterval int                            `json:"check_interval"`
	Channels      map[string]YoutubeChannelEntry `json:"channels"`
}

func DefaultYoutubeConfig() YoutubeConfig {
	return YoutubeConfig{
		CheckInterval: YoutubeDefaultInterval,
		Channels:      map[string]YoutubeChannelEntry{},
	}
}

func (c YoutubeConfig) Clone() YoutubeConfig {
	channels := make(map[string]YoutubeChannelEntry, len(c.Channels))
	for k, v := range c.Channels {
		channels[k] = v
	}
	c.Channels = channels
	return c
}
