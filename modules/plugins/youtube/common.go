package youtube

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
	"github.com/xgctrenches/xgcbot/cache"
	"github.com/xgctrenches/xgcbot/helpers"
	youtubeAPI "google.golang.org/api/youtube/v3"
)

const (
	youtubeChannelBaseUrl = "https://www.youtube.com/channel/%s"
	youtubeVideoBaseUrl   = "https://www.youtube.com/watch?v=%s"

	descriptionLength = 200
)

func logger() *logrus.Entry {
	return cache.GetLogger().WithField("module", "youtube")
}

// verifyEmbedFields trims fields discord would reject, the ones with an empty
// name or value.
func verifyEmbedFields(fields []*discordgo.MessageEmbedField) []*discordgo.MessageEmbedField {
	for i := len(fields) - 1; i >= 0; i-- {
		if fields[i].Value == "" || fields[i].Name == "" {
			fields = append(fields[:i], fields[i+1:]...)
		}
	}

	return fields
}

func humanizeTime(t string) string {
	parsedTime, err := time.Parse(time.RFC3339, t)
	if err != nil {
		logger().Error(err)
		return t
	}

	year, month, day := parsedTime.Date()
	return fmt.Sprintf("%d-%d-%d", year, month, day)
}

// videoEmbed renders a search result the way notifications show it
func videoEmbed(video *youtubeAPI.SearchResult) *discordgo.MessageEmbed {
	snippet := video.Snippet

	embed := &discordgo.MessageEmbed{
		Title:       helpers.GetTextF("plugins.youtube.video-embed-title", snippet.Title),
		URL:         fmt.Sprintf(youtubeVideoBaseUrl, video.Id.VideoId),
		Description: helpers.Truncate(snippet.Description, descriptionLength+1) + "\n\n" + helpers.GetText("plugins.youtube.video-embed-watch"),
		Color:       helpers.ColorYoutube,
		Author: &discordgo.MessageEmbedAuthor{
			Name: snippet.ChannelTitle,
			URL:  fmt.Sprintf(youtubeChannelBaseUrl, snippet.ChannelId),
		},
		Footer: &discordgo.MessageEmbedFooter{Text: helpers.GetText("plugins.youtube.video-embed-footer")},
		Fields: verifyEmbedFields([]*discordgo.MessageEmbedField{
			{Name: helpers.GetText("plugins.youtube.published"), Value: humanizeTime(snippet.PublishedAt), Inline: true},
		}),
	}

	if _, err := time.Parse(time.RFC3339, snippet.PublishedAt); err == nil {
		embed.Timestamp = snippet.PublishedAt
	}
	if snippet.Thumbnails != nil && snippet.Thumbnails.High != nil {
		embed.Image = &discordgo.MessageEmbedImage{URL: snippet.Thumbnails.High.Url}
	}

	return embed
}
