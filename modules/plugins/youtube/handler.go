package youtube

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize"
	"github.com/xgctrenches/xgcbot/helpers"
	"github.com/xgctrenches/xgcbot/models"
	"github.com/xgctrenches/xgcbot/modules/plugins/youtube/service"
	"github.com/xgctrenches/xgcbot/platform"
	"github.com/xgctrenches/xgcbot/store"
)

type action func(args []string, in *discordgo.Message, out **discordgo.MessageSend) (next action)

const (
	// MinInterval keeps the daily API quota safe
	MinInterval = 5
	maxInterval = 7 * 24 * 60

	requestTimeout = 30 * time.Second

	// a large public channel, used when test gets no channel id
	testChannelID = "UCq-Fj5jknLsUf-MWSy4_brA"
)

type Handler struct {
	store    store.YoutubeStore
	endpoint string
	platform platform.Platform
	feeds    *feeds

	service *service.Service
	sync.RWMutex
}

// New returns the handler. An empty endpoint means the public API, pause is
// the wait between polled channels.
func New(s store.YoutubeStore, endpoint string, pause time.Duration) *Handler {
	h := &Handler{
		store:    s,
		endpoint: endpoint,
	}
	h.feeds = newFeeds(s, h.searcher, pause)
	return h
}

func (h *Handler) Commands() []string {
	return []string{
		"youtube",
		"yt",
	}
}

func (h *Handler) Init(p platform.Platform) {
	h.platform = p
	h.feeds.platform = p

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	config, err := h.store.Config(ctx)
	if err != nil {
		logger().WithError(err).Error("reading youtube config failed")
		return
	}

	key := config.APIKey
	if key == "" {
		key = helpers.GetConfig().YoutubeAPIKey
	}
	if key != "" {
		svc, err := service.New(ctx, key, h.endpoint, service.DefaultTimeout)
		if err != nil {
			logger().WithError(err).Error("youtube service not available")
		} else {
			h.setService(svc)
		}
	}

	if err := h.feeds.start(config.CheckInterval); err != nil {
		logger().WithError(err).Error("starting youtube checks failed")
	}
}

func (h *Handler) Uninit(p platform.Platform) {
	h.feeds.stop()
}

func (h *Handler) Action(command string, content string, msg *discordgo.Message, p platform.Platform) {
	helpers.RequireAdmin(p, msg, func() {
		var result *discordgo.MessageSend
		args := helpers.SplitArgs(content)

		action := h.actionStart
		for action != nil {
			action = action(args, msg, &result)
		}
	})
}

func (h *Handler) actionStart(args []string, in *discordgo.Message, out **discordgo.MessageSend) action {
	if len(args) < 1 {
		return h.actionOverview
	}

	switch strings.ToLower(args[0]) {
	case "setapikey":
		return h.actionSetAPIKey
	case "setinterval":
		return h.actionSetInterval
	case "add":
		return h.actionAdd
	case "remove", "delete":
		return h.actionRemove
	case "list":
		return h.actionList
	case "test":
		return h.actionTest
	case "force":
		return h.actionForce
	case "debug":
		return h.actionDebug
	}

	*out = h.newMsg("bot.arguments.invalid")
	return h.actionFinish
}

func (h *Handler) actionFinish(args []string, in *discordgo.Message, out **discordgo.MessageSend) action {
	_, err := h.platform.SendComplex(in.ChannelID, *out)
	helpers.RelaxMessage(err)

	return nil
}

// actionError replies through the shared error path
func (h *Handler) actionError(err error) action {
	return func(args []string, in *discordgo.Message, out **discordgo.MessageSend) action {
		helpers.SendError(h.platform, in, err)
		return nil
	}
}

// _yt
func (h *Handler) actionOverview(args []string, in *discordgo.Message, out **discordgo.MessageSend) action {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	config, err := h.store.Config(ctx)
	if err != nil {
		return h.actionError(err)
	}

	prefix := helpers.GetConfig().Prefix
	keyStatus := helpers.GetText("plugins.youtube.key-not-set")
	if h.current() != nil {
		keyStatus = helpers.GetText("plugins.youtube.key-set")
	}
	taskStatus := helpers.GetText("plugins.youtube.task-stopped")
	if h.feeds.running() {
		taskStatus = helpers.GetText("plugins.youtube.task-running")
	}

	embed := &discordgo.MessageEmbed{
		Title:       helpers.GetText("plugins.youtube.overview-title"),
		Description: helpers.GetText("plugins.youtube.overview-description"),
		Color:       helpers.ColorYoutube,
		Footer:      &discordgo.MessageEmbedFooter{Text: helpers.GetText("plugins.youtube.overview-footer")},
		Fields: verifyEmbedFields([]*discordgo.MessageEmbedField{
			{Name: helpers.GetText("plugins.youtube.overview-setup"), Value: strings.Replace(helpers.GetText("plugins.youtube.overview-setup-commands"), "{p}", prefix, -1)},
			{Name: helpers.GetText("plugins.youtube.overview-channels"), Value: strings.Replace(helpers.GetText("plugins.youtube.overview-channels-commands"), "{p}", prefix, -1)},
			{Name: helpers.GetText("plugins.youtube.overview-key"), Value: helpers.GetTextF("plugins.youtube.overview-key-value", keyStatus, prefix), Inline: true},
			{Name: helpers.GetText("plugins.youtube.overview-interval"), Value: helpers.GetTextF("plugins.youtube.overview-interval-value", config.CheckInterval, taskStatus), Inline: true},
			{Name: helpers.GetText("plugins.youtube.overview-tracked"), Value: helpers.GetTextF("plugins.youtube.overview-tracked-value", len(config.Channels)), Inline: true},
		}),
	}

	*out = &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{embed}}
	return h.actionFinish
}

// _yt setapikey <key>
func (h *Handler) actionSetAPIKey(args []string, in *discordgo.Message, out **discordgo.MessageSend) action {
	if len(args) < 2 {
		*out = h.newMsg("bot.arguments.too-few")
		return h.actionFinish
	}

	// keep the key out of the channel
	if err := h.platform.DeleteMessage(in.ChannelID, in.ID); err != nil {
		logger().WithError(err).Debug("deleting api key message failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	svc, err := service.New(ctx, args[1], h.endpoint, service.DefaultTimeout)
	if err != nil {
		return h.actionError(err)
	}
	if err := svc.Check(ctx); err != nil {
		*out = h.newMsg("plugins.youtube.key-invalid", helpers.Describe(err))
		return h.actionFinish
	}

	if err := h.store.SetAPIKey(ctx, args[1]); err != nil {
		return h.actionError(err)
	}
	h.setService(svc)

	config, err := h.store.Config(ctx)
	if err != nil {
		return h.actionError(err)
	}
	if err := h.feeds.start(config.CheckInterval); err != nil {
		return h.actionError(err)
	}

	if err := h.platform.SendDirectMessage(in.Author.ID, helpers.GetText("plugins.youtube.key-saved-dm")); err != nil {
		logger().WithError(err).Debug("api key confirmation dm failed")
	}

	*out = h.newMsg("plugins.youtube.key-saved")
	return h.actionFinish
}

// _yt setinterval <minutes>
func (h *Handler) actionSetInterval(args []string, in *discordgo.Message, out **discordgo.MessageSend) action {
	if len(args) < 2 {
		*out = h.newMsg("bot.arguments.too-few")
		return h.actionFinish
	}

	minutes, ok := helpers.ParseIntInRange(args[1], 1, maxInterval)
	if !ok {
		*out = h.newMsg("plugins.youtube.interval-invalid")
		return h.actionFinish
	}
	if minutes < MinInterval {
		_, err := h.platform.SendMessage(in.ChannelID, helpers.GetTextF("plugins.youtube.interval-too-low", MinInterval))
		helpers.RelaxMessage(err)
		minutes = MinInterval
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	if err := h.store.SetInterval(ctx, minutes); err != nil {
		return h.actionError(err)
	}
	if err := h.feeds.start(minutes); err != nil {
		return h.actionError(err)
	}

	if h.current() == nil {
		*out = h.newMsg("plugins.youtube.interval-set-no-key", minutes)
		return h.actionFinish
	}
	*out = h.newMsg("plugins.youtube.interval-set", minutes)
	return h.actionFinish
}

// _yt add <youtube channel id/link> <discord channel>
func (h *Handler) actionAdd(args []string, in *discordgo.Message, out **discordgo.MessageSend) action {
	if len(args) < 3 {
		*out = h.newMsg("bot.arguments.too-few")
		return h.actionFinish
	}

	svc := h.current()
	if svc == nil {
		*out = h.newMsg("plugins.youtube.no-api-key", helpers.GetConfig().Prefix)
		return h.actionFinish
	}

	dc, err := helpers.ResolveChannel(h.platform, in.GuildID, args[2])
	if err != nil {
		return h.actionError(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	youtubeChannelID := svc.ChannelID(args[1])
	yc, err := svc.Channel(ctx, youtubeChannelID)
	if err != nil {
		*out = h.newMsg("plugins.youtube.channel-invalid", youtubeChannelID, helpers.Describe(err))
		return h.actionFinish
	}

	entry := models.YoutubeChannelEntry{
		Name:             yc.Snippet.Title,
		DiscordChannelID: dc.ID,
	}

	// seed the last video so the next check only posts newer uploads
	latest, err := svc.LatestVideo(ctx, youtubeChannelID)
	if err != nil {
		logger().WithError(err).WithField("youtube_channel", youtubeChannelID).Warn("fetching latest video failed")
		latest = nil
	}
	if latest != nil {
		entry.LastVideoID = latest.Id.VideoId
	}

	if err := h.store.AddChannel(ctx, youtubeChannelID, entry); err != nil {
		return h.actionError(err)
	}

	if latest == nil {
		*out = h.newMsg("plugins.youtube.channel-added-no-video", entry.Name, dc.ID)
		return h.actionFinish
	}

	embed := &discordgo.MessageEmbed{
		Title:       helpers.GetText("plugins.youtube.channel-added-title"),
		Description: helpers.GetTextF("plugins.youtube.channel-added-description", entry.Name),
		Color:       helpers.ColorGreen,
		Fields: verifyEmbedFields([]*discordgo.MessageEmbedField{
			{Name: helpers.GetText("plugins.youtube.channel-id"), Value: "`" + youtubeChannelID + "`", Inline: true},
			{Name: helpers.GetText("plugins.youtube.latest-video"), Value: fmt.Sprintf("[%s]("+youtubeVideoBaseUrl+")", latest.Snippet.Title, latest.Id.VideoId)},
			{Name: helpers.GetText("plugins.youtube.notifications"), Value: helpers.GetTextF("plugins.youtube.notifications-value", dc.ID)},
		}),
	}
	if latest.Snippet.Thumbnails != nil && latest.Snippet.Thumbnails.High != nil {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: latest.Snippet.Thumbnails.High.Url}
	}

	*out = &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{embed}}
	return h.actionFinish
}

// _yt remove <youtube channel id>
func (h *Handler) actionRemove(args []string, in *discordgo.Message, out **discordgo.MessageSend) action {
	if len(args) < 2 {
		*out = h.newMsg("bot.arguments.too-few")
		return h.actionFinish
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	entry, err := h.store.RemoveChannel(ctx, args[1])
	if err != nil {
		return h.actionError(err)
	}

	*out = h.newMsg("plugins.youtube.channel-removed", entry.Name, args[1])
	return h.actionFinish
}

// _yt list
func (h *Handler) actionList(args []string, in *discordgo.Message, out **discordgo.MessageSend) action {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	config, err := h.store.Config(ctx)
	if err != nil {
		return h.actionError(err)
	}

	if len(config.Channels) < 1 {
		*out = h.newMsg("plugins.youtube.no-entry")
		return h.actionFinish
	}

	ids := make([]string, 0, len(config.Channels))
	for id := range config.Channels {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	status := helpers.GetText("plugins.youtube.status-no-key")
	if h.current() != nil {
		status = helpers.GetText("plugins.youtube.status-active")
	}

	embed := &discordgo.MessageEmbed{
		Title:       helpers.GetText("plugins.youtube.list-title"),
		Description: helpers.GetTextF("plugins.youtube.list-description", config.CheckInterval),
		Color:       helpers.ColorYoutube,
		Footer:      &discordgo.MessageEmbedFooter{Text: helpers.GetTextF("plugins.youtube.list-footer", status)},
	}
	for _, id := range ids {
		entry := config.Channels[id]
		destination := helpers.GetText("plugins.youtube.unknown-channel")
		if entry.DiscordChannelID != "" {
			destination = "<#" + entry.DiscordChannelID + ">"
		}
		name := entry.Name
		if name == "" {
			name = id
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  name,
			Value: helpers.GetTextF("plugins.youtube.list-entry", name, id, destination),
		})
	}
	embed.Fields = verifyEmbedFields(embed.Fields)

	*out = &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{embed}}
	return h.actionFinish
}

// _yt test [youtube channel id]
func (h *Handler) actionTest(args []string, in *discordgo.Message, out **discordgo.MessageSend) action {
	svc := h.current()
	if svc == nil {
		*out = h.newMsg("plugins.youtube.no-api-key", helpers.GetConfig().Prefix)
		return h.actionFinish
	}

	youtubeChannelID := testChannelID
	if len(args) >= 2 {
		youtubeChannelID = svc.ChannelID(args[1])
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	latest, err := svc.LatestVideo(ctx, youtubeChannelID)
	if err != nil {
		*out = h.newMsg("plugins.youtube.test-failed", helpers.Describe(err))
		return h.actionFinish
	}
	if latest == nil {
		*out = h.newMsg("plugins.youtube.no-videos", youtubeChannelID)
		return h.actionFinish
	}

	published := latest.Snippet.PublishedAt
	if parsed, err := time.Parse(time.RFC3339, latest.Snippet.PublishedAt); err == nil {
		published = humanize.Time(parsed)
	}

	*out = &discordgo.MessageSend{
		Content: helpers.GetTextF("plugins.youtube.test-result", latest.Snippet.ChannelTitle, latest.Snippet.Title, published),
		Embeds:  []*discordgo.MessageEmbed{videoEmbed(latest)},
	}
	return h.actionFinish
}

// _yt force <youtube channel id>
func (h *Handler) actionForce(args []string, in *discordgo.Message, out **discordgo.MessageSend) action {
	if len(args) < 2 {
		*out = h.newMsg("bot.arguments.too-few")
		return h.actionFinish
	}

	svc := h.current()
	if svc == nil {
		*out = h.newMsg("plugins.youtube.no-api-key", helpers.GetConfig().Prefix)
		return h.actionFinish
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	config, err := h.store.Config(ctx)
	if err != nil {
		return h.actionError(err)
	}
	entry, ok := config.Channels[args[1]]
	if !ok {
		*out = h.newMsg("plugins.youtube.not-tracked", args[1])
		return h.actionFinish
	}
	if entry.DiscordChannelID == "" {
		*out = h.newMsg("plugins.youtube.no-destination", args[1])
		return h.actionFinish
	}

	latest, err := svc.LatestVideo(ctx, args[1])
	if err != nil {
		*out = h.newMsg("plugins.youtube.test-failed", helpers.Describe(err))
		return h.actionFinish
	}
	if latest == nil {
		*out = h.newMsg("plugins.youtube.no-videos", args[1])
		return h.actionFinish
	}

	// tracking stays untouched, the next check still sees this video as known or new
	_, err = h.platform.SendComplex(entry.DiscordChannelID, &discordgo.MessageSend{
		Content: helpers.GetTextF("plugins.youtube.featured-video", latest.Snippet.ChannelTitle),
		Embeds:  []*discordgo.MessageEmbed{videoEmbed(latest)},
	})
	if err != nil {
		return h.actionError(err)
	}

	*out = h.newMsg("plugins.youtube.forced", entry.DiscordChannelID, entry.Name, latest.Snippet.Title)
	return h.actionFinish
}

// _yt debug
func (h *Handler) actionDebug(args []string, in *discordgo.Message, out **discordgo.MessageSend) action {
	svc := h.current()
	if svc == nil {
		*out = h.newMsg("plugins.youtube.no-api-key", helpers.GetConfig().Prefix)
		return h.actionFinish
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	embed := &discordgo.MessageEmbed{
		Title:       helpers.GetText("plugins.youtube.debug-title"),
		Description: helpers.GetText("plugins.youtube.debug-ok"),
		Color:       helpers.ColorGreen,
	}
	if err := svc.Check(ctx); err != nil {
		embed.Title = helpers.GetText("plugins.youtube.debug-issue-title")
		embed.Description = helpers.GetText("plugins.youtube.debug-failed")
		embed.Color = helpers.ColorRed
		embed.Fields = verifyEmbedFields([]*discordgo.MessageEmbedField{
			{Name: helpers.GetText("plugins.youtube.debug-error"), Value: helpers.Describe(err)},
			{Name: helpers.GetText("plugins.youtube.debug-steps"), Value: helpers.GetText("plugins.youtube.debug-steps-value")},
		})
	}

	*out = &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{embed}}
	return h.actionFinish
}

func (h *Handler) current() *service.Service {
	h.RLock()
	defer h.RUnlock()

	return h.service
}

func (h *Handler) setService(svc *service.Service) {
	h.Lock()
	h.service = svc
	h.Unlock()
}

// searcher hands the feeds loop the current client, nil while no key is set
func (h *Handler) searcher() searcher {
	if svc := h.current(); svc != nil {
		return svc
	}
	return nil
}

func (h *Handler) newMsg(content string, replacements ...interface{}) *discordgo.MessageSend {
	if len(replacements) < 1 {
		return &discordgo.MessageSend{Content: helpers.GetText(content)}
	}
	return &discordgo.MessageSend{Content: helpers.GetTextF(content, replacements...)}
}
