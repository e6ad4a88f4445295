package youtube

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/xgctrenches/xgcbot/helpers"
	"github.com/xgctrenches/xgcbot/metrics"
	"github.com/xgctrenches/xgcbot/models"
	"github.com/xgctrenches/xgcbot/platform"
	"github.com/xgctrenches/xgcbot/store"
	youtubeAPI "google.golang.org/api/youtube/v3"
)

// CheckPause is the wait before each polled channel
const CheckPause = time.Second

type searcher interface {
	LatestVideo(ctx context.Context, channelId string) (*youtubeAPI.SearchResult, error)
}

// feeds polls every tracked channel on a cron schedule
type feeds struct {
	store    store.YoutubeStore
	source   func() searcher
	platform platform.Platform
	pause    time.Duration

	cron   *cron.Cron
	entry  cron.EntryID
	ctx    context.Context
	cancel context.CancelFunc
	sync.Mutex
}

func newFeeds(s store.YoutubeStore, source func() searcher, pause time.Duration) *feeds {
	return &feeds{
		store:  s,
		source: source,
		pause:  pause,
	}
}

// start schedules the check every interval minutes, replacing a running
// schedule.
func (f *feeds) start(minutes int) error {
	if minutes < 1 {
		minutes = models.YoutubeDefaultInterval
	}

	f.Lock()
	defer f.Unlock()

	if f.cron == nil {
		cronLogger := cron.PrintfLogger(logger())
		f.cron = cron.New(
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		)
		f.ctx, f.cancel = context.WithCancel(context.Background())
		f.cron.Start()
	}
	if f.entry != 0 {
		f.cron.Remove(f.entry)
	}

	id, err := f.cron.AddFunc(fmt.Sprintf("@every %dm", minutes), f.run)
	if err != nil {
		return errors.Wrap(err, "scheduling youtube checks")
	}
	f.entry = id

	logger().WithField("interval", minutes).Info("youtube checks scheduled")
	return nil
}

// stop cancels a running check and waits for it
func (f *feeds) stop() {
	f.Lock()
	c, cancel := f.cron, f.cancel
	f.cron, f.cancel, f.entry = nil, nil, 0
	f.Unlock()

	if c == nil {
		return
	}
	cancel()
	<-c.Stop().Done()
}

func (f *feeds) running() bool {
	f.Lock()
	defer f.Unlock()

	return f.cron != nil && f.entry != 0
}

func (f *feeds) run() {
	defer helpers.Recover()

	f.Lock()
	ctx := f.ctx
	f.Unlock()
	if ctx == nil {
		return
	}

	posted, err := f.check(ctx)
	if err != nil {
		logger().WithError(err).Warn("youtube check aborted")
		return
	}
	logger().WithField("posted", posted).Debug("youtube check done")
}

// check polls every tracked channel once. Failures are logged per channel, a
// cancelled context ends the round.
func (f *feeds) check(ctx context.Context) (posted int, err error) {
	svc := f.source()
	if svc == nil {
		return 0, nil
	}

	config, err := f.store.Config(ctx)
	if err != nil {
		return 0, err
	}

	ids := make([]string, 0, len(config.Channels))
	for id := range config.Channels {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		select {
		case <-ctx.Done():
			return posted, ctx.Err()
		case <-time.After(f.pause):
		}

		entry := config.Channels[id]
		ok, err := f.checkChannel(ctx, svc, id, entry)
		if err != nil {
			logger().WithFields(logrus.Fields{
				"youtube_channel": id,
				"name":            entry.Name,
			}).Warn("check channel feeds error: " + err.Error())
			continue
		}
		if ok {
			posted++
		}
	}

	return posted, nil
}

// checkChannel posts the latest video when it is new. The first video ever
// seen for a channel is only recorded.
func (f *feeds) checkChannel(ctx context.Context, svc searcher, id string, entry models.YoutubeChannelEntry) (bool, error) {
	metrics.YoutubeChecks.Add(1)

	video, err := svc.LatestVideo(ctx, id)
	if err != nil {
		return false, err
	}
	if video == nil {
		return false, nil
	}

	videoId := video.Id.VideoId
	if videoId == entry.LastVideoID {
		return false, nil
	}

	if err := f.store.SetLastVideo(ctx, id, videoId); err != nil {
		return false, err
	}

	if entry.LastVideoID == "" {
		logger().WithFields(logrus.Fields{
			"youtube_channel": id,
			"video":           videoId,
		}).Info("first check, recording latest video")
		return false, nil
	}

	if entry.DiscordChannelID == "" {
		return false, helpers.NotFound("plugins.youtube.no-destination", id)
	}

	_, err = f.platform.SendComplex(entry.DiscordChannelID, &discordgo.MessageSend{
		Content: helpers.GetTextF("plugins.youtube.new-video", video.Snippet.ChannelTitle),
		Embeds:  []*discordgo.MessageEmbed{videoEmbed(video)},
	})
	if err != nil {
		return false, err
	}

	logger().WithFields(logrus.Fields{
		"title":   video.Snippet.Title,
		"channel": entry.DiscordChannelID,
	}).Info("posting video")
	return true, nil
}
