package plugins

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	humanize "github.com/dustin/go-humanize"
	"github.com/xgctrenches/xgcbot/helpers"
	"github.com/xgctrenches/xgcbot/metrics"
	"github.com/xgctrenches/xgcbot/platform"
	"github.com/xgctrenches/xgcbot/version"
)

type About struct{}

func (a *About) Commands() []string {
	return []string{
		"help",
		"info",
		"botinfo",
	}
}

func (a *About) Init(p platform.Platform) {

}

func (a *About) Action(command string, content string, msg *discordgo.Message, p platform.Platform) {
	var embed *discordgo.MessageEmbed
	var err error

	switch command {
	case "help": // [p]help
		embed = a.help()
	case "info": // [p]info
		embed, err = a.guildInfo(p, msg.GuildID)
	case "botinfo": // [p]botinfo
		embed = a.botInfo(p)
	}
	if err != nil {
		helpers.SendError(p, msg, err)
		return
	}

	embed.Footer = &discordgo.MessageEmbedFooter{
		Text: helpers.GetTextF("plugins.about.requested-by", msg.Author.Username),
	}
	_, err = p.SendEmbed(msg.ChannelID, embed)
	helpers.RelaxMessage(err)
}

// helpSections lists the help fields in display order
var helpSections = []string{
	"general",
	"moderation",
	"roles",
	"channels",
	"setup",
	"crypto",
	"youtube",
}

func (a *About) help() *discordgo.MessageEmbed {
	prefix := strings.NewReplacer("{p}", helpers.GetConfig().Prefix)

	embed := &discordgo.MessageEmbed{
		Title:       helpers.GetText("plugins.about.help.title"),
		Description: helpers.GetText("plugins.about.help.description"),
		Color:       helpers.ColorBlue,
	}
	for _, section := range helpSections {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  helpers.GetText("plugins.about.help." + section + ".__"),
			Value: prefix.Replace(helpers.GetText("plugins.about.help." + section + ".commands")),
		})
	}
	return embed
}

func (a *About) guildInfo(p platform.Platform, guildID string) (*discordgo.MessageEmbed, error) {
	guild, err := p.Guild(guildID)
	if err != nil {
		return nil, err
	}
	members, err := p.GuildMembers(guildID)
	if err != nil {
		return nil, err
	}
	channels, err := p.GuildChannels(guildID)
	if err != nil {
		return nil, err
	}
	roles, err := p.GuildRoles(guildID)
	if err != nil {
		return nil, err
	}

	bots := 0
	for _, member := range members {
		if member.User != nil && member.User.Bot {
			bots++
		}
	}
	total := guild.MemberCount
	if total < len(members) {
		total = len(members)
	}

	var text, voice, categories int
	for _, channel := range channels {
		switch channel.Type {
		case discordgo.ChannelTypeGuildText, discordgo.ChannelTypeGuildNews:
			text++
		case discordgo.ChannelTypeGuildVoice, discordgo.ChannelTypeGuildStageVoice:
			voice++
		case discordgo.ChannelTypeGuildCategory:
			categories++
		}
	}

	// @everyone is no real role
	roleCount := 0
	for _, role := range roles {
		if role.ID != helpers.EveryoneRoleID(guildID) {
			roleCount++
		}
	}

	created := helpers.GetText("plugins.about.unknown")
	if createdAt, err := discordgo.SnowflakeTimestamp(guild.ID); err == nil {
		created = createdAt.Format("2006-01-02")
	}

	description := guild.Description
	if description == "" {
		description = helpers.GetText("plugins.about.no-description")
	}

	embed := &discordgo.MessageEmbed{
		Title:       helpers.GetTextF("plugins.about.info.title", guild.Name),
		Description: description,
		Color:       helpers.ColorBlue,
		Fields: []*discordgo.MessageEmbedField{
			{Name: helpers.GetText("plugins.about.info.id"), Value: guild.ID, Inline: true},
			{Name: helpers.GetText("plugins.about.info.owner"), Value: "<@" + guild.OwnerID + ">", Inline: true},
			{Name: helpers.GetText("plugins.about.info.created"), Value: created, Inline: true},
			{
				Name:   helpers.GetText("plugins.about.info.members"),
				Value:  helpers.GetTextF("plugins.about.info.members-value", humanize.Comma(int64(total)), humanize.Comma(int64(total-bots)), humanize.Comma(int64(bots))),
				Inline: true,
			},
			{
				Name:   helpers.GetText("plugins.about.info.channels"),
				Value:  helpers.GetTextF("plugins.about.info.channels-value", text, voice, categories),
				Inline: true,
			},
			{Name: helpers.GetText("plugins.about.info.roles"), Value: strconv.Itoa(roleCount), Inline: true},
		},
	}
	if guild.Icon != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: guild.IconURL("256")}
	}
	return embed, nil
}

func (a *About) botInfo(p platform.Platform) *discordgo.MessageEmbed {
	var memory runtime.MemStats
	runtime.ReadMemStats(&memory)

	bot := p.BotUser()
	system := fmt.Sprintf(
		"Go: %s\nGoroutines: %s\nMemory: %s / %s",
		version.GoVersion(),
		humanize.Comma(int64(runtime.NumGoroutine())),
		humanize.Bytes(memory.Alloc),
		humanize.Bytes(memory.Sys),
	)

	embed := &discordgo.MessageEmbed{
		Title: helpers.GetTextF("plugins.about.botinfo.title", bot.Username),
		Color: helpers.ColorBlue,
		Fields: []*discordgo.MessageEmbedField{
			{Name: helpers.GetText("plugins.about.botinfo.id"), Value: bot.ID, Inline: true},
			{Name: helpers.GetText("plugins.about.botinfo.uptime"), Value: helpers.FormatUptime(metrics.Since()), Inline: true},
			{Name: helpers.GetText("plugins.about.botinfo.version"), Value: version.BOT_VERSION, Inline: true},
			{Name: helpers.GetText("plugins.about.botinfo.system"), Value: system},
		},
	}
	if bot.Avatar != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: bot.AvatarURL("256")}
	}
	return embed
}
