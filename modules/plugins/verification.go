package plugins

import (
	"context"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
	"github.com/xgctrenches/xgcbot/emojis"
	"github.com/xgctrenches/xgcbot/helpers"
	"github.com/xgctrenches/xgcbot/metrics"
	"github.com/xgctrenches/xgcbot/platform"
	"github.com/xgctrenches/xgcbot/store"
)

// Verification grants the verified role to members reacting on the
// verification message. Removing the reaction keeps the role.
type Verification struct {
	sync.RWMutex
	store     store.VerificationStore
	messageID string
}

func NewVerification(s store.VerificationStore) *Verification {
	return &Verification{store: s}
}

func (v *Verification) Commands() []string {
	return []string{
		"setup_verification",
	}
}

// Init prefers VERIFICATION_MESSAGE_ID over the last message the bot posted
// in the configured channel
func (v *Verification) Init(p platform.Platform) {
	config := helpers.GetConfig()
	messageID := config.VerificationMessageID
	if messageID == "" {
		post, err := v.store.Post(context.Background())
		if err != nil {
			logger("verification").Errorf("reading verification message failed: %s", err)
		} else if post.ChannelID == config.VerificationChannelID {
			messageID = post.MessageID
		}
	}

	v.Lock()
	v.messageID = messageID
	v.Unlock()
}

// MessageID is the message currently accepting verifications
func (v *Verification) MessageID() string {
	v.RLock()
	defer v.RUnlock()
	return v.messageID
}

func (v *Verification) Action(command string, content string, msg *discordgo.Message, p platform.Platform) {
	// [p]setup_verification
	helpers.RequireAdmin(p, msg, func() {
		channelID := helpers.GetConfig().VerificationChannelID
		if channelID == "" {
			_, err := p.SendMessage(msg.ChannelID, helpers.GetText("plugins.verification.no-channel"))
			helpers.RelaxMessage(err)
			return
		}

		posted, err := v.post(p, channelID)
		if err != nil {
			helpers.SendError(p, msg, err)
			return
		}
		_, err = p.SendMessage(msg.ChannelID, helpers.GetTextF("plugins.verification.created", posted.ID, posted.ID))
		helpers.RelaxMessage(err)
	})
}

// post sends the verification embed, reacts on it and starts accepting it
func (v *Verification) post(p platform.Platform, channelID string) (*discordgo.Message, error) {
	posted, err := p.SendEmbed(channelID, VerificationEmbed())
	if err != nil {
		return nil, err
	}
	if err := p.AddReaction(posted.ChannelID, posted.ID, emojis.Verify); err != nil {
		logger("verification").Warnf("adding verification reaction failed: %s", err)
	}

	v.Lock()
	v.messageID = posted.ID
	v.Unlock()

	if err := v.store.SetPost(context.Background(), channelID, posted.ID); err != nil {
		logger("verification").Errorf("saving verification message failed: %s", err)
	}

	logger("verification").Infof("created verification message %s", posted.ID)
	return posted, nil
}

// VerificationEmbed is the message members react on
func VerificationEmbed() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       helpers.GetText("plugins.verification.embed-title"),
		Description: helpers.GetText("plugins.verification.embed-description"),
		Color:       helpers.ColorGreen,
	}
}

// OnReady posts the verification message when none is known or the known
// one was deleted
func (v *Verification) OnReady(p platform.Platform) {
	channelID := helpers.GetConfig().VerificationChannelID
	if channelID == "" {
		return
	}

	if messageID := v.MessageID(); messageID != "" {
		_, err := p.ChannelMessage(channelID, messageID)
		if err == nil {
			return
		}
		if helpers.Classify(err) != helpers.KindNotFound {
			logger("verification").Warnf("checking verification message failed: %s", err)
			return
		}
		logger("verification").Infof("verification message %s is gone, posting a new one", messageID)
	}

	if _, err := v.post(p, channelID); err != nil {
		logger("verification").Errorf("posting verification message failed: %s", err)
	}
}

func (v *Verification) OnReactionAdd(reaction *discordgo.MessageReaction, p platform.Platform) {
	messageID := v.MessageID()
	if messageID == "" || reaction.MessageID != messageID || emojis.Key(reaction.Emoji) != emojis.Verify {
		return
	}

	log := logger("verification").WithFields(logrus.Fields{
		"user":  reaction.UserID,
		"guild": reaction.GuildID,
	})

	roleID := helpers.GetConfig().VerifiedRoleID
	if roleID == "" {
		log.Warn("verification reaction ignored, VERIFIED_ROLE_ID is not set")
		return
	}

	member, err := p.GuildMember(reaction.GuildID, reaction.UserID)
	if err != nil {
		log.Warnf("looking up member failed: %s", err)
		return
	}
	if member.User.Bot {
		return
	}

	if err := p.AddMemberRole(reaction.GuildID, reaction.UserID, roleID); err != nil {
		log.Errorf("granting verified role failed: %s", helpers.Describe(err))
		return
	}
	metrics.MembersVerified.Add(1)
	log.Info("member verified")

	guildName := reaction.GuildID
	if guild, err := p.Guild(reaction.GuildID); err == nil {
		guildName = guild.Name
	}
	if err := p.SendDirectMessage(reaction.UserID, helpers.GetTextF("plugins.verification.verified-dm", guildName)); err != nil {
		log.Debugf("could not DM member: %s", err)
	}
}

// OnReactionRemove does nothing, verification is not revoked
func (v *Verification) OnReactionRemove(reaction *discordgo.MessageReaction, p platform.Platform) {

}
