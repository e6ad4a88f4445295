package models

const VerificationFile = "verification_data.json"

// VerificationPost is the verification_data.json document, the last
// verification message the bot posted
type VerificationPost struct {
	ChannelID string `json:"channel_id"`
	MessageID string `json:"message_id"`
}
