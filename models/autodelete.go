package models

const AutoDeleteFile = "auto_delete.json"

// AutoDeleteChannel holds the delay in seconds and the protected message ids
type AutoDeleteChannel struct {
	DeleteAfter int      `json:"delete_after"`
	Protected   []string `json:"protected"`
}

// AutoDeleteConfig is the auto_delete.json document
type AutoDeleteConfig struct {
	Channels map[string]AutoDeleteChannel `json:"channels"`
}

func DefaultAutoDeleteConfig() AutoDeleteConfig {
	return AutoDeleteConfig{Channels: map[string]AutoDeleteChannel{}}
}

// IsProtected reports whether messageID is whitelisted in channelID
func (c AutoDeleteConfig) IsProtected(channelID, messageID string) bool {
	return containsString(c.Channels[channelID].Protected, messageID)
}

func (c AutoDeleteConfig) Clone() AutoDeleteConfig {
	channels := make(map[string]AutoDeleteChannel, len(c.Channels))
	for k, v := range c.Channels {
		v.Protected = append([]string{}, v.Protected...)
		channels[k] = v
	}
	c.Channels = channels
	return c
}
