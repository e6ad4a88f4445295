package helpers

import (
	"regexp"
)

var (
	// https://en.wikipedia.org/wiki/Emoji#Unicode_blocks
	unicodeEmojiRegex = regexp.MustCompile(`^[\x{00A0}-\x{1FAFF}\x{FE0F}\x{200D}]+$`)
	discordEmojiRegex = regexp.MustCompile(`^<(a)?:[^<>:]+:[0-9]+>$`)
)

// IsEmoji is true for a unicode emoji or a discord custom emoji
func IsEmoji(text string) bool {
	return IsUnicodeEmoji(text) || IsDiscordEmoji(text)
}

// IsUnicodeEmoji is true if text consists of emoji code points only
func IsUnicodeEmoji(text string) bool {
	return unicodeEmojiRegex.MatchString(text)
}

// IsDiscordEmoji is true for the <:name:id> and <a:name:id> forms
func IsDiscordEmoji(text string) bool {
	return discordEmojiRegex.MatchString(text)
}
