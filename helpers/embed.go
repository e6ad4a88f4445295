package helpers

import (
	"strconv"
	"strings"
)

const (
	ColorBlue    = 0x3498db
	ColorGreen   = 0x2ecc71
	ColorRed     = 0xe74c3c
	ColorOrange  = 0xe67e22
	ColorGold    = 0xf1c40f
	ColorYoutube = 0xff0000
)

// GetDiscordColorFromHex returns the int color for a hex string like FF0000
func GetDiscordColorFromHex(hex string) int {
	color, err := strconv.ParseInt(strings.TrimPrefix(hex, "#"), 16, 64)
	if err != nil {
		return 0
	}
	return int(color)
}

// Truncate cuts text to max runes, marking the cut
func Truncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	if max <= 1 {
		return string(runes[:max])
	}
	return string(runes[:max-1]) + "…"
}
