package helpers

import (
	"strconv"
	"strings"
	"unicode"
)

// SplitArgs splits text by whitespace but keeps quoted sections together,
// dropping the quotes.
func SplitArgs(text string) []string {
	lastQuote := rune(0)
	f := func(c rune) bool {
		switch {
		case c == lastQuote:
			lastQuote = rune(0)
			return false
		case lastQuote != rune(0):
			return false
		case c == '"' || c == '\'' || unicode.In(c, unicode.Quotation_Mark):
			lastQuote = c
			return false
		default:
			return unicode.IsSpace(c)
		}
	}

	items := strings.FieldsFunc(text, f)
	for i, item := range items {
		items[i] = strings.Trim(item, "\"'“”‘’")
	}
	return items
}

// ParseBool accepts the spellings operators tend to type.
func ParseBool(text string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "true", "yes", "y", "on", "1", "allow", "enable":
		return true, true
	case "false", "no", "n", "off", "0", "deny", "disable":
		return false, true
	}
	return false, false
}

// ParseIntInRange parses text and checks min <= value <= max.
func ParseIntInRange(text string, min, max int) (int, bool) {
	value, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || value < min || value > max {
		return 0, false
	}
	return value, true
}
