package helpers

import "regexp"

var (
	// UserRegexStrict matches Discord User Mentions
	UserRegexStrict = regexp.MustCompile(`^<@!?(\d+)>$`)

	// RoleRegexStrict matches Discord Role Mentions
	RoleRegexStrict = regexp.MustCompile(`^<@&(\d+)>$`)

	// ChannelRegexStrict matches Discord Channel Mentions
	ChannelRegexStrict = regexp.MustCompile(`^<#(\d+)>$`)

	// SnowflakeRegex matches a raw Discord id
	SnowflakeRegex = regexp.MustCompile(`^\d{15,21}$`)

	// HexColorRegex matches #RRGGBB with or without the hash
	HexColorRegex = regexp.MustCompile(`^#?([0-9a-fA-F]{6})$`)
)
