package channels

import (
	"sort"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// flags maps the stored flag names to permission bits
var flags = map[string]int64{
	"read_messages":        discordgo.PermissionViewChannel,
	"send_messages":        discordgo.PermissionSendMessages,
	"embed_links":          discordgo.PermissionEmbedLinks,
	"attach_files":         discordgo.PermissionAttachFiles,
	"read_message_history": discordgo.PermissionReadMessageHistory,
	"mention_everyone":     discordgo.PermissionMentionEveryone,
	"add_reactions":        discordgo.PermissionAddReactions,
}

// Access masks shared by the plans
const (
	ReadAccess  = discordgo.PermissionViewChannel | discordgo.PermissionReadMessageHistory
	FullAccess  = discordgo.PermissionViewChannel | discordgo.PermissionSendMessages | discordgo.PermissionEmbedLinks | discordgo.PermissionAttachFiles | discordgo.PermissionReadMessageHistory
	WriteAccess = discordgo.PermissionViewChannel | discordgo.PermissionSendMessages
)

// FlagBit returns the permission bit of a flag name
func FlagBit(name string) (int64, bool) {
	bit, ok := flags[strings.ToLower(name)]
	return bit, ok
}

// FlagNames returns every known flag, sorted
func FlagNames() []string {
	names := make([]string, 0, len(flags))
	for name := range flags {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// describeBits lists the flag names set in bits
func describeBits(bits int64) []string {
	var names []string
	for _, name := range FlagNames() {
		if bits&flags[name] != 0 {
			names = append(names, name)
		}
	}
	return names
}
