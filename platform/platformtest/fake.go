// Package platformtest provides an in-memory platform.Platform for tests.
package platformtest

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
)

// Reaction records a reaction the bot added.
type Reaction struct {
	ChannelID string
	MessageID string
	Emoji     string
}

// Fake is a single-process stand-in for a Discord guild. Every method is
// safe for concurrent use.
type Fake struct {
	mu sync.Mutex

	bot      *discordgo.User
	guilds   map[string]*discordgo.Guild
	channels map[string]*discordgo.Channel
	members  map[string]map[string]*discordgo.Member
	users    map[string]*discordgo.User
	messages map[string][]*discordgo.Message
	bans     map[string]map[string]*discordgo.GuildBan
	dms      map[string][]string

	reactions []Reaction
	mutations []string
	failures  map[string]error
	nextID    int
}

func New() *Fake {
	f := &Fake{
		bot:      &discordgo.User{ID: "1", Username: "xgcbot", Bot: true},
		guilds:   make(map[string]*discordgo.Guild),
		channels: make(map[string]*discordgo.Channel),
		members:  make(map[string]map[string]*discordgo.Member),
		users:    make(map[string]*discordgo.User),
		messages: make(map[string][]*discordgo.Message),
		bans:     make(map[string]map[string]*discordgo.GuildBan),
		dms:      make(map[string][]string),
		failures: make(map[string]error),
		nextID:   9000,
	}
	f.users[f.bot.ID] = f.bot
	return f
}

// AddGuild creates a guild and its @everyone role (id equal to the guild id).
func (f *Fake) AddGuild(guildID, ownerID string) *discordgo.Guild {
	f.mu.Lock()
	defer f.mu.Unlock()

	guild := &discordgo.Guild{
		ID:      guildID,
		Name:    "guild-" + guildID,
		OwnerID: ownerID,
		Roles:   []*discordgo.Role{{ID: guildID, Name: "@everyone", Position: 0}},
	}
	f.guilds[guildID] = guild
	f.members[guildID] = make(map[string]*discordgo.Member)
	f.bans[guildID] = make(map[string]*discordgo.GuildBan)
	return guild
}

func (f *Fake) AddRole(guildID, roleID, name string, position int, permissions int64) *discordgo.Role {
	f.mu.Lock()
	defer f.mu.Unlock()

	role := &discordgo.Role{ID: roleID, Name: name, Position: position, Permissions: permissions}
	f.guilds[guildID].Roles = append(f.guilds[guildID].Roles, role)
	return role
}

func (f *Fake) AddChannel(guildID, channelID, name string, kind discordgo.ChannelType, parentID string) *discordgo.Channel {
	f.mu.Lock()
	defer f.mu.Unlock()

	channel := &discordgo.Channel{ID: channelID, GuildID: guildID, Name: name, Type: kind, ParentID: parentID}
	f.channels[channelID] = channel
	f.guilds[guildID].Channels = append(f.guilds[guildID].Channels, channel)
	return channel
}

func (f *Fake) AddMember(guildID, userID, username string, bot bool, roles ...string) *discordgo.Member {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.users[userID]
	if !ok {
		user = &discordgo.User{ID: userID, Username: username, Bot: bot}
		f.users[userID] = user
	}
	member := &discordgo.Member{GuildID: guildID, User: user, Roles: append([]string(nil), roles...)}
	f.members[guildID][userID] = member
	return member
}

// AddMessage stores a message as if a user had posted it.
func (f *Fake) AddMessage(channelID, authorID, content string) *discordgo.Message {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.storeMessage(channelID, f.userLocked(authorID), content, nil)
}

// FailOn makes the named method fail for the given id (channel, user or role,
// depending on the method).
func (f *Fake) FailOn(method, id string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.failures[method+":"+id] = err
}

// Forbidden builds the error discordgo returns for a missing permission.
func Forbidden() error {
	return &discordgo.RESTError{
		Response: &http.Response{StatusCode: http.StatusForbidden},
		Message:  &discordgo.APIErrorMessage{Code: discordgo.ErrCodeMissingPermissions, Message: "Missing Permissions"},
	}
}

// NotFound builds the error discordgo returns for an unknown entity.
func NotFound(code int) error {
	return &discordgo.RESTError{
		Response: &http.Response{StatusCode: http.StatusNotFound},
		Message:  &discordgo.APIErrorMessage{Code: code, Message: "Unknown"},
	}
}

// Mutations returns the log of state-changing calls, oldest first.
func (f *Fake) Mutations() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.mutations...)
}

// Overwrites returns a copy of the channel overwrites sorted by target id.
func (f *Fake) Overwrites(channelID string) []discordgo.PermissionOverwrite {
	f.mu.Lock()
	defer f.mu.Unlock()

	channel, ok := f.channels[channelID]
	if !ok {
		return nil
	}
	out := make([]discordgo.PermissionOverwrite, 0, len(channel.PermissionOverwrites))
	for _, o := range channel.PermissionOverwrites {
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Sent returns the messages stored in a channel, oldest first.
func (f *Fake) Sent(channelID string) []*discordgo.Message {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]*discordgo.Message(nil), f.messages[channelID]...)
}

// DirectMessages returns what the bot sent to a user.
func (f *Fake) DirectMessages(userID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.dms[userID]...)
}

func (f *Fake) Reactions() []Reaction {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]Reaction(nil), f.reactions...)
}

// MemberRoles returns the role ids a member holds.
func (f *Fake) MemberRoles(guildID, userID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	member, ok := f.members[guildID][userID]
	if !ok {
		return nil
	}
	return append([]string(nil), member.Roles...)
}

func (f *Fake) IsBanned(guildID, userID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, ok := f.bans[guildID][userID]
	return ok
}

func (f *Fake) fail(method, id string) error {
	if err, ok := f.failures[method+":"+id]; ok {
		return err
	}
	return nil
}

func (f *Fake) record(format string, args ...interface{}) {
	f.mutations = append(f.mutations, fmt.Sprintf(format, args...))
}

func (f *Fake) newID() string {
	f.nextID++
	return strconv.Itoa(f.nextID)
}

func (f *Fake) userLocked(userID string) *discordgo.User {
	if user, ok := f.users[userID]; ok {
		return user
	}
	return &discordgo.User{ID: userID}
}

func (f *Fake) storeMessage(channelID string, author *discordgo.User, content string, embed *discordgo.MessageEmbed) *discordgo.Message {
	msg := &discordgo.Message{
		ID:        f.newID(),
		ChannelID: channelID,
		Content:   content,
		Author:    author,
		Timestamp: time.Now(),
	}
	if channel, ok := f.channels[channelID]; ok {
		msg.GuildID = channel.GuildID
	}
	if embed != nil {
		msg.Embeds = []*discordgo.MessageEmbed{embed}
	}
	f.messages[channelID] = append(f.messages[channelID], msg)
	return msg
}

func (f *Fake) Guild(guildID string) (*discordgo.Guild, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	guild, ok := f.guilds[guildID]
	if !ok {
		return nil, NotFound(discordgo.ErrCodeUnknownGuild)
	}
	copied := *guild
	copied.MemberCount = len(f.members[guildID])
	return &copied, nil
}

func (f *Fake) Channel(channelID string) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	channel, ok := f.channels[channelID]
	if !ok {
		return nil, NotFound(discordgo.ErrCodeUnknownChannel)
	}
	return channel, nil
}

func (f *Fake) GuildChannels(guildID string) ([]*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	guild, ok := f.guilds[guildID]
	if !ok {
		return nil, NotFound(discordgo.ErrCodeUnknownGuild)
	}
	return append([]*discordgo.Channel(nil), guild.Channels...), nil
}

func (f *Fake) GuildRoles(guildID string) ([]*discordgo.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	guild, ok := f.guilds[guildID]
	if !ok {
		return nil, NotFound(discordgo.ErrCodeUnknownGuild)
	}
	return append([]*discordgo.Role(nil), guild.Roles...), nil
}

func (f *Fake) GuildMember(guildID, userID string) (*discordgo.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	member, ok := f.members[guildID][userID]
	if !ok {
		return nil, NotFound(discordgo.ErrCodeUnknownMember)
	}
	return member, nil
}

func (f *Fake) GuildMembers(guildID string) ([]*discordgo.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	members := make([]*discordgo.Member, 0, len(f.members[guildID]))
	for _, member := range f.members[guildID] {
		members = append(members, member)
	}
	sort.Slice(members, func(i, j int) bool { return members[i].User.ID < members[j].User.ID })
	return members, nil
}

func (f *Fake) User(userID string) (*discordgo.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.users[userID]
	if !ok {
		return nil, NotFound(discordgo.ErrCodeUnknownUser)
	}
	return user, nil
}

func (f *Fake) BotUser() *discordgo.User {
	return f.bot
}

func (f *Fake) Latency() time.Duration {
	return 42 * time.Millisecond
}

func (f *Fake) SendMessage(channelID, content string) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.fail("SendMessage", channelID); err != nil {
		return nil, err
	}
	return f.storeMessage(channelID, f.bot, content, nil), nil
}

func (f *Fake) SendEmbed(channelID string, embed *discordgo.MessageEmbed) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.fail("SendEmbed", channelID); err != nil {
		return nil, err
	}
	return f.storeMessage(channelID, f.bot, "", embed), nil
}

func (f *Fake) SendComplex(channelID string, data *discordgo.MessageSend) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.fail("SendComplex", channelID); err != nil {
		return nil, err
	}
	var embed *discordgo.MessageEmbed
	if len(data.Embeds) > 0 {
		embed = data.Embeds[0]
	}
	return f.storeMessage(channelID, f.bot, data.Content, embed), nil
}

func (f *Fake) EditMessage(channelID, messageID, content string) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, msg := range f.messages[channelID] {
		if msg.ID == messageID {
			msg.Content = content
			return msg, nil
		}
	}
	return nil, NotFound(discordgo.ErrCodeUnknownMessage)
}

func (f *Fake) ChannelMessage(channelID, messageID string) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.fail("ChannelMessage", messageID); err != nil {
		return nil, err
	}
	for _, msg := range f.messages[channelID] {
		if msg.ID == messageID {
			return msg, nil
		}
	}
	return nil, NotFound(discordgo.ErrCodeUnknownMessage)
}

func (f *Fake) DeleteMessage(channelID, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.fail("DeleteMessage", messageID); err != nil {
		return err
	}
	msgs := f.messages[channelID]
	for i, msg := range msgs {
		if msg.ID == messageID {
			f.messages[channelID] = append(msgs[:i:i], msgs[i+1:]...)
			f.record("delete-message %s %s", channelID, messageID)
			return nil
		}
	}
	return NotFound(discordgo.ErrCodeUnknownMessage)
}

func (f *Fake) BulkDeleteMessages(channelID string, messageIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.fail("BulkDeleteMessages", channelID); err != nil {
		return err
	}
	drop := make(map[string]bool, len(messageIDs))
	for _, id := range messageIDs {
		drop[id] = true
	}
	kept := f.messages[channelID][:0:0]
	for _, msg := range f.messages[channelID] {
		if !drop[msg.ID] {
			kept = append(kept, msg)
		}
	}
	f.messages[channelID] = kept
	f.record("bulk-delete %s %d", channelID, len(messageIDs))
	return nil
}

// ChannelMessages returns messages newest first, like the REST endpoint.
func (f *Fake) ChannelMessages(channelID string, limit int, beforeID string) ([]*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	msgs := f.messages[channelID]
	out := make([]*discordgo.Message, 0, limit)
	skipping := beforeID != ""
	for i := len(msgs) - 1; i >= 0 && len(out) < limit; i-- {
		if skipping {
			if msgs[i].ID == beforeID {
				skipping = false
			}
			continue
		}
		out = append(out, msgs[i])
	}
	return out, nil
}

func (f *Fake) AddReaction(channelID, messageID, emoji string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.fail("AddReaction", channelID); err != nil {
		return err
	}
	f.reactions = append(f.reactions, Reaction{ChannelID: channelID, MessageID: messageID, Emoji: emoji})
	return nil
}

func (f *Fake) SendDirectMessage(userID, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.fail("SendDirectMessage", userID); err != nil {
		return err
	}
	f.dms[userID] = append(f.dms[userID], content)
	return nil
}

func (f *Fake) AddMemberRole(guildID, userID, roleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.fail("AddMemberRole", roleID); err != nil {
		return err
	}
	member, ok := f.members[guildID][userID]
	if !ok {
		return NotFound(discordgo.ErrCodeUnknownMember)
	}
	for _, id := range member.Roles {
		if id == roleID {
			return nil
		}
	}
	member.Roles = append(member.Roles, roleID)
	f.record("add-role %s %s", userID, roleID)
	return nil
}

func (f *Fake) RemoveMemberRole(guildID, userID, roleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.fail("RemoveMemberRole", roleID); err != nil {
		return err
	}
	member, ok := f.members[guildID][userID]
	if !ok {
		return NotFound(discordgo.ErrCodeUnknownMember)
	}
	for i, id := range member.Roles {
		if id == roleID {
			member.Roles = append(member.Roles[:i:i], member.Roles[i+1:]...)
			f.record("remove-role %s %s", userID, roleID)
			return nil
		}
	}
	return nil
}

func (f *Fake) KickMember(guildID, userID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.fail("KickMember", userID); err != nil {
		return err
	}
	if _, ok := f.members[guildID][userID]; !ok {
		return NotFound(discordgo.ErrCodeUnknownMember)
	}
	delete(f.members[guildID], userID)
	f.record("kick %s %s", userID, reason)
	return nil
}

func (f *Fake) BanMember(guildID, userID, reason string, deleteDays int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.fail("BanMember", userID); err != nil {
		return err
	}
	delete(f.members[guildID], userID)
	f.bans[guildID][userID] = &discordgo.GuildBan{Reason: reason, User: f.userLocked(userID)}
	f.record("ban %s %s %d", userID, reason, deleteDays)
	return nil
}

func (f *Fake) UnbanMember(guildID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.bans[guildID][userID]; !ok {
		return NotFound(discordgo.ErrCodeUnknownBan)
	}
	delete(f.bans[guildID], userID)
	f.record("unban %s", userID)
	return nil
}

func (f *Fake) GuildBans(guildID string) ([]*discordgo.GuildBan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	bans := make([]*discordgo.GuildBan, 0, len(f.bans[guildID]))
	for _, ban := range f.bans[guildID] {
		bans = append(bans, ban)
	}
	return bans, nil
}

func (f *Fake) CreateChannel(guildID string, data discordgo.GuildChannelCreateData) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.fail("CreateChannel", data.Name); err != nil {
		return nil, err
	}
	guild, ok := f.guilds[guildID]
	if !ok {
		return nil, NotFound(discordgo.ErrCodeUnknownGuild)
	}
	channel := &discordgo.Channel{
		ID:                   f.newID(),
		GuildID:              guildID,
		Name:                 data.Name,
		Type:                 data.Type,
		ParentID:             data.ParentID,
		PermissionOverwrites: copyOverwrites(data.PermissionOverwrites),
	}
	f.channels[channel.ID] = channel
	guild.Channels = append(guild.Channels, channel)
	f.record("create-channel %s", data.Name)
	return channel, nil
}

func (f *Fake) ReplaceChannelOverwrites(channelID string, overwrites []*discordgo.PermissionOverwrite) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.fail("ReplaceChannelOverwrites", channelID); err != nil {
		return err
	}
	channel, ok := f.channels[channelID]
	if !ok {
		return NotFound(discordgo.ErrCodeUnknownChannel)
	}
	channel.PermissionOverwrites = copyOverwrites(overwrites)
	f.record("replace-overwrites %s", channelID)
	return nil
}

func (f *Fake) SetChannelOverwrite(channelID string, overwrite *discordgo.PermissionOverwrite) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.fail("SetChannelOverwrite", channelID); err != nil {
		return err
	}
	channel, ok := f.channels[channelID]
	if !ok {
		return NotFound(discordgo.ErrCodeUnknownChannel)
	}
	copied := *overwrite
	for i, o := range channel.PermissionOverwrites {
		if o.ID == overwrite.ID {
			channel.PermissionOverwrites[i] = &copied
			f.record("set-overwrite %s %s", channelID, overwrite.ID)
			return nil
		}
	}
	channel.PermissionOverwrites = append(channel.PermissionOverwrites, &copied)
	f.record("set-overwrite %s %s", channelID, overwrite.ID)
	return nil
}

func (f *Fake) DeleteChannelOverwrite(channelID, targetID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	channel, ok := f.channels[channelID]
	if !ok {
		return NotFound(discordgo.ErrCodeUnknownChannel)
	}
	for i, o := range channel.PermissionOverwrites {
		if o.ID == targetID {
			channel.PermissionOverwrites = append(channel.PermissionOverwrites[:i:i], channel.PermissionOverwrites[i+1:]...)
			f.record("delete-overwrite %s %s", channelID, targetID)
			return nil
		}
	}
	return nil
}

func (f *Fake) CreateRole(guildID string, params *discordgo.RoleParams) (*discordgo.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	guild, ok := f.guilds[guildID]
	if !ok {
		return nil, NotFound(discordgo.ErrCodeUnknownGuild)
	}
	role := &discordgo.Role{ID: f.newID(), Name: params.Name, Position: 1}
	applyRoleParams(role, params)
	guild.Roles = append(guild.Roles, role)
	f.record("create-role %s", params.Name)
	return role, nil
}

func (f *Fake) EditRole(guildID, roleID string, params *discordgo.RoleParams) (*discordgo.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.fail("EditRole", roleID); err != nil {
		return nil, err
	}
	guild, ok := f.guilds[guildID]
	if !ok {
		return nil, NotFound(discordgo.ErrCodeUnknownGuild)
	}
	for _, role := range guild.Roles {
		if role.ID == roleID {
			applyRoleParams(role, params)
			f.record("edit-role %s", roleID)
			return role, nil
		}
	}
	return nil, NotFound(discordgo.ErrCodeUnknownRole)
}

func applyRoleParams(role *discordgo.Role, params *discordgo.RoleParams) {
	if params.Name != "" {
		role.Name = params.Name
	}
	if params.Color != nil {
		role.Color = *params.Color
	}
	if params.Permissions != nil {
		role.Permissions = *params.Permissions
	}
	if params.Mentionable != nil {
		role.Mentionable = *params.Mentionable
	}
	if params.Hoist != nil {
		role.Hoist = *params.Hoist
	}
}

func copyOverwrites(in []*discordgo.PermissionOverwrite) []*discordgo.PermissionOverwrite {
	out := make([]*discordgo.PermissionOverwrite, 0, len(in))
	for _, o := range in {
		copied := *o
		out = append(out, &copied)
	}
	return out
}
