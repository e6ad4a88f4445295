package helpers

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestParseTarget(t *testing.T) {
	cases := []struct {
		input string
		parse func(string) Target
		want  Target
	}{
		{"<@123456789012345678>", ParseUserTarget, Target{ByMention, "123456789012345678"}},
		{"<@!123456789012345678>", ParseUserTarget, Target{ByMention, "123456789012345678"}},
		{"123456789012345678", ParseUserTarget, Target{ByID, "123456789012345678"}},
		{"alice", ParseUserTarget, Target{ByName, "alice"}},
		{"<@&223456789012345678>", ParseRoleTarget, Target{ByMention, "223456789012345678"}},
		{" Trader ", ParseRoleTarget, Target{ByName, "Trader"}},
		{"<#323456789012345678>", ParseChannelTarget, Target{ByMention, "323456789012345678"}},
		{"#general", ParseChannelTarget, Target{ByName, "general"}},
		{"1234", ParseChannelTarget, Target{ByName, "1234"}},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, c.parse(c.input), c.input)
	}
}

func TestSplitArgs(t *testing.T) {
	got := SplitArgs(`add "Bull Market" 📈  'x y'`)
	assert.Equal(t, []string{"add", "Bull Market", "📈", "x y"}, got)

	if len(SplitArgs("   ")) != 0 {
		t.Fatalf("helpers.SplitArgs() returned items for blank input")
	}
}

func TestParseBoolAndInt(t *testing.T) {
	if v, ok := ParseBool("Allow"); !v || !ok {
		t.Fatalf("helpers.ParseBool() failed to parse allow")
	}
	if v, ok := ParseBool("off"); v || !ok {
		t.Fatalf("helpers.ParseBool() failed to parse off")
	}
	if _, ok := ParseBool("maybe"); ok {
		t.Fatalf("helpers.ParseBool() accepted maybe")
	}

	if v, ok := ParseIntInRange(" 42 ", 1, 100); v != 42 || !ok {
		t.Fatalf("helpers.ParseIntInRange() failed to parse 42")
	}
	if _, ok := ParseIntInRange("101", 1, 100); ok {
		t.Fatalf("helpers.ParseIntInRange() accepted a value above max")
	}
}

func TestClassify(t *testing.T) {
	restErr := func(code, status int) error {
		return &discordgo.RESTError{
			Message:  &discordgo.APIErrorMessage{Code: code},
			Response: &http.Response{StatusCode: status},
		}
	}

	assert.Equal(t, KindPermission, Classify(restErr(discordgo.ErrCodeMissingPermissions, 403)))
	assert.Equal(t, KindNotFound, Classify(restErr(discordgo.ErrCodeUnknownMember, 404)))
	assert.Equal(t, KindPermission, Classify(restErr(0, http.StatusForbidden)))
	assert.Equal(t, KindNotFound, Classify(errors.Wrap(NotFound("bot.arguments.role-not-found", "x"), "resolving")))
	assert.Equal(t, KindUpstream, Classify(Upstream(503, nil)))
	assert.Equal(t, KindUnknown, Classify(errors.New("boom")))
	assert.Equal(t, KindUnknown, Classify(nil))
}

func TestDescribe(t *testing.T) {
	if !strings.Contains(Describe(Upstream(503, nil)), "503") {
		t.Fatalf("helpers.Describe() lost the upstream status")
	}
	if !strings.Contains(Describe(NotFound("bot.arguments.role-not-found", "Whales")), "Whales") {
		t.Fatalf("helpers.Describe() lost the argument")
	}
	if !strings.Contains(Describe(errors.New("boom")), "boom") {
		t.Fatalf("helpers.Describe() lost the message of a plain error")
	}
}

func TestIsEmoji(t *testing.T) {
	for _, emoji := range []string{"📈", "✅", "<:xgc:123456>", "<a:spin:42>", "👍🏽"} {
		if !IsEmoji(emoji) {
			t.Fatalf("helpers.IsEmoji() rejected %q", emoji)
		}
	}
	for _, text := range []string{"", "abc", "📈 moon", "<:broken>"} {
		if IsEmoji(text) {
			t.Fatalf("helpers.IsEmoji() accepted %q", text)
		}
	}
}

func TestFormatUptime(t *testing.T) {
	d := 26*time.Hour + 3*time.Minute + 4*time.Second
	if FormatUptime(d) != "1d, 2h, 3m, 4s" {
		t.Fatalf("helpers.FormatUptime() = %q", FormatUptime(d))
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abc…", Truncate("abcdef", 4))
	assert.Equal(t, 0xff0000, GetDiscordColorFromHex("#FF0000"))
}

func TestGetText(t *testing.T) {
	if GetText("no.such.key") != "no.such.key" {
		t.Fatalf("helpers.GetText() should return unknown keys unchanged")
	}
	if GetText("plugins.crypto.xgc-unavailable") != "XGC Price Not Available" {
		t.Fatalf("helpers.GetText() should return __ of an object")
	}
	if !strings.Contains(GetTextF("bot.errors.unexpected", "ref-1"), "ref-1") {
		t.Fatalf("helpers.GetTextF() lost the reference")
	}
}
