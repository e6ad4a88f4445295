package platform

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bwmarrin/discordgo"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedPatch struct {
	method string
	path   string
	body   map[string]interface{}
}

// channelAPI serves channel PATCHes and remembers the last one
func channelAPI(t *testing.T, status int) (*Discord, *recordedPatch) {
	t.Helper()

	last := &recordedPatch{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		last.method = r.Method
		last.path = r.URL.Path
		last.body = nil
		require.NoError(t, jsoniter.Unmarshal(raw, &last.body))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status == http.StatusOK {
			io.WriteString(w, `{"id":"1"}`)
			return
		}
		io.WriteString(w, `{"code":50013,"message":"Missing Permissions"}`)
	}))
	t.Cleanup(server.Close)

	endpoint := discordgo.EndpointChannel
	discordgo.EndpointChannel = func(cID string) string { return server.URL + "/channels/" + cID }
	t.Cleanup(func() { discordgo.EndpointChannel = endpoint })

	session, err := discordgo.New("Bot test")
	require.NoError(t, err)
	session.MaxRestRetries = 0

	return NewDiscord(session), last
}

func TestReplaceChannelOverwritesSendsEmptyList(t *testing.T) {
	d, last := channelAPI(t, http.StatusOK)

	for _, overwrites := range [][]*discordgo.PermissionOverwrite{{}, nil} {
		if err := d.ReplaceChannelOverwrites("1", overwrites); err != nil {
			t.Fatalf("platform.Discord.ReplaceChannelOverwrites() failed: %v", err)
		}

		assert.Equal(t, "PATCH", last.method)
		assert.Equal(t, "/channels/1", last.path)
		value, ok := last.body["permission_overwrites"]
		require.True(t, ok, "body lost the overwrite list: %v", last.body)
		assert.Empty(t, value)
	}
}

func TestReplaceChannelOverwritesSendsList(t *testing.T) {
	d, last := channelAPI(t, http.StatusOK)

	err := d.ReplaceChannelOverwrites("1", []*discordgo.PermissionOverwrite{{
		ID:   "g",
		Type: discordgo.PermissionOverwriteTypeRole,
		Deny: discordgo.PermissionSendMessages,
	}})
	require.NoError(t, err)

	list, ok := last.body["permission_overwrites"].([]interface{})
	require.True(t, ok)
	require.Len(t, list, 1)
	assert.Equal(t, "g", list[0].(map[string]interface{})["id"])
}

func TestReplaceChannelOverwritesKeepsRESTError(t *testing.T) {
	d, _ := channelAPI(t, http.StatusForbidden)

	err := d.ReplaceChannelOverwrites("1", nil)
	require.Error(t, err)

	var rest *discordgo.RESTError
	if !assert.ErrorAs(t, err, &rest) {
		return
	}
	assert.Equal(t, discordgo.ErrCodeMissingPermissions, rest.Message.Code)
}
