package helpers

import (
	"net/http"
	"time"

	"github.com/sethgrid/pester"
	"github.com/xgctrenches/xgcbot/version"
)

var DEFAULT_UA = "xgcbot/" + version.BOT_VERSION + " (+https://github.com/xgctrenches/xgcbot)"

// NewHTTPClient returns a pester client that makes exactly one attempt.
// Upstream failures are reported to the user, never retried.
func NewHTTPClient(timeout time.Duration) *pester.Client {
	client := pester.NewExtendedClient(&http.Client{Timeout: timeout})
	client.MaxRetries = 1
	client.Concurrency = 1
	client.KeepLog = false
	return client
}
