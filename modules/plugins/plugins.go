// Package plugins holds the small command plugins: help and info, greeter,
// verification, roles, the role menu, auto-delete and server setup.
package plugins

import (
	"github.com/sirupsen/logrus"
	"github.com/xgctrenches/xgcbot/cache"
)

func logger(module string) *logrus.Entry {
	return cache.GetLogger().WithField("module", module)
}
