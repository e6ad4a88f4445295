package version

import (
	"runtime"

	"github.com/xgctrenches/xgcbot/cache"
)

// Version related vars
// Set by compiler
var (
	// BOT_VERSION example: 0.5.2-4-g205bbb8
	BOT_VERSION string = "DEV_SNAPSHOT"

	// BUILD_TIME example: Fri Jan  6 00:45:46 CET 2017
	BUILD_TIME string = "UNSET"

	// BUILD_USER example: sn0w
	BUILD_USER string = "UNSET"

	// BUILD_HOST example: nepgear
	BUILD_HOST string = "UNSET"
)

// GoVersion is the runtime the binary was built with
func GoVersion() string {
	return runtime.Version()
}

// DumpInfo dumps all above vars
func DumpInfo() {
	log := cache.GetLogger().WithField("module", "version")
	log.Debug("BOT VERSION: " + BOT_VERSION)
	log.Debug("BUILD TIME: " + BUILD_TIME)
	log.Debug("BUILD USER: " + BUILD_USER)
	log.Debug("BUILD HOST: " + BUILD_HOST)
	log.Debug("GO VERSION: " + GoVersion())
}
