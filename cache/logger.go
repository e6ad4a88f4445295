package cache

import (
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	logger      *logrus.Logger
	loggerMutex sync.RWMutex
)

func SetLogger(s *logrus.Logger) {
	loggerMutex.Lock()
	logger = s
	loggerMutex.Unlock()
}

// GetLogger returns the process logger. Tests that never call SetLogger get a
// standard logrus logger instead of a panic.
func GetLogger() *logrus.Logger {
	loggerMutex.RLock()
	l := logger
	loggerMutex.RUnlock()

	if l == nil {
		loggerMutex.Lock()
		defer loggerMutex.Unlock()
		if logger == nil {
			logger = logrus.StandardLogger()
		}
		return logger
	}

	return l
}
