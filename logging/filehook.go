// Package logging holds logrus hooks that are not part of logrus itself.
package logging

import (
	"os"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// FileHook appends every entry at or above its level to a file, one JSON
// object per line.
type FileHook struct {
	file      *os.File
	level     logrus.Level
	formatter *logrus.JSONFormatter
	sync.Mutex
}

// NewFileHook opens path for appending, creating it when missing
func NewFileHook(path string, level logrus.Level) (*FileHook, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, errors.Wrap(err, "opening log file")
	}

	return &FileHook{
		file:      file,
		level:     level,
		formatter: &logrus.JSONFormatter{},
	}, nil
}

// Fire event
func (hook *FileHook) Fire(entry *logrus.Entry) error {
	line, err := hook.formatter.Format(entry)
	if err != nil {
		return errors.Wrap(err, "formatting log entry")
	}

	hook.Lock()
	defer hook.Unlock()

	if hook.file == nil {
		return nil
	}
	_, err = hook.file.Write(line)
	return errors.Wrap(err, "writing log file")
}

func (hook *FileHook) Levels() []logrus.Level {
	var levels []logrus.Level
	for _, l := range logrus.AllLevels {
		if l <= hook.level {
			levels = append(levels, l)
		}
	}
	return levels
}

// Close flushes and closes the file. Entries fired afterwards are dropped.
func (hook *FileHook) Close() error {
	hook.Lock()
	defer hook.Unlock()

	if hook.file == nil {
		return nil
	}
	err := hook.file.Close()
	hook.file = nil
	return err
}
