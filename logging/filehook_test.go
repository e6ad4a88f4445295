package logging

import (
	"bufio"
	"os"
	"path/filepath"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

func TestFileHookWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.log")

	hook, err := NewFileHook(path, logrus.InfoLevel)
	if err != nil {
		t.Fatalf("logging.NewFileHook() failed: %v", err)
	}

	log := logrus.New()
	log.Out = discard{}
	log.Level = logrus.DebugLevel
	log.Hooks.Add(hook)

	log.WithField("module", "test").Info("hello")
	log.Debug("too chatty")

	if err := hook.Close(); err != nil {
		t.Fatalf("logging.FileHook.Close() failed: %v", err)
	}
	log.Info("after close")

	file, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()

	var lines []map[string]interface{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var line map[string]interface{}
		if err := jsoniter.Unmarshal(scanner.Bytes(), &line); err != nil {
			t.Fatalf("logging.FileHook wrote invalid json: %v", err)
		}
		lines = append(lines, line)
	}

	if len(lines) != 1 {
		t.Fatalf("logging.FileHook wrote %d lines, expected 1", len(lines))
	}
	if lines[0]["msg"] != "hello" || lines[0]["module"] != "test" {
		t.Fatalf("logging.FileHook lost fields: %v", lines[0])
	}
}

func TestFileHookLevels(t *testing.T) {
	hook := &FileHook{level: logrus.WarnLevel}
	if len(hook.Levels()) != 4 {
		t.Fatalf("logging.FileHook.Levels() = %v", hook.Levels())
	}
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
