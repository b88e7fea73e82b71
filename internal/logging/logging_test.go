package logging

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap/zapcore"

	"uninames/internal/config"
)

func TestNew(t *testing.T) {
	log, err := New(config.LoggingConfig{Level: "info", Format: "text"}, false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer log.Sync()
	if log.Core().Enabled(zapcore.DebugLevel) {
		t.Error("debug enabled at info level")
	}

	log, err = New(config.LoggingConfig{Level: "warn", Format: "json"}, true)
	if err != nil {
		t.Fatalf("New verbose: %v", err)
	}
	defer log.Sync()
	// verbose wins over the configured level.
	if !log.Core().Enabled(zapcore.DebugLevel) {
		t.Error("verbose did not enable debug")
	}
}

func TestNewWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uninames.log")
	log, err := New(config.LoggingConfig{File: path}, false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Info("hello")
	log.Sync()
}

func TestNewRejectsUnknown(t *testing.T) {
	if _, err := New(config.LoggingConfig{Level: "loud"}, false); err == nil {
		t.Error("unknown level accepted")
	}
	if _, err := New(config.LoggingConfig{Format: "xml"}, false); err == nil {
		t.Error("unknown format accepted")
	}
}
