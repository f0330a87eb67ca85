package logger

import (
	"context"
	"log/slog"
	"testing"

	"github.com/polkiloo/storefront/internal/config"
)

func TestNewProvidesJSONLogger(t *testing.T) {
	l := New(nil)
	if l == nil {
		t.Fatal("expected logger, got nil")
	}

	if !l.Enabled(context.Background(), slog.LevelInfo) {
		t.Errorf("expected info level to be enabled")
	}
	if l.Enabled(context.Background(), slog.LevelDebug) {
		t.Errorf("did not expect debug level to be enabled")
	}
}

func TestNewHonoursConfiguredLevel(t *testing.T) {
	l := New(&config.Config{LogLevel: slog.LevelDebug})
	if !l.Enabled(context.Background(), slog.LevelDebug) {
		t.Errorf("expected debug level to be enabled")
	}

	l = New(&config.Config{LogLevel: slog.LevelWarn})
	if l.Enabled(context.Background(), slog.LevelInfo) {
		t.Errorf("did not expect info level with warn configured")
	}
}
