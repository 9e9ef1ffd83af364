package portal

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestLoggerDefaultsToSilent(t *testing.T) {
	if Logger().Enabled(context.Background(), slog.LevelError) {
		t.Error("default logger should be disabled")
	}
}

func TestSetLogger(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { SetLogger(nil) })

	a := NewSurface("a", at(0, 0, 0, 0), 2, 3)
	b := NewSurface("b", at(10, 0, 0, 0), 2, 3)
	if err := a.Link(b); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(buf.String(), "surface=a") {
		t.Errorf("link was not logged: %q", buf.String())
	}

	SetLogger(nil)
	if Logger().Enabled(context.Background(), slog.LevelError) {
		t.Error("SetLogger(nil) should restore the silent logger")
	}
}
