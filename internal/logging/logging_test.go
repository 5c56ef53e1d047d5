package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want log.Level
	}{
		{"debug", log.DebugLevel},
		{"DEBUG", log.DebugLevel},
		{"info", log.InfoLevel},
		{"warning", log.WarnLevel},
		{"error", log.ErrorLevel},
		{"bogus", log.InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewLevels(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, log.InfoLevel)

	l.Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("expected debug filtered, got %q", buf.String())
	}
	l.Info("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("expected info output, got %q", buf.String())
	}
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	l := Component(New(&buf, log.DebugLevel), "queue")
	l.Debug("dispatch")
	if !strings.Contains(buf.String(), "queue") {
		t.Errorf("expected prefix in output, got %q", buf.String())
	}

	if Component(nil, "x") == nil {
		t.Error("expected a logger for nil parent")
	}
}

func TestContext(t *testing.T) {
	l := Discard()
	ctx := WithContext(context.Background(), l)
	if FromContext(ctx) != l {
		t.Error("expected logger from context")
	}
	if FromContext(context.Background()) == nil {
		t.Error("expected default logger")
	}
}
