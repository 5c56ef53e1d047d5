package config

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dshills/scroller/internal/scroller"
	"github.com/dshills/scroller/internal/scroller/compat"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if cfg.Policy() != scroller.DefaultPolicy() {
		t.Errorf("expected default policy, got %+v", cfg.Policy())
	}
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("expected default log level, got %q", cfg.Log.Level)
	}
}

func TestLoadTOMLOverlaysDefaults(t *testing.T) {
	path := writeFile(t, "scroller.toml", `
[scroller]
max_zoom_factor = 8.0

[animation]
offsets_max_ms = 400

[log]
level = "debug"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Scroller.MaxZoomFactor != 8 {
		t.Errorf("expected max zoom 8, got %v", cfg.Scroller.MaxZoomFactor)
	}
	if cfg.Scroller.MinZoomFactor != 0.1 {
		t.Errorf("expected min zoom default kept, got %v", cfg.Scroller.MinZoomFactor)
	}
	p := cfg.Policy()
	if p.OffsetsMax != 400*time.Millisecond {
		t.Errorf("expected offsets max 400ms, got %v", p.OffsetsMax)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected debug, got %q", cfg.Log.Level)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "scroller.yaml", `
mouse_wheel:
  max_velocity_units: 3
platform:
  version: "10.0.14393"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MouseWheel.MaxVelocityUnits != 3 {
		t.Errorf("expected 3, got %v", cfg.MouseWheel.MaxVelocityUnits)
	}
	shim, err := cfg.Shim()
	if err != nil {
		t.Fatal(err)
	}
	if shim.MouseWheelInertiaDecayRate() != compat.LegacyWheelDecayRate {
		t.Errorf("expected legacy wheel decay for %s", shim.Version())
	}
}

func TestLoadEmptyYAML(t *testing.T) {
	path := writeFile(t, "empty.yml", "")
	if _, err := Load(path); err != nil {
		t.Errorf("expected empty YAML to keep defaults, got %v", err)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeFile(t, "bad.toml", `
[scroller]
bogus = 1
`)
	_, err := Load(path)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestLoadReportsSyntaxPosition(t *testing.T) {
	path := writeFile(t, "broken.toml", "[scroller\n")
	_, err := Load(path)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if pe.Line != 1 {
		t.Errorf("expected line 1, got %d", pe.Line)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero ticks", func(c *Config) { c.Scroller.QueuedOperationTicks = 0 }},
		{"nan zoom", func(c *Config) { c.Scroller.MinZoomFactor = math.NaN() }},
		{"inverted zoom", func(c *Config) { c.Scroller.MaxZoomFactor = 0.05 }},
		{"inverted durations", func(c *Config) { c.Animation.ZoomMaxMs = 10 }},
		{"decay above one", func(c *Config) { c.Inertia.DefaultDecayRate = 1.5 }},
		{"wheel decay inf", func(c *Config) { c.MouseWheel.InertiaDecayRate = math.Inf(1) }},
		{"bad version", func(c *Config) { c.Platform.Version = "ten" }},
		{"bad range", func(c *Config) { c.Platform.LegacyWheelRange = "bogus" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Scroller.MaxZoomFactor = 4
	for _, f := range []Format{FormatTOML, FormatYAML} {
		data, err := Encode(cfg, f)
		if err != nil {
			t.Fatalf("%s: %v", f, err)
		}
		got, err := Parse("encoded", data, f)
		if err != nil {
			t.Fatalf("%s: %v", f, err)
		}
		if *got != *cfg {
			t.Errorf("%s: expected %+v, got %+v", f, cfg, got)
		}
	}
}

func TestFormatOf(t *testing.T) {
	tests := map[string]Format{
		"a.toml": FormatTOML,
		"a.yaml": FormatYAML,
		"a.YML":  FormatYAML,
		"a":      FormatTOML,
	}
	for path, want := range tests {
		if got := FormatOf(path); got != want {
			t.Errorf("FormatOf(%q) = %s, want %s", path, got, want)
		}
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"SCROLLER_LOG_LEVEL":        "warn",
		"SCROLLER_PLATFORM_VERSION": "10.0.17763",
	}
	cfg := Default()
	applied := cfg.ApplyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	if len(applied) != 2 {
		t.Errorf("expected 2 overrides, got %v", applied)
	}
	if cfg.Log.Level != "warn" || cfg.Platform.Version != "10.0.17763" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
}

func TestWatchReloads(t *testing.T) {
	path := writeFile(t, "scroller.toml", "[scroller]\nmax_zoom_factor = 5.0\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan *Config, 4)
	err := Watch(ctx, path, func(c *Config, err error) {
		if err == nil {
			got <- c
		}
	})
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}

	if err := os.WriteFile(path, []byte("[scroller]\nmax_zoom_factor = 6.0\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case c := <-got:
		if c.Scroller.MaxZoomFactor != 6 {
			t.Errorf("expected reloaded max zoom 6, got %v", c.Scroller.MaxZoomFactor)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}
