// Package config loads scroller settings from TOML or YAML files.
//
// Settings start from Default and a file overlays only the keys it names.
// The result maps onto the scroller's Policy and platform shim.
package config

import (
	"errors"
	"math"
	"time"

	"github.com/dshills/scroller/internal/scroller"
	"github.com/dshills/scroller/internal/scroller/compat"
)

// Config is the complete settings tree.
type Config struct {
	Scroller   ScrollerSection   `toml:"scroller" yaml:"scroller"`
	Animation  AnimationSection  `toml:"animation" yaml:"animation"`
	MouseWheel MouseWheelSection `toml:"mouse_wheel" yaml:"mouse_wheel"`
	Inertia    InertiaSection    `toml:"inertia" yaml:"inertia"`
	Platform   PlatformSection   `toml:"platform" yaml:"platform"`
	Log        LogSection        `toml:"log" yaml:"log"`
}

// ScrollerSection holds queue and zoom bound settings.
type ScrollerSection struct {
	QueuedOperationTicks       int     `toml:"queued_operation_ticks" yaml:"queued_operation_ticks"`
	NonAnimatedCompletionTicks int     `toml:"non_animated_completion_ticks" yaml:"non_animated_completion_ticks"`
	MinZoomFactor              float64 `toml:"min_zoom_factor" yaml:"min_zoom_factor"`
	MaxZoomFactor              float64 `toml:"max_zoom_factor" yaml:"max_zoom_factor"`
}

// AnimationSection holds animation duration settings in milliseconds.
type AnimationSection struct {
	OffsetsMsPerUnit float64 `toml:"offsets_ms_per_unit" yaml:"offsets_ms_per_unit"`
	OffsetsMinMs     int     `toml:"offsets_min_ms" yaml:"offsets_min_ms"`
	OffsetsMaxMs     int     `toml:"offsets_max_ms" yaml:"offsets_max_ms"`
	ZoomMsPerUnit    float64 `toml:"zoom_ms_per_unit" yaml:"zoom_ms_per_unit"`
	ZoomMinMs        int     `toml:"zoom_min_ms" yaml:"zoom_min_ms"`
	ZoomMaxMs        int     `toml:"zoom_max_ms" yaml:"zoom_max_ms"`
}

// MouseWheelSection holds wheel zoom settings.
type MouseWheelSection struct {
	DeltaForVelocityUnit float64 `toml:"delta_for_velocity_unit" yaml:"delta_for_velocity_unit"`
	MaxVelocityUnits     float64 `toml:"max_velocity_units" yaml:"max_velocity_units"`
	ZoomPerVelocityUnit  float64 `toml:"zoom_per_velocity_unit" yaml:"zoom_per_velocity_unit"`
	MinVelocity          float64 `toml:"min_velocity" yaml:"min_velocity"`

	// InertiaDecayRate of 0 keeps the platform rate.
	InertiaDecayRate float64 `toml:"inertia_decay_rate" yaml:"inertia_decay_rate"`
}

// InertiaSection holds inertia settings.
type InertiaSection struct {
	DefaultDecayRate float64 `toml:"default_decay_rate" yaml:"default_decay_rate"`
}

// PlatformSection selects the emulated platform and its version ranges.
type PlatformSection struct {
	Version                string `toml:"version" yaml:"version"`
	UnsupportedRange       string `toml:"unsupported_range" yaml:"unsupported_range"`
	InterruptAnimatedRange string `toml:"interrupt_animated_range" yaml:"interrupt_animated_range"`
	LegacyWheelRange       string `toml:"legacy_wheel_range" yaml:"legacy_wheel_range"`
}

// LogSection holds logging settings.
type LogSection struct {
	Level string `toml:"level" yaml:"level"`
}

// Default returns the built-in settings.
func Default() *Config {
	p := scroller.DefaultPolicy()
	r := compat.DefaultRanges()
	return &Config{
		Scroller: ScrollerSection{
			QueuedOperationTicks:       p.QueuedOperationTicks,
			NonAnimatedCompletionTicks: p.NonAnimatedCompletionTicks,
			MinZoomFactor:              p.MinZoomFactor,
			MaxZoomFactor:              p.MaxZoomFactor,
		},
		Animation: AnimationSection{
			OffsetsMsPerUnit: p.OffsetsMsPerUnit,
			OffsetsMinMs:     int(p.OffsetsMin / time.Millisecond),
			OffsetsMaxMs:     int(p.OffsetsMax / time.Millisecond),
			ZoomMsPerUnit:    p.ZoomMsPerUnit,
			ZoomMinMs:        int(p.ZoomMin / time.Millisecond),
			ZoomMaxMs:        int(p.ZoomMax / time.Millisecond),
		},
		MouseWheel: MouseWheelSection{
			DeltaForVelocityUnit: p.WheelDeltaForVelocityUnit,
			MaxVelocityUnits:     p.WheelMaxVelocityUnits,
			ZoomPerVelocityUnit:  p.WheelZoomPerVelocityUnit,
			MinVelocity:          p.WheelMinVelocity,
			InertiaDecayRate:     p.WheelInertiaDecayRate,
		},
		Inertia: InertiaSection{
			DefaultDecayRate: p.DefaultDecayRate,
		},
		Platform: PlatformSection{
			Version:                "10.0.19041",
			UnsupportedRange:       r.Unsupported,
			InterruptAnimatedRange: r.InterruptAnimated,
			LegacyWheelRange:       r.LegacyWheel,
		},
		Log: LogSection{Level: "info"},
	}
}

// Validate checks every numeric setting and the platform ranges.
func (c *Config) Validate() error {
	var errs []error
	check := func(path string, v float64, ok bool, msg string) {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			errs = append(errs, &ValidationError{Path: path, Value: v, Message: "must be finite"})
			return
		}
		if !ok {
			errs = append(errs, &ValidationError{Path: path, Value: v, Message: msg})
		}
	}

	s := c.Scroller
	check("scroller.queued_operation_ticks", float64(s.QueuedOperationTicks), s.QueuedOperationTicks >= 1, "must be at least 1")
	check("scroller.non_animated_completion_ticks", float64(s.NonAnimatedCompletionTicks), s.NonAnimatedCompletionTicks >= 1, "must be at least 1")
	check("scroller.min_zoom_factor", s.MinZoomFactor, s.MinZoomFactor > 0, "must be positive")
	check("scroller.max_zoom_factor", s.MaxZoomFactor, s.MaxZoomFactor >= s.MinZoomFactor, "must not be below min_zoom_factor")

	a := c.Animation
	check("animation.offsets_ms_per_unit", a.OffsetsMsPerUnit, a.OffsetsMsPerUnit >= 0, "must not be negative")
	check("animation.offsets_min_ms", float64(a.OffsetsMinMs), a.OffsetsMinMs >= 0, "must not be negative")
	check("animation.offsets_max_ms", float64(a.OffsetsMaxMs), a.OffsetsMaxMs >= a.OffsetsMinMs, "must not be below offsets_min_ms")
	check("animation.zoom_ms_per_unit", a.ZoomMsPerUnit, a.ZoomMsPerUnit >= 0, "must not be negative")
	check("animation.zoom_min_ms", float64(a.ZoomMinMs), a.ZoomMinMs >= 0, "must not be negative")
	check("animation.zoom_max_ms", float64(a.ZoomMaxMs), a.ZoomMaxMs >= a.ZoomMinMs, "must not be below zoom_min_ms")

	w := c.MouseWheel
	check("mouse_wheel.delta_for_velocity_unit", w.DeltaForVelocityUnit, w.DeltaForVelocityUnit > 0, "must be positive")
	check("mouse_wheel.max_velocity_units", w.MaxVelocityUnits, w.MaxVelocityUnits > 0, "must be positive")
	check("mouse_wheel.zoom_per_velocity_unit", w.ZoomPerVelocityUnit, w.ZoomPerVelocityUnit > 0, "must be positive")
	check("mouse_wheel.min_velocity", w.MinVelocity, w.MinVelocity >= 0, "must not be negative")
	check("mouse_wheel.inertia_decay_rate", w.InertiaDecayRate, w.InertiaDecayRate >= 0 && w.InertiaDecayRate <= 1, "must be within [0, 1]")

	check("inertia.default_decay_rate", c.Inertia.DefaultDecayRate, c.Inertia.DefaultDecayRate >= 0 && c.Inertia.DefaultDecayRate <= 1, "must be within [0, 1]")

	if _, err := c.Shim(); err != nil {
		errs = append(errs, &ValidationError{Path: "platform", Value: c.Platform.Version, Message: err.Error()})
	}

	return errors.Join(errs...)
}

// Policy converts the settings into scroller parameters.
func (c *Config) Policy() scroller.Policy {
	ms := func(n int) time.Duration { return time.Duration(n) * time.Millisecond }
	return scroller.Policy{
		QueuedOperationTicks:       c.Scroller.QueuedOperationTicks,
		NonAnimatedCompletionTicks: c.Scroller.NonAnimatedCompletionTicks,
		MinZoomFactor:              c.Scroller.MinZoomFactor,
		MaxZoomFactor:              c.Scroller.MaxZoomFactor,
		OffsetsMsPerUnit:           c.Animation.OffsetsMsPerUnit,
		OffsetsMin:                 ms(c.Animation.OffsetsMinMs),
		OffsetsMax:                 ms(c.Animation.OffsetsMaxMs),
		ZoomMsPerUnit:              c.Animation.ZoomMsPerUnit,
		ZoomMin:                    ms(c.Animation.ZoomMinMs),
		ZoomMax:                    ms(c.Animation.ZoomMaxMs),
		WheelDeltaForVelocityUnit:  c.MouseWheel.DeltaForVelocityUnit,
		WheelMaxVelocityUnits:      c.MouseWheel.MaxVelocityUnits,
		WheelZoomPerVelocityUnit:   c.MouseWheel.ZoomPerVelocityUnit,
		WheelMinVelocity:           c.MouseWheel.MinVelocity,
		WheelInertiaDecayRate:      c.MouseWheel.InertiaDecayRate,
		DefaultDecayRate:           c.Inertia.DefaultDecayRate,
	}
}

// Shim builds the platform compatibility shim for the configured version.
func (c *Config) Shim() (*compat.Platform, error) {
	return compat.NewPlatform(c.Platform.Version, compat.Ranges{
		Unsupported:       c.Platform.UnsupportedRange,
		InterruptAnimated: c.Platform.InterruptAnimatedRange,
		LegacyWheel:       c.Platform.LegacyWheelRange,
	})
}
