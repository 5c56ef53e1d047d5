// Package compat gates engine workarounds on the hosting platform version.
//
// The scroller core never inspects versions itself. It asks a Shim whether
// the platform is supported, whether animated changes need an explicit
// interruption, and which decay rate mouse-wheel inertia should use.
package compat

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Mouse-wheel scale decay rates.
const (
	WheelDecayRate       = 0.999972
	LegacyWheelDecayRate = 0.997361
)

// Shim answers platform questions for the scroller core.
type Shim interface {
	// Supported reports whether the platform has the engine capabilities
	// view changes require.
	Supported() bool

	// InterruptsAnimatedChanges reports whether a new animated change must
	// first settle an in-flight animation of the same type.
	InterruptsAnimatedChanges() bool

	// MouseWheelInertiaDecayRate returns the scale decay rate for wheel
	// velocity operations.
	MouseWheelInertiaDecayRate() float64
}

// Ranges holds the semver constraints that drive a Platform.
type Ranges struct {
	Unsupported       string
	InterruptAnimated string
	LegacyWheel       string
}

// DefaultRanges returns the constraints for the known engine defects.
func DefaultRanges() Ranges {
	return Ranges{
		Unsupported:       "< 10.0.14393",
		InterruptAnimated: ">= 10.0.17763, < 10.0.18362",
		LegacyWheel:       "< 10.0.15063",
	}
}

// Platform is a Shim driven by a version and constraint ranges.
type Platform struct {
	version           *semver.Version
	unsupported       *semver.Constraints
	interruptAnimated *semver.Constraints
	legacyWheel       *semver.Constraints
}

// NewPlatform parses version and ranges into a Platform.
func NewPlatform(version string, r Ranges) (*Platform, error) {
	v, err := semver.NewVersion(version)
	if err != nil {
		return nil, fmt.Errorf("compat: parse version %q: %w", version, err)
	}

	p := &Platform{version: v}
	if p.unsupported, err = parseRange(r.Unsupported); err != nil {
		return nil, err
	}
	if p.interruptAnimated, err = parseRange(r.InterruptAnimated); err != nil {
		return nil, err
	}
	if p.legacyWheel, err = parseRange(r.LegacyWheel); err != nil {
		return nil, err
	}
	return p, nil
}

func parseRange(s string) (*semver.Constraints, error) {
	if s == "" {
		return nil, nil
	}
	c, err := semver.NewConstraint(s)
	if err != nil {
		return nil, fmt.Errorf("compat: parse range %q: %w", s, err)
	}
	return c, nil
}

func (p *Platform) matches(c *semver.Constraints) bool {
	return c != nil && c.Check(p.version)
}

// Version returns the platform version.
func (p *Platform) Version() string {
	return p.version.String()
}

// Supported implements Shim.
func (p *Platform) Supported() bool {
	return !p.matches(p.unsupported)
}

// InterruptsAnimatedChanges implements Shim.
func (p *Platform) InterruptsAnimatedChanges() bool {
	return p.matches(p.interruptAnimated)
}

// MouseWheelInertiaDecayRate implements Shim.
func (p *Platform) MouseWheelInertiaDecayRate() float64 {
	if p.matches(p.legacyWheel) {
		return LegacyWheelDecayRate
	}
	return WheelDecayRate
}

// Modern is a Shim for a current platform with no workarounds.
type Modern struct{}

// Supported implements Shim.
func (Modern) Supported() bool { return true }

// InterruptsAnimatedChanges implements Shim.
func (Modern) InterruptsAnimatedChanges() bool { return false }

// MouseWheelInertiaDecayRate implements Shim.
func (Modern) MouseWheelInertiaDecayRate() float64 { return WheelDecayRate }
