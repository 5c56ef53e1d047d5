package compat

import "testing"

func TestPlatform(t *testing.T) {
	tests := []struct {
		version    string
		supported  bool
		interrupts bool
		wheelDecay float64
	}{
		{"10.0.10586", false, false, LegacyWheelDecayRate},
		{"10.0.14393", true, false, LegacyWheelDecayRate},
		{"10.0.15063", true, false, WheelDecayRate},
		{"10.0.17763", true, true, WheelDecayRate},
		{"10.0.18361", true, true, WheelDecayRate},
		{"10.0.18362", true, false, WheelDecayRate},
		{"10.0.19041", true, false, WheelDecayRate},
	}

	for _, tt := range tests {
		p, err := NewPlatform(tt.version, DefaultRanges())
		if err != nil {
			t.Fatalf("NewPlatform(%s): %v", tt.version, err)
		}
		if got := p.Supported(); got != tt.supported {
			t.Errorf("%s: expected supported %v, got %v", tt.version, tt.supported, got)
		}
		if got := p.InterruptsAnimatedChanges(); got != tt.interrupts {
			t.Errorf("%s: expected interrupts %v, got %v", tt.version, tt.interrupts, got)
		}
		if got := p.MouseWheelInertiaDecayRate(); got != tt.wheelDecay {
			t.Errorf("%s: expected wheel decay %v, got %v", tt.version, tt.wheelDecay, got)
		}
	}
}

func TestPlatformEmptyRanges(t *testing.T) {
	p, err := NewPlatform("1.0.0", Ranges{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.Supported() || p.InterruptsAnimatedChanges() {
		t.Error("expected no workarounds with empty ranges")
	}
}

func TestPlatformErrors(t *testing.T) {
	if _, err := NewPlatform("not-a-version", DefaultRanges()); err == nil {
		t.Error("expected error for bad version")
	}
	if _, err := NewPlatform("10.0.1", Ranges{Unsupported: "<<< nope"}); err == nil {
		t.Error("expected error for bad range")
	}
}

func TestModern(t *testing.T) {
	var s Shim = Modern{}
	if !s.Supported() || s.InterruptsAnimatedChanges() {
		t.Error("expected modern platform without workarounds")
	}
	if s.MouseWheelInertiaDecayRate() != WheelDecayRate {
		t.Errorf("expected %v, got %v", WheelDecayRate, s.MouseWheelInertiaDecayRate())
	}
}
