package truncation

import "testing"

func TestValidateRequiresBothThresholds(t *testing.T) {
	if err := (Window{}).Validate(); err != nil {
		t.Fatalf("zero window should validate: %v", err)
	}
	if err := (Window{MaxMinutes: 3, CutoffMinutes: 2}).Validate(); err != nil {
		t.Fatalf("complete window should validate: %v", err)
	}
	if err := (Window{MaxMinutes: 3}).Validate(); err == nil {
		t.Fatal("max without cutoff must be rejected")
	}
	if err := (Window{CutoffMinutes: 2}).Validate(); err == nil {
		t.Fatal("cutoff without max must be rejected")
	}
}

func TestNormalizeClampsCutoff(t *testing.T) {
	window, warning := Window{MaxMinutes: 3, CutoffMinutes: 5}.Normalize()
	if warning == "" {
		t.Fatal("clamping should produce a warning")
	}
	if window.CutoffMinutes != 3 {
		t.Fatalf("cutoff should clamp to max, got %v", window.CutoffMinutes)
	}

	// A 10-minute input is trimmed to exactly the clamped 3 minutes.
	kept, trimmed := window.Keep(10 * 60)
	if !trimmed {
		t.Fatal("10-minute input should be trimmed")
	}
	if kept != 3*60 {
		t.Fatalf("expected 180s kept, got %v", kept)
	}
}

func TestNormalizeNoOpWhenOrdered(t *testing.T) {
	window, warning := Window{MaxMinutes: 5, CutoffMinutes: 3}.Normalize()
	if warning != "" {
		t.Fatalf("no warning expected, got %q", warning)
	}
	if window.CutoffMinutes != 3 {
		t.Fatalf("cutoff should be untouched, got %v", window.CutoffMinutes)
	}
}

func TestKeep(t *testing.T) {
	window := Window{MaxMinutes: 3, CutoffMinutes: 2}

	cases := []struct {
		duration float64
		want     float64
		trimmed  bool
	}{
		{60, 60, false},        // short: untouched
		{180, 180, false},      // exactly max: untouched
		{181, 120, true},       // just over: cut to cutoff
		{3600, 120, true},      // way over: cut to cutoff
	}
	for _, tc := range cases {
		kept, trimmed := window.Keep(tc.duration)
		if kept != tc.want || trimmed != tc.trimmed {
			t.Errorf("Keep(%v) = (%v, %v), want (%v, %v)", tc.duration, kept, trimmed, tc.want, tc.trimmed)
		}
	}
}

func TestKeepNeverExtendsPastDuration(t *testing.T) {
	// An inverted window that skipped normalization: the cutoff exceeds
	// the max. A 5-minute input over the max is kept whole, not padded
	// out to the 10-minute cutoff.
	window := Window{MaxMinutes: 3, CutoffMinutes: 10}
	kept, trimmed := window.Keep(5 * 60)
	if trimmed || kept != 5*60 {
		t.Fatalf("Keep must cap at the duration: (%v, %v)", kept, trimmed)
	}
}

func TestDisabledWindowIsNoOp(t *testing.T) {
	kept, trimmed := Window{}.Keep(7200)
	if trimmed || kept != 7200 {
		t.Fatalf("disabled window must not trim: (%v, %v)", kept, trimmed)
	}
}
