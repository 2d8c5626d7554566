// Package truncation decides whether and how much to trim from
// oversized audio segments before concatenation.
package truncation

import (
	"errors"
	"fmt"
)

// Window is the (max, cutoff) pair governing oversized-input trimming.
// A zero Window disables truncation.
type Window struct {
	// MaxMinutes is the duration above which a segment counts as long.
	MaxMinutes float64
	// CutoffMinutes is the duration kept from a long segment.
	CutoffMinutes float64
}

// Enabled reports whether the window is configured.
func (w Window) Enabled() bool {
	return w.MaxMinutes > 0 || w.CutoffMinutes > 0
}

// Validate enforces the both-or-none rule. One threshold without the
// other is a configuration error, not a policy decision.
func (w Window) Validate() error {
	if !w.Enabled() {
		return nil
	}
	if w.MaxMinutes <= 0 {
		return errors.New("truncation cutoff requires a max duration")
	}
	if w.CutoffMinutes <= 0 {
		return errors.New("truncation max requires a cutoff duration")
	}
	return nil
}

// Normalize clamps the cutoff down to the max when it exceeds it. The
// returned string is a warning for the caller to log, empty when no
// adjustment was made.
func (w Window) Normalize() (Window, string) {
	if !w.Enabled() || w.CutoffMinutes <= w.MaxMinutes {
		return w, ""
	}
	warning := fmt.Sprintf("truncation cutoff (%.1f min) exceeds max (%.1f min), clamping cutoff to %.1f min",
		w.CutoffMinutes, w.MaxMinutes, w.MaxMinutes)
	w.CutoffMinutes = w.MaxMinutes
	return w, warning
}

// Keep returns how many seconds of a segment to retain. Segments at or
// under the max are kept whole; longer ones are cut to exactly the
// cutoff. The kept amount never exceeds the segment duration, so an
// unnormalized window cannot extend a segment. The boolean reports
// whether a trim happened.
func (w Window) Keep(durationSeconds float64) (float64, bool) {
	if !w.Enabled() || durationSeconds <= w.MaxMinutes*60 {
		return durationSeconds, false
	}
	keep := w.CutoffMinutes * 60
	if keep >= durationSeconds {
		return durationSeconds, false
	}
	return keep, true
}
