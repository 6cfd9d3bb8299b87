// Package model defines the core domain types shared across the application.
package model

import "time"

// ReportingWindow is a completed Monday-through-Sunday reporting period.
// It is computed once per run and never mutated.
type ReportingWindow struct {
	// Start is Monday 00:00:00 local time.
	Start time.Time
	// End is the following Sunday 23:59:59 local time, inclusive.
	End time.Time
	// Label is the human-readable week label written into the tracker,
	// derived from the ending Sunday (e.g. "Oct 19th").
	Label string
}
