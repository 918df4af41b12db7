package dwd

import "time"

// SourceKind identifies which provider resource a record came from.
type SourceKind string

const (
	SourceMeans      SourceKind = "multi_annual"
	SourceHistorical SourceKind = "historical"
	SourceRecent     SourceKind = "recent"
	SourceNow        SourceKind = "now"
)

// RawRecord is one provider row, still in provider form. Values are kept as
// published text; the normalizer owns timestamp and number parsing so that
// malformed data is rejected in exactly one place.
type RawRecord struct {
	Source    SourceKind
	Quantity  Quantity
	StationID string

	// Timestamp is the raw MESS_DATUM (YYYYMMDDhhmm, UTC) for 10-minute
	// rows. Empty for multi-annual records.
	Timestamp string

	// ReferencePeriod and Month locate a multi-annual mean value,
	// e.g. "1961-1990" month 3.
	ReferencePeriod string
	Month           int

	// Values holds the published column values by provider column name.
	Values map[string]string
}

// Window bounds a fetch in time. The zero Window is unbounded.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	if !w.Start.IsZero() && t.Before(w.Start) {
		return false
	}
	if !w.End.IsZero() && t.After(w.End) {
		return false
	}
	return true
}

// IsZero reports whether the window is unbounded.
func (w Window) IsZero() bool {
	return w.Start.IsZero() && w.End.IsZero()
}

// TrailingWindow is the tracking-mode window: the last d up to now.
func TrailingWindow(now time.Time, d time.Duration) Window {
	return Window{Start: now.Add(-d), End: now}
}
