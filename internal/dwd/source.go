package dwd

import (
	"context"

	"github.com/smukkama/dwd-ingest/internal/station"
)

// Source produces the raw records of one provider resource for one station
// and window. Each Fetch call re-issues the network requests; implementations
// hold no state beyond per-run caches.
type Source interface {
	// Kind names the source for logs, e.g. "historical/temperature".
	Kind() string
	Fetch(ctx context.Context, st station.Station, w Window) ([]RawRecord, error)
}

// InitSources are the sources the init mode runs per station: reference
// means plus the recent 10-minute archives for both quantities.
func InitSources(c *Client) []Source {
	sources := make([]Source, 0, 2*len(Quantities))
	for _, q := range Quantities {
		sources = append(sources, NewMeansSource(c, q))
	}
	for _, q := range Quantities {
		sources = append(sources, NewTenMinuteSource(c, q, SourceRecent))
	}
	return sources
}

// HistoricalSources are the archive-sweep sources for the historical mode.
func HistoricalSources(c *Client) []Source {
	sources := make([]Source, 0, len(Quantities))
	for _, q := range Quantities {
		sources = append(sources, NewHistoricalSource(c, q))
	}
	return sources
}

// TrackingSources are the now-data sources for the tracking mode.
func TrackingSources(c *Client) []Source {
	sources := make([]Source, 0, len(Quantities))
	for _, q := range Quantities {
		sources = append(sources, NewTenMinuteSource(c, q, SourceNow))
	}
	return sources
}
