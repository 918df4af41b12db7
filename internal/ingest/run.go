package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/smukkama/dwd-ingest/internal/dwd"
	"github.com/smukkama/dwd-ingest/internal/points"
	"github.com/smukkama/dwd-ingest/internal/sink"
	"github.com/smukkama/dwd-ingest/internal/station"
)

// Mode selects which sources a run executes.
type Mode string

const (
	ModeInit       Mode = "init"
	ModeHistorical Mode = "historical"
	ModeTracking   Mode = "tracking"
)

// PointStream is the optional fan-out for normalized points. Satisfied by
// queue.Publisher.
type PointStream interface {
	PublishPoints(ctx context.Context, pts []points.Point) error
}

// Summary reports what one run did.
type Summary struct {
	RunID       string
	Mode        Mode
	Stations    int
	Fetched     int // raw records produced by fetchers
	Skipped     int // records rejected by the normalizer
	Filtered    int // points outside the run window
	FetchErrors int // per-station/source failures, non-fatal
	Written     int // points accepted by the sink
}

// Runner executes one ingest run: fetch per station and source, normalize,
// write. It holds no memory of prior runs; overlapping windows across runs
// are resolved by the sink's overwrite semantics.
type Runner struct {
	mode     Mode
	stations []station.Station
	sources  []dwd.Source
	sink     sink.Writer
	stream   PointStream // optional
	window   dwd.Window
}

// NewRunner assembles a run. stream may be nil; window may be zero for the
// init-family modes.
func NewRunner(mode Mode, stations []station.Station, sources []dwd.Source, w sink.Writer, stream PointStream, window dwd.Window) *Runner {
	return &Runner{
		mode:     mode,
		stations: stations,
		sources:  sources,
		sink:     w,
		stream:   stream,
		window:   window,
	}
}

// Run fetches all configured stations and writes the normalized points.
// Per-station fetch failures and malformed records are logged and skipped;
// only a sink failure makes the run fail.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	summary := Summary{
		RunID:    uuid.New().String(),
		Mode:     r.mode,
		Stations: len(r.stations),
	}

	log.Printf("[run %s] starting %s run for %d stations", summary.RunID, r.mode, len(r.stations))
	start := time.Now()

	var collected []points.Point
	for _, st := range r.stations {
		collected = append(collected, r.fetchStation(ctx, st, &summary)...)
	}

	if r.stream != nil && len(collected) > 0 {
		if err := r.stream.PublishPoints(ctx, collected); err != nil {
			log.Printf("[run %s] point stream publish failed (ignored): %v", summary.RunID, err)
		}
	}

	written, err := r.sink.WritePoints(ctx, collected)
	summary.Written = written
	if err != nil {
		return summary, fmt.Errorf("writing %d points (%d accepted): %w", len(collected), written, err)
	}

	if len(collected) == 0 {
		log.Printf("[run %s] zero-point run: nothing new to write", summary.RunID)
	}
	log.Printf("[run %s] done in %s: fetched=%d skipped=%d filtered=%d fetch_errors=%d written=%d",
		summary.RunID, time.Since(start).Round(time.Millisecond),
		summary.Fetched, summary.Skipped, summary.Filtered, summary.FetchErrors, summary.Written)

	return summary, nil
}

func (r *Runner) fetchStation(ctx context.Context, st station.Station, summary *Summary) []points.Point {
	var collected []points.Point

	for _, src := range r.sources {
		records, err := src.Fetch(ctx, st, r.window)
		if err != nil {
			// One failing station/source must not stop the others.
			summary.FetchErrors++
			log.Printf("[run %s] fetch failed, skipping: %v", summary.RunID, err)
			continue
		}
		summary.Fetched += len(records)

		for _, rec := range records {
			pt, err := points.Normalize(rec, st)
			if err != nil {
				if errors.Is(err, points.ErrMalformedRecord) {
					summary.Skipped++
					log.Printf("[run %s] station %s source %s: skipping record: %v",
						summary.RunID, st.ID, src.Kind(), err)
					continue
				}
				summary.Skipped++
				log.Printf("[run %s] station %s source %s: unexpected normalize error: %v",
					summary.RunID, st.ID, src.Kind(), err)
				continue
			}

			if !r.window.IsZero() && !r.window.Contains(pt.Time) {
				summary.Filtered++
				continue
			}
			collected = append(collected, pt)
		}
	}

	return collected
}
