package sink

import (
	"context"
	"errors"

	"github.com/smukkama/dwd-ingest/internal/points"
)

// ErrUnavailable marks sink connectivity or authentication failures. A run
// that hits it after fetching exits non-zero.
var ErrUnavailable = errors.New("sink unavailable")

// Writer commits normalized points to the destination store. Writes are
// idempotent: re-writing a point with the same series key overwrites the
// stored value. WritePoints returns how many points were durably accepted;
// on partial failure that count tells the caller where to resume.
type Writer interface {
	Ping(ctx context.Context) error
	WritePoints(ctx context.Context, pts []points.Point) (int, error)
	Close() error
}

// batch splits pts into slices of at most size points. Oversized requests
// are what the bound protects against.
func batch(pts []points.Point, size int) [][]points.Point {
	if size <= 0 {
		size = 5000
	}
	var out [][]points.Point
	for len(pts) > 0 {
		n := size
		if len(pts) < n {
			n = len(pts)
		}
		out = append(out, pts[:n])
		pts = pts[n:]
	}
	return out
}
