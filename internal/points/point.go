package points

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Point is the canonical time-series point written to the sink. Immutable
// once built by the normalizer.
type Point struct {
	Measurement string
	Tags        map[string]string
	Fields      map[string]float64
	Time        time.Time
}

// SeriesKey identifies the storage slot of a point: measurement plus the
// sorted tag set plus the timestamp. Writing the same key again overwrites
// rather than duplicates.
func (p Point) SeriesKey() string {
	keys := make([]string, 0, len(p.Tags))
	for k := range p.Tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(p.Measurement)
	for _, k := range keys {
		fmt.Fprintf(&b, ",%s=%s", k, p.Tags[k])
	}
	fmt.Fprintf(&b, " %d", p.Time.UnixNano())
	return b.String()
}
