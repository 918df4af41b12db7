package dwd

import (
	"context"
	"strings"

	"github.com/smukkama/dwd-ingest/internal/station"
)

// MeansSource retrieves the multi-annual reference means for one quantity.
// Not time-windowed: the resource is a fixed reference dataset. Every
// station reads the same files, so downloads are cached for the run.
type MeansSource struct {
	client   *Client
	quantity Quantity
	cache    map[string][]byte
}

// NewMeansSource creates a multi-annual means source.
func NewMeansSource(c *Client, q Quantity) *MeansSource {
	return &MeansSource{client: c, quantity: q, cache: make(map[string][]byte)}
}

func (s *MeansSource) Kind() string {
	return string(SourceMeans) + "/" + string(s.quantity)
}

// Fetch downloads every reference period file and returns one record per
// station-month for the given station.
func (s *MeansSource) Fetch(ctx context.Context, st station.Station, _ Window) ([]RawRecord, error) {
	var records []RawRecord

	for _, period := range ReferencePeriods {
		url := MeansURL(s.client.Base(), s.quantity, period)
		body, ok := s.cache[url]
		if !ok {
			var err error
			body, err = s.client.Get(ctx, url)
			if err != nil {
				return nil, &FetchError{Source: s.Kind(), Station: st.ID, Err: err}
			}
			s.cache[url] = body
		}
		records = append(records, parseMeans(body, s.quantity, st)...)
	}

	return records, nil
}

// parseMeans parses one multi-annual means file. Lines look like:
//
//	Stations_id;Bezugszeitraum;Datenquelle;Jan.;Feb.; ... ;Dez.;Jahr;
//
// Only rows for st are kept; each monthly value becomes one record. Rows
// with too few columns are skipped.
func parseMeans(content []byte, q Quantity, st station.Station) []RawRecord {
	var records []RawRecord

	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "Stations_id") {
			continue
		}

		parts := strings.Split(line, ";")
		if len(parts) < 15 {
			continue
		}
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		if padID(parts[0]) != st.PaddedID() {
			continue
		}
		period := parts[1]

		for month := 1; month <= 12; month++ {
			records = append(records, RawRecord{
				Source:          SourceMeans,
				Quantity:        q,
				StationID:       st.ID,
				ReferencePeriod: period,
				Month:           month,
				Values:          map[string]string{"value": parts[2+month]},
			})
		}
	}

	return records
}

func padID(id string) string {
	id = strings.TrimSpace(id)
	if len(id) >= 5 {
		return id
	}
	return strings.Repeat("0", 5-len(id)) + id
}
