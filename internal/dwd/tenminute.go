package dwd

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/smukkama/dwd-ingest/internal/station"
)

// missingSentinel marks absent values in DWD 10-minute rows.
const missingSentinel = "-999"

// TenMinuteSource retrieves one station's 10-minute observations from the
// recent or now archive.
type TenMinuteSource struct {
	client   *Client
	quantity Quantity
	period   SourceKind // SourceRecent or SourceNow
}

// NewTenMinuteSource creates a recent- or now-archive source.
func NewTenMinuteSource(c *Client, q Quantity, period SourceKind) *TenMinuteSource {
	return &TenMinuteSource{client: c, quantity: q, period: period}
}

func (s *TenMinuteSource) Kind() string {
	return string(s.period) + "/" + string(s.quantity)
}

// Fetch downloads the station's archive and parses its rows. The window is
// applied later, once the normalizer has parsed timestamps.
func (s *TenMinuteSource) Fetch(ctx context.Context, st station.Station, _ Window) ([]RawRecord, error) {
	var url string
	if s.period == SourceNow {
		url = NowURL(s.client.Base(), s.quantity, st.PaddedID())
	} else {
		url = RecentURL(s.client.Base(), s.quantity, st.PaddedID())
	}

	body, err := s.client.Get(ctx, url)
	if err != nil {
		return nil, &FetchError{Source: s.Kind(), Station: st.ID, Err: err}
	}

	records, err := parseZipArchive(body, s.period, s.quantity, st.ID)
	if err != nil {
		return nil, &FetchError{Source: s.Kind(), Station: st.ID, Err: err}
	}
	return records, nil
}

// HistoricalSource sweeps one station's archived 10-minute files. The
// directory listing is fetched once and reused across stations within a run.
type HistoricalSource struct {
	client   *Client
	quantity Quantity
	files    []string
	listed   bool
}

// NewHistoricalSource creates an archive-sweep source.
func NewHistoricalSource(c *Client, q Quantity) *HistoricalSource {
	return &HistoricalSource{client: c, quantity: q}
}

func (s *HistoricalSource) Kind() string {
	return string(SourceHistorical) + "/" + string(s.quantity)
}

// Fetch lists the historical directory, selects the station's files and
// parses each archive. A single unreadable archive is logged and skipped;
// only a failed listing aborts the station.
func (s *HistoricalSource) Fetch(ctx context.Context, st station.Station, _ Window) ([]RawRecord, error) {
	if !s.listed {
		indexURL := HistoricalIndexURL(s.client.Base(), s.quantity)
		page, err := s.client.Get(ctx, indexURL)
		if err != nil {
			return nil, &FetchError{Source: s.Kind(), Station: st.ID, Err: err}
		}

		prefix := fmt.Sprintf("10minutenwerte_%s_", archiveToken(s.quantity))
		files, err := parseIndexListing(page, prefix, "_hist.zip")
		if err != nil {
			return nil, &FetchError{Source: s.Kind(), Station: st.ID, Err: err}
		}
		s.files = files
		s.listed = true
	}

	stationPrefix := HistoricalPrefix(s.quantity, st.PaddedID())
	var records []RawRecord
	matched := 0

	for _, name := range s.files {
		if !strings.HasPrefix(name, stationPrefix) {
			continue
		}
		matched++

		url := HistoricalIndexURL(s.client.Base(), s.quantity) + name
		body, err := s.client.Get(ctx, url)
		if err != nil {
			log.Printf("historical: skipping archive %s: %v", name, err)
			continue
		}

		parsed, err := parseZipArchive(body, SourceHistorical, s.quantity, st.ID)
		if err != nil {
			log.Printf("historical: skipping archive %s: %v", name, err)
			continue
		}
		records = append(records, parsed...)
	}

	log.Printf("historical: station %s matched %d %s archives, %d rows",
		st.ID, matched, s.quantity, len(records))
	return records, nil
}

// parseZipArchive extracts every .txt member of a DWD archive and parses its
// semicolon-delimited rows.
func parseZipArchive(data []byte, kind SourceKind, q Quantity, stationID string) ([]RawRecord, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening zip: %w", err)
	}

	var records []RawRecord
	for _, f := range zr.File {
		if !strings.HasSuffix(f.Name, ".txt") {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("opening zip member %s: %w", f.Name, err)
		}
		text, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("reading zip member %s: %w", f.Name, err)
		}

		records = append(records, parseTenMinuteRows(text, kind, q, stationID)...)
	}

	return records, nil
}

// parseTenMinuteRows parses 10-minute observation rows.
//
// Precipitation: STATIONS_ID;MESS_DATUM;QN;RWS_DAU_10;RWS_10;RWS_IND_10;eor
// Temperature:   STATIONS_ID;MESS_DATUM;QN;PP_10;TT_10;TM5_10;RF_10;TD_10;eor
//
// Column positions are a versioned provider contract; extra trailing columns
// are tolerated, short rows and rows with every wanted value set to the
// missing sentinel are skipped.
func parseTenMinuteRows(text []byte, kind SourceKind, q Quantity, stationID string) []RawRecord {
	reader := csv.NewReader(bytes.NewReader(text))
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var records []RawRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Keep going: one broken line must not drop the file.
			continue
		}
		if len(row) == 0 || strings.HasPrefix(row[0], "STATIONS_ID") {
			continue
		}

		var wanted map[string]int
		if q == QuantityTemperature {
			wanted = map[string]int{"TT_10": 4, "RF_10": 6}
		} else {
			wanted = map[string]int{"RWS_10": 4}
		}

		values := make(map[string]string, len(wanted))
		for column, idx := range wanted {
			if idx >= len(row) {
				continue
			}
			v := strings.TrimSpace(row[idx])
			if v == "" || v == missingSentinel {
				continue
			}
			values[column] = v
		}
		if len(values) == 0 {
			continue
		}

		if len(row) < 2 {
			continue
		}
		records = append(records, RawRecord{
			Source:    kind,
			Quantity:  q,
			StationID: stationID,
			Timestamp: strings.TrimSpace(row[1]),
			Values:    values,
		})
	}

	return records
}
