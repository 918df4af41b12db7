package points

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/smukkama/dwd-ingest/internal/dwd"
	"github.com/smukkama/dwd-ingest/internal/station"
)

// ErrMalformedRecord marks records the normalizer rejects: missing or
// unparseable timestamp, or no numeric value left. Callers skip the record.
var ErrMalformedRecord = errors.New("malformed record")

// messDatumLayout is the DWD MESS_DATUM timestamp layout, stated as UTC.
const messDatumLayout = "200601021504"

// Measurement names per source kind and quantity.
func measurementFor(rec dwd.RawRecord) string {
	switch {
	case rec.Source == dwd.SourceMeans:
		return "multi_annual_" + string(rec.Quantity)
	case rec.Quantity == dwd.QuantityTemperature:
		return "temp_10min"
	default:
		return "precip_10min"
	}
}

// Normalize converts one raw provider record into a canonical point.
// Deterministic: the same record and station always yield the same point.
func Normalize(rec dwd.RawRecord, st station.Station) (Point, error) {
	if rec.Source == dwd.SourceMeans {
		return normalizeMeans(rec, st)
	}
	return normalizeTenMinute(rec, st)
}

func normalizeMeans(rec dwd.RawRecord, st station.Station) (Point, error) {
	if rec.Month < 1 || rec.Month > 12 {
		return Point{}, fmt.Errorf("%w: month %d out of range", ErrMalformedRecord, rec.Month)
	}

	startYear, err := periodStartYear(rec.ReferencePeriod)
	if err != nil {
		return Point{}, err
	}

	value, err := parseDecimal(rec.Values["value"])
	if err != nil {
		return Point{}, fmt.Errorf("%w: mean value %q: %v", ErrMalformedRecord, rec.Values["value"], err)
	}

	tags := stationTags(st)
	tags["reference_period"] = rec.ReferencePeriod

	// Synthetic timestamp: first day of the month in the period's start
	// year, so each month is a distinct point on the time axis.
	return Point{
		Measurement: measurementFor(rec),
		Tags:        tags,
		Fields:      map[string]float64{"value": value},
		Time:        time.Date(startYear, time.Month(rec.Month), 1, 0, 0, 0, 0, time.UTC),
	}, nil
}

func normalizeTenMinute(rec dwd.RawRecord, st station.Station) (Point, error) {
	if rec.Timestamp == "" {
		return Point{}, fmt.Errorf("%w: missing timestamp", ErrMalformedRecord)
	}
	ts, err := time.ParseInLocation(messDatumLayout, rec.Timestamp, time.UTC)
	if err != nil {
		return Point{}, fmt.Errorf("%w: timestamp %q: %v", ErrMalformedRecord, rec.Timestamp, err)
	}

	fields := make(map[string]float64, len(rec.Values))
	for column, raw := range rec.Values {
		name, ok := fieldNames[column]
		if !ok {
			continue
		}
		v, err := parseDecimal(raw)
		if err != nil {
			return Point{}, fmt.Errorf("%w: %s value %q: %v", ErrMalformedRecord, column, raw, err)
		}
		fields[name] = v
	}
	if len(fields) == 0 {
		return Point{}, fmt.Errorf("%w: no numeric fields", ErrMalformedRecord)
	}

	return Point{
		Measurement: measurementFor(rec),
		Tags:        stationTags(st),
		Fields:      fields,
		Time:        ts,
	}, nil
}

// fieldNames maps provider columns to stored field names.
var fieldNames = map[string]string{
	"RWS_10": "precip_10min",
	"TT_10":  "temperature_10min",
	"RF_10":  "humidity_10min",
}

func stationTags(st station.Station) map[string]string {
	tags := map[string]string{"station_id": st.ID}
	if st.Name != "" {
		tags["station_name"] = st.Name
	}
	return tags
}

// periodStartYear extracts the start year of a reference period like
// "1961-1990".
func periodStartYear(period string) (int, error) {
	start, _, found := strings.Cut(period, "-")
	if !found {
		return 0, fmt.Errorf("%w: reference period %q", ErrMalformedRecord, period)
	}
	year, err := strconv.Atoi(strings.TrimSpace(start))
	if err != nil {
		return 0, fmt.Errorf("%w: reference period %q: %v", ErrMalformedRecord, period, err)
	}
	return year, nil
}

// parseDecimal parses a provider number, accepting the decimal comma used
// in the multi-annual files.
func parseDecimal(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, errors.New("empty value")
	}
	return strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
}
