package points

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/smukkama/dwd-ingest/internal/dwd"
	"github.com/smukkama/dwd-ingest/internal/station"
)

var aachen = station.Station{ID: "00091", Name: "Aachen"}

func precipRecord(ts, value string) dwd.RawRecord {
	return dwd.RawRecord{
		Source:    dwd.SourceNow,
		Quantity:  dwd.QuantityPrecipitation,
		StationID: "00091",
		Timestamp: ts,
		Values:    map[string]string{"RWS_10": value},
	}
}

func TestNormalize_Precipitation(t *testing.T) {
	pt, err := Normalize(precipRecord("202401011230", "0.5"), aachen)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	if pt.Measurement != "precip_10min" {
		t.Errorf("measurement = %q", pt.Measurement)
	}
	if pt.Tags["station_id"] != "00091" || pt.Tags["station_name"] != "Aachen" {
		t.Errorf("tags = %v", pt.Tags)
	}
	if pt.Fields["precip_10min"] != 0.5 {
		t.Errorf("fields = %v", pt.Fields)
	}
	want := time.Date(2024, 1, 1, 12, 30, 0, 0, time.UTC)
	if !pt.Time.Equal(want) {
		t.Errorf("time = %s, want %s", pt.Time, want)
	}
}

func TestNormalize_TemperatureFields(t *testing.T) {
	rec := dwd.RawRecord{
		Source:    dwd.SourceRecent,
		Quantity:  dwd.QuantityTemperature,
		StationID: "00091",
		Timestamp: "202401010000",
		Values:    map[string]string{"TT_10": "2.5", "RF_10": "81.0"},
	}

	pt, err := Normalize(rec, aachen)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if pt.Measurement != "temp_10min" {
		t.Errorf("measurement = %q", pt.Measurement)
	}
	if pt.Fields["temperature_10min"] != 2.5 || pt.Fields["humidity_10min"] != 81.0 {
		t.Errorf("fields = %v", pt.Fields)
	}
}

func TestNormalize_Deterministic(t *testing.T) {
	rec := precipRecord("202401011230", "0.5")

	a, err := Normalize(rec, aachen)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	b, err := Normalize(rec, aachen)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	if !reflect.DeepEqual(a, b) {
		t.Errorf("points differ: %+v vs %+v", a, b)
	}
	if a.SeriesKey() != b.SeriesKey() {
		t.Errorf("series keys differ: %q vs %q", a.SeriesKey(), b.SeriesKey())
	}
}

func TestNormalize_Means(t *testing.T) {
	rec := dwd.RawRecord{
		Source:          dwd.SourceMeans,
		Quantity:        dwd.QuantityPrecipitation,
		StationID:       "00091",
		ReferencePeriod: "1961-1990",
		Month:           3,
		Values:          map[string]string{"value": "60,4"},
	}

	pt, err := Normalize(rec, aachen)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	if pt.Measurement != "multi_annual_precipitation" {
		t.Errorf("measurement = %q", pt.Measurement)
	}
	if pt.Tags["reference_period"] != "1961-1990" {
		t.Errorf("tags = %v", pt.Tags)
	}
	if pt.Fields["value"] != 60.4 {
		t.Errorf("decimal comma not handled: %v", pt.Fields)
	}
	want := time.Date(1961, time.March, 1, 0, 0, 0, 0, time.UTC)
	if !pt.Time.Equal(want) {
		t.Errorf("synthetic time = %s, want %s", pt.Time, want)
	}
}

func TestNormalize_Malformed(t *testing.T) {
	cases := []struct {
		name string
		rec  dwd.RawRecord
	}{
		{"missing timestamp", precipRecord("", "0.5")},
		{"garbage timestamp", precipRecord("not-a-time", "0.5")},
		{"non-numeric value", precipRecord("202401011230", "abc")},
		{"no fields", dwd.RawRecord{
			Source:    dwd.SourceNow,
			Quantity:  dwd.QuantityPrecipitation,
			Timestamp: "202401011230",
			Values:    map[string]string{},
		}},
		{"bad reference period", dwd.RawRecord{
			Source:          dwd.SourceMeans,
			Quantity:        dwd.QuantityTemperature,
			ReferencePeriod: "sometime",
			Month:           1,
			Values:          map[string]string{"value": "1,0"},
		}},
		{"month out of range", dwd.RawRecord{
			Source:          dwd.SourceMeans,
			Quantity:        dwd.QuantityTemperature,
			ReferencePeriod: "1961-1990",
			Month:           13,
			Values:          map[string]string{"value": "1,0"},
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Normalize(tc.rec, aachen)
			if err == nil {
				t.Fatal("expected error")
			}
			// Malformed input must surface as exactly this error kind.
			if !errors.Is(err, ErrMalformedRecord) {
				t.Errorf("error %v does not wrap ErrMalformedRecord", err)
			}
		})
	}
}
