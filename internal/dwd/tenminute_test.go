package dwd

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/smukkama/dwd-ingest/internal/station"
)

func zipWithTxt(t *testing.T, name, content string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create(name)
	if err != nil {
		t.Fatalf("creating zip member: %v", err)
	}
	if _, err := f.Write([]byte(content)); err != nil {
		t.Fatalf("writing zip member: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing zip: %v", err)
	}
	return buf.Bytes()
}

func TestParseTenMinuteRows_Precipitation(t *testing.T) {
	text := strings.Join([]string{
		"STATIONS_ID;MESS_DATUM;QN;RWS_DAU_10;RWS_10;RWS_IND_10;eor",
		"   91;202401010000;    3;  10;   0.5;   1;eor",
		"   91;202401010010;    3;  10;  -999;   0;eor", // missing value, dropped
		"   91;202401010020;    3;  10;   0.0;   0;eor",
		"broken line without semicolons",
		"",
	}, "\n")

	records := parseTenMinuteRows([]byte(text), SourceRecent, QuantityPrecipitation, "00091")
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	if records[0].Timestamp != "202401010000" {
		t.Errorf("timestamp = %q", records[0].Timestamp)
	}
	if records[0].Values["RWS_10"] != "0.5" {
		t.Errorf("RWS_10 = %q", records[0].Values["RWS_10"])
	}
	if records[1].Values["RWS_10"] != "0.0" {
		t.Errorf("RWS_10 = %q", records[1].Values["RWS_10"])
	}
}

func TestParseTenMinuteRows_Temperature(t *testing.T) {
	text := strings.Join([]string{
		"STATIONS_ID;MESS_DATUM;QN;PP_10;TT_10;TM5_10;RF_10;TD_10;eor",
		"   91;202401010000;    3;1013.2;   2.5;   2.1;  81.0;  -0.4;eor",
		"   91;202401010010;    3;1013.0;  -999;   2.0;  80.0;  -0.5;eor", // humidity still present
		"   91;202401010020;    3;1012.8;  -999;  -999;  -999;  -999;eor", // all wanted missing
	}, "\n")

	records := parseTenMinuteRows([]byte(text), SourceNow, QuantityTemperature, "00091")
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	if records[0].Values["TT_10"] != "2.5" || records[0].Values["RF_10"] != "81.0" {
		t.Errorf("values = %v", records[0].Values)
	}
	if _, ok := records[1].Values["TT_10"]; ok {
		t.Error("missing TT_10 should be absent from values")
	}
	if records[1].Values["RF_10"] != "80.0" {
		t.Errorf("RF_10 = %q", records[1].Values["RF_10"])
	}
}

func TestParseTenMinuteRows_ExtraColumns(t *testing.T) {
	// Schema drift: extra trailing columns must not break parsing.
	text := "   91;202401010000;    3;  10;   0.5;   1;extra;more;eor\n"
	records := parseTenMinuteRows([]byte(text), SourceRecent, QuantityPrecipitation, "00091")
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
}

func TestParseZipArchive(t *testing.T) {
	content := "STATIONS_ID;MESS_DATUM;QN;RWS_DAU_10;RWS_10;RWS_IND_10;eor\n" +
		"   91;202401010000;    3;  10;   1.5;   1;eor\n"
	data := zipWithTxt(t, "produkt_zehn_min_rr_00091.txt", content)

	records, err := parseZipArchive(data, SourceNow, QuantityPrecipitation, "00091")
	if err != nil {
		t.Fatalf("parseZipArchive failed: %v", err)
	}
	if len(records) != 1 || records[0].Values["RWS_10"] != "1.5" {
		t.Fatalf("records = %+v", records)
	}
}

func TestParseZipArchive_NotAZip(t *testing.T) {
	if _, err := parseZipArchive([]byte("<html>error page</html>"), SourceNow, QuantityPrecipitation, "00091"); err == nil {
		t.Fatal("expected error for non-zip payload")
	}
}

func TestTenMinuteSource_FetchNow(t *testing.T) {
	content := "STATIONS_ID;MESS_DATUM;QN;RWS_DAU_10;RWS_10;RWS_IND_10;eor\n" +
		"   91;202401011230;    3;  10;   0.3;   1;eor\n"
	archive := zipWithTxt(t, "produkt.txt", content)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/10_minutes/precipitation/now/10minutenwerte_nieder_00091_now.zip" {
			http.NotFound(w, r)
			return
		}
		w.Write(archive)
	}))
	defer server.Close()

	src := NewTenMinuteSource(NewClient(server.URL, server.Client()), QuantityPrecipitation, SourceNow)
	records, err := src.Fetch(context.Background(), station.Station{ID: "91"}, Window{})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(records) != 1 || records[0].Source != SourceNow {
		t.Fatalf("records = %+v", records)
	}
}

func TestHistoricalSource_Fetch(t *testing.T) {
	content := "STATIONS_ID;MESS_DATUM;QN;RWS_DAU_10;RWS_10;RWS_IND_10;eor\n" +
		"   91;201001010000;    3;  10;   0.1;   1;eor\n" +
		"   91;201001010010;    3;  10;   0.2;   1;eor\n"
	archive := zipWithTxt(t, "produkt.txt", content)

	index := `<html><body><pre>
<a href="10minutenwerte_nieder_00091_20100101_20191231_hist.zip">x</a>
<a href="10minutenwerte_nieder_00103_20100101_20191231_hist.zip">x</a>
</pre></body></html>`

	var indexHits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/10_minutes/precipitation/historical/":
			indexHits++
			fmt.Fprint(w, index)
		case strings.HasSuffix(r.URL.Path, "_hist.zip"):
			w.Write(archive)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	src := NewHistoricalSource(NewClient(server.URL, server.Client()), QuantityPrecipitation)

	records, err := src.Fetch(context.Background(), station.Station{ID: "00091"}, Window{})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	// Second station reuses the cached listing.
	if _, err := src.Fetch(context.Background(), station.Station{ID: "00103"}, Window{}); err != nil {
		t.Fatalf("second Fetch failed: %v", err)
	}
	if indexHits != 1 {
		t.Errorf("index fetched %d times, want 1", indexHits)
	}
}
