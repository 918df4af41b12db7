package dwd

import (
	"fmt"
	"strings"
)

// BaseURL is the root of the DWD open data climate observation tree.
const BaseURL = "https://opendata.dwd.de/climate_environment/CDC/observations_germany/climate"

// Quantity selects which observed quantity a source handles.
type Quantity string

const (
	QuantityPrecipitation Quantity = "precipitation"
	QuantityTemperature   Quantity = "temperature"
)

// Quantities lists every quantity the ingester covers.
var Quantities = []Quantity{QuantityPrecipitation, QuantityTemperature}

// ReferencePeriods are the multi-annual reference periods published by DWD.
var ReferencePeriods = []string{
	"1961-1990",
	"1971-2000",
	"1981-2010",
	"1991-2020",
}

// tenMinutePath maps a quantity to its 10-minute directory name.
func tenMinutePath(q Quantity) string {
	if q == QuantityTemperature {
		return "air_temperature"
	}
	return "precipitation"
}

// archiveToken is the quantity token embedded in 10-minute archive names,
// e.g. 10minutenwerte_nieder_00091_akt.zip.
func archiveToken(q Quantity) string {
	if q == QuantityTemperature {
		return "TU"
	}
	return "nieder"
}

// MeansURL builds the multi-annual means resource URL for one quantity and
// reference period, e.g. .../multi_annual/mean_61-90/Niederschlag_1961-1990.txt.
func MeansURL(base string, q Quantity, period string) string {
	years := strings.Split(period, "-")
	short := period
	if len(years) == 2 && len(years[0]) == 4 && len(years[1]) == 4 {
		short = years[0][2:] + "-" + years[1][2:]
	}

	name := "Niederschlag"
	if q == QuantityTemperature {
		name = "Temperatur"
	}
	return fmt.Sprintf("%s/multi_annual/mean_%s/%s_%s.txt", base, short, name, period)
}

// HistoricalIndexURL is the directory listing of archived 10-minute files.
func HistoricalIndexURL(base string, q Quantity) string {
	return fmt.Sprintf("%s/10_minutes/%s/historical/", base, tenMinutePath(q))
}

// RecentURL is the per-station archive of the last ~500 days.
func RecentURL(base string, q Quantity, paddedID string) string {
	return fmt.Sprintf("%s/10_minutes/%s/recent/10minutenwerte_%s_%s_akt.zip",
		base, tenMinutePath(q), archiveToken(q), paddedID)
}

// NowURL is the per-station archive holding the latest published readings.
func NowURL(base string, q Quantity, paddedID string) string {
	return fmt.Sprintf("%s/10_minutes/%s/now/10minutenwerte_%s_%s_now.zip",
		base, tenMinutePath(q), archiveToken(q), paddedID)
}

// HistoricalPrefix is the file name prefix of one station's archived files.
func HistoricalPrefix(q Quantity, paddedID string) string {
	return fmt.Sprintf("10minutenwerte_%s_%s_", archiveToken(q), paddedID)
}
