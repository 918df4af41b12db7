package station

import (
	"fmt"
	"strings"

	"github.com/smukkama/dwd-ingest/pkg/config"
)

// Station is one configured DWD observation site. Immutable after load.
type Station struct {
	ID   string
	Name string
}

// PaddedID returns the id zero-padded to five digits, the form DWD uses in
// archive file names.
func (s Station) PaddedID() string {
	if len(s.ID) >= 5 {
		return s.ID
	}
	return strings.Repeat("0", 5-len(s.ID)) + s.ID
}

// Load validates the configured station entries and returns them in the
// configured order.
func Load(entries []config.StationConfig) ([]Station, error) {
	seen := make(map[string]struct{}, len(entries))
	stations := make([]Station, 0, len(entries))

	for i, entry := range entries {
		id := strings.TrimSpace(entry.ID)
		if id == "" {
			return nil, fmt.Errorf("%w: station entry %d has no id", config.ErrInvalid, i)
		}

		st := Station{ID: id, Name: strings.TrimSpace(entry.Name)}
		key := st.PaddedID()
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("%w: duplicate station id %s", config.ErrInvalid, id)
		}
		seen[key] = struct{}{}
		stations = append(stations, st)
	}

	return stations, nil
}
