// Package snapshot encodes ApplicationState for storage and upgrades older
// payloads to the current schema when they are read.
package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/joseph-ayodele/venue-planner/constants"
	"github.com/joseph-ayodele/venue-planner/internal/entity"
)

// CurrentVersion is the schema version written by Encode.
const CurrentVersion = 3

var ErrCorrupt = errors.New("snapshot is corrupt")

// Envelope is the persisted form of the state.
type Envelope struct {
	SchemaVersion int             `json:"schema_version"`
	SavedAt       time.Time       `json:"saved_at"`
	Venues        []entity.Venue  `json:"venues"`
	Vendors       []entity.Vendor `json:"vendors"`
}

// Encode serialises st at CurrentVersion.
func Encode(st entity.ApplicationState, savedAt time.Time) ([]byte, error) {
	env := Envelope{
		SchemaVersion: CurrentVersion,
		SavedAt:       savedAt.UTC(),
		Venues:        st.Venues,
		Vendors:       st.Vendors,
	}
	if env.Venues == nil {
		env.Venues = []entity.Venue{}
	}
	if env.Vendors == nil {
		env.Vendors = []entity.Vendor{}
	}
	b, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return b, nil
}

// Decode parses payload of any known schema version and upgrades it.
// Empty input is an empty state, not an error.
func Decode(payload []byte) (entity.ApplicationState, int, error) {
	if len(payload) == 0 {
		return emptyState(), CurrentVersion, nil
	}
	var doc map[string]any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return entity.ApplicationState{}, 0, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if doc == nil {
		return entity.ApplicationState{}, 0, fmt.Errorf("%w: document is null", ErrCorrupt)
	}

	from := versionOf(doc)
	if from > CurrentVersion {
		return entity.ApplicationState{}, from, fmt.Errorf("%w: schema version %d is newer than supported %d", ErrCorrupt, from, CurrentVersion)
	}
	if err := upgrade(doc, from); err != nil {
		return entity.ApplicationState{}, from, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	normalized, err := json.Marshal(doc)
	if err != nil {
		return entity.ApplicationState{}, from, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	var env Envelope
	if err := json.Unmarshal(normalized, &env); err != nil {
		return entity.ApplicationState{}, from, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	st := entity.ApplicationState{Venues: env.Venues, Vendors: env.Vendors}
	if st.Venues == nil {
		st.Venues = []entity.Venue{}
	}
	if st.Vendors == nil {
		st.Vendors = []entity.Vendor{}
	}
	for i := range st.Venues {
		st.Venues[i].Status, _ = constants.ParseStatus(string(st.Venues[i].Status))
	}
	for i := range st.Vendors {
		st.Vendors[i].Status, _ = constants.ParseStatus(string(st.Vendors[i].Status))
	}
	return st, from, nil
}

// DecodeOrEmpty never fails: anything unreadable becomes an empty state and
// the error is returned only for logging.
func DecodeOrEmpty(payload []byte) (entity.ApplicationState, error) {
	st, _, err := Decode(payload)
	if err != nil {
		return emptyState(), err
	}
	return st, nil
}

// Fingerprint identifies a payload for change detection.
func Fingerprint(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// ContentFingerprint hashes only the records, so two encodings of the same
// state at different times compare equal.
func ContentFingerprint(st entity.ApplicationState) string {
	if st.Venues == nil {
		st.Venues = []entity.Venue{}
	}
	if st.Vendors == nil {
		st.Vendors = []entity.Vendor{}
	}
	b, err := json.Marshal(struct {
		Venues  []entity.Venue  `json:"venues"`
		Vendors []entity.Vendor `json:"vendors"`
	}{st.Venues, st.Vendors})
	if err != nil {
		return ""
	}
	return Fingerprint(b)
}

func emptyState() entity.ApplicationState {
	return entity.ApplicationState{Venues: []entity.Venue{}, Vendors: []entity.Vendor{}}
}

func versionOf(doc map[string]any) int {
	switch v := doc["schema_version"].(type) {
	case float64:
		return int(v)
	case string:
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			return n
		}
	}
	return 1
}
