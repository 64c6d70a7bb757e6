package snapshot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/venue-planner/constants"
	"github.com/joseph-ayodele/venue-planner/internal/entity"
)

func TestEncodeDecode_CurrentVersion(t *testing.T) {
	now := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	st := entity.ApplicationState{
		Venues: []entity.Venue{{
			ID:                    "v1",
			VenueFields:           entity.VenueFields{Name: "Oak Barn", VenueHireCost: 1500, Features: []string{"garden"}},
			Status:                constants.StatusPriority,
			LastUpdatedAt:         &now,
			LastChangeDescription: "Venue hire cost updated from 1000 to 1500",
		}},
	}

	payload, err := Encode(st, now)
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"schema_version":3`)

	got, version, err := Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, CurrentVersion, version)
	require.Len(t, got.Venues, 1)
	assert.Equal(t, st.Venues[0].VenueFields, got.Venues[0].VenueFields)
	assert.Equal(t, constants.StatusPriority, got.Venues[0].Status)
	assert.True(t, now.Equal(*got.Venues[0].LastUpdatedAt))
	assert.NotNil(t, got.Vendors)
}

func TestDecode_UpgradesV1(t *testing.T) {
	legacy := []byte(`{
		"venues": [{
			"id": "a",
			"name": "Rose Hall",
			"features": "garden, bridal suite ,parking",
			"venue_hire_cost": "£1,500",
			"capacity": "120",
			"deposit": "tbc"
		}],
		"vendors": [{"id": "b", "name": "Snap", "category": "photography", "price": "2k", "status": "Maybe"}]
	}`)

	got, from, err := Decode(legacy)
	require.NoError(t, err)
	assert.Equal(t, 1, from)

	require.Len(t, got.Venues, 1)
	v := got.Venues[0]
	assert.Equal(t, []string{"garden", "bridal suite", "parking"}, v.Features)
	assert.Equal(t, 1500.0, v.VenueHireCost)
	assert.Equal(t, 120, v.Capacity)
	assert.Zero(t, v.Deposit)
	assert.Equal(t, constants.StatusUnseen, v.Status)

	require.Len(t, got.Vendors, 1)
	assert.Equal(t, 2000.0, got.Vendors[0].Price)
	assert.Equal(t, string(constants.Photographer), got.Vendors[0].Category)
	assert.Equal(t, constants.StatusMaybe, got.Vendors[0].Status)
}

func TestDecode_UnknownStatusBecomesUnseen(t *testing.T) {
	got, _, err := Decode([]byte(`{"schema_version":3,"venues":[{"id":"a","name":"X","status":"shortlisted"}],"vendors":[]}`))
	require.NoError(t, err)
	assert.Equal(t, constants.StatusUnseen, got.Venues[0].Status)
}

func TestDecode_Corrupt(t *testing.T) {
	for name, payload := range map[string]string{
		"not json":    `{"venues": [`,
		"null":        `null`,
		"wrong shape": `{"schema_version":3,"venues":{"id":"a"}}`,
		"future":      `{"schema_version":99}`,
	} {
		t.Run(name, func(t *testing.T) {
			st, err := DecodeOrEmpty([]byte(payload))
			assert.Error(t, err)
			assert.ErrorIs(t, err, ErrCorrupt)
			assert.True(t, st.Empty())
			assert.NotNil(t, st.Venues)
		})
	}
}

func TestDecode_EmptyPayload(t *testing.T) {
	st, err := DecodeOrEmpty(nil)
	require.NoError(t, err)
	assert.True(t, st.Empty())
}

func TestFingerprintStable(t *testing.T) {
	st := entity.ApplicationState{Venues: []entity.Venue{{ID: "a"}}}
	a, _ := Encode(st, time.Unix(1, 0))
	b, _ := Encode(st, time.Unix(2, 0))
	assert.NotEqual(t, Fingerprint(a), Fingerprint(b))
	assert.Equal(t, ContentFingerprint(st), ContentFingerprint(st.Clone()))
}
