package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marathon/internal/registration/models"
	"marathon/internal/registration/store"
)

const sample = `
races:
  - id: 0b7c6d3e-8f21-4a57-9a43-1c2d3e4f5a61
    name: Full Marathon
    distance: full
    distance_km: 42.195
    fee: 50000
    currency: TZS
    max_participants: 2
    registration_open: true
    registration_deadline: 2026-11-30T23:59:59Z
    start_time: 2026-12-09T06:00:00Z
    is_active: true
`

func TestParse(t *testing.T) {
	races, err := Parse([]byte(sample))
	require.NoError(t, err)
	require.Len(t, races, 1)

	r := races[0]
	assert.Equal(t, "Full Marathon", r.Name)
	assert.Equal(t, models.DistanceFull, r.Distance)
	assert.Equal(t, 2, r.MaxParticipants)
	assert.Equal(t, 0, r.CurrentParticipants)
	assert.True(t, r.AcceptsRegistrations())
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"bad distance": "races:\n  - id: 0b7c6d3e-8f21-4a57-9a43-1c2d3e4f5a61\n    name: X\n    distance: ultra\n    currency: TZS\n    registration_deadline: 2026-11-30T00:00:00Z\n",
		"missing name": "races:\n  - id: 0b7c6d3e-8f21-4a57-9a43-1c2d3e4f5a61\n    distance: full\n    currency: TZS\n    registration_deadline: 2026-11-30T00:00:00Z\n",
		"bad id":       "races:\n  - id: nope\n    name: X\n    distance: full\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestApplyKeepsCounters(t *testing.T) {
	ctx := context.Background()
	races, err := Parse([]byte(sample))
	require.NoError(t, err)

	mem := store.NewInMemoryStore()
	require.NoError(t, Apply(ctx, mem, races))
	mem.SyncRaces(ctx, []*models.Race{{ID: races[0].ID, Name: races[0].Name, MaxParticipants: 2, CurrentParticipants: 1, BibSequence: 4}})

	require.NoError(t, Apply(ctx, mem, races))
	got, err := mem.FindRace(ctx, races[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CurrentParticipants)
	assert.Equal(t, 4, got.BibSequence)
	assert.Equal(t, models.DistanceFull, got.Distance)
}

func TestShippedSeedFileParses(t *testing.T) {
	path := filepath.Join("..", "..", "..", "config", "races.yaml")
	if _, err := os.Stat(path); err != nil {
		t.Skip("seed file not present")
	}
	races, err := LoadFile(path)
	require.NoError(t, err)
	assert.NotEmpty(t, races)
}
