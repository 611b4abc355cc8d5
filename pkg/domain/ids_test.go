package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "marathon/pkg/domain-errors"
)

// TestParseUUID_Invariants validates the parsing invariant:
// "IDs must be valid, non-empty, non-nil UUIDs"
func TestParseUUID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseParticipantID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseParticipantID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseParticipantID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		validUUID := uuid.New()
		id, err := ParseParticipantID(validUUID.String())
		require.NoError(t, err)
		assert.Equal(t, ParticipantID(validUUID), id)
	})
}

// TestParseID_TrustBoundary checks inputs that reach the parsers straight
// from URL paths and JSON bodies.
func TestParseID_TrustBoundary(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"SQL injection attempt", "'; DROP TABLE registrations;--", true},
		{"Path traversal", "../../../etc/passwd", true},
		{"Null byte injection", "550e8400\x00-e29b-41d4-a716-446655440000", true},
		{"Oversized input", strings.Repeat("a", 1000), true},
		{"Unicode zero-width space", "550e8400\u200B-e29b-41d4-a716-446655440000", true},
		{"Empty string", "", true},
		{"Nil UUID", uuid.Nil.String(), true},
		{"Whitespace only", "   ", true},
		{"Uppercase valid UUID", "550E8400-E29B-41D4-A716-446655440000", false},
		{"Valid UUID lowercase", "550e8400-e29b-41d4-a716-446655440000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRegistrationID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestAllIDTypes_ConsistentBehavior(t *testing.T) {
	validUUID := uuid.New().String()
	invalidInputs := []string{"", "invalid", uuid.Nil.String()}

	t.Run("all accept valid UUID", func(t *testing.T) {
		_, errRace := ParseRaceID(validUUID)
		_, errParticipant := ParseParticipantID(validUUID)
		_, errRegistration := ParseRegistrationID(validUUID)

		require.NoError(t, errRace)
		require.NoError(t, errParticipant)
		require.NoError(t, errRegistration)
	})

	for _, input := range invalidInputs {
		t.Run("all reject: "+input, func(t *testing.T) {
			_, errRace := ParseRaceID(input)
			_, errParticipant := ParseParticipantID(input)
			_, errRegistration := ParseRegistrationID(input)

			require.Error(t, errRace)
			require.Error(t, errParticipant)
			require.Error(t, errRegistration)
		})
	}
}

func TestIDs_TextRoundTrip(t *testing.T) {
	original := NewRegistrationID()
	text, err := original.MarshalText()
	require.NoError(t, err)

	var decoded RegistrationID
	require.NoError(t, decoded.UnmarshalText(text))
	assert.Equal(t, original, decoded)

	var bad RaceID
	err = bad.UnmarshalText([]byte("nope"))
	require.Error(t, err)
	assert.True(t, bad.IsNil())
}
