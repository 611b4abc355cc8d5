package domain

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	dErrors "marathon/pkg/domain-errors"
)

// Typed identifiers keep race, participant and registration ids from being
// swapped at call sites. All three are UUIDs on the wire and in storage.
type (
	RaceID         uuid.UUID
	ParticipantID  uuid.UUID
	RegistrationID uuid.UUID
)

// maxIDLength bounds parser input before it reaches uuid.Parse.
const maxIDLength = 64

func parseUUID(kind, s string) (uuid.UUID, error) {
	if s == "" || len(s) > maxIDLength || !utf8.ValidString(s) {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" is required and must be a valid UUID")
	}
	if strings.ContainsRune(s, 0) {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" must be a valid UUID")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" must be a valid UUID")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" must not be the nil UUID")
	}
	return parsed, nil
}

// ParseRaceID validates a race id at a trust boundary.
func ParseRaceID(s string) (RaceID, error) {
	u, err := parseUUID("race id", s)
	return RaceID(u), err
}

// ParseParticipantID validates a participant id (the authenticated user id).
func ParseParticipantID(s string) (ParticipantID, error) {
	u, err := parseUUID("participant id", s)
	return ParticipantID(u), err
}

// ParseRegistrationID validates a registration id.
func ParseRegistrationID(s string) (RegistrationID, error) {
	u, err := parseUUID("registration id", s)
	return RegistrationID(u), err
}

func NewRaceID() RaceID                 { return RaceID(uuid.New()) }
func NewRegistrationID() RegistrationID { return RegistrationID(uuid.New()) }

func (id RaceID) String() string         { return uuid.UUID(id).String() }
func (id ParticipantID) String() string  { return uuid.UUID(id).String() }
func (id RegistrationID) String() string { return uuid.UUID(id).String() }

func (id RaceID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id ParticipantID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id RegistrationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id RaceID) MarshalText() ([]byte, error)         { return []byte(id.String()), nil }
func (id ParticipantID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }
func (id RegistrationID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *RaceID) UnmarshalText(b []byte) error {
	parsed, err := ParseRaceID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *ParticipantID) UnmarshalText(b []byte) error {
	parsed, err := ParseParticipantID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *RegistrationID) UnmarshalText(b []byte) error {
	parsed, err := ParseRegistrationID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
