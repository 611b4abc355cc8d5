// Package ports declares what the registration service needs from storage,
// event delivery and callback de-duplication.
package ports

import (
	"context"

	"marathon/internal/registration/models"
	id "marathon/pkg/domain"
)

// Mode names which persistence adapter served a request.
type Mode string

const (
	ModeDurable  Mode = "durable"
	ModeFallback Mode = "fallback"
)

// Store is one persistence adapter. Reads return sentinel.ErrNotFound for
// missing records; every adapter error that means "the backend is gone" wraps
// sentinel.ErrUnavailable.
type Store interface {
	Mode() Mode
	FindRace(ctx context.Context, raceID id.RaceID) (*models.Race, error)
	ListRaces(ctx context.Context) ([]*models.Race, error)
	FindRegistration(ctx context.Context, registrationID id.RegistrationID) (*models.Registration, error)
	ListByParticipant(ctx context.Context, participantID id.ParticipantID) ([]*models.Registration, error)
	ListByRace(ctx context.Context, raceID id.RaceID) ([]*models.Registration, error)

	// RunInRaceTx serializes fn against every other transaction on the same
	// race. Writes made through tx are applied only if fn returns nil.
	RunInRaceTx(ctx context.Context, raceID id.RaceID, fn func(tx RaceTx) error) error
}

// RaceTx is the per-race atomic scope. All capacity and registration
// mutations go through it.
type RaceTx interface {
	// Race is the locked race as of the start of the transaction, updated by
	// ReserveCapacity, ReleaseCapacity and NextBibSequence.
	Race() *models.Race
	FindActiveRegistration(ctx context.Context, participantID id.ParticipantID) (*models.Registration, error)
	FindRegistration(ctx context.Context, registrationID id.RegistrationID) (*models.Registration, error)
	// ReserveCapacity returns sentinel.ErrCapacityExhausted when the race is full.
	ReserveCapacity(ctx context.Context) error
	// ReleaseCapacity returns sentinel.ErrInvalidState if the counter is already zero.
	ReleaseCapacity(ctx context.Context) error
	NextBibSequence(ctx context.Context) (int, error)
	// InsertRegistrationIfAbsent returns sentinel.ErrConflict when the
	// participant already holds an active registration for the race.
	InsertRegistrationIfAbsent(ctx context.Context, reg *models.Registration) error
	UpdatePaymentStatus(ctx context.Context, reg *models.Registration) error
	UpdateStatus(ctx context.Context, reg *models.Registration) error
}

// StoreRunner picks the adapter for one request and fails over when the
// primary is unavailable.
type StoreRunner interface {
	Do(ctx context.Context, fn func(store Store) error) error
}

// EventPublisher delivers committed registration changes to consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event models.RegistrationEvent) error
}

// CallbackLedger remembers payment callbacks that were already applied.
type CallbackLedger interface {
	Seen(ctx context.Context, key string) (bool, error)
	Remember(ctx context.Context, key string) error
}
