package models

import (
	"time"

	id "marathon/pkg/domain"
)

// DistanceClass groups races on the public pages.
type DistanceClass string

const (
	DistanceFull   DistanceClass = "full"
	DistanceHalf   DistanceClass = "half"
	Distance10K    DistanceClass = "10k"
	Distance5K     DistanceClass = "5k"
	DistanceFunRun DistanceClass = "fun_run"
)

func (d DistanceClass) IsValid() bool {
	switch d {
	case DistanceFull, DistanceHalf, Distance10K, Distance5K, DistanceFunRun:
		return true
	default:
		return false
	}
}

// Race is a race definition plus its admission counters.
//
// Invariants:
//   - 0 <= CurrentParticipants <= MaxParticipants
//   - CurrentParticipants changes only through a store's race transaction
//   - BibSequence never decreases; released slots do not return bib numbers
//
// Fee is in the currency's minor unit.
type Race struct {
	ID                   id.RaceID     `yaml:"id"`
	Name                 string        `yaml:"name"`
	Distance             DistanceClass `yaml:"distance"`
	DistanceKm           float64       `yaml:"distance_km"`
	Fee                  int64         `yaml:"fee"`
	Currency             string        `yaml:"currency"`
	MaxParticipants      int           `yaml:"max_participants"`
	CurrentParticipants  int           `yaml:"-"`
	RegistrationOpen     bool          `yaml:"registration_open"`
	RegistrationDeadline time.Time     `yaml:"registration_deadline"`
	StartTime            time.Time     `yaml:"start_time"`
	IsActive             bool          `yaml:"is_active"`
	BibSequence          int           `yaml:"-"`
	CreatedAt            time.Time     `yaml:"-"`
	UpdatedAt            time.Time     `yaml:"-"`
}

func (r *Race) RemainingCapacity() int {
	remaining := r.MaxParticipants - r.CurrentParticipants
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (r *Race) HasCapacity() bool {
	return r.CurrentParticipants < r.MaxParticipants
}

// AcceptsRegistrations reports the open/active gate only; deadline and
// capacity are separate admission checks.
func (r *Race) AcceptsRegistrations() bool {
	return r.IsActive && r.RegistrationOpen
}

// DeadlinePassed treats the deadline instant itself as still open.
func (r *Race) DeadlinePassed(now time.Time) bool {
	return now.After(r.RegistrationDeadline)
}

// Clone returns a copy safe to hand across a store boundary.
func (r *Race) Clone() *Race {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}
