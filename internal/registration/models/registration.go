package models

import (
	"time"

	id "marathon/pkg/domain"
	dErrors "marathon/pkg/domain-errors"
)

// WaiverOrigin records where the waiver was accepted from.
type WaiverOrigin struct {
	IP     string
	Device string
}

// Registration is one participant's entry in one race.
//
// Invariants:
//   - BibNumber is assigned once at admission and never changes
//   - AmountPaid and Currency snapshot the race fee at admission
//   - at most one active registration exists per (participant, race)
type Registration struct {
	ID                         id.RegistrationID
	ParticipantID              id.ParticipantID
	RaceID                     id.RaceID
	BibNumber                  string
	AmountPaid                 int64
	Currency                   string
	PaymentMethod              string
	PaymentStatus              PaymentStatus
	TransactionID              string
	Status                     RegistrationStatus
	TShirtSize                 string
	DietaryRequirements        string
	EstimatedFinishTime        string
	PreviousMarathonExperience string
	EmergencyContactName       string
	EmergencyContactPhone      string
	MedicalConditions          string
	WaiverSigned               bool
	WaiverSignedAt             time.Time
	WaiverIP                   string
	WaiverDevice               string
	RegisteredAt               time.Time
	UpdatedAt                  time.Time
}

// HoldsSlot reports whether the registration counts against race capacity
// and against the one-active-registration-per-race rule.
func (r *Registration) HoldsSlot() bool {
	return r.Status != StatusCancelled && r.PaymentStatus.HoldsSlot()
}

func (r *Registration) Clone() *Registration {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

// Transition describes what applying a change did to a registration.
type Transition struct {
	// Duplicate is set when the requested state was already current; nothing changed.
	Duplicate bool
	// ReleaseSlot is set when the registration held a slot before and no longer does.
	ReleaseSlot bool
}

// ApplyPaymentOutcome moves the payment state machine. A completed payment
// confirms a still-registered entry; a refund leaves the lifecycle status alone.
func (r *Registration) ApplyPaymentOutcome(outcome PaymentStatus, transactionID string, now time.Time) (Transition, error) {
	if !outcome.IsValid() {
		return Transition{}, dErrors.New(dErrors.CodeValidation, "unknown payment status")
	}
	if r.PaymentStatus == outcome {
		return Transition{Duplicate: true}, nil
	}
	if !r.PaymentStatus.CanTransitionTo(outcome) {
		return Transition{}, dErrors.New(dErrors.CodeInvalidTransition,
			"payment status cannot move from "+string(r.PaymentStatus)+" to "+string(outcome))
	}

	held := r.HoldsSlot()
	r.PaymentStatus = outcome
	if outcome == PaymentCompleted && r.Status == StatusRegistered {
		r.Status = StatusConfirmed
	}
	if transactionID != "" {
		r.TransactionID = transactionID
	}
	r.UpdatedAt = now
	return Transition{ReleaseSlot: held && !r.HoldsSlot()}, nil
}

// AdvanceStatus moves the lifecycle forward. Setting the current status again
// is reported as a duplicate rather than an error.
func (r *Registration) AdvanceStatus(next RegistrationStatus, now time.Time) (Transition, error) {
	if !next.IsValid() {
		return Transition{}, dErrors.New(dErrors.CodeValidation, "unknown registration status")
	}
	if r.Status == next {
		return Transition{Duplicate: true}, nil
	}
	if !r.Status.CanAdvanceTo(next) {
		return Transition{}, dErrors.New(dErrors.CodeInvalidTransition,
			"registration status cannot move from "+string(r.Status)+" to "+string(next))
	}

	held := r.HoldsSlot()
	r.Status = next
	r.UpdatedAt = now
	return Transition{ReleaseSlot: held && !r.HoldsSlot()}, nil
}
