package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	id "marathon/pkg/domain"
	dErrors "marathon/pkg/domain-errors"
)

var fixedNow = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

func openRace() *Race {
	return &Race{
		ID:                   id.NewRaceID(),
		Name:                 "City Half",
		Distance:             DistanceHalf,
		Fee:                  35000,
		Currency:             "TZS",
		MaxParticipants:      10,
		CurrentParticipants:  3,
		RegistrationOpen:     true,
		RegistrationDeadline: fixedNow.Add(24 * time.Hour),
		IsActive:             true,
	}
}

func validDetails() RegistrationDetails {
	return RegistrationDetails{
		TShirtSize:            "M",
		EmergencyContactName:  "Asha",
		EmergencyContactPhone: "+255700000000",
		WaiverAccepted:        true,
	}
}

func pendingRegistration() *Registration {
	return NewRegistration(openRace(), id.ParticipantID(id.NewRaceID()), "RACE001", validDetails(), WaiverOrigin{}, fixedNow)
}

func TestCheckAdmission(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *Race, d *RegistrationDetails) *Registration
		code    dErrors.Code
		wantErr bool
	}{
		{name: "admits", mutate: func(*Race, *RegistrationDetails) *Registration { return nil }},
		{name: "closed", code: dErrors.CodeRegistrationClosed, wantErr: true, mutate: func(r *Race, _ *RegistrationDetails) *Registration {
			r.RegistrationOpen = false
			return nil
		}},
		{name: "inactive", code: dErrors.CodeRegistrationClosed, wantErr: true, mutate: func(r *Race, _ *RegistrationDetails) *Registration {
			r.IsActive = false
			return nil
		}},
		{name: "deadline instant is still open", mutate: func(r *Race, _ *RegistrationDetails) *Registration {
			r.RegistrationDeadline = fixedNow
			return nil
		}},
		{name: "deadline passed", code: dErrors.CodeDeadlinePassed, wantErr: true, mutate: func(r *Race, _ *RegistrationDetails) *Registration {
			r.RegistrationDeadline = fixedNow.Add(-time.Nanosecond)
			return nil
		}},
		{name: "full", code: dErrors.CodeRaceFull, wantErr: true, mutate: func(r *Race, _ *RegistrationDetails) *Registration {
			r.CurrentParticipants = r.MaxParticipants
			return nil
		}},
		{name: "already registered", code: dErrors.CodeAlreadyRegistered, wantErr: true, mutate: func(*Race, *RegistrationDetails) *Registration {
			return pendingRegistration()
		}},
		{name: "waiver required", code: dErrors.CodeWaiverRequired, wantErr: true, mutate: func(_ *Race, d *RegistrationDetails) *Registration {
			d.WaiverAccepted = false
			return nil
		}},
		{name: "missing emergency phone", code: dErrors.CodeMissingRequiredField, wantErr: true, mutate: func(_ *Race, d *RegistrationDetails) *Registration {
			d.EmergencyContactPhone = "  "
			return nil
		}},
		{name: "closed wins over full", code: dErrors.CodeRegistrationClosed, wantErr: true, mutate: func(r *Race, _ *RegistrationDetails) *Registration {
			r.RegistrationOpen = false
			r.CurrentParticipants = r.MaxParticipants
			return nil
		}},
		{name: "full wins over already registered", code: dErrors.CodeRaceFull, wantErr: true, mutate: func(r *Race, _ *RegistrationDetails) *Registration {
			r.CurrentParticipants = r.MaxParticipants
			return pendingRegistration()
		}},
		{name: "already registered wins over waiver", code: dErrors.CodeAlreadyRegistered, wantErr: true, mutate: func(_ *Race, d *RegistrationDetails) *Registration {
			d.WaiverAccepted = false
			return pendingRegistration()
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			race := openRace()
			details := validDetails()
			active := tt.mutate(race, &details)

			err := CheckAdmission(race, active, details, fixedNow)
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestNewRegistrationSnapshotsFee(t *testing.T) {
	race := openRace()
	reg := NewRegistration(race, id.ParticipantID(id.NewRaceID()), "RACE004", validDetails(), WaiverOrigin{IP: "10.0.0.1", Device: "Firefox 120 on Linux"}, fixedNow)
	race.Fee = 99999

	assert.Equal(t, int64(35000), reg.AmountPaid)
	assert.Equal(t, PaymentPending, reg.PaymentStatus)
	assert.Equal(t, StatusRegistered, reg.Status)
	assert.True(t, reg.WaiverSigned)
	assert.Equal(t, fixedNow, reg.WaiverSignedAt)
	assert.Equal(t, "10.0.0.1", reg.WaiverIP)
	assert.True(t, reg.HoldsSlot())
}

func TestApplyPaymentOutcome(t *testing.T) {
	t.Run("completed confirms and records transaction", func(t *testing.T) {
		reg := pendingRegistration()
		tr, err := reg.ApplyPaymentOutcome(PaymentCompleted, "tx-1", fixedNow)
		require.NoError(t, err)
		assert.False(t, tr.ReleaseSlot)
		assert.Equal(t, StatusConfirmed, reg.Status)
		assert.Equal(t, "tx-1", reg.TransactionID)
	})

	t.Run("failed releases", func(t *testing.T) {
		reg := pendingRegistration()
		tr, err := reg.ApplyPaymentOutcome(PaymentFailed, "", fixedNow)
		require.NoError(t, err)
		assert.True(t, tr.ReleaseSlot)
		assert.Equal(t, StatusRegistered, reg.Status)
	})

	t.Run("refund keeps lifecycle status", func(t *testing.T) {
		reg := pendingRegistration()
		_, err := reg.ApplyPaymentOutcome(PaymentCompleted, "tx-1", fixedNow)
		require.NoError(t, err)
		reg.Status = StatusFinished

		tr, err := reg.ApplyPaymentOutcome(PaymentRefunded, "tx-1", fixedNow)
		require.NoError(t, err)
		assert.True(t, tr.ReleaseSlot)
		assert.Equal(t, StatusFinished, reg.Status)
	})

	t.Run("duplicate is a no-op", func(t *testing.T) {
		reg := pendingRegistration()
		_, err := reg.ApplyPaymentOutcome(PaymentFailed, "", fixedNow)
		require.NoError(t, err)

		tr, err := reg.ApplyPaymentOutcome(PaymentFailed, "", fixedNow.Add(time.Minute))
		require.NoError(t, err)
		assert.True(t, tr.Duplicate)
		assert.False(t, tr.ReleaseSlot)
		assert.Equal(t, fixedNow, reg.UpdatedAt)
	})

	t.Run("refund of pending is invalid", func(t *testing.T) {
		reg := pendingRegistration()
		_, err := reg.ApplyPaymentOutcome(PaymentRefunded, "", fixedNow)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition))
		assert.Equal(t, PaymentPending, reg.PaymentStatus)
	})

	t.Run("cancelled registration does not release twice", func(t *testing.T) {
		reg := pendingRegistration()
		tr, err := reg.AdvanceStatus(StatusCancelled, fixedNow)
		require.NoError(t, err)
		assert.True(t, tr.ReleaseSlot)

		tr, err = reg.ApplyPaymentOutcome(PaymentFailed, "", fixedNow)
		require.NoError(t, err)
		assert.False(t, tr.ReleaseSlot)
	})
}

func TestAdvanceStatus(t *testing.T) {
	reg := pendingRegistration()
	for _, next := range []RegistrationStatus{StatusConfirmed, StatusCheckedIn, StatusStarted, StatusFinished} {
		_, err := reg.AdvanceStatus(next, fixedNow)
		require.NoError(t, err, next)
	}

	_, err := reg.AdvanceStatus(StatusCancelled, fixedNow)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition))

	back := pendingRegistration()
	_, err = back.AdvanceStatus(StatusCheckedIn, fixedNow)
	require.NoError(t, err)
	_, err = back.AdvanceStatus(StatusConfirmed, fixedNow)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition))

	early := pendingRegistration()
	_, err = early.AdvanceStatus(StatusDNF, fixedNow)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition))
}

var (
	allPayment = []PaymentStatus{PaymentPending, PaymentCompleted, PaymentFailed, PaymentRefunded}
	allStatus  = []RegistrationStatus{StatusRegistered, StatusConfirmed, StatusCheckedIn, StatusStarted, StatusFinished, StatusDNF, StatusCancelled}
)

// Any sequence of payment and lifecycle changes releases the slot at most once,
// and only a registration that no longer holds a slot has released it.
func TestSlotReleasedAtMostOnce(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		reg := pendingRegistration()
		releases := 0
		steps := rapid.IntRange(1, 20).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			var tr Transition
			var err error
			if rapid.Bool().Draw(t, "payment") {
				tr, err = reg.ApplyPaymentOutcome(rapid.SampledFrom(allPayment).Draw(t, "outcome"), "tx", fixedNow)
			} else {
				tr, err = reg.AdvanceStatus(rapid.SampledFrom(allStatus).Draw(t, "status"), fixedNow)
			}
			if err != nil && !dErrors.HasCode(err, dErrors.CodeInvalidTransition) {
				t.Fatalf("unexpected error: %v", err)
			}
			if tr.ReleaseSlot {
				releases++
			}
		}
		if releases > 1 {
			t.Fatalf("slot released %d times", releases)
		}
		if reg.HoldsSlot() != (releases == 0) {
			t.Fatalf("holds slot %v after %d releases", reg.HoldsSlot(), releases)
		}
	})
}

// Lifecycle status never moves to a lower rank.
func TestLifecycleMonotonic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		from := rapid.SampledFrom(allStatus).Draw(t, "from")
		to := rapid.SampledFrom(allStatus).Draw(t, "to")
		if !from.CanAdvanceTo(to) || to == StatusCancelled {
			return
		}
		if statusRank[to] <= statusRank[from] {
			t.Fatalf("%s -> %s moves backwards", from, to)
		}
	})
}

func TestNewRaceStats(t *testing.T) {
	race := openRace()
	paid := pendingRegistration()
	_, _ = paid.ApplyPaymentOutcome(PaymentCompleted, "tx", fixedNow)
	failed := pendingRegistration()
	_, _ = failed.ApplyPaymentOutcome(PaymentFailed, "", fixedNow)

	stats := NewRaceStats(race, []*Registration{paid, failed, pendingRegistration()})
	assert.Equal(t, 3, stats.TotalRegistrations)
	assert.Equal(t, 1, stats.ByPaymentStatus["completed"])
	assert.Equal(t, 1, stats.ByPaymentStatus["failed"])
	assert.Equal(t, 1, stats.ByPaymentStatus["pending"])
	assert.Equal(t, int64(35000), stats.AmountCollected)
	assert.Equal(t, 7, stats.RemainingCapacity)
}

func TestPaymentCallbackRequestValidate(t *testing.T) {
	req := PaymentCallbackRequest{RegistrationID: "x", Status: "pending"}
	assert.True(t, dErrors.HasCode(req.Validate(), dErrors.CodeValidation))

	req.Status = "completed"
	assert.NoError(t, req.Validate())
}
