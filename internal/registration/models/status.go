package models

// PaymentStatus is the payment state machine:
//
//	pending -> completed | failed
//	completed -> refunded
//
// failed and refunded are terminal.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentPending, PaymentCompleted, PaymentFailed, PaymentRefunded:
		return true
	default:
		return false
	}
}

// IsOutcome reports whether s may be reported by a payment callback.
func (s PaymentStatus) IsOutcome() bool {
	return s == PaymentCompleted || s == PaymentFailed || s == PaymentRefunded
}

func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	switch s {
	case PaymentPending:
		return next == PaymentCompleted || next == PaymentFailed
	case PaymentCompleted:
		return next == PaymentRefunded
	default:
		return false
	}
}

// HoldsSlot reports whether a registration in this payment state still
// counts against race capacity.
func (s PaymentStatus) HoldsSlot() bool {
	return s == PaymentPending || s == PaymentCompleted
}

// RegistrationStatus is the race-day lifecycle. It only moves forward:
//
//	registered -> confirmed -> checked_in -> started -> finished | dnf
//
// cancelled is reachable from any non-terminal state.
type RegistrationStatus string

const (
	StatusRegistered RegistrationStatus = "registered"
	StatusConfirmed  RegistrationStatus = "confirmed"
	StatusCheckedIn  RegistrationStatus = "checked_in"
	StatusStarted    RegistrationStatus = "started"
	StatusFinished   RegistrationStatus = "finished"
	StatusDNF        RegistrationStatus = "dnf"
	StatusCancelled  RegistrationStatus = "cancelled"
)

var statusRank = map[RegistrationStatus]int{
	StatusRegistered: 0,
	StatusConfirmed:  1,
	StatusCheckedIn:  2,
	StatusStarted:    3,
	StatusFinished:   4,
	StatusDNF:        4,
}

func (s RegistrationStatus) IsValid() bool {
	_, ok := statusRank[s]
	return ok || s == StatusCancelled
}

func (s RegistrationStatus) IsTerminal() bool {
	return s == StatusFinished || s == StatusDNF || s == StatusCancelled
}

func (s RegistrationStatus) CanAdvanceTo(next RegistrationStatus) bool {
	if s.IsTerminal() || !next.IsValid() {
		return false
	}
	if next == StatusCancelled {
		return true
	}
	if next == StatusFinished || next == StatusDNF {
		return s == StatusStarted
	}
	return statusRank[next] > statusRank[s]
}
