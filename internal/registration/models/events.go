package models

import "time"

type EventType string

const (
	EventRegistrationCreated EventType = "registration.created"
	EventPaymentCompleted    EventType = "registration.payment_completed"
	EventPaymentFailed       EventType = "registration.payment_failed"
	EventPaymentRefunded     EventType = "registration.payment_refunded"
	EventStatusChanged       EventType = "registration.status_changed"
)

// RegistrationEvent is published after a registration change commits.
type RegistrationEvent struct {
	Type           EventType `json:"type"`
	RegistrationID string    `json:"registrationId"`
	ParticipantID  string    `json:"participantId"`
	RaceID         string    `json:"raceId"`
	BibNumber      string    `json:"bibNumber"`
	PaymentStatus  string    `json:"paymentStatus"`
	Status         string    `json:"status"`
	AmountPaid     int64     `json:"amountPaid"`
	Currency       string    `json:"currency"`
	TransactionID  string    `json:"transactionId,omitempty"`
	StoreMode      string    `json:"storeMode"`
	OccurredAt     time.Time `json:"occurredAt"`
	RequestID      string    `json:"requestId,omitempty"`
}

func NewRegistrationEvent(t EventType, r *Registration, mode string, at time.Time) RegistrationEvent {
	return RegistrationEvent{
		Type:           t,
		RegistrationID: r.ID.String(),
		ParticipantID:  r.ParticipantID.String(),
		RaceID:         r.RaceID.String(),
		BibNumber:      r.BibNumber,
		PaymentStatus:  string(r.PaymentStatus),
		Status:         string(r.Status),
		AmountPaid:     r.AmountPaid,
		Currency:       r.Currency,
		TransactionID:  r.TransactionID,
		StoreMode:      mode,
		OccurredAt:     at,
	}
}

// PaymentEventType maps a payment outcome to its event type.
func PaymentEventType(s PaymentStatus) EventType {
	switch s {
	case PaymentCompleted:
		return EventPaymentCompleted
	case PaymentFailed:
		return EventPaymentFailed
	default:
		return EventPaymentRefunded
	}
}
