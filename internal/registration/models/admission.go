package models

import (
	"strings"
	"time"

	id "marathon/pkg/domain"
	dErrors "marathon/pkg/domain-errors"
)

// RegistrationDetails is the participant-supplied part of a registration.
type RegistrationDetails struct {
	TShirtSize                 string
	DietaryRequirements        string
	EstimatedFinishTime        string
	PreviousMarathonExperience string
	PaymentMethod              string
	EmergencyContactName       string
	EmergencyContactPhone      string
	MedicalConditions          string
	WaiverAccepted             bool
}

// Normalize trims free-text fields and upper-cases the t-shirt size.
func (d *RegistrationDetails) Normalize() {
	d.TShirtSize = strings.ToUpper(strings.TrimSpace(d.TShirtSize))
	d.DietaryRequirements = strings.TrimSpace(d.DietaryRequirements)
	d.EstimatedFinishTime = strings.TrimSpace(d.EstimatedFinishTime)
	d.PreviousMarathonExperience = strings.TrimSpace(d.PreviousMarathonExperience)
	d.PaymentMethod = strings.TrimSpace(d.PaymentMethod)
	d.EmergencyContactName = strings.TrimSpace(d.EmergencyContactName)
	d.EmergencyContactPhone = strings.TrimSpace(d.EmergencyContactPhone)
	d.MedicalConditions = strings.TrimSpace(d.MedicalConditions)
}

// CheckAdmission runs the admission checks that follow the race lookup, in
// order, returning the first failure:
//
//	registration_closed, deadline_passed, race_full, already_registered,
//	waiver_required, missing_required_field
//
// active is the participant's current slot-holding registration for the race, if any.
func CheckAdmission(race *Race, active *Registration, details RegistrationDetails, now time.Time) error {
	if !race.AcceptsRegistrations() {
		return dErrors.New(dErrors.CodeRegistrationClosed, "registration for this race is closed")
	}
	if race.DeadlinePassed(now) {
		return dErrors.New(dErrors.CodeDeadlinePassed, "the registration deadline has passed")
	}
	if !race.HasCapacity() {
		return dErrors.New(dErrors.CodeRaceFull, "this race is full")
	}
	if active != nil && active.HoldsSlot() {
		return dErrors.New(dErrors.CodeAlreadyRegistered, "you are already registered for this race")
	}
	if !details.WaiverAccepted {
		return dErrors.New(dErrors.CodeWaiverRequired, "the waiver must be accepted")
	}
	return checkRequiredFields(details)
}

func checkRequiredFields(details RegistrationDetails) error {
	var missing []string
	if strings.TrimSpace(details.TShirtSize) == "" {
		missing = append(missing, "tshirtSize")
	}
	if strings.TrimSpace(details.EmergencyContactName) == "" {
		missing = append(missing, "emergencyContactName")
	}
	if strings.TrimSpace(details.EmergencyContactPhone) == "" {
		missing = append(missing, "emergencyContactPhone")
	}
	if len(missing) > 0 {
		return dErrors.New(dErrors.CodeMissingRequiredField, "missing required fields: "+strings.Join(missing, ", "))
	}
	return nil
}

// NewRegistration builds the pending registration created by a successful admission.
func NewRegistration(race *Race, participantID id.ParticipantID, bib string, details RegistrationDetails, waiver WaiverOrigin, now time.Time) *Registration {
	return &Registration{
		ID:                         id.NewRegistrationID(),
		ParticipantID:              participantID,
		RaceID:                     race.ID,
		BibNumber:                  bib,
		AmountPaid:                 race.Fee,
		Currency:                   race.Currency,
		PaymentMethod:              details.PaymentMethod,
		PaymentStatus:              PaymentPending,
		Status:                     StatusRegistered,
		TShirtSize:                 details.TShirtSize,
		DietaryRequirements:        details.DietaryRequirements,
		EstimatedFinishTime:        details.EstimatedFinishTime,
		PreviousMarathonExperience: details.PreviousMarathonExperience,
		EmergencyContactName:       details.EmergencyContactName,
		EmergencyContactPhone:      details.EmergencyContactPhone,
		MedicalConditions:          details.MedicalConditions,
		WaiverSigned:               true,
		WaiverSignedAt:             now,
		WaiverIP:                   waiver.IP,
		WaiverDevice:               waiver.Device,
		RegisteredAt:               now,
		UpdatedAt:                  now,
	}
}
