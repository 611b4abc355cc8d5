package models

import (
	"strings"

	dErrors "marathon/pkg/domain-errors"
)

// RegisterRequest is the body of POST /participants/register.
type RegisterRequest struct {
	RaceID                     string `json:"raceId"`
	TShirtSize                 string `json:"tshirtSize"`
	DietaryRequirements        string `json:"dietaryRequirements,omitempty"`
	EstimatedFinishTime        string `json:"estimatedFinishTime,omitempty"`
	PreviousMarathonExperience string `json:"previousMarathonExperience"`
	PaymentMethod              string `json:"paymentMethod"`
	EmergencyContactName       string `json:"emergencyContactName"`
	EmergencyContactPhone      string `json:"emergencyContactPhone"`
	MedicalConditions          string `json:"medicalConditions,omitempty"`
	WaiverAccepted             bool   `json:"waiverAccepted"`
}

const maxFreeTextLength = 500

// Validate rejects malformed input only. Missing contact fields and the
// waiver are admission rejections with their own codes, checked later.
func (r *RegisterRequest) Validate() error {
	if strings.TrimSpace(r.RaceID) == "" {
		return dErrors.New(dErrors.CodeValidation, "raceId is required")
	}
	for name, v := range map[string]string{
		"dietaryRequirements":        r.DietaryRequirements,
		"estimatedFinishTime":        r.EstimatedFinishTime,
		"previousMarathonExperience": r.PreviousMarathonExperience,
		"paymentMethod":              r.PaymentMethod,
		"emergencyContactName":       r.EmergencyContactName,
		"emergencyContactPhone":      r.EmergencyContactPhone,
		"medicalConditions":          r.MedicalConditions,
		"tshirtSize":                 r.TShirtSize,
	} {
		if len(v) > maxFreeTextLength {
			return dErrors.New(dErrors.CodeValidation, name+" is too long")
		}
	}
	return nil
}

func (r *RegisterRequest) Details() RegistrationDetails {
	d := RegistrationDetails{
		TShirtSize:                 r.TShirtSize,
		DietaryRequirements:        r.DietaryRequirements,
		EstimatedFinishTime:        r.EstimatedFinishTime,
		PreviousMarathonExperience: r.PreviousMarathonExperience,
		PaymentMethod:              r.PaymentMethod,
		EmergencyContactName:       r.EmergencyContactName,
		EmergencyContactPhone:      r.EmergencyContactPhone,
		MedicalConditions:          r.MedicalConditions,
		WaiverAccepted:             r.WaiverAccepted,
	}
	d.Normalize()
	return d
}

// PaymentCallbackRequest is the body of POST /participants/payment-callback
// and of the admin payment override.
type PaymentCallbackRequest struct {
	RegistrationID string `json:"registrationId"`
	TransactionID  string `json:"transactionId"`
	Status         string `json:"status"`
}

func (r *PaymentCallbackRequest) Validate() error {
	if strings.TrimSpace(r.RegistrationID) == "" {
		return dErrors.New(dErrors.CodeValidation, "registrationId is required")
	}
	if len(r.TransactionID) > 255 {
		return dErrors.New(dErrors.CodeValidation, "transactionId is too long")
	}
	if !PaymentStatus(r.Status).IsOutcome() {
		return dErrors.New(dErrors.CodeValidation, "status must be one of completed, failed, refunded")
	}
	return nil
}

// StatusUpdateRequest is the body of PATCH /admin/registrations/{id}/status.
type StatusUpdateRequest struct {
	Status string `json:"status"`
}

func (r *StatusUpdateRequest) Validate() error {
	if !RegistrationStatus(r.Status).IsValid() {
		return dErrors.New(dErrors.CodeValidation, "unknown registration status")
	}
	return nil
}
