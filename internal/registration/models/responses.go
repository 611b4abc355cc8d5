package models

import "time"

type RegisterResponse struct {
	RegistrationID string `json:"registrationId"`
	BibNumber      string `json:"bibNumber"`
	PaymentStatus  string `json:"paymentStatus"`
	AmountPaid     int64  `json:"amountPaid"`
}

func NewRegisterResponse(r *Registration) RegisterResponse {
	return RegisterResponse{
		RegistrationID: r.ID.String(),
		BibNumber:      r.BibNumber,
		PaymentStatus:  string(r.PaymentStatus),
		AmountPaid:     r.AmountPaid,
	}
}

type RaceSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Distance  string    `json:"distance"`
	StartTime time.Time `json:"startTime"`
}

type RegistrationResponse struct {
	ID                         string       `json:"id"`
	RaceID                     string       `json:"raceId"`
	BibNumber                  string       `json:"bibNumber"`
	AmountPaid                 int64        `json:"amountPaid"`
	Currency                   string       `json:"currency"`
	PaymentMethod              string       `json:"paymentMethod"`
	PaymentStatus              string       `json:"paymentStatus"`
	TransactionID              string       `json:"transactionId,omitempty"`
	Status                     string       `json:"status"`
	TShirtSize                 string       `json:"tshirtSize"`
	DietaryRequirements        string       `json:"dietaryRequirements,omitempty"`
	EstimatedFinishTime        string       `json:"estimatedFinishTime,omitempty"`
	PreviousMarathonExperience string       `json:"previousMarathonExperience,omitempty"`
	EmergencyContactName       string       `json:"emergencyContactName"`
	EmergencyContactPhone      string       `json:"emergencyContactPhone"`
	MedicalConditions          string       `json:"medicalConditions,omitempty"`
	WaiverSigned               bool         `json:"waiverSigned"`
	WaiverSignedAt             time.Time    `json:"waiverSignedAt"`
	RegisteredAt               time.Time    `json:"registeredAt"`
	Race                       *RaceSummary `json:"race,omitempty"`
}

// NewRegistrationResponse renders a registration; race may be nil when the
// race could not be loaded.
func NewRegistrationResponse(r *Registration, race *Race) RegistrationResponse {
	resp := RegistrationResponse{
		ID:                         r.ID.String(),
		RaceID:                     r.RaceID.String(),
		BibNumber:                  r.BibNumber,
		AmountPaid:                 r.AmountPaid,
		Currency:                   r.Currency,
		PaymentMethod:              r.PaymentMethod,
		PaymentStatus:              string(r.PaymentStatus),
		TransactionID:              r.TransactionID,
		Status:                     string(r.Status),
		TShirtSize:                 r.TShirtSize,
		DietaryRequirements:        r.DietaryRequirements,
		EstimatedFinishTime:        r.EstimatedFinishTime,
		PreviousMarathonExperience: r.PreviousMarathonExperience,
		EmergencyContactName:       r.EmergencyContactName,
		EmergencyContactPhone:      r.EmergencyContactPhone,
		MedicalConditions:          r.MedicalConditions,
		WaiverSigned:               r.WaiverSigned,
		WaiverSignedAt:             r.WaiverSignedAt,
		RegisteredAt:               r.RegisteredAt,
	}
	if race != nil {
		resp.Race = &RaceSummary{
			ID:        race.ID.String(),
			Name:      race.Name,
			Distance:  string(race.Distance),
			StartTime: race.StartTime,
		}
	}
	return resp
}

// RegistrationView pairs a registration with its race for rendering.
type RegistrationView struct {
	Registration *Registration
	Race         *Race
}

type RegistrationListResponse struct {
	Registrations []RegistrationResponse `json:"registrations"`
	Count         int                    `json:"count"`
}

func NewRegistrationListResponse(views []RegistrationView) RegistrationListResponse {
	out := make([]RegistrationResponse, 0, len(views))
	for _, v := range views {
		out = append(out, NewRegistrationResponse(v.Registration, v.Race))
	}
	return RegistrationListResponse{Registrations: out, Count: len(out)}
}

type RaceResponse struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	Distance             string    `json:"distance"`
	DistanceKm           float64   `json:"distanceKm"`
	Fee                  int64     `json:"fee"`
	Currency             string    `json:"currency"`
	MaxParticipants      int       `json:"maxParticipants"`
	CurrentParticipants  int       `json:"currentParticipants"`
	RemainingCapacity    int       `json:"remainingCapacity"`
	RegistrationOpen     bool      `json:"registrationOpen"`
	RegistrationDeadline time.Time `json:"registrationDeadline"`
	StartTime            time.Time `json:"startTime"`
}

func NewRaceResponse(r *Race) RaceResponse {
	return RaceResponse{
		ID:                   r.ID.String(),
		Name:                 r.Name,
		Distance:             string(r.Distance),
		DistanceKm:           r.DistanceKm,
		Fee:                  r.Fee,
		Currency:             r.Currency,
		MaxParticipants:      r.MaxParticipants,
		CurrentParticipants:  r.CurrentParticipants,
		RemainingCapacity:    r.RemainingCapacity(),
		RegistrationOpen:     r.AcceptsRegistrations(),
		RegistrationDeadline: r.RegistrationDeadline,
		StartTime:            r.StartTime,
	}
}

type RaceListResponse struct {
	Races []RaceResponse `json:"races"`
}

type PaymentCallbackResponse struct {
	RegistrationID string `json:"registrationId"`
	PaymentStatus  string `json:"paymentStatus"`
	Status         string `json:"status"`
	Duplicate      bool   `json:"duplicate"`
}

// PaymentResult is what applying a payment outcome produced.
type PaymentResult struct {
	Registration *Registration
	Duplicate    bool
	Released     bool
}

// RaceStats summarises one race for the admin report.
type RaceStats struct {
	RaceID              string         `json:"raceId"`
	MaxParticipants     int            `json:"maxParticipants"`
	CurrentParticipants int            `json:"currentParticipants"`
	RemainingCapacity   int            `json:"remainingCapacity"`
	TotalRegistrations  int            `json:"totalRegistrations"`
	ByPaymentStatus     map[string]int `json:"byPaymentStatus"`
	ByStatus            map[string]int `json:"byStatus"`
	AmountCollected     int64          `json:"amountCollected"`
	Currency            string         `json:"currency"`
}

// NewRaceStats tallies registrations. AmountCollected counts completed payments only.
func NewRaceStats(race *Race, regs []*Registration) RaceStats {
	stats := RaceStats{
		RaceID:              race.ID.String(),
		MaxParticipants:     race.MaxParticipants,
		CurrentParticipants: race.CurrentParticipants,
		RemainingCapacity:   race.RemainingCapacity(),
		TotalRegistrations:  len(regs),
		ByPaymentStatus:     map[string]int{},
		ByStatus:            map[string]int{},
		Currency:            race.Currency,
	}
	for _, r := range regs {
		stats.ByPaymentStatus[string(r.PaymentStatus)]++
		stats.ByStatus[string(r.Status)]++
		if r.PaymentStatus == PaymentCompleted {
			stats.AmountCollected += r.AmountPaid
		}
	}
	return stats
}
