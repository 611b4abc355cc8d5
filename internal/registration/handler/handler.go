package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"marathon/internal/registration/models"
	id "marathon/pkg/domain"
	dErrors "marathon/pkg/domain-errors"
	"marathon/pkg/platform/httputil"
	"marathon/pkg/platform/middleware/admin"
	"marathon/pkg/platform/middleware/auth"
	request "marathon/pkg/platform/middleware/request"
)

const maxBodyBytes = 64 << 10

// Service defines the registration operations the HTTP layer calls.
type Service interface {
	Register(ctx context.Context, participantID id.ParticipantID, raceID id.RaceID, details models.RegistrationDetails, origin models.WaiverOrigin) (*models.Registration, error)
	ApplyPaymentOutcome(ctx context.Context, registrationID id.RegistrationID, outcome models.PaymentStatus, transactionID string) (*models.PaymentResult, error)
	OverridePaymentStatus(ctx context.Context, registrationID id.RegistrationID, outcome models.PaymentStatus, transactionID string) (*models.PaymentResult, error)
	AdvanceStatus(ctx context.Context, registrationID id.RegistrationID, next models.RegistrationStatus) (*models.Registration, error)
	GetRace(ctx context.Context, raceID id.RaceID) (*models.Race, error)
	ListRaces(ctx context.Context) ([]*models.Race, error)
	GetRegistration(ctx context.Context, participantID id.ParticipantID, registrationID id.RegistrationID) (*models.RegistrationView, error)
	ListMyRegistrations(ctx context.Context, participantID id.ParticipantID) ([]models.RegistrationView, error)
	ListRaceRegistrations(ctx context.Context, raceID id.RaceID) ([]models.RegistrationView, error)
	RaceStats(ctx context.Context, raceID id.RaceID) (*models.RaceStats, error)
}

// Handler serves the participant, race and admin endpoints.
type Handler struct {
	service       Service
	logger        *slog.Logger
	jwtValidator  auth.JWTValidator
	webhookSecret []byte
}

type Option func(*Handler)

// WithWebhookSecret enables X-Signature checks on payment callbacks.
func WithWebhookSecret(secret string) Option {
	return func(h *Handler) {
		if secret != "" {
			h.webhookSecret = []byte(secret)
		}
	}
}

func New(service Service, logger *slog.Logger, jwtValidator auth.JWTValidator, opts ...Option) *Handler {
	h := &Handler{
		service:      service,
		logger:       logger,
		jwtValidator: jwtValidator,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the routes. Race pages and the payment callback are public;
// everything under /participants needs a token, and /admin needs the admin role.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(request.ContentTypeJSON)

		r.Get("/races", h.handleListRaces)
		r.Get("/races/{id}", h.handleGetRace)
		r.Post("/participants/payment-callback", h.handlePaymentCallback)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(h.jwtValidator, h.logger))
			r.Post("/participants/register", h.handleRegister)
			r.Get("/participants/my-registrations", h.handleMyRegistrations)
			r.Get("/participants/registration/{id}", h.handleGetRegistration)

			r.Route("/admin", func(r chi.Router) {
				r.Use(admin.RequireAdmin(h.logger))
				r.Get("/races/{id}/registrations", h.handleRaceRegistrations)
				r.Get("/races/{id}/stats", h.handleRaceStats)
				r.Patch("/registrations/{id}/status", h.handleUpdateStatus)
				r.Post("/registrations/{id}/payment", h.handleOverridePayment)
			})
		})
	})
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return dErrors.New(dErrors.CodeBadRequest, "invalid request body")
	}
	return nil
}

// writeError logs server-side failures and writes the error envelope.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	ctx := r.Context()
	status := httputil.StatusFor(dErrors.CodeOf(err))
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, op+" failed",
			"error", err,
			"request_id", request.GetRequestID(ctx),
		)
	}
	httputil.WriteError(w, err)
}

func pathRaceID(r *http.Request) (id.RaceID, error) {
	raceID, err := id.ParseRaceID(chi.URLParam(r, "id"))
	if err != nil {
		return id.RaceID{}, dErrors.New(dErrors.CodeRaceNotFound, "race not found")
	}
	return raceID, nil
}

func pathRegistrationID(r *http.Request) (id.RegistrationID, error) {
	regID, err := id.ParseRegistrationID(chi.URLParam(r, "id"))
	if err != nil {
		return id.RegistrationID{}, dErrors.New(dErrors.CodeRegistrationNotFound, "registration not found")
	}
	return regID, nil
}
