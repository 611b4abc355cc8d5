package handler

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"

	"marathon/internal/registration/models"
	"marathon/internal/registration/waiver"
	id "marathon/pkg/domain"
	dErrors "marathon/pkg/domain-errors"
	"marathon/pkg/platform/httputil"
	"marathon/pkg/platform/middleware/auth"
	request "marathon/pkg/platform/middleware/request"
)

const signatureHeader = "X-Signature"

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	participantID := auth.GetParticipantID(ctx)

	var req models.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}
	raceID, err := id.ParseRaceID(req.RaceID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeRaceNotFound, "race not found"))
		return
	}

	reg, err := h.service.Register(ctx, participantID, raceID, req.Details(), waiver.OriginFromContext(ctx))
	if err != nil {
		h.writeError(w, r, "register", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, models.NewRegisterResponse(reg))
}

func (h *Handler) handleMyRegistrations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	views, err := h.service.ListMyRegistrations(ctx, auth.GetParticipantID(ctx))
	if err != nil {
		h.writeError(w, r, "list my registrations", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.NewRegistrationListResponse(views))
}

func (h *Handler) handleGetRegistration(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	regID, err := pathRegistrationID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	view, err := h.service.GetRegistration(ctx, auth.GetParticipantID(ctx), regID)
	if err != nil {
		h.writeError(w, r, "get registration", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.NewRegistrationResponse(view.Registration, view.Race))
}

// handlePaymentCallback applies a payment provider notification. Redeliveries
// are acknowledged with 200 so the provider stops retrying.
func (h *Handler) handlePaymentCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if !h.validSignature(body, r.Header.Get(signatureHeader)) {
		h.logger.WarnContext(ctx, "payment callback signature rejected",
			"request_id", request.GetRequestID(ctx),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid callback signature"))
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	var req models.PaymentCallbackRequest
	if err := decodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}
	regID, err := id.ParseRegistrationID(req.RegistrationID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeRegistrationNotFound, "registration not found"))
		return
	}

	result, err := h.service.ApplyPaymentOutcome(ctx, regID, models.PaymentStatus(req.Status), req.TransactionID)
	if err != nil {
		h.writeError(w, r, "payment callback", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, paymentResponse(result))
}

// validSignature checks a hex HMAC-SHA256 of the raw body, optionally
// prefixed with "sha256=". With no secret configured every body passes.
func (h *Handler) validSignature(body []byte, header string) bool {
	if len(h.webhookSecret) == 0 {
		return true
	}
	got, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(header), "sha256="))
	if err != nil || len(got) == 0 {
		return false
	}
	mac := hmac.New(sha256.New, h.webhookSecret)
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

func paymentResponse(result *models.PaymentResult) models.PaymentCallbackResponse {
	return models.PaymentCallbackResponse{
		RegistrationID: result.Registration.ID.String(),
		PaymentStatus:  string(result.Registration.PaymentStatus),
		Status:         string(result.Registration.Status),
		Duplicate:      result.Duplicate,
	}
}
