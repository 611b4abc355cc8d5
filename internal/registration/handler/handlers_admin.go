package handler

import (
	"net/http"

	"marathon/internal/registration/models"
	"marathon/pkg/platform/httputil"
	"marathon/pkg/platform/middleware/auth"
	request "marathon/pkg/platform/middleware/request"
)

func (h *Handler) handleRaceRegistrations(w http.ResponseWriter, r *http.Request) {
	raceID, err := pathRaceID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	views, err := h.service.ListRaceRegistrations(r.Context(), raceID)
	if err != nil {
		h.writeError(w, r, "list race registrations", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.NewRegistrationListResponse(views))
}

func (h *Handler) handleRaceStats(w http.ResponseWriter, r *http.Request) {
	raceID, err := pathRaceID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	stats, err := h.service.RaceStats(r.Context(), raceID)
	if err != nil {
		h.writeError(w, r, "race stats", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	regID, err := pathRegistrationID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req models.StatusUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	reg, err := h.service.AdvanceStatus(ctx, regID, models.RegistrationStatus(req.Status))
	if err != nil {
		h.writeError(w, r, "update status", err)
		return
	}
	h.logger.InfoContext(ctx, "admin changed registration status",
		"admin_id", auth.GetParticipantID(ctx).String(),
		"registration_id", regID.String(),
		"status", req.Status,
		"request_id", request.GetRequestID(ctx),
	)
	httputil.WriteJSON(w, http.StatusOK, models.NewRegistrationResponse(reg, nil))
}

func (h *Handler) handleOverridePayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	regID, err := pathRegistrationID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req models.PaymentCallbackRequest
	if err := decodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	req.RegistrationID = regID.String()
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.OverridePaymentStatus(ctx, regID, models.PaymentStatus(req.Status), req.TransactionID)
	if err != nil {
		h.writeError(w, r, "override payment", err)
		return
	}
	h.logger.InfoContext(ctx, "admin overrode payment status",
		"admin_id", auth.GetParticipantID(ctx).String(),
		"registration_id", regID.String(),
		"status", req.Status,
		"request_id", request.GetRequestID(ctx),
	)
	httputil.WriteJSON(w, http.StatusOK, paymentResponse(result))
}
