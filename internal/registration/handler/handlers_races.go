package handler

import (
	"net/http"

	"marathon/internal/registration/models"
	"marathon/pkg/platform/httputil"
)

func (h *Handler) handleListRaces(w http.ResponseWriter, r *http.Request) {
	races, err := h.service.ListRaces(r.Context())
	if err != nil {
		h.writeError(w, r, "list races", err)
		return
	}
	resp := models.RaceListResponse{Races: make([]models.RaceResponse, 0, len(races))}
	for _, race := range races {
		resp.Races = append(resp.Races, models.NewRaceResponse(race))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetRace(w http.ResponseWriter, r *http.Request) {
	raceID, err := pathRaceID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	race, err := h.service.GetRace(r.Context(), raceID)
	if err != nil {
		h.writeError(w, r, "get race", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.NewRaceResponse(race))
}
