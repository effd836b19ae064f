package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcdev12/liveauction/internal/auction"
	"github.com/rs/zerolog/log"
)

// errorResponse is the uniform error payload.
type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

// writeServiceError maps domain errors onto HTTP statuses. Conflicts with
// the auction lifecycle get 409, rejected input gets 422, bad tokens get
// 401, and everything unexpected collapses to 500 with the detail logged
// rather than leaked.
func writeServiceError(w http.ResponseWriter, err error) {
	var insufficient *auction.InsufficientPointsError
	switch {
	case errors.Is(err, auction.ErrNoPlayersWaiting):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, auction.ErrInvalidBidAmount):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &insufficient):
		writeError(w, http.StatusUnprocessableEntity, insufficient.Error())
	case errors.Is(err, auction.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, auction.ErrRoomNotFound),
		errors.Is(err, auction.ErrTeamNotFound),
		errors.Is(err, auction.ErrPlayerNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		log.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
