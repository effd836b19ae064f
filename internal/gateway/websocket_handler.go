package gateway

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/mcdev12/liveauction/internal/auction"
	"github.com/mcdev12/liveauction/internal/models"
	"github.com/rs/zerolog/log"
)

// Authorizer resolves a presented token to a role within a room.
type Authorizer interface {
	Authorize(ctx context.Context, roomID uuid.UUID, token string) (models.Role, *uuid.UUID, error)
}

// WebSocketHandler upgrades GET /rooms/{id}/ws requests after validating
// the room token. The token rides the query string because browser
// websocket clients cannot set headers.
type WebSocketHandler struct {
	manager    *ConnectionManager
	authorizer Authorizer
}

// NewWebSocketHandler creates the handler.
func NewWebSocketHandler(manager *ConnectionManager, authorizer Authorizer) *WebSocketHandler {
	return &WebSocketHandler{manager: manager, authorizer: authorizer}
}

func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	roomID, err := uuid.Parse(r.PathValue("room_id"))
	if err != nil {
		http.Error(w, "invalid room id", http.StatusBadRequest)
		return
	}

	token := r.URL.Query().Get("token")
	role, teamID, err := h.authorizer.Authorize(r.Context(), roomID, token)
	if err != nil {
		switch {
		case errors.Is(err, auction.ErrRoomNotFound):
			http.Error(w, "room not found", http.StatusNotFound)
		case errors.Is(err, auction.ErrInvalidToken):
			http.Error(w, "invalid token", http.StatusUnauthorized)
		default:
			log.Error().Err(err).Str("room_id", roomID.String()).Msg("websocket authorization failed")
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	if err := h.manager.UpgradeConnection(w, r, roomID, role, teamID); err != nil {
		// Upgrade already wrote the HTTP error response.
		log.Error().Err(err).Str("room_id", roomID.String()).Msg("websocket upgrade failed")
	}
}
