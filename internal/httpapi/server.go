package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/mcdev12/liveauction/internal/auction"
	"github.com/mcdev12/liveauction/internal/gateway"
	"github.com/mcdev12/liveauction/internal/models"
	"github.com/rs/cors"
)

// AuctionService is the protocol surface the API exposes.
type AuctionService interface {
	Draw(ctx context.Context, roomID uuid.UUID) error
	PlaceBid(ctx context.Context, roomID, playerID, teamID uuid.UUID, amount int) error
	Award(ctx context.Context, roomID, playerID uuid.UUID) error
	Skip(ctx context.Context, roomID, playerID uuid.UUID) error
	SendChat(ctx context.Context, roomID uuid.UUID, senderName, content string) error
	SendNotice(ctx context.Context, roomID uuid.UUID, content string) error
}

// RoomService is the room lifecycle surface the API exposes.
type RoomService interface {
	CreateRoom(ctx context.Context, req auction.CreateRoomRequest) (*auction.CreateRoomResponse, error)
	GetSnapshot(ctx context.Context, roomID uuid.UUID) (*auction.Snapshot, error)
	GetPollSnapshot(ctx context.Context, roomID uuid.UUID) (*auction.PollSnapshot, error)
	Authorize(ctx context.Context, roomID uuid.UUID, token string) (models.Role, *uuid.UUID, error)
}

// Server wires the REST and websocket surface of the auction.
type Server struct {
	auctions AuctionService
	rooms    RoomService
	ws       *gateway.WebSocketHandler
	manager  *gateway.ConnectionManager
}

// NewServer creates the API server.
func NewServer(auctions AuctionService, rooms RoomService, manager *gateway.ConnectionManager) *Server {
	return &Server{
		auctions: auctions,
		rooms:    rooms,
		ws:       gateway.NewWebSocketHandler(manager, &roomAuthorizer{rooms: rooms}),
		manager:  manager,
	}
}

// Handler returns the full route tree wrapped in CORS.
func (s *Server) Handler(allowedOrigins []string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /rooms", s.handleCreateRoom)
	mux.HandleFunc("GET /rooms/{room_id}", s.requireRole(s.handleGetSnapshot))
	mux.HandleFunc("GET /rooms/{room_id}/poll", s.requireRole(s.handleGetPoll))
	mux.HandleFunc("GET /rooms/{room_id}/presence", s.requireRole(s.handleGetPresence))
	mux.Handle("GET /rooms/{room_id}/ws", s.ws)

	mux.HandleFunc("POST /rooms/{room_id}/draw", s.requireRole(s.handleDraw, models.RoleOrganizer))
	mux.HandleFunc("POST /rooms/{room_id}/bids", s.requireRole(s.handlePlaceBid, models.RoleLeader))
	mux.HandleFunc("POST /rooms/{room_id}/players/{player_id}/award", s.requireRole(s.handleAward, models.RoleOrganizer))
	mux.HandleFunc("POST /rooms/{room_id}/players/{player_id}/skip", s.requireRole(s.handleSkip, models.RoleOrganizer))
	mux.HandleFunc("POST /rooms/{room_id}/messages", s.requireRole(s.handleSendChat, models.RoleLeader, models.RoleOrganizer))
	mux.HandleFunc("POST /rooms/{room_id}/notices", s.requireRole(s.handleSendNotice, models.RoleOrganizer))

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})
	return c.Handler(mux)
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req auction.CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.rooms.CreateRoom(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFromContext(r.Context())

	snapshot, err := s.rooms.GetSnapshot(r.Context(), identity.RoomID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleGetPoll(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFromContext(r.Context())

	snapshot, err := s.rooms.GetPollSnapshot(r.Context(), identity.RoomID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleGetPresence(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"presence": s.manager.Presence(identity.RoomID),
	})
}

func (s *Server) handleDraw(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFromContext(r.Context())

	if err := s.auctions.Draw(r.Context(), identity.RoomID); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type placeBidRequest struct {
	PlayerID uuid.UUID `json:"player_id"`
	Amount   int       `json:"amount"`
}

func (s *Server) handlePlaceBid(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFromContext(r.Context())
	if identity.TeamID == nil {
		writeError(w, http.StatusForbidden, "bidding requires a team token")
		return
	}

	var req placeBidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PlayerID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "player_id is required")
		return
	}

	if err := s.auctions.PlaceBid(r.Context(), identity.RoomID, req.PlayerID, *identity.TeamID, req.Amount); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAward(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFromContext(r.Context())

	playerID, err := uuid.Parse(r.PathValue("player_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid player id")
		return
	}

	if err := s.auctions.Award(r.Context(), identity.RoomID, playerID); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSkip(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFromContext(r.Context())

	playerID, err := uuid.Parse(r.PathValue("player_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid player id")
		return
	}

	if err := s.auctions.Skip(r.Context(), identity.RoomID, playerID); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type sendMessageRequest struct {
	SenderName string `json:"sender_name"`
	Content    string `json:"content"`
}

func (s *Server) handleSendChat(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFromContext(r.Context())

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}
	if req.SenderName == "" {
		req.SenderName = string(identity.Role)
	}

	if err := s.auctions.SendChat(r.Context(), identity.RoomID, req.SenderName, req.Content); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSendNotice(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFromContext(r.Context())

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}

	if err := s.auctions.SendNotice(r.Context(), identity.RoomID, req.Content); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
