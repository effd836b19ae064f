package auction

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mcdev12/liveauction/internal/models"
	"github.com/rs/zerolog/log"
)

// Room setup defaults applied when a create request leaves them zero.
const (
	DefaultTotalTeams     = 5
	DefaultBasePoint      = 1000
	DefaultMembersPerTeam = 5
)

// TeamSetup names a team in a create request.
type TeamSetup struct {
	Name       string `json:"name" yaml:"name"`
	LeaderName string `json:"leader_name,omitempty" yaml:"leader_name,omitempty"`
}

// PlayerSetup describes one player in a create request.
type PlayerSetup struct {
	Name         string `json:"name" yaml:"name"`
	Tier         string `json:"tier,omitempty" yaml:"tier,omitempty"`
	MainPosition string `json:"main_position,omitempty" yaml:"main_position,omitempty"`
	SubPosition  string `json:"sub_position,omitempty" yaml:"sub_position,omitempty"`
	Description  string `json:"description,omitempty" yaml:"description,omitempty"`
}

// CreateRoomRequest is the organizer's room definition.
type CreateRoomRequest struct {
	Name           string        `json:"name" yaml:"name"`
	TotalTeams     int           `json:"total_teams" yaml:"total_teams"`
	BasePoint      int           `json:"base_point" yaml:"base_point"`
	MembersPerTeam int           `json:"members_per_team" yaml:"members_per_team"`
	OrderPublic    bool          `json:"order_public" yaml:"order_public"`
	Teams          []TeamSetup   `json:"teams,omitempty" yaml:"teams,omitempty"`
	Players        []PlayerSetup `json:"players,omitempty" yaml:"players,omitempty"`
}

// TeamCredential pairs a team with its leader token for distribution.
type TeamCredential struct {
	TeamID      uuid.UUID `json:"team_id"`
	Name        string    `json:"name"`
	LeaderToken string    `json:"leader_token"`
}

// CreateRoomResponse carries the new room plus all access tokens. Tokens
// are returned exactly once, here; no other endpoint exposes them.
type CreateRoomResponse struct {
	Room           *models.Room     `json:"room"`
	Teams          []models.Team    `json:"teams"`
	OrganizerToken string           `json:"organizer_token"`
	ViewerToken    string           `json:"viewer_token"`
	Credentials    []TeamCredential `json:"team_credentials"`
}

// Snapshot is the full room state handed to a client on connect.
type Snapshot struct {
	Room     *models.Room     `json:"room"`
	Teams    []models.Team    `json:"teams"`
	Players  []models.Player  `json:"players"`
	Bids     []models.Bid     `json:"bids"`
	Messages []models.Message `json:"messages"`
}

// PollSnapshot is the payload served to the fallback poller: everything
// that moves during an auction, including the player roster so a missed
// status change still heals.
type PollSnapshot struct {
	Room     *models.Room     `json:"room"`
	Teams    []models.Team    `json:"teams"`
	Players  []models.Player  `json:"players"`
	Bids     []models.Bid     `json:"bids"`
	Messages []models.Message `json:"messages"`
}

// RoomService handles room lifecycle and access control.
type RoomService struct {
	uowFactory UnitOfWorkFactory
}

// NewRoomService creates the room service.
func NewRoomService(uowFactory UnitOfWorkFactory) *RoomService {
	return &RoomService{uowFactory: uowFactory}
}

// CreateRoom provisions a room with its teams, players, and both access
// tokens in one transaction. Missing team names are filled in as
// "Team 1" .. "Team N".
func (s *RoomService) CreateRoom(ctx context.Context, req CreateRoomRequest) (*CreateRoomResponse, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("room name must not be empty")
	}
	if req.TotalTeams <= 0 {
		req.TotalTeams = DefaultTotalTeams
	}
	if req.BasePoint <= 0 {
		req.BasePoint = DefaultBasePoint
	}
	if req.MembersPerTeam <= 0 {
		req.MembersPerTeam = DefaultMembersPerTeam
	}
	if len(req.Teams) > req.TotalTeams {
		return nil, fmt.Errorf("got %d team names for %d teams", len(req.Teams), req.TotalTeams)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	room := &models.Room{
		ID:             uuid.New(),
		Name:           req.Name,
		TotalTeams:     req.TotalTeams,
		BasePoint:      req.BasePoint,
		MembersPerTeam: req.MembersPerTeam,
		OrderPublic:    req.OrderPublic,
		OrganizerToken: uuid.NewString(),
		ViewerToken:    uuid.NewString(),
	}
	if err := uow.Rooms().Create(ctx, room); err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}

	teams := make([]models.Team, 0, req.TotalTeams)
	creds := make([]TeamCredential, 0, req.TotalTeams)
	for i := 0; i < req.TotalTeams; i++ {
		name := fmt.Sprintf("Team %d", i+1)
		leaderName := ""
		if i < len(req.Teams) {
			if req.Teams[i].Name != "" {
				name = req.Teams[i].Name
			}
			leaderName = req.Teams[i].LeaderName
		}
		team := models.Team{
			ID:           uuid.New(),
			RoomID:       room.ID,
			Name:         name,
			LeaderName:   leaderName,
			LeaderToken:  uuid.NewString(),
			PointBalance: req.BasePoint,
		}
		if err := uow.Teams().Create(ctx, &team); err != nil {
			return nil, fmt.Errorf("failed to create team %q: %w", name, err)
		}
		teams = append(teams, team)
		creds = append(creds, TeamCredential{TeamID: team.ID, Name: team.Name, LeaderToken: team.LeaderToken})
	}

	for _, p := range req.Players {
		if p.Name == "" {
			continue
		}
		player := &models.Player{
			ID:           uuid.New(),
			RoomID:       room.ID,
			Name:         p.Name,
			Tier:         p.Tier,
			MainPosition: p.MainPosition,
			SubPosition:  p.SubPosition,
			Description:  p.Description,
			Status:       models.PlayerStatusWaiting,
		}
		if err := uow.Players().Create(ctx, player); err != nil {
			return nil, fmt.Errorf("failed to create player %q: %w", p.Name, err)
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit room creation: %w", err)
	}

	log.Info().
		Str("room_id", room.ID.String()).
		Str("name", room.Name).
		Int("teams", len(teams)).
		Int("players", len(req.Players)).
		Msg("room created")

	return &CreateRoomResponse{
		Room:           room,
		Teams:          teams,
		OrganizerToken: room.OrganizerToken,
		ViewerToken:    room.ViewerToken,
		Credentials:    creds,
	}, nil
}

// GetSnapshot loads the full room state in one transaction so the pieces
// are mutually consistent.
func (s *RoomService) GetSnapshot(ctx context.Context, roomID uuid.UUID) (*Snapshot, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	room, err := uow.Rooms().GetByID(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}

	teams, err := uow.Teams().ListByRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	players, err := uow.Players().ListByRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	bids, err := uow.Bids().ListByRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bids: %w", err)
	}
	messages, err := uow.Messages().ListByRoom(ctx, roomID, MessageHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit snapshot read: %w", err)
	}

	return &Snapshot{
		Room:     room,
		Teams:    teams,
		Players:  players,
		Bids:     bids,
		Messages: messages,
	}, nil
}

// GetPollSnapshot loads the poll payload for the polling fallback.
func (s *RoomService) GetPollSnapshot(ctx context.Context, roomID uuid.UUID) (*PollSnapshot, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	room, err := uow.Rooms().GetByID(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}
	teams, err := uow.Teams().ListByRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	players, err := uow.Players().ListByRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	bids, err := uow.Bids().ListByRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bids: %w", err)
	}
	messages, err := uow.Messages().ListByRoom(ctx, roomID, MessageHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit poll read: %w", err)
	}

	return &PollSnapshot{
		Room:     room,
		Teams:    teams,
		Players:  players,
		Bids:     bids,
		Messages: messages,
	}, nil
}

// Authorize resolves a presented token to a role within the room. Leader
// tokens also yield the team they belong to.
func (s *RoomService) Authorize(ctx context.Context, roomID uuid.UUID, token string) (models.Role, *uuid.UUID, error) {
	if token == "" {
		return "", nil, ErrInvalidToken
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return "", nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	room, err := uow.Rooms().GetByID(ctx, roomID)
	if err != nil {
		return "", nil, fmt.Errorf("failed to get room: %w", err)
	}
	if room == nil {
		return "", nil, ErrRoomNotFound
	}

	switch token {
	case room.OrganizerToken:
		return models.RoleOrganizer, nil, nil
	case room.ViewerToken:
		return models.RoleViewer, nil, nil
	}

	teams, err := uow.Teams().ListByRoom(ctx, roomID)
	if err != nil {
		return "", nil, fmt.Errorf("failed to list teams: %w", err)
	}
	for i := range teams {
		if teams[i].LeaderToken == token {
			teamID := teams[i].ID
			return models.RoleLeader, &teamID, nil
		}
	}

	return "", nil, ErrInvalidToken
}
