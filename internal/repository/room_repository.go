package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mcdev12/liveauction/internal/models"
)

// RoomRepository persists room rows with raw SQL over a Queryable.
type RoomRepository struct {
	q Queryable
}

// NewRoomRepository creates a room repository bound to q.
func NewRoomRepository(q Queryable) *RoomRepository {
	return &RoomRepository{q: q}
}

const roomColumns = `id, name, total_teams, base_point, members_per_team, order_public,
	timer_ends_at, current_player_id, organizer_token, viewer_token, created_at`

func scanRoom(row pgx.Row) (*models.Room, error) {
	var r models.Room
	err := row.Scan(
		&r.ID,
		&r.Name,
		&r.TotalTeams,
		&r.BasePoint,
		&r.MembersPerTeam,
		&r.OrderPublic,
		&r.TimerEndsAt,
		&r.CurrentPlayer,
		&r.OrganizerToken,
		&r.ViewerToken,
		&r.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan room: %w", err)
	}
	return &r, nil
}

// Create inserts a room and backfills its created_at.
func (r *RoomRepository) Create(ctx context.Context, room *models.Room) error {
	query := `
		INSERT INTO rooms (id, name, total_teams, base_point, members_per_team, order_public, organizer_token, viewer_token)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`
	err := r.q.QueryRow(ctx, query,
		room.ID,
		room.Name,
		room.TotalTeams,
		room.BasePoint,
		room.MembersPerTeam,
		room.OrderPublic,
		room.OrganizerToken,
		room.ViewerToken,
	).Scan(&room.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert room: %w", err)
	}
	return nil
}

// GetByID fetches a room, returning nil when it does not exist.
func (r *RoomRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE id = $1`
	return scanRoom(r.q.QueryRow(ctx, query, id))
}

// ListActiveRooms returns rooms with a live auction in progress.
func (r *RoomRepository) ListActiveRooms(ctx context.Context) ([]models.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE timer_ends_at IS NOT NULL AND current_player_id IS NOT NULL`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active rooms: %w", err)
	}
	defer rows.Close()

	var rooms []models.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, *room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rooms: %w", err)
	}
	return rooms, nil
}

// GetDeadline reads only the room's timer deadline.
func (r *RoomRepository) GetDeadline(ctx context.Context, roomID uuid.UUID) (*time.Time, error) {
	var endsAt *time.Time
	err := r.q.QueryRow(ctx, `SELECT timer_ends_at FROM rooms WHERE id = $1`, roomID).Scan(&endsAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("room %s not found", roomID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read room deadline: %w", err)
	}
	return endsAt, nil
}

// SetAuctionCursor writes the active-player pointer and deadline together.
func (r *RoomRepository) SetAuctionCursor(ctx context.Context, roomID uuid.UUID, playerID *uuid.UUID, deadline *time.Time) (*models.Room, error) {
	query := `
		UPDATE rooms
		SET current_player_id = $2, timer_ends_at = $3
		WHERE id = $1
		RETURNING ` + roomColumns
	room, err := scanRoom(r.q.QueryRow(ctx, query, roomID, playerID, deadline))
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, fmt.Errorf("room %s not found", roomID)
	}
	return room, nil
}

// UpdateDeadline moves only the timer deadline, leaving the cursor alone.
func (r *RoomRepository) UpdateDeadline(ctx context.Context, roomID uuid.UUID, endsAt time.Time) (*models.Room, error) {
	query := `
		UPDATE rooms
		SET timer_ends_at = $2
		WHERE id = $1
		RETURNING ` + roomColumns
	room, err := scanRoom(r.q.QueryRow(ctx, query, roomID, endsAt))
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, fmt.Errorf("room %s not found", roomID)
	}
	return room, nil
}
