package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mcdev12/liveauction/internal/models"
)

// PlayerRepository persists player rows.
type PlayerRepository struct {
	q Queryable
}

// NewPlayerRepository creates a player repository bound to q.
func NewPlayerRepository(q Queryable) *PlayerRepository {
	return &PlayerRepository{q: q}
}

const playerColumns = `id, room_id, name, tier, main_position, sub_position, description,
	status, team_id, sold_price, created_at`

func scanPlayer(row pgx.Row) (*models.Player, error) {
	var p models.Player
	err := row.Scan(
		&p.ID,
		&p.RoomID,
		&p.Name,
		&p.Tier,
		&p.MainPosition,
		&p.SubPosition,
		&p.Description,
		&p.Status,
		&p.TeamID,
		&p.SoldPrice,
		&p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan player: %w", err)
	}
	return &p, nil
}

// Create inserts a player and backfills its created_at.
func (r *PlayerRepository) Create(ctx context.Context, player *models.Player) error {
	query := `
		INSERT INTO players (id, room_id, name, tier, main_position, sub_position, description, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`
	err := r.q.QueryRow(ctx, query,
		player.ID,
		player.RoomID,
		player.Name,
		player.Tier,
		player.MainPosition,
		player.SubPosition,
		player.Description,
		player.Status,
	).Scan(&player.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert player: %w", err)
	}
	return nil
}

// GetByID fetches a player, returning nil when it does not exist.
func (r *PlayerRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE id = $1`
	return scanPlayer(r.q.QueryRow(ctx, query, id))
}

// GetByIDForUpdate fetches a player under a row lock. Only meaningful
// inside a transaction; settlement relies on it to serialize.
func (r *PlayerRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE id = $1 FOR UPDATE`
	return scanPlayer(r.q.QueryRow(ctx, query, id))
}

// ListByRoom returns every player in the room in creation order.
func (r *PlayerRepository) ListByRoom(ctx context.Context, roomID uuid.UUID) ([]models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE room_id = $1 ORDER BY created_at, id`
	return r.list(ctx, query, roomID)
}

// ListWaiting returns the room's undrafted pool.
func (r *PlayerRepository) ListWaiting(ctx context.Context, roomID uuid.UUID) ([]models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE room_id = $1 AND status = $2 ORDER BY created_at, id`
	return r.list(ctx, query, roomID, models.PlayerStatusWaiting)
}

func (r *PlayerRepository) list(ctx context.Context, query string, args ...any) ([]models.Player, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	defer rows.Close()

	var players []models.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		players = append(players, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate players: %w", err)
	}
	return players, nil
}

// UpdateStatus moves the player to a new lifecycle status.
func (r *PlayerRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.PlayerStatus) (*models.Player, error) {
	query := `
		UPDATE players
		SET status = $2
		WHERE id = $1
		RETURNING ` + playerColumns
	player, err := scanPlayer(r.q.QueryRow(ctx, query, id, status))
	if err != nil {
		return nil, err
	}
	if player == nil {
		return nil, fmt.Errorf("player %s not found", id)
	}
	return player, nil
}

// MarkSold records the winning team and price alongside the SOLD status.
func (r *PlayerRepository) MarkSold(ctx context.Context, id uuid.UUID, teamID uuid.UUID, price int) (*models.Player, error) {
	query := `
		UPDATE players
		SET status = $2, team_id = $3, sold_price = $4
		WHERE id = $1
		RETURNING ` + playerColumns
	player, err := scanPlayer(r.q.QueryRow(ctx, query, id, models.PlayerStatusSold, teamID, price))
	if err != nil {
		return nil, err
	}
	if player == nil {
		return nil, fmt.Errorf("player %s not found", id)
	}
	return player, nil
}
