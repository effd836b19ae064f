package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mcdev12/liveauction/internal/models"
)

// BidRepository persists the append-only bid log.
type BidRepository struct {
	q Queryable
}

// NewBidRepository creates a bid repository bound to q.
func NewBidRepository(q Queryable) *BidRepository {
	return &BidRepository{q: q}
}

const bidColumns = `id, room_id, player_id, team_id, amount, created_at`

func scanBid(row pgx.Row) (*models.Bid, error) {
	var b models.Bid
	err := row.Scan(
		&b.ID,
		&b.RoomID,
		&b.PlayerID,
		&b.TeamID,
		&b.Amount,
		&b.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan bid: %w", err)
	}
	return &b, nil
}

// Create appends a bid and backfills its created_at.
func (r *BidRepository) Create(ctx context.Context, bid *models.Bid) error {
	query := `
		INSERT INTO bids (id, room_id, player_id, team_id, amount)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	err := r.q.QueryRow(ctx, query,
		bid.ID,
		bid.RoomID,
		bid.PlayerID,
		bid.TeamID,
		bid.Amount,
	).Scan(&bid.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert bid: %w", err)
	}
	return nil
}

// ListByRoom returns every bid in the room, oldest first.
func (r *BidRepository) ListByRoom(ctx context.Context, roomID uuid.UUID) ([]models.Bid, error) {
	query := `SELECT ` + bidColumns + ` FROM bids WHERE room_id = $1 ORDER BY created_at, id`
	rows, err := r.q.Query(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bids: %w", err)
	}
	defer rows.Close()

	var bids []models.Bid
	for rows.Next() {
		b, err := scanBid(rows)
		if err != nil {
			return nil, err
		}
		bids = append(bids, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bids: %w", err)
	}
	return bids, nil
}

// TopBidForPlayer returns the winning bid for the player: highest amount,
// earliest on a tie. Returns nil with no error when no bid exists.
func (r *BidRepository) TopBidForPlayer(ctx context.Context, roomID, playerID uuid.UUID) (*models.Bid, error) {
	query := `
		SELECT ` + bidColumns + `
		FROM bids
		WHERE room_id = $1 AND player_id = $2
		ORDER BY amount DESC, created_at ASC
		LIMIT 1
	`
	return scanBid(r.q.QueryRow(ctx, query, roomID, playerID))
}
