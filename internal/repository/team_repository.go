package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mcdev12/liveauction/internal/auction"
	"github.com/mcdev12/liveauction/internal/models"
)

// TeamRepository persists team rows.
type TeamRepository struct {
	q Queryable
}

// NewTeamRepository creates a team repository bound to q.
func NewTeamRepository(q Queryable) *TeamRepository {
	return &TeamRepository{q: q}
}

const teamColumns = `id, room_id, name, leader_name, leader_token, point_balance, created_at`

func scanTeam(row pgx.Row) (*models.Team, error) {
	var t models.Team
	err := row.Scan(
		&t.ID,
		&t.RoomID,
		&t.Name,
		&t.LeaderName,
		&t.LeaderToken,
		&t.PointBalance,
		&t.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan team: %w", err)
	}
	return &t, nil
}

// Create inserts a team and backfills its created_at.
func (r *TeamRepository) Create(ctx context.Context, team *models.Team) error {
	query := `
		INSERT INTO teams (id, room_id, name, leader_name, leader_token, point_balance)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	err := r.q.QueryRow(ctx, query,
		team.ID,
		team.RoomID,
		team.Name,
		team.LeaderName,
		team.LeaderToken,
		team.PointBalance,
	).Scan(&team.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert team: %w", err)
	}
	return nil
}

// GetByID fetches a team, returning nil when it does not exist.
func (r *TeamRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE id = $1`
	return scanTeam(r.q.QueryRow(ctx, query, id))
}

// ListByRoom returns the room's teams in creation order.
func (r *TeamRepository) ListByRoom(ctx context.Context, roomID uuid.UUID) ([]models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE room_id = $1 ORDER BY created_at, id`
	rows, err := r.q.Query(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()

	var teams []models.Team
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		teams = append(teams, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate teams: %w", err)
	}
	return teams, nil
}

// DeductPoints decrements the balance only when it stays non-negative,
// pushing the insufficient-funds check into the database itself.
func (r *TeamRepository) DeductPoints(ctx context.Context, teamID uuid.UUID, amount int) (*models.Team, error) {
	query := `
		UPDATE teams
		SET point_balance = point_balance - $2
		WHERE id = $1 AND point_balance >= $2
		RETURNING ` + teamColumns
	team, err := scanTeam(r.q.QueryRow(ctx, query, teamID, amount))
	if err != nil {
		return nil, err
	}
	if team == nil {
		// Either the team is gone or the balance no longer covers the
		// amount. Re-read to tell the two apart.
		existing, err := r.GetByID(ctx, teamID)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, auction.ErrTeamNotFound
		}
		return nil, &auction.InsufficientPointsError{Balance: existing.PointBalance}
	}
	return team, nil
}
