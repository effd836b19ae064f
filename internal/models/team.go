package models

import (
	"time"

	"github.com/google/uuid"
)

// Team represents a bidding party led by a team leader. PointBalance is
// never negative; the deduction query enforces the floor.
type Team struct {
	ID           uuid.UUID `json:"id"`
	RoomID       uuid.UUID `json:"room_id"`
	Name         string    `json:"name"`
	LeaderName   string    `json:"leader_name"`
	LeaderToken  string    `json:"-"`
	PointBalance int       `json:"point_balance"`
	CreatedAt    time.Time `json:"created_at"`
}
