package models

import (
	"time"

	"github.com/google/uuid"
)

// Bid is an immutable append-only record. The current highest bid for a
// player is derived from the bid log, never stored.
type Bid struct {
	ID        uuid.UUID `json:"id"`
	RoomID    uuid.UUID `json:"room_id"`
	PlayerID  uuid.UUID `json:"player_id"`
	TeamID    uuid.UUID `json:"team_id"`
	Amount    int       `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}
