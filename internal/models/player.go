package models

import (
	"time"

	"github.com/google/uuid"
)

// PlayerStatus defines the lifecycle state of a draftable player.
type PlayerStatus string

const (
	PlayerStatusWaiting   PlayerStatus = "WAITING"
	PlayerStatusInAuction PlayerStatus = "IN_AUCTION"
	PlayerStatusSold      PlayerStatus = "SOLD"
)

// Player represents a draftable entity being auctioned off to teams.
// TeamID and SoldPrice are set only once the player is SOLD.
type Player struct {
	ID           uuid.UUID    `json:"id"`
	RoomID       uuid.UUID    `json:"room_id"`
	Name         string       `json:"name"`
	Tier         string       `json:"tier"`
	MainPosition string       `json:"main_position"`
	SubPosition  string       `json:"sub_position,omitempty"`
	Description  string       `json:"description,omitempty"`
	Status       PlayerStatus `json:"status"`
	TeamID       *uuid.UUID   `json:"team_id,omitempty"`
	SoldPrice    *int         `json:"sold_price,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}
