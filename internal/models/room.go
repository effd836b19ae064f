package models

import (
	"time"

	"github.com/google/uuid"
)

// Room represents one independent auction session with its own teams,
// players, timer, and capability tokens.
type Room struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	TotalTeams     int        `json:"total_teams"`
	BasePoint      int        `json:"base_point"`
	MembersPerTeam int        `json:"members_per_team"`
	OrderPublic    bool       `json:"order_public"`
	TimerEndsAt    *time.Time `json:"timer_ends_at,omitempty"`
	CurrentPlayer  *uuid.UUID `json:"current_player_id,omitempty"`
	OrganizerToken string     `json:"-"`
	ViewerToken    string     `json:"-"`
	CreatedAt      time.Time  `json:"created_at"`
}
