package models

import "github.com/google/uuid"

// Role is the capability a connected client holds in a room.
type Role string

const (
	RoleOrganizer Role = "ORGANIZER"
	RoleLeader    Role = "LEADER"
	RoleViewer    Role = "VIEWER"
)

// Presence is the ephemeral per-connection entry broadcast while a client
// is connected. It is never persisted.
type Presence struct {
	Role   Role       `json:"role"`
	TeamID *uuid.UUID `json:"team_id,omitempty"`
}
