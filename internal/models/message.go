package models

import (
	"time"

	"github.com/google/uuid"
)

// SenderRole tags who produced a message.
type SenderRole string

const (
	SenderRoleLeader SenderRole = "LEADER"
	SenderRoleSystem SenderRole = "SYSTEM"
	SenderRoleNotice SenderRole = "NOTICE"
)

// Message is an immutable chat/audit record. System messages double as the
// audit trail of every auction transition.
type Message struct {
	ID         uuid.UUID  `json:"id"`
	RoomID     uuid.UUID  `json:"room_id"`
	SenderName string     `json:"sender_name"`
	SenderRole SenderRole `json:"sender_role"`
	Content    string     `json:"content"`
	CreatedAt  time.Time  `json:"created_at"`
}
