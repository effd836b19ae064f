package gateway

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/liveauction/internal/feed"
	"github.com/mcdev12/liveauction/internal/models"
)

// WSEventType identifies the kind of frame pushed to clients.
type WSEventType string

const (
	// WSEventRowChange carries one change feed event.
	WSEventRowChange WSEventType = "ROW_CHANGE"
	// WSEventPresenceSync carries the full presence set for the room.
	WSEventPresenceSync WSEventType = "PRESENCE_SYNC"
)

// WSEvent is the frame format pushed over a room websocket.
type WSEvent struct {
	Type      WSEventType     `json:"type"`
	RoomID    uuid.UUID       `json:"room_id"`
	Timestamp time.Time       `json:"timestamp"`
	Change    *feed.Event     `json:"change,omitempty"`
	Presence  []PresenceEntry `json:"presence,omitempty"`
}

// PresenceEntry is one connected client as seen by the rest of the room.
type PresenceEntry struct {
	ConnectionID string      `json:"connection_id"`
	Role         models.Role `json:"role"`
	TeamID       *uuid.UUID  `json:"team_id,omitempty"`
}

// NewRowChangeEvent wraps a feed event for push delivery.
func NewRowChangeEvent(event feed.Event) *WSEvent {
	return &WSEvent{
		Type:      WSEventRowChange,
		RoomID:    event.RoomID,
		Timestamp: time.Now().UTC(),
		Change:    &event,
	}
}

// NewPresenceSyncEvent wraps the room's current presence set.
func NewPresenceSyncEvent(roomID uuid.UUID, entries []PresenceEntry) *WSEvent {
	return &WSEvent{
		Type:      WSEventPresenceSync,
		RoomID:    roomID,
		Timestamp: time.Now().UTC(),
		Presence:  entries,
	}
}

// Marshal encodes the frame for the wire.
func (e *WSEvent) Marshal() ([]byte, error) {
	return json.Marshal(e)
}
