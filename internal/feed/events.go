package feed

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Table identifies which row store table an event refers to.
type Table string

const (
	TableRooms    Table = "rooms"
	TableTeams    Table = "teams"
	TablePlayers  Table = "players"
	TableBids     Table = "bids"
	TableMessages Table = "messages"
)

// Op is the kind of row change.
type Op string

const (
	OpInsert Op = "INSERT"
	OpUpdate Op = "UPDATE"
)

// Event is one row-change notification, scoped to a room. Delivery is not
// guaranteed; consumers compensate with the poll fallback.
type Event struct {
	ID        uuid.UUID       `json:"event_id"`
	RoomID    uuid.UUID       `json:"room_id"`
	Table     Table           `json:"table"`
	Op        Op              `json:"op"`
	Timestamp time.Time       `json:"timestamp"`
	Row       json.RawMessage `json:"row,omitempty"`
}

// NewEvent builds an event with the row payload marshaled to JSON. A row
// that fails to marshal is published without a payload; consumers treat a
// missing payload as a cue to refetch.
func NewEvent(roomID uuid.UUID, table Table, op Op, row any) Event {
	e := Event{
		ID:        uuid.New(),
		RoomID:    roomID,
		Table:     table,
		Op:        op,
		Timestamp: time.Now().UTC(),
	}
	if row != nil {
		if data, err := json.Marshal(row); err == nil {
			e.Row = data
		}
	}
	return e
}
