package feed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// DefaultSubjectPrefix is the root of the change feed subject space.
const DefaultSubjectPrefix = "auction"

// Publisher emits row-change events to the change feed.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NATSPublisher publishes events to core NATS subjects of the form
// <prefix>.room.<room_id>.<table>.<op>.
type NATSPublisher struct {
	nc     *nats.Conn
	prefix string
}

// NewNATSPublisher creates a publisher on an existing NATS connection.
func NewNATSPublisher(nc *nats.Conn, prefix string) *NATSPublisher {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &NATSPublisher{nc: nc, prefix: prefix}
}

func (p *NATSPublisher) Publish(ctx context.Context, event Event) error {
	subject := fmt.Sprintf("%s.room.%s.%s.%s", p.prefix, event.RoomID, event.Table, event.Op)

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal feed event: %w", err)
	}

	if err := p.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish feed event: %w", err)
	}

	log.Debug().
		Str("subject", subject).
		Str("event_id", event.ID.String()).
		Msg("feed event published")
	return nil
}

// NopPublisher drops all events. Used by tools that mutate the store
// without a running feed.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, event Event) error { return nil }
