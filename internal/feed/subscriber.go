package feed

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// Handler receives decoded change feed events.
type Handler func(Event)

// Subscriber consumes change feed events off NATS.
type Subscriber struct {
	nc     *nats.Conn
	prefix string
}

// NewSubscriber creates a subscriber on an existing NATS connection.
func NewSubscriber(nc *nats.Conn, prefix string) *Subscriber {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &Subscriber{nc: nc, prefix: prefix}
}

// SubscribeRoom delivers all events for one room to the handler.
func (s *Subscriber) SubscribeRoom(roomID uuid.UUID, handler Handler) (*nats.Subscription, error) {
	subject := fmt.Sprintf("%s.room.%s.>", s.prefix, roomID)
	return s.subscribe(subject, handler)
}

// SubscribeAll delivers events for every room to the handler.
func (s *Subscriber) SubscribeAll(handler Handler) (*nats.Subscription, error) {
	subject := fmt.Sprintf("%s.room.>", s.prefix)
	return s.subscribe(subject, handler)
}

func (s *Subscriber) subscribe(subject string, handler Handler) (*nats.Subscription, error) {
	sub, err := s.nc.Subscribe(subject, func(msg *nats.Msg) {
		var event Event
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			log.Error().Err(err).Str("subject", msg.Subject).Msg("failed to decode feed event")
			return
		}
		handler(event)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}
	return sub, nil
}

// ConnectOptions returns the NATS options used by all feed consumers:
// unlimited reconnects with logged connection state changes.
func ConnectOptions() []nats.Option {
	return []nats.Option{
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}
}
