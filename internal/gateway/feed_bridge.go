package gateway

import (
	"fmt"

	"github.com/mcdev12/liveauction/internal/feed"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// FeedBridge fans change feed events out to the websocket pools. One
// subscription covers every room; the manager routes by room ID.
type FeedBridge struct {
	subscriber *feed.Subscriber
	manager    *ConnectionManager
	sub        *nats.Subscription
}

// NewFeedBridge creates the bridge. Call Start to begin forwarding.
func NewFeedBridge(subscriber *feed.Subscriber, manager *ConnectionManager) *FeedBridge {
	return &FeedBridge{subscriber: subscriber, manager: manager}
}

// Start subscribes to the full feed and forwards each event to its room.
func (b *FeedBridge) Start() error {
	sub, err := b.subscriber.SubscribeAll(func(event feed.Event) {
		b.manager.BroadcastToRoom(event.RoomID, NewRowChangeEvent(event))
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to change feed: %w", err)
	}
	b.sub = sub

	log.Info().Msg("feed bridge started")
	return nil
}

// Stop tears the subscription down.
func (b *FeedBridge) Stop() error {
	if b.sub == nil {
		return nil
	}
	if err := b.sub.Unsubscribe(); err != nil {
		return fmt.Errorf("failed to unsubscribe feed bridge: %w", err)
	}
	b.sub = nil
	return nil
}
