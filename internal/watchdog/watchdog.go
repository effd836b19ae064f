package watchdog

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/liveauction/internal/auction"
	"github.com/mcdev12/liveauction/internal/feed"
	"github.com/mcdev12/liveauction/internal/models"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// Awarder settles the active auction for a player. Settlement must be
// idempotent; the watchdog may fire for an auction a client already
// settled.
type Awarder interface {
	Award(ctx context.Context, roomID, playerID uuid.UUID) error
}

// RoomLister loads rooms with a live deadline, used to re-arm after a
// restart.
type RoomLister interface {
	ListActiveRooms(ctx context.Context) ([]models.Room, error)
}

// Watchdog settles auctions whose deadline passed without a client
// triggering the award. It tracks each room's deadline from the change
// feed and arms one timer per active auction, padded by a grace period so
// a bid extension in flight at the deadline wins the race.
type Watchdog struct {
	awarder    Awarder
	subscriber *feed.Subscriber
	clock      clockwork.Clock
	grace      time.Duration

	mu     sync.Mutex
	timers map[uuid.UUID]*armedTimer
	sub    *nats.Subscription
}

type armedTimer struct {
	playerID uuid.UUID
	cancel   context.CancelFunc
}

// New creates a watchdog with the standard grace period.
func New(awarder Awarder, subscriber *feed.Subscriber, clock clockwork.Clock) *Watchdog {
	return &Watchdog{
		awarder:    awarder,
		subscriber: subscriber,
		clock:      clock,
		grace:      auction.TimeoutGrace,
		timers:     make(map[uuid.UUID]*armedTimer),
	}
}

// Start subscribes to room updates and arms timers for rooms already in
// an auction, so deadlines survive a process restart.
func (w *Watchdog) Start(ctx context.Context, lister RoomLister) error {
	sub, err := w.subscriber.SubscribeAll(func(event feed.Event) {
		if event.Table != feed.TableRooms || len(event.Row) == 0 {
			return
		}
		var room models.Room
		if err := json.Unmarshal(event.Row, &room); err != nil {
			log.Error().Err(err).Str("event_id", event.ID.String()).Msg("failed to decode room event")
			return
		}
		w.Observe(ctx, room)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to room feed: %w", err)
	}
	w.sub = sub

	if lister != nil {
		rooms, err := lister.ListActiveRooms(ctx)
		if err != nil {
			return fmt.Errorf("failed to list active rooms: %w", err)
		}
		for _, room := range rooms {
			w.Observe(ctx, room)
		}
	}

	log.Info().Msg("timeout watchdog started")
	return nil
}

// Stop tears down the feed subscription and every armed timer.
func (w *Watchdog) Stop() {
	if w.sub != nil {
		_ = w.sub.Unsubscribe()
		w.sub = nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	for roomID, t := range w.timers {
		t.cancel()
		delete(w.timers, roomID)
	}
}

// Observe reconciles the watchdog with one room row. A live auction arms
// (or re-arms) the room's timer; a cleared cursor disarms it. Re-arming
// for the same player with a later deadline is how extensions propagate.
func (w *Watchdog) Observe(ctx context.Context, room models.Room) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if existing, ok := w.timers[room.ID]; ok {
		existing.cancel()
		delete(w.timers, room.ID)
	}

	if room.TimerEndsAt == nil || room.CurrentPlayer == nil {
		return
	}

	deadline := *room.TimerEndsAt
	playerID := *room.CurrentPlayer
	timerCtx, cancel := context.WithCancel(ctx)
	armed := &armedTimer{playerID: playerID, cancel: cancel}
	w.timers[room.ID] = armed

	wait := deadline.Sub(w.clock.Now()) + w.grace
	if wait < 0 {
		wait = 0
	}

	go w.waitAndSettle(timerCtx, room.ID, armed, wait)

	log.Debug().
		Str("room_id", room.ID.String()).
		Str("player_id", playerID.String()).
		Time("deadline", deadline).
		Msg("timeout watchdog armed")
}

func (w *Watchdog) waitAndSettle(ctx context.Context, roomID uuid.UUID, armed *armedTimer, wait time.Duration) {
	timer := w.clock.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-timer.Chan():
	}

	w.mu.Lock()
	if w.timers[roomID] != armed {
		// Re-armed or disarmed while we slept.
		w.mu.Unlock()
		return
	}
	delete(w.timers, roomID)
	playerID := armed.playerID
	w.mu.Unlock()

	log.Info().
		Str("room_id", roomID.String()).
		Str("player_id", playerID.String()).
		Msg("deadline passed, settling auction")

	if err := w.awarder.Award(context.Background(), roomID, playerID); err != nil {
		log.Error().
			Err(err).
			Str("room_id", roomID.String()).
			Str("player_id", playerID.String()).
			Msg("timeout settlement failed")
	}
}
