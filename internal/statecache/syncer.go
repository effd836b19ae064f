package statecache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/liveauction/internal/feed"
	"github.com/mcdev12/liveauction/internal/models"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// Fetcher loads room state from the authoritative store, typically over
// the HTTP API or directly through the room service.
type Fetcher interface {
	FetchAll(ctx context.Context, roomID uuid.UUID) (*RoomState, error)
	FetchPoll(ctx context.Context, roomID uuid.UUID) (*PollState, error)
}

// PollState is the payload returned by the poll endpoint.
type PollState struct {
	Room     *models.Room
	Teams    []models.Team
	Players  []models.Player
	Bids     []models.Bid
	Messages []models.Message
}

// Syncer keeps a Cache converged with the authoritative store for one
// room. It applies pushed change feed events as they arrive and runs a
// periodic poll underneath, so a dropped notification heals within one
// poll interval. Polls never overlap; a tick that lands while the
// previous poll is in flight is skipped.
type Syncer struct {
	roomID       uuid.UUID
	cache        *Cache
	fetcher      Fetcher
	subscriber   *feed.Subscriber
	clock        clockwork.Clock
	pollInterval time.Duration

	sub     *nats.Subscription
	polling atomic.Bool
}

// NewSyncer creates a syncer for the room. The subscriber may be nil, in
// which case only the poll loop runs.
func NewSyncer(roomID uuid.UUID, cache *Cache, fetcher Fetcher, subscriber *feed.Subscriber, clock clockwork.Clock, pollInterval time.Duration) *Syncer {
	return &Syncer{
		roomID:       roomID,
		cache:        cache,
		fetcher:      fetcher,
		subscriber:   subscriber,
		clock:        clock,
		pollInterval: pollInterval,
	}
}

// Start performs the initial full fetch, subscribes to the room's feed,
// and launches the poll loop. It blocks until the initial fetch finishes
// so callers observe a populated cache.
func (s *Syncer) Start(ctx context.Context) error {
	state, err := s.fetcher.FetchAll(ctx, s.roomID)
	if err != nil {
		return fmt.Errorf("failed initial state fetch: %w", err)
	}
	s.cache.ReplaceAll(*state)

	if s.subscriber != nil {
		sub, err := s.subscriber.SubscribeRoom(s.roomID, s.ApplyEvent)
		if err != nil {
			return fmt.Errorf("failed to subscribe to room feed: %w", err)
		}
		s.sub = sub
	}

	go s.pollLoop(ctx)

	log.Info().Str("room_id", s.roomID.String()).Msg("state syncer started")
	return nil
}

// Stop tears down the feed subscription.
func (s *Syncer) Stop() {
	if s.sub != nil {
		_ = s.sub.Unsubscribe()
		s.sub = nil
	}
}

// ApplyEvent folds one change feed event into the cache. Events with a
// missing or undecodable payload trigger a poll instead of a partial
// apply.
func (s *Syncer) ApplyEvent(event feed.Event) {
	if event.RoomID != s.roomID {
		return
	}
	if len(event.Row) == 0 {
		s.pollOnce(context.Background())
		return
	}

	switch event.Table {
	case feed.TableRooms:
		var room models.Room
		if err := json.Unmarshal(event.Row, &room); err != nil {
			s.decodeFailure(event, err)
			return
		}
		s.cache.SetRoom(room)
	case feed.TableTeams:
		var team models.Team
		if err := json.Unmarshal(event.Row, &team); err != nil {
			s.decodeFailure(event, err)
			return
		}
		s.cache.UpsertTeam(team)
	case feed.TablePlayers:
		var player models.Player
		if err := json.Unmarshal(event.Row, &player); err != nil {
			s.decodeFailure(event, err)
			return
		}
		s.cache.UpsertPlayer(player)
	case feed.TableBids:
		var bid models.Bid
		if err := json.Unmarshal(event.Row, &bid); err != nil {
			s.decodeFailure(event, err)
			return
		}
		s.cache.AddBid(bid)
	case feed.TableMessages:
		var message models.Message
		if err := json.Unmarshal(event.Row, &message); err != nil {
			s.decodeFailure(event, err)
			return
		}
		s.cache.AddMessage(message)
	}
}

func (s *Syncer) decodeFailure(event feed.Event, err error) {
	log.Error().
		Err(err).
		Str("table", string(event.Table)).
		Str("event_id", event.ID.String()).
		Msg("failed to decode feed event row")
	s.pollOnce(context.Background())
}

func (s *Syncer) pollLoop(ctx context.Context) {
	ticker := s.clock.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			s.pollOnce(ctx)
		}
	}
}

// pollOnce fetches the poll payload and merges it. The in-flight flag
// keeps a slow poll from stacking behind the next tick.
func (s *Syncer) pollOnce(ctx context.Context) {
	if !s.polling.CompareAndSwap(false, true) {
		return
	}
	defer s.polling.Store(false)

	state, err := s.fetcher.FetchPoll(ctx, s.roomID)
	if err != nil {
		log.Warn().Err(err).Str("room_id", s.roomID.String()).Msg("poll fetch failed")
		return
	}
	s.cache.MergePoll(state.Room, state.Teams, state.Players, state.Bids, state.Messages)
}
