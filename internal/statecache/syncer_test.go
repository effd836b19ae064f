package statecache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/liveauction/internal/feed"
	"github.com/mcdev12/liveauction/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	mu        sync.Mutex
	full      RoomState
	poll      PollState
	fullCalls int
	pollCalls int
}

func (f *fakeFetcher) FetchAll(_ context.Context, _ uuid.UUID) (*RoomState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fullCalls++
	state := f.full
	return &state, nil
}

func (f *fakeFetcher) FetchPoll(_ context.Context, _ uuid.UUID) (*PollState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pollCalls++
	state := f.poll
	return &state, nil
}

func (f *fakeFetcher) polls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pollCalls
}

func TestSyncer_ApplyEvent(t *testing.T) {
	roomID := uuid.New()
	newSyncer := func() (*Syncer, *Cache, *fakeFetcher) {
		cache := NewCache()
		fetcher := &fakeFetcher{}
		s := NewSyncer(roomID, cache, fetcher, nil, clockwork.NewFakeClock(), 3*time.Second)
		return s, cache, fetcher
	}

	t.Run("room update replaces the room", func(t *testing.T) {
		s, cache, _ := newSyncer()

		s.ApplyEvent(feed.NewEvent(roomID, feed.TableRooms, feed.OpUpdate, models.Room{ID: roomID, Name: "renamed"}))

		require.NotNil(t, cache.Snapshot().Room)
		assert.Equal(t, "renamed", cache.Snapshot().Room.Name)
	})

	t.Run("bid insert appends once", func(t *testing.T) {
		s, cache, _ := newSyncer()
		bid := models.Bid{ID: uuid.New(), RoomID: roomID, Amount: 120}

		event := feed.NewEvent(roomID, feed.TableBids, feed.OpInsert, bid)
		s.ApplyEvent(event)
		s.ApplyEvent(event)

		assert.Len(t, cache.Snapshot().Bids, 1)
	})

	t.Run("player update upserts", func(t *testing.T) {
		s, cache, _ := newSyncer()
		playerID := uuid.New()

		s.ApplyEvent(feed.NewEvent(roomID, feed.TablePlayers, feed.OpUpdate, models.Player{ID: playerID, Status: models.PlayerStatusInAuction}))
		s.ApplyEvent(feed.NewEvent(roomID, feed.TablePlayers, feed.OpUpdate, models.Player{ID: playerID, Status: models.PlayerStatusSold}))

		players := cache.Snapshot().Players
		require.Len(t, players, 1)
		assert.Equal(t, models.PlayerStatusSold, players[0].Status)
	})

	t.Run("events for other rooms are ignored", func(t *testing.T) {
		s, cache, _ := newSyncer()

		s.ApplyEvent(feed.NewEvent(uuid.New(), feed.TableBids, feed.OpInsert, models.Bid{ID: uuid.New()}))

		assert.Empty(t, cache.Snapshot().Bids)
	})

	t.Run("payload-free event falls back to a poll", func(t *testing.T) {
		s, _, fetcher := newSyncer()

		s.ApplyEvent(feed.NewEvent(roomID, feed.TableRooms, feed.OpUpdate, nil))

		assert.Equal(t, 1, fetcher.polls())
	})
}

func TestSyncer_Start(t *testing.T) {
	roomID := uuid.New()
	cache := NewCache()
	fetcher := &fakeFetcher{
		full: RoomState{
			Room:    &models.Room{ID: roomID},
			Players: []models.Player{{ID: uuid.New(), Status: models.PlayerStatusWaiting}},
		},
	}
	clock := clockwork.NewFakeClock()
	s := NewSyncer(roomID, cache, fetcher, nil, clock, 3*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.Start(ctx))

	// The cache is populated before Start returns.
	snap := cache.Snapshot()
	require.NotNil(t, snap.Room)
	assert.Len(t, snap.Players, 1)

	// Each tick triggers one poll.
	clock.BlockUntil(1)
	clock.Advance(3 * time.Second)
	assert.Eventually(t, func() bool { return fetcher.polls() >= 1 }, time.Second, 10*time.Millisecond)
}

func TestSyncer_PollHealsMissedPlayerEvent(t *testing.T) {
	roomID := uuid.New()
	playerID := uuid.New()
	cache := NewCache()

	// The push notification for the sale never arrives; only the poll
	// payload carries the new status.
	fetcher := &fakeFetcher{
		full: RoomState{
			Room:    &models.Room{ID: roomID},
			Players: []models.Player{{ID: playerID, RoomID: roomID, Status: models.PlayerStatusInAuction}},
		},
		poll: PollState{
			Room:    &models.Room{ID: roomID},
			Players: []models.Player{{ID: playerID, RoomID: roomID, Status: models.PlayerStatusSold}},
		},
	}
	clock := clockwork.NewFakeClock()
	s := NewSyncer(roomID, cache, fetcher, nil, clock, 3*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Start(ctx))

	players := cache.Snapshot().Players
	require.Len(t, players, 1)
	require.Equal(t, models.PlayerStatusInAuction, players[0].Status)

	clock.BlockUntil(1)
	clock.Advance(3 * time.Second)

	assert.Eventually(t, func() bool {
		players := cache.Snapshot().Players
		return len(players) == 1 && players[0].Status == models.PlayerStatusSold
	}, time.Second, 10*time.Millisecond)
}
