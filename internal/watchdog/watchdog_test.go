package watchdog

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/liveauction/internal/auction"
	"github.com/mcdev12/liveauction/internal/models"
	"github.com/stretchr/testify/assert"
)

type recordingAwarder struct {
	mu    sync.Mutex
	calls []uuid.UUID
}

func (a *recordingAwarder) Award(_ context.Context, _, playerID uuid.UUID) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, playerID)
	return nil
}

func (a *recordingAwarder) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.calls)
}

func activeRoom(clock clockwork.Clock, d time.Duration) (models.Room, uuid.UUID) {
	playerID := uuid.New()
	deadline := clock.Now().Add(d)
	return models.Room{
		ID:            uuid.New(),
		TimerEndsAt:   &deadline,
		CurrentPlayer: &playerID,
	}, playerID
}

func TestWatchdog_SettlesAfterDeadlinePlusGrace(t *testing.T) {
	clock := clockwork.NewFakeClock()
	awarder := &recordingAwarder{}
	dog := New(awarder, nil, clock)
	defer dog.Stop()

	room, playerID := activeRoom(clock, auction.AuctionDuration)
	dog.Observe(context.Background(), room)

	// At the deadline itself, the grace period is still running.
	clock.BlockUntil(1)
	clock.Advance(auction.AuctionDuration)
	assert.Never(t, func() bool { return awarder.count() > 0 }, 100*time.Millisecond, 10*time.Millisecond)

	clock.Advance(auction.TimeoutGrace)
	assert.Eventually(t, func() bool { return awarder.count() == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, playerID, awarder.calls[0])
}

func TestWatchdog_DisarmsWhenCursorClears(t *testing.T) {
	clock := clockwork.NewFakeClock()
	awarder := &recordingAwarder{}
	dog := New(awarder, nil, clock)
	defer dog.Stop()

	ctx := context.Background()
	room, _ := activeRoom(clock, auction.AuctionDuration)
	dog.Observe(ctx, room)
	clock.BlockUntil(1)

	// Settlement by a client clears the cursor before the timer fires.
	room.TimerEndsAt = nil
	room.CurrentPlayer = nil
	dog.Observe(ctx, room)

	clock.Advance(auction.AuctionDuration + auction.TimeoutGrace)
	assert.Never(t, func() bool { return awarder.count() > 0 }, 200*time.Millisecond, 10*time.Millisecond)
}

func TestWatchdog_ExtensionReplacesTheTimer(t *testing.T) {
	clock := clockwork.NewFakeClock()
	awarder := &recordingAwarder{}
	dog := New(awarder, nil, clock)
	defer dog.Stop()

	ctx := context.Background()
	room, playerID := activeRoom(clock, auction.AuctionDuration)
	dog.Observe(ctx, room)
	clock.BlockUntil(1)

	// A late bid pushes the deadline; the old timer must not fire.
	clock.Advance(auction.AuctionDuration - time.Second)
	extended := clock.Now().Add(auction.ExtendDuration)
	room.TimerEndsAt = &extended
	dog.Observe(ctx, room)
	clock.BlockUntil(1)

	clock.Advance(2 * time.Second)
	assert.Never(t, func() bool { return awarder.count() > 0 }, 100*time.Millisecond, 10*time.Millisecond)

	clock.Advance(auction.ExtendDuration + auction.TimeoutGrace)
	assert.Eventually(t, func() bool { return awarder.count() == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, playerID, awarder.calls[0])
}

func TestWatchdog_ExpiredDeadlineFiresImmediately(t *testing.T) {
	clock := clockwork.NewFakeClock()
	awarder := &recordingAwarder{}
	dog := New(awarder, nil, clock)
	defer dog.Stop()

	// Restart recovery can observe a deadline already in the past.
	room, _ := activeRoom(clock, -time.Minute)
	dog.Observe(context.Background(), room)

	assert.Eventually(t, func() bool { return awarder.count() == 1 }, time.Second, 10*time.Millisecond)
}

func TestWatchdog_StopCancelsTimers(t *testing.T) {
	clock := clockwork.NewFakeClock()
	awarder := &recordingAwarder{}
	dog := New(awarder, nil, clock)

	room, _ := activeRoom(clock, auction.AuctionDuration)
	dog.Observe(context.Background(), room)
	clock.BlockUntil(1)

	dog.Stop()
	clock.Advance(auction.AuctionDuration + auction.TimeoutGrace)
	assert.Never(t, func() bool { return awarder.count() > 0 }, 200*time.Millisecond, 10*time.Millisecond)
}
