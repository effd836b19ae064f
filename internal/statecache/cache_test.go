package statecache

import (
	"testing"

	"github.com/google/uuid"
	"github.com/mcdev12/liveauction/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_ReplaceAll(t *testing.T) {
	cache := NewCache()
	roomID := uuid.New()

	cache.ReplaceAll(RoomState{
		Room:  &models.Room{ID: roomID, Name: "room"},
		Teams: []models.Team{{ID: uuid.New(), Name: "A"}, {ID: uuid.New(), Name: "B"}},
		Bids:  []models.Bid{{ID: uuid.New(), Amount: 10}},
	})

	snap := cache.Snapshot()
	require.NotNil(t, snap.Room)
	assert.Equal(t, roomID, snap.Room.ID)
	assert.Len(t, snap.Teams, 2)
	assert.Len(t, snap.Bids, 1)

	// A second snapshot installs fresh state.
	cache.ReplaceAll(RoomState{Room: &models.Room{ID: roomID}})
	snap = cache.Snapshot()
	assert.Empty(t, snap.Teams)
	assert.Empty(t, snap.Bids)
}

func TestCache_AppendsDeduplicate(t *testing.T) {
	cache := NewCache()
	bid := models.Bid{ID: uuid.New(), Amount: 100}
	msg := models.Message{ID: uuid.New(), Content: "hi"}

	// Push and poll can deliver the same row; it must land once.
	cache.AddBid(bid)
	cache.AddBid(bid)
	cache.AddMessage(msg)
	cache.AddMessage(msg)

	snap := cache.Snapshot()
	assert.Len(t, snap.Bids, 1)
	assert.Len(t, snap.Messages, 1)
}

func TestCache_UpsertsReplace(t *testing.T) {
	cache := NewCache()
	teamID := uuid.New()
	playerID := uuid.New()

	cache.UpsertTeam(models.Team{ID: teamID, Name: "A", PointBalance: 1000})
	cache.UpsertTeam(models.Team{ID: teamID, Name: "A", PointBalance: 700})
	cache.UpsertPlayer(models.Player{ID: playerID, Status: models.PlayerStatusWaiting})
	cache.UpsertPlayer(models.Player{ID: playerID, Status: models.PlayerStatusSold})

	snap := cache.Snapshot()
	require.Len(t, snap.Teams, 1)
	assert.Equal(t, 700, snap.Teams[0].PointBalance)
	require.Len(t, snap.Players, 1)
	assert.Equal(t, models.PlayerStatusSold, snap.Players[0].Status)
}

func TestCache_MergePoll(t *testing.T) {
	cache := NewCache()
	roomID := uuid.New()
	playerID := uuid.New()
	existing := models.Bid{ID: uuid.New(), Amount: 50}
	cache.AddBid(existing)
	cache.UpsertPlayer(models.Player{ID: playerID, Name: "kept", Status: models.PlayerStatusInAuction})

	fresh := models.Bid{ID: uuid.New(), Amount: 60}
	cache.MergePoll(
		&models.Room{ID: roomID},
		[]models.Team{{ID: uuid.New(), PointBalance: 900}},
		[]models.Player{{ID: playerID, Name: "kept", Status: models.PlayerStatusSold}},
		[]models.Bid{existing, fresh},
		nil,
	)

	snap := cache.Snapshot()
	require.NotNil(t, snap.Room)
	assert.Equal(t, roomID, snap.Room.ID)
	assert.Len(t, snap.Bids, 2)
	// Polled rows replace the cached roster entry in place.
	require.Len(t, snap.Players, 1)
	assert.Equal(t, models.PlayerStatusSold, snap.Players[0].Status)
}

func TestCache_SubscribeCoalesces(t *testing.T) {
	cache := NewCache()
	ch := cache.Subscribe()

	cache.AddBid(models.Bid{ID: uuid.New()})
	cache.AddBid(models.Bid{ID: uuid.New()})
	cache.AddBid(models.Bid{ID: uuid.New()})

	select {
	case <-ch:
	default:
		t.Fatal("expected a pending notification")
	}

	// Duplicate rows change nothing and signal nothing.
	dup := models.Bid{ID: uuid.New()}
	cache.AddBid(dup)
	<-ch
	cache.AddBid(dup)
	select {
	case <-ch:
		t.Fatal("duplicate append should not notify")
	default:
	}
}

func TestCache_SnapshotIsACopy(t *testing.T) {
	cache := NewCache()
	roomID := uuid.New()
	cache.SetRoom(models.Room{ID: roomID, Name: "before"})

	snap := cache.Snapshot()
	snap.Room.Name = "mutated"

	assert.Equal(t, "before", cache.Snapshot().Room.Name)
}
