package auction

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/liveauction/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomService_CreateRoom(t *testing.T) {
	ctx := context.Background()

	newRoomService := func() (*RoomService, *memStore) {
		store := newMemStore(clockwork.NewFakeClock())
		return NewRoomService(store), store
	}

	t.Run("applies defaults", func(t *testing.T) {
		svc, store := newRoomService()

		resp, err := svc.CreateRoom(ctx, CreateRoomRequest{Name: "friday night"})
		require.NoError(t, err)

		assert.Equal(t, DefaultTotalTeams, resp.Room.TotalTeams)
		assert.Equal(t, DefaultBasePoint, resp.Room.BasePoint)
		assert.Equal(t, DefaultMembersPerTeam, resp.Room.MembersPerTeam)
		assert.Len(t, resp.Teams, DefaultTotalTeams)
		assert.Len(t, store.teams, DefaultTotalTeams)

		for i, team := range resp.Teams {
			assert.Equal(t, DefaultBasePoint, team.PointBalance)
			if i == 0 {
				assert.Equal(t, "Team 1", team.Name)
			}
		}
	})

	t.Run("issues distinct tokens", func(t *testing.T) {
		svc, _ := newRoomService()

		resp, err := svc.CreateRoom(ctx, CreateRoomRequest{Name: "tokens", TotalTeams: 2})
		require.NoError(t, err)

		seen := map[string]bool{
			resp.OrganizerToken: true,
		}
		assert.NotEmpty(t, resp.OrganizerToken)
		require.NotEmpty(t, resp.ViewerToken)
		assert.False(t, seen[resp.ViewerToken])
		seen[resp.ViewerToken] = true

		require.Len(t, resp.Credentials, 2)
		for _, cred := range resp.Credentials {
			require.NotEmpty(t, cred.LeaderToken)
			assert.False(t, seen[cred.LeaderToken])
			seen[cred.LeaderToken] = true
		}
	})

	t.Run("uses provided team and player setups", func(t *testing.T) {
		svc, store := newRoomService()

		resp, err := svc.CreateRoom(ctx, CreateRoomRequest{
			Name:       "custom",
			TotalTeams: 2,
			Teams: []TeamSetup{
				{Name: "Crows", LeaderName: "alice"},
			},
			Players: []PlayerSetup{
				{Name: "midlaner", Tier: "S", MainPosition: "MID"},
				{Name: ""},
			},
		})
		require.NoError(t, err)

		assert.Equal(t, "Crows", resp.Teams[0].Name)
		assert.Equal(t, "alice", resp.Teams[0].LeaderName)
		assert.Equal(t, "Team 2", resp.Teams[1].Name)

		// Blank player names are dropped.
		assert.Len(t, store.players, 1)
		for _, p := range store.players {
			assert.Equal(t, models.PlayerStatusWaiting, p.Status)
			assert.Equal(t, "S", p.Tier)
		}
	})

	t.Run("rejects more team names than teams", func(t *testing.T) {
		svc, _ := newRoomService()

		_, err := svc.CreateRoom(ctx, CreateRoomRequest{
			Name:       "overflow",
			TotalTeams: 1,
			Teams:      []TeamSetup{{Name: "a"}, {Name: "b"}},
		})
		assert.Error(t, err)
	})

	t.Run("rejects an empty name", func(t *testing.T) {
		svc, _ := newRoomService()

		_, err := svc.CreateRoom(ctx, CreateRoomRequest{})
		assert.Error(t, err)
	})
}

func TestRoomService_Snapshots(t *testing.T) {
	ctx := context.Background()
	store := newMemStore(clockwork.NewFakeClock())
	svc := NewRoomService(store)

	resp, err := svc.CreateRoom(ctx, CreateRoomRequest{
		Name:       "snapshot room",
		TotalTeams: 2,
		Players:    []PlayerSetup{{Name: "p1"}, {Name: "p2"}},
	})
	require.NoError(t, err)
	roomID := resp.Room.ID

	t.Run("full snapshot carries everything", func(t *testing.T) {
		snap, err := svc.GetSnapshot(ctx, roomID)
		require.NoError(t, err)

		assert.Equal(t, roomID, snap.Room.ID)
		assert.Len(t, snap.Teams, 2)
		assert.Len(t, snap.Players, 2)
		assert.Empty(t, snap.Bids)
	})

	t.Run("poll snapshot carries the roster", func(t *testing.T) {
		snap, err := svc.GetPollSnapshot(ctx, roomID)
		require.NoError(t, err)

		assert.Equal(t, roomID, snap.Room.ID)
		assert.Len(t, snap.Teams, 2)
		assert.Len(t, snap.Players, 2)
	})

	t.Run("unknown room yields not found", func(t *testing.T) {
		_, err := svc.GetSnapshot(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrRoomNotFound)
	})
}

func TestRoomService_Authorize(t *testing.T) {
	ctx := context.Background()
	store := newMemStore(clockwork.NewFakeClock())
	svc := NewRoomService(store)

	resp, err := svc.CreateRoom(ctx, CreateRoomRequest{Name: "auth room", TotalTeams: 2})
	require.NoError(t, err)
	roomID := resp.Room.ID

	t.Run("organizer token", func(t *testing.T) {
		role, teamID, err := svc.Authorize(ctx, roomID, resp.OrganizerToken)
		require.NoError(t, err)
		assert.Equal(t, models.RoleOrganizer, role)
		assert.Nil(t, teamID)
	})

	t.Run("viewer token", func(t *testing.T) {
		role, teamID, err := svc.Authorize(ctx, roomID, resp.ViewerToken)
		require.NoError(t, err)
		assert.Equal(t, models.RoleViewer, role)
		assert.Nil(t, teamID)
	})

	t.Run("leader token resolves the team", func(t *testing.T) {
		cred := resp.Credentials[1]
		role, teamID, err := svc.Authorize(ctx, roomID, cred.LeaderToken)
		require.NoError(t, err)
		assert.Equal(t, models.RoleLeader, role)
		require.NotNil(t, teamID)
		assert.Equal(t, cred.TeamID, *teamID)
	})

	t.Run("bad token", func(t *testing.T) {
		_, _, err := svc.Authorize(ctx, roomID, "nope")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("empty token", func(t *testing.T) {
		_, _, err := svc.Authorize(ctx, roomID, "")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unknown room", func(t *testing.T) {
		_, _, err := svc.Authorize(ctx, uuid.New(), resp.OrganizerToken)
		assert.ErrorIs(t, err, ErrRoomNotFound)
	})
}
