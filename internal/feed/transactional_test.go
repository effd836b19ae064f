package feed

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	events []Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event Event) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func TestTransactionalPublisher(t *testing.T) {
	ctx := context.Background()
	roomID := uuid.New()

	t.Run("buffers until flush", func(t *testing.T) {
		inner := &recordingPublisher{}
		pub := NewTransactionalPublisher(inner)

		require.NoError(t, pub.Publish(ctx, NewEvent(roomID, TableBids, OpInsert, nil)))
		require.NoError(t, pub.Publish(ctx, NewEvent(roomID, TableRooms, OpUpdate, nil)))
		assert.Empty(t, inner.events)
		assert.Equal(t, 2, pub.Pending())

		pub.Flush(ctx)
		assert.Len(t, inner.events, 2)
		assert.Equal(t, 0, pub.Pending())
	})

	t.Run("flush preserves order", func(t *testing.T) {
		inner := &recordingPublisher{}
		pub := NewTransactionalPublisher(inner)

		first := NewEvent(roomID, TableBids, OpInsert, nil)
		second := NewEvent(roomID, TableMessages, OpInsert, nil)
		require.NoError(t, pub.Publish(ctx, first))
		require.NoError(t, pub.Publish(ctx, second))

		pub.Flush(ctx)
		require.Len(t, inner.events, 2)
		assert.Equal(t, first.ID, inner.events[0].ID)
		assert.Equal(t, second.ID, inner.events[1].ID)
	})

	t.Run("discard drops everything", func(t *testing.T) {
		inner := &recordingPublisher{}
		pub := NewTransactionalPublisher(inner)

		require.NoError(t, pub.Publish(ctx, NewEvent(roomID, TableBids, OpInsert, nil)))
		pub.Discard()

		pub.Flush(ctx)
		assert.Empty(t, inner.events)
	})

	t.Run("flush survives publish failures", func(t *testing.T) {
		inner := &recordingPublisher{err: errors.New("nats down")}
		pub := NewTransactionalPublisher(inner)

		require.NoError(t, pub.Publish(ctx, NewEvent(roomID, TableBids, OpInsert, nil)))
		pub.Flush(ctx)

		assert.Equal(t, 0, pub.Pending())
	})

	t.Run("double flush is a no-op", func(t *testing.T) {
		inner := &recordingPublisher{}
		pub := NewTransactionalPublisher(inner)

		require.NoError(t, pub.Publish(ctx, NewEvent(roomID, TableBids, OpInsert, nil)))
		pub.Flush(ctx)
		pub.Flush(ctx)

		assert.Len(t, inner.events, 1)
	})
}

func TestNewEvent(t *testing.T) {
	roomID := uuid.New()

	t.Run("marshals the row", func(t *testing.T) {
		event := NewEvent(roomID, TableTeams, OpUpdate, map[string]int{"point_balance": 700})
		assert.Equal(t, roomID, event.RoomID)
		assert.JSONEq(t, `{"point_balance":700}`, string(event.Row))
	})

	t.Run("nil row leaves the payload empty", func(t *testing.T) {
		event := NewEvent(roomID, TableRooms, OpUpdate, nil)
		assert.Empty(t, event.Row)
	})
}
