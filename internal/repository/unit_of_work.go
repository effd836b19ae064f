package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/mcdev12/liveauction/internal/auction"
	"github.com/mcdev12/liveauction/internal/database"
	"github.com/mcdev12/liveauction/internal/feed"
)

// unitOfWork binds every repository plus a buffered feed publisher to one
// pgx transaction. Feed events flush after a successful commit and are
// discarded on rollback.
type unitOfWork struct {
	db        *database.DB
	tx        pgx.Tx
	ctx       context.Context
	publisher *feed.TransactionalPublisher

	roomRepo    *RoomRepository
	teamRepo    *TeamRepository
	playerRepo  *PlayerRepository
	bidRepo     *BidRepository
	messageRepo *MessageRepository
}

// UnitOfWorkFactory creates transaction-scoped units of work over a shared
// database pool and feed publisher.
type UnitOfWorkFactory struct {
	db        *database.DB
	publisher feed.Publisher
}

// NewUnitOfWorkFactory creates the factory. The publisher is the real
// (post-commit) sink; each unit of work wraps it in its own buffer.
func NewUnitOfWorkFactory(db *database.DB, publisher feed.Publisher) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{db: db, publisher: publisher}
}

// Create returns a fresh unit of work. Begin must be called before use.
func (f *UnitOfWorkFactory) Create() auction.UnitOfWork {
	return &unitOfWork{
		db:        f.db,
		publisher: feed.NewTransactionalPublisher(f.publisher),
	}
}

// Begin starts the transaction and binds the repositories to it.
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx
	u.roomRepo = NewRoomRepository(tx)
	u.teamRepo = NewTeamRepository(tx)
	u.playerRepo = NewPlayerRepository(tx)
	u.bidRepo = NewBidRepository(tx)
	u.messageRepo = NewMessageRepository(tx)
	return nil
}

// Commit commits the transaction, then flushes buffered feed events.
// Flush failures are logged inside the publisher; the committed rows are
// authoritative and pollers repair any missed notification.
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	if err := u.tx.Commit(u.ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	u.tx = nil

	u.publisher.Flush(u.ctx)
	return nil
}

// Rollback discards buffered events and rolls the transaction back. Safe
// to call after Commit; it becomes a no-op.
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil
	}

	u.publisher.Discard()

	err := u.tx.Rollback(u.ctx)
	u.tx = nil
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	return nil
}

func (u *unitOfWork) Rooms() auction.RoomRepository       { return u.roomRepo }
func (u *unitOfWork) Teams() auction.TeamRepository       { return u.teamRepo }
func (u *unitOfWork) Players() auction.PlayerRepository   { return u.playerRepo }
func (u *unitOfWork) Bids() auction.BidRepository         { return u.bidRepo }
func (u *unitOfWork) Messages() auction.MessageRepository { return u.messageRepo }
func (u *unitOfWork) Feed() feed.Publisher                { return u.publisher }
