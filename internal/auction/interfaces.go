package auction

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/liveauction/internal/feed"
	"github.com/mcdev12/liveauction/internal/models"
)

// RoomRepository defines what the services need for room rows.
type RoomRepository interface {
	Create(ctx context.Context, room *models.Room) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Room, error)
	// GetDeadline reads the room's current timer deadline. The bid
	// extension rule depends on this being a fresh read inside the bid's
	// transaction, never a client-cached value.
	GetDeadline(ctx context.Context, roomID uuid.UUID) (*time.Time, error)
	// SetAuctionCursor sets both the active-player pointer and the timer
	// deadline in one statement; nil values clear them.
	SetAuctionCursor(ctx context.Context, roomID uuid.UUID, playerID *uuid.UUID, deadline *time.Time) (*models.Room, error)
	UpdateDeadline(ctx context.Context, roomID uuid.UUID, endsAt time.Time) (*models.Room, error)
}

// TeamRepository defines what the services need for team rows.
type TeamRepository interface {
	Create(ctx context.Context, team *models.Team) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Team, error)
	ListByRoom(ctx context.Context, roomID uuid.UUID) ([]models.Team, error)
	// DeductPoints decrements the balance only if it stays non-negative.
	DeductPoints(ctx context.Context, teamID uuid.UUID, amount int) (*models.Team, error)
}

// PlayerRepository defines what the services need for player rows.
type PlayerRepository interface {
	Create(ctx context.Context, player *models.Player) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Player, error)
	// GetByIDForUpdate locks the row for the rest of the transaction so
	// two settlements cannot both observe IN_AUCTION.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Player, error)
	ListByRoom(ctx context.Context, roomID uuid.UUID) ([]models.Player, error)
	ListWaiting(ctx context.Context, roomID uuid.UUID) ([]models.Player, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.PlayerStatus) (*models.Player, error)
	MarkSold(ctx context.Context, id uuid.UUID, teamID uuid.UUID, price int) (*models.Player, error)
}

// BidRepository defines what the services need for the bid log.
type BidRepository interface {
	Create(ctx context.Context, bid *models.Bid) error
	ListByRoom(ctx context.Context, roomID uuid.UUID) ([]models.Bid, error)
	// TopBidForPlayer returns the winning bid: highest amount, earliest
	// bid on a tie. Returns nil with no error when no bid exists.
	TopBidForPlayer(ctx context.Context, roomID, playerID uuid.UUID) (*models.Bid, error)
}

// MessageRepository defines what the services need for the message log.
type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	ListByRoom(ctx context.Context, roomID uuid.UUID, limit int) ([]models.Message, error)
}

// UnitOfWork binds all repositories plus the change feed to a single
// transaction. Feed events buffer until Commit and are dropped on Rollback.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	Rooms() RoomRepository
	Teams() TeamRepository
	Players() PlayerRepository
	Bids() BidRepository
	Messages() MessageRepository
	Feed() feed.Publisher
}

// UnitOfWorkFactory creates units of work.
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}
