package auction

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/liveauction/internal/feed"
	"github.com/mcdev12/liveauction/internal/models"
	"github.com/rs/zerolog/log"
)

// Protocol timing and bidding constants.
const (
	// AuctionDuration is the countdown started by a draw.
	AuctionDuration = 30 * time.Second
	// ExtendThreshold: a bid landing with less than this remaining
	// triggers an extension.
	ExtendThreshold = 5 * time.Second
	// ExtendDuration is the new remaining time after an extension.
	ExtendDuration = 5 * time.Second
	// BidStep is the minimum increment the UI suggests over the current
	// highest bid. The protocol itself accepts any amount within balance.
	BidStep = 10
	// PollInterval is the sync layer's fallback poll cadence.
	PollInterval = 3 * time.Second
	// TimeoutGrace is added to the local deadline before the watchdog
	// fires, absorbing clock skew and a late extension in flight.
	TimeoutGrace = 800 * time.Millisecond

	systemSenderName = "System"
	noticeSenderName = "Organizer"
)

// MessageHistoryLimit caps how much chat history a snapshot carries.
const MessageHistoryLimit = 200

// Service implements the auction protocol: draw, bid, award, skip, and the
// chat/notice side band. Every operation runs inside a single transaction;
// partial application is never visible.
type Service struct {
	uowFactory UnitOfWorkFactory
	clock      clockwork.Clock
	pick       func(n int) int
}

// NewService creates the protocol service.
func NewService(uowFactory UnitOfWorkFactory, clock clockwork.Clock) *Service {
	return &Service{
		uowFactory: uowFactory,
		clock:      clock,
		pick:       rand.IntN,
	}
}

// Draw selects a random WAITING player, moves it to IN_AUCTION, and starts
// the room countdown. Fails with ErrNoPlayersWaiting when the pool is empty.
func (s *Service) Draw(ctx context.Context, roomID uuid.UUID) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	waiting, err := uow.Players().ListWaiting(ctx, roomID)
	if err != nil {
		return fmt.Errorf("failed to list waiting players: %w", err)
	}
	if len(waiting) == 0 {
		return ErrNoPlayersWaiting
	}

	player := waiting[s.pick(len(waiting))]

	updated, err := uow.Players().UpdateStatus(ctx, player.ID, models.PlayerStatusInAuction)
	if err != nil {
		return fmt.Errorf("failed to move player into auction: %w", err)
	}

	deadline := s.clock.Now().Add(AuctionDuration)
	room, err := uow.Rooms().SetAuctionCursor(ctx, roomID, &player.ID, &deadline)
	if err != nil {
		return fmt.Errorf("failed to start room timer: %w", err)
	}

	uow.Feed().Publish(ctx, feed.NewEvent(roomID, feed.TablePlayers, feed.OpUpdate, updated))
	uow.Feed().Publish(ctx, feed.NewEvent(roomID, feed.TableRooms, feed.OpUpdate, room))

	content := fmt.Sprintf("Auction started for %s! (%.0fs)", player.Name, AuctionDuration.Seconds())
	if err := s.systemMessage(ctx, uow, roomID, content); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit draw: %w", err)
	}

	log.Info().
		Str("room_id", roomID.String()).
		Str("player_id", player.ID.String()).
		Time("deadline", deadline).
		Msg("player drawn")
	return nil
}

// PlaceBid appends a bid for the team after checking its balance. The
// balance is not deducted here; deduction happens at award time. A bid
// landing inside the extension window pushes the deadline to now + 5s,
// based on the deadline read inside this transaction.
func (s *Service) PlaceBid(ctx context.Context, roomID, playerID, teamID uuid.UUID, amount int) error {
	if amount <= 0 {
		return ErrInvalidBidAmount
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	team, err := uow.Teams().GetByID(ctx, teamID)
	if err != nil {
		return fmt.Errorf("failed to get team: %w", err)
	}
	if team == nil {
		return ErrTeamNotFound
	}
	if team.PointBalance < amount {
		return &InsufficientPointsError{Balance: team.PointBalance}
	}

	bid := &models.Bid{
		ID:       uuid.New(),
		RoomID:   roomID,
		PlayerID: playerID,
		TeamID:   teamID,
		Amount:   amount,
	}
	if err := uow.Bids().Create(ctx, bid); err != nil {
		return fmt.Errorf("failed to record bid: %w", err)
	}
	uow.Feed().Publish(ctx, feed.NewEvent(roomID, feed.TableBids, feed.OpInsert, bid))

	// Extension check against the deadline as stored right now, so a
	// stale client value can never overwrite a newer extension.
	deadline, err := uow.Rooms().GetDeadline(ctx, roomID)
	if err != nil {
		return fmt.Errorf("failed to read room deadline: %w", err)
	}
	if deadline != nil {
		now := s.clock.Now()
		remaining := deadline.Sub(now)
		if remaining > 0 && remaining < ExtendThreshold {
			room, err := uow.Rooms().UpdateDeadline(ctx, roomID, now.Add(ExtendDuration))
			if err != nil {
				return fmt.Errorf("failed to extend deadline: %w", err)
			}
			uow.Feed().Publish(ctx, feed.NewEvent(roomID, feed.TableRooms, feed.OpUpdate, room))
			log.Info().
				Str("room_id", roomID.String()).
				Dur("remaining", remaining).
				Msg("deadline extended by late bid")
		}
	}

	content := fmt.Sprintf("%s bid %dP!", team.Name, amount)
	if err := s.systemMessage(ctx, uow, roomID, content); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit bid: %w", err)
	}

	log.Info().
		Str("room_id", roomID.String()).
		Str("team_id", teamID.String()).
		Int("amount", amount).
		Msg("bid placed")
	return nil
}

// Award settles the active auction for the player. Idempotent: when the
// player is no longer IN_AUCTION this is a no-op. The player row is locked
// for the transaction so two concurrent settlements cannot both win the
// status check. With no bids the player returns to WAITING; otherwise the
// highest bid wins (earliest bid on a tie), the player is SOLD, and the
// winning team's balance is decremented in the same transaction.
func (s *Service) Award(ctx context.Context, roomID, playerID uuid.UUID) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	player, err := uow.Players().GetByIDForUpdate(ctx, playerID)
	if err != nil {
		return fmt.Errorf("failed to get player: %w", err)
	}
	if player == nil || player.Status != models.PlayerStatusInAuction {
		// Already settled (or never started); nothing to do.
		return nil
	}

	top, err := uow.Bids().TopBidForPlayer(ctx, roomID, playerID)
	if err != nil {
		return fmt.Errorf("failed to find winning bid: %w", err)
	}

	if top == nil {
		updated, err := uow.Players().UpdateStatus(ctx, playerID, models.PlayerStatusWaiting)
		if err != nil {
			return fmt.Errorf("failed to return player to waiting: %w", err)
		}
		uow.Feed().Publish(ctx, feed.NewEvent(roomID, feed.TablePlayers, feed.OpUpdate, updated))

		if err := s.clearCursor(ctx, uow, roomID); err != nil {
			return err
		}
		content := fmt.Sprintf("No bidders. %s goes back to the pool.", player.Name)
		if err := s.systemMessage(ctx, uow, roomID, content); err != nil {
			return err
		}
		if err := uow.Commit(); err != nil {
			return fmt.Errorf("failed to commit award: %w", err)
		}
		log.Info().
			Str("room_id", roomID.String()).
			Str("player_id", playerID.String()).
			Msg("auction ended with no bids")
		return nil
	}

	sold, err := uow.Players().MarkSold(ctx, playerID, top.TeamID, top.Amount)
	if err != nil {
		return fmt.Errorf("failed to mark player sold: %w", err)
	}
	uow.Feed().Publish(ctx, feed.NewEvent(roomID, feed.TablePlayers, feed.OpUpdate, sold))

	team, err := uow.Teams().DeductPoints(ctx, top.TeamID, top.Amount)
	if err != nil {
		return fmt.Errorf("failed to deduct points: %w", err)
	}
	uow.Feed().Publish(ctx, feed.NewEvent(roomID, feed.TableTeams, feed.OpUpdate, team))

	if err := s.clearCursor(ctx, uow, roomID); err != nil {
		return err
	}

	content := fmt.Sprintf("%s → %s (sold for %dP!)", player.Name, team.Name, top.Amount)
	if err := s.systemMessage(ctx, uow, roomID, content); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit award: %w", err)
	}

	log.Info().
		Str("room_id", roomID.String()).
		Str("player_id", playerID.String()).
		Str("team_id", team.ID.String()).
		Int("price", top.Amount).
		Msg("player sold")
	return nil
}

// Skip returns the player to WAITING and stops the countdown. No status
// guard: callers only invoke this while the player is IN_AUCTION. Existing
// bids remain as history but have no further effect.
func (s *Service) Skip(ctx context.Context, roomID, playerID uuid.UUID) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	player, err := uow.Players().GetByID(ctx, playerID)
	if err != nil {
		return fmt.Errorf("failed to get player: %w", err)
	}
	if player == nil {
		return ErrPlayerNotFound
	}

	updated, err := uow.Players().UpdateStatus(ctx, playerID, models.PlayerStatusWaiting)
	if err != nil {
		return fmt.Errorf("failed to return player to waiting: %w", err)
	}
	uow.Feed().Publish(ctx, feed.NewEvent(roomID, feed.TablePlayers, feed.OpUpdate, updated))

	if err := s.clearCursor(ctx, uow, roomID); err != nil {
		return err
	}

	if err := s.systemMessage(ctx, uow, roomID, fmt.Sprintf("Skipped %s.", player.Name)); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit skip: %w", err)
	}

	log.Info().
		Str("room_id", roomID.String()).
		Str("player_id", playerID.String()).
		Msg("player skipped")
	return nil
}

// SendChat appends a participant chat message.
func (s *Service) SendChat(ctx context.Context, roomID uuid.UUID, senderName, content string) error {
	return s.appendMessage(ctx, roomID, senderName, models.SenderRoleLeader, content)
}

// SendNotice appends an organizer broadcast.
func (s *Service) SendNotice(ctx context.Context, roomID uuid.UUID, content string) error {
	return s.appendMessage(ctx, roomID, noticeSenderName, models.SenderRoleNotice, content)
}

func (s *Service) appendMessage(ctx context.Context, roomID uuid.UUID, senderName string, role models.SenderRole, content string) error {
	if content == "" {
		return fmt.Errorf("message content must not be empty")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	msg := &models.Message{
		ID:         uuid.New(),
		RoomID:     roomID,
		SenderName: senderName,
		SenderRole: role,
		Content:    content,
	}
	if err := uow.Messages().Create(ctx, msg); err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	uow.Feed().Publish(ctx, feed.NewEvent(roomID, feed.TableMessages, feed.OpInsert, msg))

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit message: %w", err)
	}
	return nil
}

// clearCursor clears the room's deadline and active-player pointer. Always
// the final mutation of settlement and skip.
func (s *Service) clearCursor(ctx context.Context, uow UnitOfWork, roomID uuid.UUID) error {
	room, err := uow.Rooms().SetAuctionCursor(ctx, roomID, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to clear room auction cursor: %w", err)
	}
	uow.Feed().Publish(ctx, feed.NewEvent(roomID, feed.TableRooms, feed.OpUpdate, room))
	return nil
}

func (s *Service) systemMessage(ctx context.Context, uow UnitOfWork, roomID uuid.UUID, content string) error {
	msg := &models.Message{
		ID:         uuid.New(),
		RoomID:     roomID,
		SenderName: systemSenderName,
		SenderRole: models.SenderRoleSystem,
		Content:    content,
	}
	if err := uow.Messages().Create(ctx, msg); err != nil {
		return fmt.Errorf("failed to append system message: %w", err)
	}
	uow.Feed().Publish(ctx, feed.NewEvent(roomID, feed.TableMessages, feed.OpInsert, msg))
	return nil
}
