package auction

import (
	"errors"
	"fmt"
)

// Errors returned by the auction protocol and room services.
var (
	ErrNoPlayersWaiting = errors.New("no players waiting for auction")
	ErrInvalidBidAmount = errors.New("bid amount must be positive")
	ErrRoomNotFound     = errors.New("room not found")
	ErrTeamNotFound     = errors.New("team not found")
	ErrPlayerNotFound   = errors.New("player not found")
	ErrInvalidToken     = errors.New("invalid token")
)

// InsufficientPointsError is returned when a bid exceeds the team's
// current balance. It carries the balance for user display.
type InsufficientPointsError struct {
	Balance int
}

func (e *InsufficientPointsError) Error() string {
	return fmt.Sprintf("insufficient points (balance: %d)", e.Balance)
}
