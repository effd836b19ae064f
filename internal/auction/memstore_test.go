package auction

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/liveauction/internal/feed"
	"github.com/mcdev12/liveauction/internal/models"
)

// memStore is an in-memory row store shared by every unit of work a test
// creates, standing in for Postgres. Row mutations write through
// immediately; only feed events buffer until Commit, and Rollback drops
// those.
type memStore struct {
	clock clockwork.Clock

	rooms    map[uuid.UUID]*models.Room
	teams    map[uuid.UUID]*models.Team
	players  map[uuid.UUID]*models.Player
	bids     []*models.Bid
	messages []*models.Message

	published []feed.Event
}

func newMemStore(clock clockwork.Clock) *memStore {
	return &memStore{
		clock:   clock,
		rooms:   make(map[uuid.UUID]*models.Room),
		teams:   make(map[uuid.UUID]*models.Team),
		players: make(map[uuid.UUID]*models.Player),
	}
}

func (s *memStore) Create() UnitOfWork {
	return &memUnitOfWork{store: s, publisher: feed.NewTransactionalPublisher(&capturePublisher{store: s})}
}

type capturePublisher struct {
	store *memStore
}

func (p *capturePublisher) Publish(_ context.Context, event feed.Event) error {
	p.store.published = append(p.store.published, event)
	return nil
}

// memUnitOfWork mutates the shared store directly and relies on tests
// being single threaded per transaction. Feed events still buffer and
// flush on commit, mirroring the real implementation.
type memUnitOfWork struct {
	store     *memStore
	publisher *feed.TransactionalPublisher
	active    bool
	committed bool
}

func (u *memUnitOfWork) Begin(ctx context.Context) error {
	u.active = true
	return nil
}

func (u *memUnitOfWork) Commit() error {
	u.active = false
	u.committed = true
	u.publisher.Flush(context.Background())
	return nil
}

func (u *memUnitOfWork) Rollback() error {
	if u.active {
		u.publisher.Discard()
		u.active = false
	}
	return nil
}

func (u *memUnitOfWork) Rooms() RoomRepository       { return &memRoomRepo{u.store} }
func (u *memUnitOfWork) Teams() TeamRepository       { return &memTeamRepo{u.store} }
func (u *memUnitOfWork) Players() PlayerRepository   { return &memPlayerRepo{u.store} }
func (u *memUnitOfWork) Bids() BidRepository         { return &memBidRepo{u.store} }
func (u *memUnitOfWork) Messages() MessageRepository { return &memMessageRepo{u.store} }
func (u *memUnitOfWork) Feed() feed.Publisher        { return u.publisher }

type memRoomRepo struct{ s *memStore }

func (r *memRoomRepo) Create(_ context.Context, room *models.Room) error {
	cp := *room
	cp.CreatedAt = r.s.clock.Now()
	room.CreatedAt = cp.CreatedAt
	r.s.rooms[room.ID] = &cp
	return nil
}

func (r *memRoomRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Room, error) {
	room, ok := r.s.rooms[id]
	if !ok {
		return nil, nil
	}
	cp := *room
	return &cp, nil
}

func (r *memRoomRepo) GetDeadline(_ context.Context, roomID uuid.UUID) (*time.Time, error) {
	room, ok := r.s.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	if room.TimerEndsAt == nil {
		return nil, nil
	}
	t := *room.TimerEndsAt
	return &t, nil
}

func (r *memRoomRepo) SetAuctionCursor(_ context.Context, roomID uuid.UUID, playerID *uuid.UUID, deadline *time.Time) (*models.Room, error) {
	room, ok := r.s.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	room.CurrentPlayer = playerID
	room.TimerEndsAt = deadline
	cp := *room
	return &cp, nil
}

func (r *memRoomRepo) UpdateDeadline(_ context.Context, roomID uuid.UUID, endsAt time.Time) (*models.Room, error) {
	room, ok := r.s.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	room.TimerEndsAt = &endsAt
	cp := *room
	return &cp, nil
}

type memTeamRepo struct{ s *memStore }

func (r *memTeamRepo) Create(_ context.Context, team *models.Team) error {
	cp := *team
	cp.CreatedAt = r.s.clock.Now()
	team.CreatedAt = cp.CreatedAt
	r.s.teams[team.ID] = &cp
	return nil
}

func (r *memTeamRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Team, error) {
	team, ok := r.s.teams[id]
	if !ok {
		return nil, nil
	}
	cp := *team
	return &cp, nil
}

func (r *memTeamRepo) ListByRoom(_ context.Context, roomID uuid.UUID) ([]models.Team, error) {
	var teams []models.Team
	for _, t := range r.s.teams {
		if t.RoomID == roomID {
			teams = append(teams, *t)
		}
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].CreatedAt.Before(teams[j].CreatedAt) })
	return teams, nil
}

func (r *memTeamRepo) DeductPoints(_ context.Context, teamID uuid.UUID, amount int) (*models.Team, error) {
	team, ok := r.s.teams[teamID]
	if !ok {
		return nil, ErrTeamNotFound
	}
	if team.PointBalance < amount {
		return nil, &InsufficientPointsError{Balance: team.PointBalance}
	}
	team.PointBalance -= amount
	cp := *team
	return &cp, nil
}

type memPlayerRepo struct{ s *memStore }

func (r *memPlayerRepo) Create(_ context.Context, player *models.Player) error {
	cp := *player
	cp.CreatedAt = r.s.clock.Now()
	player.CreatedAt = cp.CreatedAt
	r.s.players[player.ID] = &cp
	return nil
}

func (r *memPlayerRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Player, error) {
	player, ok := r.s.players[id]
	if !ok {
		return nil, nil
	}
	cp := *player
	return &cp, nil
}

func (r *memPlayerRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	return r.GetByID(ctx, id)
}

func (r *memPlayerRepo) ListByRoom(_ context.Context, roomID uuid.UUID) ([]models.Player, error) {
	return r.list(roomID, "")
}

func (r *memPlayerRepo) ListWaiting(_ context.Context, roomID uuid.UUID) ([]models.Player, error) {
	return r.list(roomID, models.PlayerStatusWaiting)
}

func (r *memPlayerRepo) list(roomID uuid.UUID, status models.PlayerStatus) ([]models.Player, error) {
	var players []models.Player
	for _, p := range r.s.players {
		if p.RoomID != roomID {
			continue
		}
		if status != "" && p.Status != status {
			continue
		}
		players = append(players, *p)
	}
	sort.Slice(players, func(i, j int) bool {
		if players[i].CreatedAt.Equal(players[j].CreatedAt) {
			return players[i].ID.String() < players[j].ID.String()
		}
		return players[i].CreatedAt.Before(players[j].CreatedAt)
	})
	return players, nil
}

func (r *memPlayerRepo) UpdateStatus(_ context.Context, id uuid.UUID, status models.PlayerStatus) (*models.Player, error) {
	player, ok := r.s.players[id]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	player.Status = status
	cp := *player
	return &cp, nil
}

func (r *memPlayerRepo) MarkSold(_ context.Context, id uuid.UUID, teamID uuid.UUID, price int) (*models.Player, error) {
	player, ok := r.s.players[id]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	player.Status = models.PlayerStatusSold
	player.TeamID = &teamID
	player.SoldPrice = &price
	cp := *player
	return &cp, nil
}

type memBidRepo struct{ s *memStore }

func (r *memBidRepo) Create(_ context.Context, bid *models.Bid) error {
	cp := *bid
	cp.CreatedAt = r.s.clock.Now()
	bid.CreatedAt = cp.CreatedAt
	r.s.bids = append(r.s.bids, &cp)
	return nil
}

func (r *memBidRepo) ListByRoom(_ context.Context, roomID uuid.UUID) ([]models.Bid, error) {
	var bids []models.Bid
	for _, b := range r.s.bids {
		if b.RoomID == roomID {
			bids = append(bids, *b)
		}
	}
	return bids, nil
}

func (r *memBidRepo) TopBidForPlayer(_ context.Context, roomID, playerID uuid.UUID) (*models.Bid, error) {
	var top *models.Bid
	for _, b := range r.s.bids {
		if b.RoomID != roomID || b.PlayerID != playerID {
			continue
		}
		if top == nil ||
			b.Amount > top.Amount ||
			(b.Amount == top.Amount && b.CreatedAt.Before(top.CreatedAt)) {
			top = b
		}
	}
	if top == nil {
		return nil, nil
	}
	cp := *top
	return &cp, nil
}

type memMessageRepo struct{ s *memStore }

func (r *memMessageRepo) Create(_ context.Context, message *models.Message) error {
	cp := *message
	cp.CreatedAt = r.s.clock.Now()
	message.CreatedAt = cp.CreatedAt
	r.s.messages = append(r.s.messages, &cp)
	return nil
}

func (r *memMessageRepo) ListByRoom(_ context.Context, roomID uuid.UUID, limit int) ([]models.Message, error) {
	var messages []models.Message
	for _, m := range r.s.messages {
		if m.RoomID == roomID {
			messages = append(messages, *m)
		}
	}
	if len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	return messages, nil
}
