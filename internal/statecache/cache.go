package statecache

import (
	"sync"

	"github.com/google/uuid"
	"github.com/mcdev12/liveauction/internal/models"
)

// RoomState is a point-in-time copy of everything a client renders.
type RoomState struct {
	Room     *models.Room     `json:"room"`
	Teams    []models.Team    `json:"teams"`
	Players  []models.Player  `json:"players"`
	Bids     []models.Bid     `json:"bids"`
	Messages []models.Message `json:"messages"`
}

// Cache is an observable in-memory mirror of one room. Row upserts are
// keyed by ID and appends are deduplicated, so applying the same change
// twice, or a push racing a poll, converges to the same state.
type Cache struct {
	mu sync.RWMutex

	room      *models.Room
	teams     map[uuid.UUID]models.Team
	teamIDs   []uuid.UUID
	players   map[uuid.UUID]models.Player
	playerIDs []uuid.UUID
	bids      []models.Bid
	bidSeen   map[uuid.UUID]bool
	messages  []models.Message
	msgSeen   map[uuid.UUID]bool

	subscribers []chan struct{}
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{
		teams:   make(map[uuid.UUID]models.Team),
		players: make(map[uuid.UUID]models.Player),
		bidSeen: make(map[uuid.UUID]bool),
		msgSeen: make(map[uuid.UUID]bool),
	}
}

// ReplaceAll installs a full snapshot, dropping prior state. Append logs
// keep their dedupe sets rebuilt from the snapshot.
func (c *Cache) ReplaceAll(state RoomState) {
	c.mu.Lock()

	c.room = state.Room
	c.teams = make(map[uuid.UUID]models.Team, len(state.Teams))
	c.teamIDs = c.teamIDs[:0]
	for _, t := range state.Teams {
		c.teams[t.ID] = t
		c.teamIDs = append(c.teamIDs, t.ID)
	}
	c.players = make(map[uuid.UUID]models.Player, len(state.Players))
	c.playerIDs = c.playerIDs[:0]
	for _, p := range state.Players {
		c.players[p.ID] = p
		c.playerIDs = append(c.playerIDs, p.ID)
	}
	c.bids = append(c.bids[:0], state.Bids...)
	c.bidSeen = make(map[uuid.UUID]bool, len(state.Bids))
	for _, b := range state.Bids {
		c.bidSeen[b.ID] = true
	}
	c.messages = append(c.messages[:0], state.Messages...)
	c.msgSeen = make(map[uuid.UUID]bool, len(state.Messages))
	for _, m := range state.Messages {
		c.msgSeen[m.ID] = true
	}

	c.mu.Unlock()
	c.notify()
}

// MergePoll applies a poll payload: upserts for room, teams, and players,
// dedup append for bids and messages.
func (c *Cache) MergePoll(room *models.Room, teams []models.Team, players []models.Player, bids []models.Bid, messages []models.Message) {
	c.mu.Lock()

	if room != nil {
		c.room = room
	}
	for _, t := range teams {
		c.upsertTeamLocked(t)
	}
	for _, p := range players {
		c.upsertPlayerLocked(p)
	}
	for _, b := range bids {
		c.appendBidLocked(b)
	}
	for _, m := range messages {
		c.appendMessageLocked(m)
	}

	c.mu.Unlock()
	c.notify()
}

// SetRoom replaces the room row.
func (c *Cache) SetRoom(room models.Room) {
	c.mu.Lock()
	c.room = &room
	c.mu.Unlock()
	c.notify()
}

// UpsertTeam inserts or replaces one team row.
func (c *Cache) UpsertTeam(team models.Team) {
	c.mu.Lock()
	c.upsertTeamLocked(team)
	c.mu.Unlock()
	c.notify()
}

// UpsertPlayer inserts or replaces one player row.
func (c *Cache) UpsertPlayer(player models.Player) {
	c.mu.Lock()
	c.upsertPlayerLocked(player)
	c.mu.Unlock()
	c.notify()
}

// AddBid appends a bid unless its ID is already present.
func (c *Cache) AddBid(bid models.Bid) {
	c.mu.Lock()
	added := c.appendBidLocked(bid)
	c.mu.Unlock()
	if added {
		c.notify()
	}
}

// AddMessage appends a message unless its ID is already present.
func (c *Cache) AddMessage(message models.Message) {
	c.mu.Lock()
	added := c.appendMessageLocked(message)
	c.mu.Unlock()
	if added {
		c.notify()
	}
}

func (c *Cache) upsertTeamLocked(team models.Team) {
	if _, exists := c.teams[team.ID]; !exists {
		c.teamIDs = append(c.teamIDs, team.ID)
	}
	c.teams[team.ID] = team
}

func (c *Cache) upsertPlayerLocked(player models.Player) {
	if _, exists := c.players[player.ID]; !exists {
		c.playerIDs = append(c.playerIDs, player.ID)
	}
	c.players[player.ID] = player
}

func (c *Cache) appendBidLocked(bid models.Bid) bool {
	if c.bidSeen[bid.ID] {
		return false
	}
	c.bidSeen[bid.ID] = true
	c.bids = append(c.bids, bid)
	return true
}

func (c *Cache) appendMessageLocked(message models.Message) bool {
	if c.msgSeen[message.ID] {
		return false
	}
	c.msgSeen[message.ID] = true
	c.messages = append(c.messages, message)
	return true
}

// Snapshot returns a copy of the current state, safe to read without
// coordination.
func (c *Cache) Snapshot() RoomState {
	c.mu.RLock()
	defer c.mu.RUnlock()

	state := RoomState{
		Teams:    make([]models.Team, 0, len(c.teamIDs)),
		Players:  make([]models.Player, 0, len(c.playerIDs)),
		Bids:     append([]models.Bid(nil), c.bids...),
		Messages: append([]models.Message(nil), c.messages...),
	}
	if c.room != nil {
		room := *c.room
		state.Room = &room
	}
	for _, id := range c.teamIDs {
		state.Teams = append(state.Teams, c.teams[id])
	}
	for _, id := range c.playerIDs {
		state.Players = append(state.Players, c.players[id])
	}
	return state
}

// Subscribe returns a channel that receives a signal after every change.
// Signals coalesce; a slow reader sees at least one.
func (c *Cache) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	c.mu.Lock()
	c.subscribers = append(c.subscribers, ch)
	c.mu.Unlock()
	return ch
}

func (c *Cache) notify() {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, ch := range c.subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
