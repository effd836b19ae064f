package gateway

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mcdev12/liveauction/internal/models"
	"github.com/rs/zerolog/log"
)

// ConnectionManager owns the per-room websocket pools and the ephemeral
// presence registry derived from them. Presence exists only as long as a
// connection does; nothing here touches the database.
type ConnectionManager struct {
	roomConnections map[uuid.UUID]map[*Connection]bool
	mu              sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig

	broadcastCh chan BroadcastMessage
}

// Connection is one client socket, tagged with the role its token resolved
// to at upgrade time. Send stays open for the connection's whole lifetime;
// shutdown is signalled through done, so a broadcast that snapshotted the
// pool before a disconnect can still send without panicking.
type Connection struct {
	ID      string
	RoomID  uuid.UUID
	Role    models.Role
	TeamID  *uuid.UUID
	Conn    *websocket.Conn
	Send    chan []byte
	Manager *ConnectionManager

	ConnectedAt time.Time
	LastPing    time.Time

	done     chan struct{}
	doneOnce sync.Once
}

func (c *Connection) shutdown() {
	c.doneOnce.Do(func() { close(c.done) })
}

// ConnectionConfig holds websocket tuning knobs.
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// BroadcastMessage is one frame queued for a room's pool.
type BroadcastMessage struct {
	RoomID uuid.UUID
	Event  *WSEvent
}

// DefaultConnectionConfig returns the standard websocket configuration.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  4096,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// NewConnectionManager creates a manager with empty pools.
func NewConnectionManager(config ConnectionConfig) *ConnectionManager {
	return &ConnectionManager{
		roomConnections: make(map[uuid.UUID]map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		broadcastCh: make(chan BroadcastMessage, 1000),
	}
}

// Start drains the broadcast channel until the context ends.
func (cm *ConnectionManager) Start(ctx context.Context) {
	log.Info().Msg("connection manager started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("connection manager shutting down")
			return
		case message := <-cm.broadcastCh:
			cm.handleBroadcast(message)
		}
	}
}

// UpgradeConnection upgrades the request to a websocket, registers the
// connection under its room, and announces the new presence set.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request, roomID uuid.UUID, role models.Role, teamID *uuid.UUID) error {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade websocket connection")
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:          uuid.New().String(),
		RoomID:      roomID,
		Role:        role,
		TeamID:      teamID,
		Conn:        conn,
		Send:        make(chan []byte, 256),
		Manager:     cm,
		ConnectedAt: time.Now(),
		LastPing:    time.Now(),
		done:        make(chan struct{}),
	}

	cm.registerConnection(connection)

	go connection.writePump()
	go connection.readPump()

	cm.broadcastPresence(roomID)

	log.Info().
		Str("connection_id", connection.ID).
		Str("room_id", roomID.String()).
		Str("role", string(role)).
		Msg("websocket connection established")
	return nil
}

func (cm *ConnectionManager) registerConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.roomConnections[conn.RoomID] == nil {
		cm.roomConnections[conn.RoomID] = make(map[*Connection]bool)
	}
	cm.roomConnections[conn.RoomID][conn] = true
}

func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	cm.mu.Lock()
	removed := false
	if connections, exists := cm.roomConnections[conn.RoomID]; exists {
		if _, exists := connections[conn]; exists {
			delete(connections, conn)
			removed = true
			if len(connections) == 0 {
				delete(cm.roomConnections, conn.RoomID)
			}
		}
	}
	cm.mu.Unlock()

	conn.shutdown()

	if removed {
		cm.broadcastPresence(conn.RoomID)
		log.Info().
			Str("connection_id", conn.ID).
			Str("room_id", conn.RoomID.String()).
			Msg("connection unregistered")
	}
}

// BroadcastToRoom queues an event for every connection in the room. A full
// queue drops the frame; pollers recover anything missed.
func (cm *ConnectionManager) BroadcastToRoom(roomID uuid.UUID, event *WSEvent) {
	select {
	case cm.broadcastCh <- BroadcastMessage{RoomID: roomID, Event: event}:
	default:
		log.Warn().Str("room_id", roomID.String()).Msg("broadcast channel full, dropping message")
	}
}

// Presence returns the room's current presence set, ordered by connect
// time so the list is stable across broadcasts.
func (cm *ConnectionManager) Presence(roomID uuid.UUID) []PresenceEntry {
	cm.mu.RLock()
	connections := cm.roomConnections[roomID]
	conns := make([]*Connection, 0, len(connections))
	for conn := range connections {
		conns = append(conns, conn)
	}
	cm.mu.RUnlock()

	sort.Slice(conns, func(i, j int) bool {
		return conns[i].ConnectedAt.Before(conns[j].ConnectedAt)
	})

	entries := make([]PresenceEntry, 0, len(conns))
	for _, conn := range conns {
		entries = append(entries, PresenceEntry{
			ConnectionID: conn.ID,
			Role:         conn.Role,
			TeamID:       conn.TeamID,
		})
	}
	return entries
}

func (cm *ConnectionManager) broadcastPresence(roomID uuid.UUID) {
	cm.BroadcastToRoom(roomID, NewPresenceSyncEvent(roomID, cm.Presence(roomID)))
}

func (cm *ConnectionManager) handleBroadcast(message BroadcastMessage) {
	cm.mu.RLock()
	connections, exists := cm.roomConnections[message.RoomID]
	if !exists {
		cm.mu.RUnlock()
		return
	}
	targets := make([]*Connection, 0, len(connections))
	for conn := range connections {
		targets = append(targets, conn)
	}
	cm.mu.RUnlock()

	data, err := message.Event.Marshal()
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal event for broadcast")
		return
	}

	for _, conn := range targets {
		select {
		case conn.Send <- data:
		case <-conn.done:
			// Disconnected between the snapshot and the send.
		default:
			// Slow consumer; drop it rather than stall the room.
			log.Warn().
				Str("connection_id", conn.ID).
				Msg("connection send buffer full, closing connection")
			cm.unregisterConnection(conn)
			conn.Conn.Close()
		}
	}
}

// ConnectionCount returns the number of live connections in the room.
func (cm *ConnectionManager) ConnectionCount(roomID uuid.UUID) int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.roomConnections[roomID])
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		c.Manager.unregisterConnection(c)
	}()

	for {
		select {
		case <-c.done:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to write message to websocket")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
			c.LastPing = time.Now()
		}
	}
}

func (c *Connection) readPump() {
	defer func() {
		c.Manager.unregisterConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		c.LastPing = time.Now()
		return nil
	})

	// The socket is push-only; all mutations go through the HTTP API.
	// Reads exist to service pings and detect closure.
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("unexpected websocket close error")
			}
			break
		}
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}
