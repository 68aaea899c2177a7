package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/skyfall-games/skyfall/internal/events"
	"github.com/skyfall-games/skyfall/internal/models"
)

// Core is what the gateway needs from the session: every inbound request is
// funneled through these methods onto the authoritative queue. The gateway
// never touches match state directly.
type Core interface {
	Connect() models.ParticipantID
	Disconnect(id models.ParticipantID)
	RequestCharacter(id models.ParticipantID)
	SubmitQTEInput(id models.ParticipantID)
	ReportHazardCollision(id models.ParticipantID)
	StartCountdown()
}

// Manager owns every WebSocket connection for the match and fans outbound
// events to all of them.
type Manager struct {
	core Core

	connections map[*Connection]bool
	mu          sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig

	broadcastCh chan *events.MatchEvent
}

// Connection represents one WebSocket client.
type Connection struct {
	ID          string
	Participant models.ParticipantID
	Conn        *websocket.Conn
	Send        chan []byte
	Manager     *Manager

	ConnectedAt time.Time
	LastPing    time.Time
}

// ConnectionConfig holds configuration for WebSocket connections.
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConnectionConfig returns default WebSocket configuration.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// Allow all origins in development - restrict in production
			return true
		},
	}
}

// NewManager creates a WebSocket connection manager.
func NewManager(config ConnectionConfig) *Manager {
	return &Manager{
		connections: make(map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		broadcastCh: make(chan *events.MatchEvent, 1000),
	}
}

// Bind attaches the session core. Must be called before serving connections.
func (m *Manager) Bind(core Core) {
	m.core = core
}

// Deliver queues an outbound event for broadcast, satisfying events.Sink.
// The session loop calls this after each state change commits; the actual
// writes happen on the broadcast goroutine.
func (m *Manager) Deliver(event *events.MatchEvent) {
	select {
	case m.broadcastCh <- event:
	default:
		log.Warn().Str("event_type", string(event.Type)).Msg("broadcast channel full, dropping event")
	}
}

// Start begins processing outbound broadcasts.
func (m *Manager) Start(ctx context.Context) {
	log.Info().Msg("gateway broadcast loop started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("gateway broadcast loop shutting down")
			return
		case event := <-m.broadcastCh:
			m.handleBroadcast(event)
		}
	}
}

// ServeWS upgrades an HTTP request to a WebSocket connection and registers
// the participant with the session.
func (m *Manager) ServeWS(w http.ResponseWriter, r *http.Request) error {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade WebSocket connection")
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	participant := m.core.Connect()
	connection := &Connection{
		ID:          uuid.New().String(),
		Participant: participant,
		Conn:        conn,
		Send:        make(chan []byte, 256),
		Manager:     m,
		ConnectedAt: time.Now(),
		LastPing:    time.Now(),
	}

	m.register(connection)

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("connection_id", connection.ID).
		Uint64("participant_id", uint64(participant)).
		Msg("WebSocket connection established")
	return nil
}

func (m *Manager) register(conn *Connection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connections[conn] = true
	log.Debug().
		Str("connection_id", conn.ID).
		Int("total_connections", len(m.connections)).
		Msg("connection registered")
}

func (m *Manager) unregister(conn *Connection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.connections[conn]; !ok {
		return
	}
	// Send stays open: the broadcast goroutine may hold a snapshot that still
	// references this connection, and a send on a closed channel would panic
	// it. The write pump exits through the closed socket instead.
	delete(m.connections, conn)
	m.core.Disconnect(conn.Participant)
	log.Info().
		Str("connection_id", conn.ID).
		Uint64("participant_id", uint64(conn.Participant)).
		Msg("connection unregistered")
}

func (m *Manager) handleBroadcast(event *events.MatchEvent) {
	m.mu.RLock()
	targets := make([]*Connection, 0, len(m.connections))
	for conn := range m.connections {
		targets = append(targets, conn)
	}
	m.mu.RUnlock()

	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal event for broadcast")
		return
	}

	for _, conn := range targets {
		select {
		case conn.Send <- data:
		default:
			// Connection is slow/dead, close it
			log.Warn().
				Str("connection_id", conn.ID).
				Uint64("participant_id", uint64(conn.Participant)).
				Msg("connection send buffer full, closing connection")
			m.unregister(conn)
			conn.Conn.Close()
		}
	}
}

// ConnectionCount returns the number of live connections.
func (m *Manager) ConnectionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.connections)
}

// writePump handles sending messages to the WebSocket connection.
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		c.Manager.unregister(c)
	}()

	for {
		select {
		case message := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to write message to WebSocket")
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to send ping")
				return
			}
			c.LastPing = time.Now()
		}
	}
}

// readPump handles reading messages from the WebSocket connection.
func (c *Connection) readPump() {
	defer func() {
		c.Manager.unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		c.LastPing = time.Now()
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("unexpected WebSocket close error")
			}
			break
		}
		c.Manager.dispatchClientMessage(c, message)
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}
