// Package realtime provides real-time event broadcasting via WebSocket.
package realtime

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/asgard/sentinel/internal/platform/observability"
	"github.com/gorilla/websocket"
)

// Event represents a real-time event.
type Event struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// heartbeatInterval matches the live-stream contract's {"type":"heartbeat"}
// cadence: a client that hasn't seen one after 11s should treat the
// connection as stalled.
const heartbeatInterval = 10 * time.Second

// Broadcaster manages WebSocket connections and broadcasts events.
type Broadcaster struct {
	clients    map[*websocket.Conn]bool
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	broadcast  chan Event
	raw        chan interface{}
	mu         sync.RWMutex
	done       chan struct{}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in development
	},
}

// NewBroadcaster creates a new event broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		clients:    make(map[*websocket.Conn]bool),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		broadcast:  make(chan Event, 256),
		raw:        make(chan interface{}, 256),
		done:       make(chan struct{}),
	}
}

// Start begins the broadcaster event loop and the periodic heartbeat.
func (b *Broadcaster) Start() {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case conn := <-b.register:
			b.mu.Lock()
			b.clients[conn] = true
			count := len(b.clients)
			b.mu.Unlock()
			observability.UpdateWebSocketConnections(count)
			log.Printf("Client connected. Total clients: %d", count)

		case conn := <-b.unregister:
			b.mu.Lock()
			if _, ok := b.clients[conn]; ok {
				delete(b.clients, conn)
				conn.Close()
			}
			count := len(b.clients)
			b.mu.Unlock()
			observability.UpdateWebSocketConnections(count)
			log.Printf("Client disconnected. Total clients: %d", count)

		case event := <-b.broadcast:
			b.writeToAll(event)

		case payload := <-b.raw:
			b.writeToAll(payload)

		case <-ticker.C:
			b.writeToAll(map[string]string{"type": "heartbeat"})

		case <-b.done:
			return
		}
	}
}

// writeToAll removes failed connections directly under the write lock
// instead of sending them to b.unregister: that channel is only drained by
// the same Start() goroutine that calls writeToAll, so a blocking send here
// would deadlock the broadcaster on the very first write error.
func (b *Broadcaster) writeToAll(payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var failed []*websocket.Conn
	for conn := range b.clients {
		if err := conn.WriteJSON(payload); err != nil {
			log.Printf("Error broadcasting to client: %v", err)
			failed = append(failed, conn)
			continue
		}
		observability.GetMetrics().WebSocketMessages.WithLabelValues("outbound", "broadcast").Inc()
	}
	if len(failed) == 0 {
		return
	}
	for _, conn := range failed {
		delete(b.clients, conn)
		conn.Close()
	}
	count := len(b.clients)
	observability.UpdateWebSocketConnections(count)
	log.Printf("Removed %d stale client(s). Total clients: %d", len(failed), count)
}

// Ack sends an {"type":"ack"} acknowledgement to a single connection in
// response to a client message.
func (b *Broadcaster) Ack(conn *websocket.Conn) {
	if err := conn.WriteJSON(map[string]string{"type": "ack"}); err != nil {
		log.Printf("Error sending ack: %v", err)
	}
}

// Broadcast sends an event to all connected clients.
func (b *Broadcaster) Broadcast(eventType string, payload interface{}) {
	event := Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}

	select {
	case b.broadcast <- event:
	default:
		log.Printf("Broadcast channel full, dropping event: %s", eventType)
	}
}

// Stop stops the broadcaster.
func (b *Broadcaster) Stop() {
	close(b.done)
	b.mu.Lock()
	for conn := range b.clients {
		conn.Close()
		delete(b.clients, conn)
	}
	b.mu.Unlock()
}

// HandleWebSocket handles WebSocket connections for real-time events.
func HandleWebSocket(w http.ResponseWriter, r *http.Request, broadcaster *Broadcaster) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	broadcaster.register <- conn

	// Handle incoming messages (ping/pong)
	go func() {
		defer func() {
			broadcaster.unregister <- conn
		}()

		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			return nil
		})

		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("WebSocket error: %v", err)
				}
				break
			}
			broadcaster.Ack(conn)
		}
	}()

	// Send ping messages
	go func() {
		ticker := time.NewTicker(54 * time.Second)
		defer ticker.Stop()
		defer conn.Close()

		for {
			select {
			case <-ticker.C:
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-broadcaster.done:
				return
			}
		}
	}()
}
