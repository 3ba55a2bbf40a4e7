package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"scadapulse/internal/infrastructure"
	"scadapulse/pkg/contracts/events"
)

// broadcastQueueSize bounds pending broadcasts; producers never block.
const broadcastQueueSize = 256

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu      sync.RWMutex
	logger  *slog.Logger
	metrics *Metrics

	messagesSent int64
	dropped      int64

	quit    chan struct{}
	stopped chan struct{}
	running bool
}

// NewHub creates a hub. metrics may be nil.
func NewHub(logger *slog.Logger, metrics *Metrics) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, broadcastQueueSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger.With(slog.String("component", "websocket.hub")),
		metrics:    metrics,
		quit:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}
}

// Start runs the hub loop in the background. It is a no-op when running.
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.run()
}

func (h *Hub) run() {
	defer close(h.stopped)
	for {
		select {
		case <-h.quit:
			h.logger.Info("Hub shutting down")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()

			ctx := client.context()
			h.metrics.RecordConnection(ctx)
			h.logger.InfoContext(ctx, "Client registered",
				slog.Int("total_clients", count),
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr))
			h.greet(client)

		case client := <-h.unregister:
			h.remove(client, "normal")

		case message := <-h.broadcast:
			h.fanOut(message)
		}
	}
}

// greet sends the connect message to a new client.
func (h *Hub) greet(client *Client) {
	data, err := json.Marshal(events.WebSocketMessage{
		BaseMessage: events.BaseMessage{
			ID:        uuid.New().String(),
			Type:      events.MessageTypeConnect,
			Timestamp: time.Now().UTC(),
			TraceID:   client.traceID,
		},
		Data: map[string]string{
			"status":    "connected",
			"client_id": client.id,
		},
	})
	if err != nil {
		return
	}
	select {
	case client.send <- data:
	default:
		h.logger.Warn("Failed to send connection message, client buffer full",
			slog.String("client_id", client.id))
	}
}

func (h *Hub) fanOut(message []byte) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	failed := 0
	for _, client := range clients {
		select {
		case client.send <- message:
			h.mu.Lock()
			h.messagesSent++
			h.mu.Unlock()
		default:
			failed++
			h.metrics.RecordDropped(client.context(), "client_buffer_full")
			h.logger.Warn("Client send buffer full, disconnecting",
				slog.String("client_id", client.id))
			h.remove(client, "slow_consumer")
		}
	}
	if failed > 0 {
		h.logger.Warn("Some clients failed to receive broadcast",
			slog.Int("success_count", len(clients)-failed),
			slog.Int("fail_count", failed))
	}
}

// remove drops client and closes its send channel once.
func (h *Hub) remove(client *Client, reason string) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	close(client.send)
	count := len(h.clients)
	h.mu.Unlock()

	ctx := client.context()
	lifetime := time.Since(client.connectedAt)
	h.metrics.RecordDisconnection(ctx, lifetime, reason)
	h.logger.InfoContext(ctx, "Client unregistered",
		slog.Int("total_clients", count),
		slog.String("client_id", client.id),
		slog.String("reason", reason),
		slog.Duration("connection_duration", lifetime))
}

// Broadcast queues a typed message for every client. It never blocks;
// messages are dropped when the queue is full.
func (h *Hub) Broadcast(messageType events.MessageType, data interface{}) {
	h.BroadcastWithTrace(messageType, data, "")
}

// BroadcastWithTrace is Broadcast carrying a trace ID.
func (h *Hub) BroadcastWithTrace(messageType events.MessageType, data interface{}, traceID string) {
	message, err := json.Marshal(events.WebSocketMessage{
		BaseMessage: events.BaseMessage{
			ID:        uuid.New().String(),
			Type:      messageType,
			Timestamp: time.Now().UTC(),
			TraceID:   traceID,
		},
		Data: data,
	})
	if err != nil {
		h.logger.Error("Error marshaling message",
			slog.String("error", err.Error()),
			slog.String("message_type", string(messageType)))
		return
	}

	ctx := context.Background()
	if traceID != "" {
		ctx = infrastructure.WithTraceID(ctx, traceID)
	}
	select {
	case h.broadcast <- message:
		h.metrics.RecordBroadcast(ctx, string(messageType), h.ClientCount())
	default:
		h.mu.Lock()
		h.dropped++
		h.mu.Unlock()
		h.metrics.RecordDropped(ctx, "broadcast_queue_full")
		h.logger.WarnContext(ctx, "Broadcast queue full, message dropped",
			slog.String("message_type", string(messageType)))
	}
}

// BroadcastRunSnapshot pushes the latest state of a run.
func (h *Hub) BroadcastRunSnapshot(snap events.RunSnapshot) {
	h.Broadcast(events.MessageTypeRunSnapshot, snap)
}

// Register adds a client.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.quit:
	}
}

// Unregister removes a client.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stats returns hub counters for the health endpoint.
func (h *Hub) Stats() map[string]interface{} {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return map[string]interface{}{
		"active_clients":  len(h.clients),
		"messages_sent":   h.messagesSent,
		"dropped":         h.dropped,
		"broadcast_queue": len(h.broadcast),
	}
}

// Stop gracefully stops the hub and disconnects every client.
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()

	close(h.quit)
	<-h.stopped

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}
