package websocket

import (
	"context"
	"sync"

	"vidsnatch/logger"
	"vidsnatch/types"
)

// AllJobs is the subscription key for clients that follow every job
const AllJobs = "all"

// Hub interface defines the methods for managing WebSocket connections
type Hub interface {
	Run(ctx context.Context)
	BroadcastProgress(msg types.ProgressMessage)
	RegisterClient(client *Client)
	UnregisterClient(client *Client)
	ClientCount(jobID string) int
}

// hub maintains the set of active clients and broadcasts messages to them
type hub struct {
	// Registered clients mapped by job ID
	clients map[string]map[*Client]bool

	// Broadcast channel for sending messages to all clients of a job
	broadcast chan types.ProgressMessage

	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu  sync.RWMutex
	log *logger.Logger
}

// NewHub creates a new WebSocket hub
func NewHub(log *logger.Logger) Hub {
	if log == nil {
		log = logger.Default()
	}
	return &hub{
		clients:    make(map[string]map[*Client]bool),
		broadcast:  make(chan types.ProgressMessage, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        log.Component("websocket"),
	}
}

// Run starts the hub's main event loop and returns when ctx is done
func (h *hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.jobID] == nil {
				h.clients[client.jobID] = make(map[*Client]bool)
			}
			h.clients[client.jobID][client] = true
			h.mu.Unlock()
			h.log.WithField(logger.FieldJobID, client.jobID).Debug("websocket client connected")

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()
			h.log.WithField(logger.FieldJobID, client.jobID).Debug("websocket client disconnected")

		case message := <-h.broadcast:
			h.mu.Lock()
			h.deliver(message.JobID, message)
			h.deliver(AllJobs, message)
			h.mu.Unlock()
		}
	}
}

// deliver sends to every client of key, dropping clients that fall behind.
// Callers hold h.mu.
func (h *hub) deliver(key string, message types.ProgressMessage) {
	for client := range h.clients[key] {
		select {
		case client.send <- message:
		default:
			h.remove(client)
		}
	}
}

// remove drops a client and closes its send channel. Callers hold h.mu.
func (h *hub) remove(client *Client) {
	clients, ok := h.clients[client.jobID]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.clients, client.jobID)
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, clients := range h.clients {
		for client := range clients {
			h.remove(client)
		}
	}
}

// BroadcastProgress queues a message for the job's clients and the "all" feed
func (h *hub) BroadcastProgress(msg types.ProgressMessage) {
	select {
	case h.broadcast <- msg:
	default:
		h.log.WithField(logger.FieldJobID, msg.JobID).Warn("websocket broadcast channel full, dropping message")
	}
}

// RegisterClient registers a new client with the hub
func (h *hub) RegisterClient(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
	}
}

// UnregisterClient unregisters a client from the hub
func (h *hub) UnregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ClientCount returns the number of clients subscribed to jobID
func (h *hub) ClientCount(jobID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[jobID])
}
