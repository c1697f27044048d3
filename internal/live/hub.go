// Package live fans entry changes out to read-only share viewers.
package live

import (
	"encoding/json"
	"sync"

	"github.com/yourorg/habitgrid/internal/logger"
	"github.com/yourorg/habitgrid/internal/models"
)

const subscriberBuffer = 16

// Subscriber receives the JSON-encoded events of one user's calendar.
type Subscriber struct {
	userID   int64
	messages chan []byte
}

// Messages is closed when the subscriber is unregistered or the hub stops.
func (s *Subscriber) Messages() <-chan []byte {
	return s.messages
}

type message struct {
	userID int64
	data   []byte
}

// Hub keeps the share viewers of every user and delivers events to them.
type Hub struct {
	clients    map[int64]map[*Subscriber]bool
	broadcast  chan message
	register   chan *Subscriber
	unregister chan *Subscriber
	quit       chan struct{}
	done       chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex
}

// NewHub starts the hub loop. Call Stop on shutdown.
func NewHub() *Hub {
	h := &Hub{
		clients:    make(map[int64]map[*Subscriber]bool),
		broadcast:  make(chan message, 256),
		register:   make(chan *Subscriber),
		unregister: make(chan *Subscriber),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	defer close(h.done)
	for {
		select {
		case sub := <-h.register:
			h.mu.Lock()
			if h.clients[sub.userID] == nil {
				h.clients[sub.userID] = make(map[*Subscriber]bool)
			}
			h.clients[sub.userID][sub] = true
			n := len(h.clients[sub.userID])
			h.mu.Unlock()
			logger.Debug("share viewer connected", "user_id", sub.userID, "viewers", n)

		case sub := <-h.unregister:
			h.mu.Lock()
			h.remove(sub)
			h.mu.Unlock()
			logger.Debug("share viewer disconnected", "user_id", sub.userID)

		case msg := <-h.broadcast:
			h.mu.Lock()
			for sub := range h.clients[msg.userID] {
				select {
				case sub.messages <- msg.data:
				default:
					// slow viewer, drop it rather than stall the hub
					logger.Warn("dropping slow share viewer", "user_id", msg.userID)
					h.remove(sub)
				}
			}
			h.mu.Unlock()

		case <-h.quit:
			h.mu.Lock()
			for _, subs := range h.clients {
				for sub := range subs {
					close(sub.messages)
				}
			}
			h.clients = make(map[int64]map[*Subscriber]bool)
			h.mu.Unlock()
			return
		}
	}
}

// remove must be called with mu held.
func (h *Hub) remove(sub *Subscriber) {
	subs, ok := h.clients[sub.userID]
	if !ok || !subs[sub] {
		return
	}
	delete(subs, sub)
	close(sub.messages)
	if len(subs) == 0 {
		delete(h.clients, sub.userID)
	}
}

// Subscribe registers a viewer of userID's calendar. It returns nil once the hub is stopped.
func (h *Hub) Subscribe(userID int64) *Subscriber {
	sub := &Subscriber{userID: userID, messages: make(chan []byte, subscriberBuffer)}
	select {
	case h.register <- sub:
		return sub
	case <-h.done:
		return nil
	}
}

// Unsubscribe removes a viewer. Unknown or already removed viewers are ignored.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	if sub == nil {
		return
	}
	select {
	case h.unregister <- sub:
	case <-h.done:
	}
}

// Viewers returns how many viewers are watching userID.
func (h *Hub) Viewers(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Disconnect closes every viewer of userID's calendar, e.g. after its share
// links were revoked. It returns how many viewers were dropped.
func (h *Hub) Disconnect(userID int64) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := len(h.clients[userID])
	for sub := range h.clients[userID] {
		h.remove(sub)
	}
	if n > 0 {
		logger.Info("share viewers disconnected", "user_id", userID, "viewers", n)
	}
	return n
}

// Publish queues an entry change for userID's viewers. It never blocks; when the
// queue is full the event is dropped.
func (h *Hub) Publish(userID int64, event models.EntryEvent) {
	if h.Viewers(userID) == 0 {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		logger.Error("failed to encode live event", "err", err)
		return
	}

	select {
	case h.broadcast <- message{userID: userID, data: data}:
	default:
		logger.Warn("live event queue full, dropping event", "user_id", userID)
	}
}

// Stop closes every subscriber and ends the hub loop.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.quit) })
	<-h.done
}
