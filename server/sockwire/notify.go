package sockwire

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Notice is a table change event delivered to subscribers.
type Notice struct {
	Table   string
	Message string
}

// Hub fans table change notices out to per-connection subscribers. It
// implements engine.Notifier. Delivery is best effort: a subscriber whose
// channel is full misses the notice rather than stalling the writer.
type Hub struct {
	mu     sync.RWMutex
	buffer int
	subs   map[string]map[uuid.UUID]chan Notice
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{
		buffer: buffer,
		subs:   map[string]map[uuid.UUID]chan Notice{},
	}
}

// Register subscribes to change notices for table and returns a handle used
// to unsubscribe.
func (h *Hub) Register(table string) (uuid.UUID, <-chan Notice) {
	table = strings.ToUpper(table)
	id := uuid.New()
	ch := make(chan Notice, h.buffer)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[table] == nil {
		h.subs[table] = map[uuid.UUID]chan Notice{}
	}
	h.subs[table][id] = ch
	return id, ch
}

// Unregister drops the subscription and closes its channel.
func (h *Hub) Unregister(table string, id uuid.UUID) {
	table = strings.ToUpper(table)

	h.mu.Lock()
	defer h.mu.Unlock()
	ch, ok := h.subs[table][id]
	if !ok {
		return
	}
	delete(h.subs[table], id)
	if len(h.subs[table]) == 0 {
		delete(h.subs, table)
	}
	close(ch)
}

// Notify publishes a change notice to every subscriber of table.
func (h *Hub) Notify(table, message string) {
	table = strings.ToUpper(table)
	n := Notice{Table: table, Message: message}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs[table] {
		select {
		case ch <- n:
		default:
		}
	}
}
