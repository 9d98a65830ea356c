// Package events pushes queue change notifications to connected editor
// sessions over websockets so the UI can refresh without polling.
package events

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Source is the subset of the scheduler the hub observes.
type Source interface {
	Subscribe() <-chan struct{}
	Version() uint64
	IsBusy() bool
}

type notice struct {
	Version uint64 `json:"version"`
	IsBusy  bool   `json:"is_busy"`
}

type Hub struct {
	source      Source
	log         zerolog.Logger
	upgrader    websocket.Upgrader
	mu          sync.Mutex
	subscribers map[*websocket.Conn]chan notice
}

func NewHub(source Source, log zerolog.Logger, checkOrigin func(*http.Request) bool) *Hub {
	return &Hub{
		source: source,
		log:    log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		subscribers: make(map[*websocket.Conn]chan notice),
	}
}

// Run fans queue notifications out to every connected session until ctx
// is cancelled.
func (h *Hub) Run(ctx context.Context) {
	updates := h.source.Subscribe()
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-updates:
			h.broadcast(notice{Version: h.source.Version(), IsBusy: h.source.IsBusy()})
		}
	}
}

func (h *Hub) broadcast(n notice) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subscribers {
		select {
		case ch <- n:
		default:
			// Slow consumer, drop the intermediate notice. The next one
			// carries a fresher version anyway.
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, ch := range h.subscribers {
		close(ch)
		_ = conn.Close()
		delete(h.subscribers, conn)
	}
}

// Handle upgrades the request and streams notices until the client
// disconnects.
func (h *Hub) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	ch := make(chan notice, 8)
	h.mu.Lock()
	h.subscribers[conn] = ch
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		if _, ok := h.subscribers[conn]; ok {
			close(ch)
			delete(h.subscribers, conn)
		}
		h.mu.Unlock()
		_ = conn.Close()
	}()

	// Initial notice so a reconnecting client syncs immediately.
	first := notice{Version: h.source.Version(), IsBusy: h.source.IsBusy()}
	if err := conn.WriteJSON(first); err != nil {
		return
	}

	// Reader goroutine detects disconnects; we never expect client frames.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case n, ok := <-ch:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(n); err != nil {
				return
			}
		}
	}
}
