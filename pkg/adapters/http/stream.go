package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"
)

type message struct {
	kind string
	data string
}

// StreamManager handles active SSE connections.
// Broadcast never blocks: it is called while the workspace is locked.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[chan message]map[string]bool // channel -> type filter (nil = all)
	logger      *slog.Logger
}

func NewStreamManager(logger *slog.Logger) *StreamManager {
	return &StreamManager{
		subscribers: make(map[chan message]map[string]bool),
		logger:      logger,
	}
}

// Subscribe registers a client interested in the given notification types (nil = all).
func (sm *StreamManager) Subscribe(types map[string]bool) (<-chan message, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan message, 64)
	sm.subscribers[ch] = types

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			delete(sm.subscribers, ch)
			close(ch)
		})
	}
}

// Len returns the number of connected clients.
func (sm *StreamManager) Len() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers)
}

func (sm *StreamManager) Broadcast(kind, data string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch, types := range sm.subscribers {
		if types != nil && !types[kind] {
			continue
		}
		select {
		case ch <- message{kind: kind, data: data}:
		default:
			// Drop message if channel is full (slow client)
			sm.logger.Warn("SSE: Client buffer full, dropping message", "type", kind)
		}
	}
}

// SubscribeEvents handles the GET /events?types=a,b request (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(parseTypes(r.URL.Query().Get("types")))
	defer cancel()
	s.logger.Info("SSE: Client subscribed")

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: Client disconnected")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.kind, msg.data)
			flusher.Flush()
		}
	}
}
