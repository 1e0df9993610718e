package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/aretw0/slidedeck/internal/logging"
	"github.com/aretw0/slidedeck/pkg/domain"
)

// StreamManager handles active SSE connections, keyed by patient id.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{}
	logger      *slog.Logger
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logging.NewNop(),
	}
}

// Subscribe registers a listener for patientID. The returned func unsubscribes and
// closes the channel.
func (sm *StreamManager) Subscribe(patientID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[patientID]; !ok {
		sm.subscribers[patientID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[patientID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[patientID]; ok {
			if _, ok := subs[ch]; !ok {
				return
			}
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, patientID)
			}
		}
	}
}

// Broadcast sends msg to every subscriber of patientID, dropping it for slow clients.
func (sm *StreamManager) Broadcast(patientID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[patientID] {
		select {
		case ch <- msg:
		default:
			sm.logger.Warn("SSE: Client buffer full, dropping message", "patient_id", patientID)
		}
	}
}

// Subscribers counts the listeners of patientID.
func (sm *StreamManager) Subscribers(patientID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[patientID])
}

// streamEvent is the SSE payload.
type streamEvent struct {
	Type    domain.EventType  `json:"type"`
	SlideID domain.SlideID    `json:"slideId,omitempty"`
	Diff    *domain.SlideDiff `json:"diff,omitempty"`
}

// Hooks returns editor hooks that broadcast slide changes and loads to the patient's
// subscribers.
func (sm *StreamManager) Hooks() domain.LifecycleHooks {
	history := func(_ context.Context, e *domain.HistoryEvent) {
		sm.publish(e.PatientID, streamEvent{Type: e.Type, SlideID: e.SlideID, Diff: e.Diff})
	}
	return domain.LifecycleHooks{
		OnCommit: history,
		OnUndo:   history,
		OnRedo:   history,
		OnLoad: func(_ context.Context, e *domain.PersistenceEvent) {
			if e.Err == nil {
				sm.publish(e.PatientID, streamEvent{Type: e.Type})
			}
		},
	}
}

func (sm *StreamManager) publish(patientID string, ev streamEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		sm.logger.Error("SSE: failed to encode event", "err", err)
		return
	}
	sm.Broadcast(patientID, string(payload))
}

// subscribeEvents handles GET /events?patientId= (SSE).
func (s *Server) subscribeEvents(w http.ResponseWriter, r *http.Request) {
	patientID := r.URL.Query().Get("patientId")
	if patientID == "" {
		writeError(w, http.StatusBadRequest, "patientId is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(patientID)
	defer cancel()
	s.logger.Info("SSE: client subscribed", "patient_id", patientID)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: client disconnected", "patient_id", patientID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
