package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/oapi-codegen/runtime"

	"github.com/aretw0/genui/internal/logging"
	"github.com/aretw0/genui/pkg/domain"
)

// Event is one server-sent event.
type Event struct {
	Name string
	Data string
}

// StreamManager fans events out to the SSE connections of each
// conversation. It implements ports.EffectSink.
type StreamManager struct {
	logger      *slog.Logger
	mu          sync.RWMutex
	subscribers map[string]map[chan<- Event]struct{} // conversation ID -> channels
}

// NewStreamManager creates a manager. A nil logger discards.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StreamManager{
		logger:      logger,
		subscribers: make(map[string]map[chan<- Event]struct{}),
	}
}

func (sm *StreamManager) Subscribe(id string) (<-chan Event, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan Event, 10)
	if _, ok := sm.subscribers[id]; !ok {
		sm.subscribers[id] = make(map[chan<- Event]struct{})
	}
	sm.subscribers[id][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[id]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, id)
			}
		}
	}
}

// Broadcast delivers ev to every subscriber of id. Slow clients lose the
// event rather than block the sender.
func (sm *StreamManager) Broadcast(id string, ev Event) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[id] {
		select {
		case ch <- ev:
		default:
			sm.logger.Warn("SSE: client buffer full, dropping event", "conversation_id", id, "event", ev.Name)
		}
	}
}

// Trigger implements ports.EffectSink.
func (sm *StreamManager) Trigger(ctx context.Context, conversationID string, effect domain.Effect) error {
	data, err := json.Marshal(map[string]domain.Effect{"effect": effect})
	if err != nil {
		return err
	}
	sm.Broadcast(conversationID, Event{Name: "effect", Data: string(data)})
	return nil
}

// watchFilter selects diff fields by group name.
type watchFilter map[string]bool

func (f watchFilter) keep(d *domain.SnapshotDiff) bool {
	if len(f) == 0 {
		return true
	}
	if f["messages"] && (len(d.Appended) > 0 || len(d.Replaced) > 0 || d.Reset) {
		return true
	}
	if f["streaming"] && d.Streaming != nil {
		return true
	}
	if f["status"] && (d.Loading != nil || d.EditMode != nil || d.Selected != nil) {
		return true
	}
	return false
}

// subscribeEvents streams the conversation: one full "snapshot" event,
// then a "diff" per change, interleaved with "effect" events. Snapshots
// published faster than the client reads are coalesced, so a diff may span
// several changes but never skips one.
func (s *Server) subscribeEvents(w http.ResponseWriter, r *http.Request) {
	id, err := conversationID(r)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	var watch string
	if err := runtime.BindQueryParameter("form", true, false, "watch", r.URL.Query(), &watch); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	filter := watchFilter{}
	for _, f := range strings.Split(watch, ",") {
		if f = strings.TrimSpace(f); f != "" {
			filter[f] = true
		}
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	var (
		mu     sync.Mutex
		latest *domain.Snapshot
		wake   = make(chan struct{}, 1)
	)
	unsubscribe, err := s.svc.Subscribe(r.Context(), id, func(snap domain.Snapshot) {
		mu.Lock()
		latest = &snap
		mu.Unlock()
		select {
		case wake <- struct{}{}:
		default:
		}
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	defer unsubscribe()

	effects, cancel := s.streams.Subscribe(id)
	defer cancel()

	sent, err := s.svc.Snapshot(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	write := func(name string, v any) {
		data, err := json.Marshal(v)
		if err != nil {
			s.logger.Warn("SSE: encode failed", "err", err)
			return
		}
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data)
		flusher.Flush()
	}

	fmt.Fprint(w, "event: ping\ndata: connected\n\n")
	write("snapshot", domain.Diff(nil, &sent))
	s.logger.Info("SSE: client subscribed", "conversation_id", id)

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: client disconnected", "conversation_id", id)
			return
		case ev, ok := <-effects:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Name, ev.Data)
			flusher.Flush()
		case <-wake:
			mu.Lock()
			next := latest
			mu.Unlock()
			if next == nil {
				continue
			}
			diff := domain.Diff(&sent, next)
			sent = *next
			if diff != nil && filter.keep(diff) {
				write("diff", diff)
			}
		}
	}
}
