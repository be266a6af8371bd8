package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"ProductsAPI/pkg/kit"
)

const (
	streamItemDelay = 500 * time.Millisecond
	streamRetryMS   = 5000
)

// HandleStream replays the current catalog as server-sent events: a start
// event, one product event per record, then a complete event. Writes stop as
// soon as the client goes away.
func (s *Server) HandleStream(w http.ResponseWriter, r *http.Request) {
	fl, ok := w.(http.Flusher)
	if !ok {
		kit.WriteError(w, r, http.StatusInternalServerError, "streaming unsupported", nil)
		return
	}

	items, err := s.Store.GetAll(r.Context())
	if err != nil {
		s.Log.Error("stream snapshot failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fl.Flush()

	ctx := r.Context()

	if len(items) > 0 {
		s.writeEvent(w, "start", map[string]any{
			"message": "Streaming products started",
			"total":   len(items),
		})
		fl.Flush()

		if !sleepOrDone(ctx, streamItemDelay) {
			return
		}
	}

	for _, p := range items {
		s.writeEvent(w, "product", p)
		fl.Flush()

		if !sleepOrDone(ctx, streamItemDelay) {
			return
		}
	}

	s.writeEvent(w, "complete", map[string]any{
		"message": "Streaming complete",
		"total":   len(items),
	})
	fl.Flush()
}

func (s *Server) writeEvent(w http.ResponseWriter, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.Log.Warn("stream event marshal failed", zap.String("event", event), zap.Error(err))
		return
	}

	fmt.Fprintf(w, "event: %s\ndata: %s\nretry: %d\n\n", event, data, streamRetryMS)
}

func sleepOrDone(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
