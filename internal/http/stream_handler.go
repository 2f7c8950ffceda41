package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/johnjomin/OneVote/internal/metrics"
	"github.com/johnjomin/OneVote/internal/platform/apperr"
)

// @Summary     Live results stream
// @Description Server-Sent Events: a connected event, the current results
// @Description snapshot, a results event per new vote, heartbeats in between.
// @Tags        results
// @Produce     text/event-stream
// @Param       id   path  string  true  "Poll ID"
// @Success     200
// @Failure     404  {object}  errorEnvelope
// @Router      /polls/{id}/stream [get]
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	pollID := chi.URLParam(r, "id")

	// 404 must happen before the stream is established.
	if _, err := h.pollSvc.Get(r.Context(), pollID); err != nil {
		errorResponse(w, r, err)
		return
	}

	fl, ok := w.(http.Flusher)
	if !ok {
		errorResponse(w, r, apperr.Internal("streaming_unsupported", "response writer does not support streaming", nil))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	events, cancel := h.bcast.Subscribe()
	defer cancel()
	metrics.StreamSubscriberOpened()
	defer metrics.StreamSubscriberClosed()

	sendEvent(w, "connected", map[string]string{"pollId": pollID})

	// Immediate snapshot covers whatever was broadcast before this
	// subscriber existed.
	if resp, err := h.resultsSvc.Get(r.Context(), pollID); err == nil {
		sendEvent(w, "results", resultsPayload(resp))
	} else {
		slogLogger.Error("initial stream snapshot failed", "poll_id", pollID, "error", err)
	}
	fl.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case snap, open := <-events:
			if !open {
				return
			}
			if snap.PollID != pollID {
				continue
			}
			sendEvent(w, "results", snap)
			fl.Flush()
		case ts := <-ticker.C:
			sendEvent(w, "heartbeat", map[string]string{"ts": ts.UTC().Format(time.RFC3339)})
			fl.Flush()
		}
	}
}

func sendEvent(w http.ResponseWriter, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slogLogger.Error("marshal stream event", "event", event, "error", err)
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
}
