package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/johnjomin/OneVote/internal/broadcast"
	"github.com/johnjomin/OneVote/internal/domain/poll"
	"github.com/johnjomin/OneVote/internal/domain/vote"
	"github.com/johnjomin/OneVote/internal/results"
)

type Handler struct {
	pollSvc    *poll.Service
	voteSvc    *vote.Service
	resultsSvc *results.Service
	bcast      *broadcast.Broadcaster
	heartbeat  time.Duration
	db         *sql.DB
}

func NewRouter(
	pollSvc *poll.Service,
	voteSvc *vote.Service,
	resultsSvc *results.Service,
	bcast *broadcast.Broadcaster,
	heartbeat time.Duration,
	db *sql.DB,
) http.Handler {
	h := &Handler{
		pollSvc:    pollSvc,
		voteSvc:    voteSvc,
		resultsSvc: resultsSvc,
		bcast:      bcast,
		heartbeat:  heartbeat,
		db:         db,
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(RequestLogger)
	r.Use(CORSMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/ready", h.handleReady)
	r.Get("/swagger/*", httpSwagger.WrapHandler)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/polls", func(r chi.Router) {
		// The stream endpoint is long-lived and must stay outside the
		// request timeout.
		r.Get("/{id}/stream", h.handleStream)

		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(60 * time.Second))

			r.Post("/", h.handleCreatePoll)
			r.Get("/", h.handleListPolls)
			r.Get("/{id}", h.handleGetPoll)
			r.With(RateLimitVotes(rate.Every(time.Second), 10)).Post("/{id}/votes", h.handleVote)
			r.Get("/{id}/results", h.handleResults)
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error":   "db_unavailable",
			"message": "database not configured",
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error":   "db_unavailable",
			"message": "database not ready",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
