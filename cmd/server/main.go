package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	_ "github.com/johnjomin/OneVote/docs"
	"github.com/johnjomin/OneVote/internal/broadcast"
	"github.com/johnjomin/OneVote/internal/config"
	"github.com/johnjomin/OneVote/internal/domain/poll"
	"github.com/johnjomin/OneVote/internal/domain/vote"
	api "github.com/johnjomin/OneVote/internal/http"
	"github.com/johnjomin/OneVote/internal/metrics"
	"github.com/johnjomin/OneVote/internal/platform/database"
	"github.com/johnjomin/OneVote/internal/repository/postgres"
	"github.com/johnjomin/OneVote/internal/results"
	"github.com/johnjomin/OneVote/internal/worker"
)

// @title           OneVote API
// @version         1.0
// @description     Poll creation, one-vote-per-voter ingestion and live results
// @BasePath        /
func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)
	api.SetLogger(logger)

	metrics.Register()

	db, err := database.NewPostgres(cfg.DB_DSN)
	if err != nil {
		logger.Error("db connect failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.EnsureSchema(context.Background(), db); err != nil {
		logger.Error("schema bootstrap failed", "error", err)
		os.Exit(1)
	}

	pollRepo := postgres.NewPollRepo(db)
	voteRepo := postgres.NewVoteRepo(db)

	bcast := broadcast.New()
	cache := results.NewCache(cfg.CacheTTL)

	pollSvc := poll.NewService(pollRepo)
	resultsSvc := results.NewService(pollRepo, voteRepo, cache, bcast)
	voteSvc := vote.NewService(pollRepo, voteRepo, resultsSvc, logger)

	sweeper := worker.NewCacheSweeper(cache, cfg.CacheTTL, logger)

	router := api.NewRouter(pollSvc, voteSvc, resultsSvc, bcast, cfg.HeartbeatInterval, db)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go sweeper.Run(ctx)

	go func() {
		logger.Info("server listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("listen failed", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	<-stop
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	cancel()
	bcast.Close()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
