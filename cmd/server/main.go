package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/jmoiron/sqlx"

	"github.com/lauri/vocaflow/internal/api"
	"github.com/lauri/vocaflow/internal/config"
	"github.com/lauri/vocaflow/internal/content"
	"github.com/lauri/vocaflow/internal/db"
	"github.com/lauri/vocaflow/internal/logger"
	"github.com/lauri/vocaflow/internal/repository/sqlite"
	"github.com/lauri/vocaflow/internal/session"
	"github.com/lauri/vocaflow/internal/syncer"
)

func main() {
	cfg := config.Load()

	log := logger.New(logger.WithLevel(logger.ParseLevel(cfg.LogLevel)))
	logger.SetDefault(log)

	log.Info("===========================================")
	log.Info("VocaFlow Server Starting")
	log.Info("===========================================")
	log.Info("configuration loaded")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("corpus_path=%s", cfg.CorpusPath)
	log.Debug("log_level=%s", cfg.LogLevel)
	log.Debug("default_daily_target=%d", cfg.DefaultDailyTarget)
	log.Debug("debounce_ms=%d", cfg.DebounceMillis)
	log.Debug("pool_unlock_threshold=%d", cfg.PoolUnlockThreshold)
	log.Debug("staging_retention_days=%d", cfg.StagingRetentionDays)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration: %v", err)
		os.Exit(1)
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("closing database connection")
		database.Close()
	}()

	corpusDB := sqlx.NewDb(database.DB, "sqlite3")
	if cfg.CorpusPath != "" {
		if err := content.Seed(context.Background(), corpusDB, cfg.CorpusPath); err != nil {
			log.Error("failed to seed content corpus: %v", err)
			os.Exit(1)
		}
	}

	contentRepo := content.NewRepository(corpusDB)
	profileRepo := sqlite.NewProfileRepository(database.DB)
	stagingRepo := sqlite.NewStagingRepository(database.DB)

	manager := session.NewManager(contentRepo, profileRepo, stagingRepo, session.Config{
		DefaultDailyTarget:  uint(cfg.DefaultDailyTarget),
		PoolUnlockThreshold: uint(cfg.PoolUnlockThreshold),
	}, time.Duration(cfg.DebounceMillis)*time.Millisecond)

	// Nightly sweep of staging records past the retention window.
	scheduler := gocron.NewScheduler(time.UTC)
	_, err = scheduler.Every(1).Day().At("03:30").Do(func() {
		cutoff := syncer.DateOf(time.Now().UTC().AddDate(0, 0, -cfg.StagingRetentionDays))
		n, err := stagingRepo.DeleteOlderThan(context.Background(), cutoff)
		if err != nil {
			log.Error("staging sweep failed: %v", err)
			return
		}
		log.Info("staging sweep done: removed=%d, cutoff=%s", n, cutoff)
	})
	if err != nil {
		log.Error("failed to schedule staging sweep: %v", err)
		os.Exit(1)
	}
	scheduler.StartAsync()

	srv := &api.Server{Manager: manager}

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	log.Info("received signal %v, initiating graceful shutdown", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	log.Debug("stopping staging sweep scheduler")
	scheduler.Stop()

	// Sign out every live session so in-flight progress reaches the store.
	log.Debug("signing out active sessions")
	manager.Shutdown()

	log.Info("===========================================")
	log.Info("VocaFlow Server Stopped")
	log.Info("===========================================")
}
