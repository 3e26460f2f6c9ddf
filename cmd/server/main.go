package main

import (
	"os"
	"path/filepath"

	"github.com/increff/noos-service/internal/audit"
	"github.com/increff/noos-service/internal/config"
	"github.com/increff/noos-service/internal/core"
	"github.com/increff/noos-service/internal/download"
	"github.com/increff/noos-service/internal/httpapi"
	"github.com/increff/noos-service/internal/ingest"
	"github.com/increff/noos-service/internal/logger"
	"github.com/increff/noos-service/internal/noos"
	"github.com/increff/noos-service/internal/queue"
	"github.com/increff/noos-service/internal/scheduler"
	"github.com/increff/noos-service/internal/storage"
)

const dbPath = "noos-service.db"

func main() {
	log, err := logger.New(os.Stdout, "logs")
	if err != nil {
		println("error initializing logger:", err.Error())
		os.Exit(1)
	}

	store, err := storage.Open(dbPath)
	if err != nil {
		log.Error("error initializing storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := store.EnsureDefault(); err != nil {
		log.Error("error seeding default parameter set", "error", err)
		os.Exit(1)
	}

	cfg := config.NewConfigManager(store)
	auditLogger := audit.New(store, log)

	tempDir := cfg.GetTempDir()
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		log.Error("error creating temp dir", "error", err, "dir", tempDir)
		os.Exit(1)
	}

	pools := queue.NewManager(log, cfg.GetFileExecutorSize(), cfg.GetFileExecutorQueue(), cfg.GetNoosExecutorSize(), cfg.GetNoosExecutorQueue())
	sched := scheduler.New(store, pools, log)

	pipeline := ingest.New(store, auditLogger, tempDir)
	engine := noos.New(store)
	builder := download.New(filepath.Join(tempDir, "downloads"), 0)

	server := httpapi.New(store, sched, pipeline, engine, builder, cfg, auditLogger, log)

	recovered, err := sched.RecoverOnStart()
	if err != nil {
		log.Error("error recovering interrupted tasks", "error", err)
	} else if recovered > 0 {
		log.Warn("recovered interrupted tasks from a prior run", "count", recovered)
	}

	server.Start(cfg.GetHTTPPort())
	log.Info("noos-service started", "port", cfg.GetHTTPPort())

	stopped := make(chan struct{})
	core.WaitForSignals(func() {
		log.Info("shutdown signal received")
		if err := server.Stop(); err != nil {
			log.Error("error during http shutdown", "error", err)
		}
		close(stopped)
	})
	<-stopped
	log.Info("noos-service stopped")
}
