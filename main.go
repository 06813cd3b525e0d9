package main

import (
	"context"
	"fmt"
	"os"

	"github.com/auraihq/aurai/internal/advisor"
	"github.com/auraihq/aurai/internal/config"
	"github.com/auraihq/aurai/internal/contextopt"
	"github.com/auraihq/aurai/internal/llm"
	"github.com/auraihq/aurai/internal/logging"
	"github.com/auraihq/aurai/internal/server"
	"github.com/auraihq/aurai/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to determine home directory: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(home, cfg.Server.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logging: %v\n", err)
		os.Exit(1)
	}

	var sink session.HistorySink = session.NopSink{}
	if cfg.Server.EnablePersistence {
		sink = session.NewFileSink(cfg.Server.HistoryPath)
	}
	store := session.NewStore(cfg.Server.MaxHistory, sink, logger)

	client, err := llm.NewFactory(nil, logger).Create(cfg.Provider)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize chat client: %v\n", err)
		os.Exit(1)
	}

	blobs := contextopt.NewDirStore("", logger)
	optimizer := contextopt.NewOptimizer(blobs, contextopt.DefaultThreshold, logger)

	adv := advisor.New(cfg, store, client, optimizer, logger)
	srv := server.New(cfg.Server.Name, adv, logger)

	if err := srv.Run(context.Background()); err != nil {
		logger.Errorf("server stopped: %v", err)
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}
