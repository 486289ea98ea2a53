package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/warehouse13/agi-solver/pkg/config"
	"github.com/warehouse13/agi-solver/pkg/logger"
	"github.com/warehouse13/agi-solver/pkg/solver"
)

func main() {
	// Load configuration from environment variables
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	lg := logger.NewStdLogger(cfg.LoggerConfig.Coloring, cfg.LoggerConfig.Level)

	// Set up context with cancellation on SIGINT/SIGTERM
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	service, err := solver.NewService(cfg, lg)
	if err != nil {
		log.Fatalf("Failed to create solver service: %v", err)
	}

	// Set up signal handling for graceful shutdown
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signalCh
		lg.Notice("received termination signal, shutting down gracefully")
		cancel()
	}()

	service.Start(ctx)
}
