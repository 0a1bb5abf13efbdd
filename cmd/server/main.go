package main

import (
	"github.com/evanhutnik/roadcast-service/internal/config"
	"github.com/evanhutnik/roadcast-service/internal/roadcast"
	"go.uber.org/zap"
)

func main() {
	baseLogger, _ := zap.NewProduction()
	defer baseLogger.Sync()
	logger := baseLogger.Sugar()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Error loading configuration: %v", err)
	}

	s := roadcast.New(cfg, logger)
	defer s.Close()

	if err := s.Start(":" + cfg.Port); err != nil {
		logger.Errorf("Server stopped: %v", err)
	}
}
