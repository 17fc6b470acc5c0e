package main

import (
	"context"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/sbilibin2017/telemetry-sidecar/internal/apps/loadgen"
	"github.com/sbilibin2017/telemetry-sidecar/internal/logger"
)

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	if err := logger.Initialize(cfg.LogLevel); err != nil {
		log.Fatal(err)
	}
	defer logger.Log.Sync()

	if err := loadgen.Run(context.Background(), cfg); err != nil {
		logger.Log.Fatal("load generator failed", zap.Error(err))
	}
}
