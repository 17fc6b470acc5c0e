package loadgen

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/sbilibin2017/telemetry-sidecar/internal/configs"
	"github.com/sbilibin2017/telemetry-sidecar/internal/logger"
)

// Run connects to the sidecar socket and writes a batch of host metrics
// immediately and then on every interval, until cfg.Batches batches were sent
// or the process is interrupted.
func Run(ctx context.Context, cfg *configs.LoadgenConfig) error {
	return run(ctx, cfg, CollectHost)
}

func run(ctx context.Context, cfg *configs.LoadgenConfig, collect CollectorFunc) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", cfg.SocketPath)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", cfg.SocketPath, err)
	}
	defer conn.Close()

	logger.Log.Info("connected to sidecar", zap.String("socket", cfg.SocketPath))

	gen := NewGenerator(conn, collect, cfg.BadLineEvery)

	ticker := time.NewTicker(cfg.Period())
	defer ticker.Stop()

	for sent := 0; ; {
		n, err := gen.Batch(ctx)
		if err != nil {
			return err
		}
		sent++
		logger.Log.Debug("batch sent", zap.Int("batch", sent), zap.Int("lines", n))

		if cfg.Batches > 0 && sent >= cfg.Batches {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
