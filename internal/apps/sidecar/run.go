package sidecar

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/sbilibin2017/telemetry-sidecar/internal/configs"
	dbConfig "github.com/sbilibin2017/telemetry-sidecar/internal/configs/db"
	"github.com/sbilibin2017/telemetry-sidecar/internal/handlers/socket"
	"github.com/sbilibin2017/telemetry-sidecar/internal/logger"
	dbRepo "github.com/sbilibin2017/telemetry-sidecar/internal/repositories/db"
	"github.com/sbilibin2017/telemetry-sidecar/internal/runner"
	"github.com/sbilibin2017/telemetry-sidecar/internal/telemetry"
	"github.com/sbilibin2017/telemetry-sidecar/internal/workers"
)

// Run starts the sidecar and blocks until it is stopped by SIGINT, SIGTERM,
// SIGQUIT, cancellation of ctx or an unrecoverable listener error. Startup
// failures are returned before any worker runs.
func Run(ctx context.Context, cfg *configs.SidecarConfig) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	conn, err := openDB(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open queue database: %w", err)
	}
	defer conn.Close()

	queue := dbRepo.NewMetricQueueRepository(conn, cfg.MigrationsDir)
	if err := queue.Init(ctx); err != nil {
		return fmt.Errorf("init metric queue: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder, err := telemetry.NewRecorder(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	if pending, err := queue.Count(ctx); err == nil {
		recorder.SetQueueDepth(int(pending))
		logger.Log.Info("metric queue opened", zap.Int64("pending", pending))
	}

	forwarder, closeForwarder, err := newForwarder(cfg)
	if err != nil {
		return fmt.Errorf("create forwarder: %w", err)
	}
	defer closeForwarder()

	r := runner.NewRunner()

	if cfg.AdminAddress != "" {
		handler, err := NewAdminRouter(queue, reg, cfg.TrustedSubnet)
		if err != nil {
			return fmt.Errorf("create admin router: %w", err)
		}
		r.AddHTTPServer(&http.Server{
			Addr:              cfg.AdminAddress,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		})
	}

	listener := socket.NewMetricListener(cfg.SocketPath, queue, socket.WithRecorder(recorder))
	if err := listener.Bind(); err != nil {
		return fmt.Errorf("bind ingest socket: %w", err)
	}

	ticker := time.NewTicker(cfg.Interval())
	defer ticker.Stop()

	publisher := workers.NewMetricPublisher(ticker, queue, queue, forwarder, workers.WithRecorder(recorder))

	r.AddWorker(listener)
	r.AddWorker(publisher)

	logger.Log.Info("sidecar started",
		zap.String("socket", cfg.SocketPath),
		zap.String("database", dbConfig.Driver(cfg.DatabaseURL)),
		zap.Duration("publish_interval", cfg.Interval()),
		zap.String("collector", cfg.CollectorAddress),
		zap.String("admin", cfg.AdminAddress),
	)

	err = r.Run(ctx)

	logger.Log.Info("sidecar stopped")
	return err
}

// openDB connects to the queue database. SQLite gets the WAL pragmas and a
// single connection so that queue operations never contend for the write lock.
func openDB(databaseURL string) (*sqlx.DB, error) {
	driver := dbConfig.Driver(databaseURL)
	if driver == dbConfig.DriverPostgres {
		return dbConfig.New(driver, databaseURL,
			dbConfig.WithMaxOpenConns(4),
			dbConfig.WithConnMaxLifetime(30*time.Minute),
		)
	}
	return dbConfig.New(driver, dbConfig.SQLiteDSN(databaseURL), dbConfig.WithMaxOpenConns(1))
}
