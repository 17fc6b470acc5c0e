package db

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose"
	"go.uber.org/zap"

	dbConfig "github.com/sbilibin2017/telemetry-sidecar/internal/configs/db"
	"github.com/sbilibin2017/telemetry-sidecar/internal/logger"
	"github.com/sbilibin2017/telemetry-sidecar/internal/models"
)

// ErrOutOfRange is returned when a value or timestamp does not fit the signed
// 64-bit integer columns of the queue.
var ErrOutOfRange = errors.New("value out of storage range")

const (
	insertMetricQuery = `
		INSERT INTO metric_queue (name, field, tags, value, ts)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`
	listMetricsQuery = `
		SELECT id, name, field, tags, value, ts
		FROM metric_queue
		ORDER BY id ASC
	`
	deleteMetricQuery = `DELETE FROM metric_queue WHERE id = ?`
	countMetricsQuery = `SELECT COUNT(*) FROM metric_queue`
)

// MetricQueueRepository is the durable outbox between the ingest listener and
// the publisher. Every method is a single statement, so each call is atomic
// with respect to concurrent callers.
type MetricQueueRepository struct {
	db            *sqlx.DB
	migrationsDir string
	log           *zap.Logger
}

// MetricQueueOpt configures a MetricQueueRepository.
type MetricQueueOpt func(*MetricQueueRepository)

// WithLogger sets the logger used for debug output.
func WithLogger(log *zap.Logger) MetricQueueOpt {
	return func(r *MetricQueueRepository) {
		if log != nil {
			r.log = log
		}
	}
}

// NewMetricQueueRepository creates a queue on top of db. migrationsDir holds one
// subdirectory of goose migrations per dialect ("sqlite", "postgres").
func NewMetricQueueRepository(db *sqlx.DB, migrationsDir string, opts ...MetricQueueOpt) *MetricQueueRepository {
	r := &MetricQueueRepository{
		db:            db,
		migrationsDir: migrationsDir,
		log:           logger.Log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Init brings the schema up to date. Existing records are kept, so metrics
// queued before a crash are published after the restart.
func (r *MetricQueueRepository) Init(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dialect, dir := "sqlite3", "sqlite"
	if r.db.DriverName() == dbConfig.DriverPostgres {
		dialect, dir = "postgres", "postgres"
	}

	dir = filepath.Join(r.migrationsDir, dir)
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("migrations directory: %w", err)
	}

	goose.SetLogger(zap.NewStdLog(r.log))
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}
	if err := goose.Up(r.db.DB, dir); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	r.log.Debug("metric queue initialized", zap.String("dialect", dialect))
	return nil
}

// Insert stores the metric and returns the id assigned by the database.
// The statement runs in autocommit mode, so the record is durable on return.
func (r *MetricQueueRepository) Insert(ctx context.Context, metric *models.Metric) (int64, error) {
	if metric.Value > math.MaxInt64 {
		return 0, fmt.Errorf("insert metric %q: value %d: %w", metric.Name, metric.Value, ErrOutOfRange)
	}

	var ts any
	if metric.Timestamp != nil {
		if *metric.Timestamp > math.MaxInt64 {
			return 0, fmt.Errorf("insert metric %q: timestamp %d: %w", metric.Name, *metric.Timestamp, ErrOutOfRange)
		}
		ts = int64(*metric.Timestamp)
	}

	var id int64
	err := r.db.QueryRowxContext(ctx, r.db.Rebind(insertMetricQuery),
		metric.Name, metric.Field, metric.Tags, int64(metric.Value), ts,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert metric %q: %w", metric.Name, err)
	}

	r.log.Debug("metric queued", zap.Int64("id", id), zap.String("name", metric.Name))
	return id, nil
}

// List returns a snapshot of all queued metrics, oldest first.
func (r *MetricQueueRepository) List(ctx context.Context) ([]*models.Metric, error) {
	var rows []models.Metric
	if err := r.db.SelectContext(ctx, &rows, listMetricsQuery); err != nil {
		return nil, fmt.Errorf("list metrics: %w", err)
	}

	result := make([]*models.Metric, 0, len(rows))
	for i := range rows {
		result = append(result, &rows[i])
	}

	return result, nil
}

// Delete removes the record with the given id. Deleting an unknown id is not an error.
func (r *MetricQueueRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(deleteMetricQuery), id); err != nil {
		return fmt.Errorf("delete metric %d: %w", id, err)
	}

	r.log.Debug("metric deleted", zap.Int64("id", id))
	return nil
}

// Count returns the number of queued metrics.
func (r *MetricQueueRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.GetContext(ctx, &n, countMetricsQuery); err != nil {
		return 0, fmt.Errorf("count metrics: %w", err)
	}
	return n, nil
}

// Ping checks that the backing database is reachable.
func (r *MetricQueueRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
