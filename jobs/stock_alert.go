package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/balcao-pos/balcao/internal/jobs"
	"github.com/balcao-pos/balcao/internal/shared"
)

// AuditRecorder lets jobs leave a trail in audit_log.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// StockLowScanJob finds products whose stock dropped to the alert threshold.
type StockLowScanJob struct {
	Pool    *pgxpool.Pool
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	Audit   AuditRecorder
}

// NewStockLowScanJob initialises the low stock scan handler. audit may be nil.
func NewStockLowScanJob(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics, audit AuditRecorder) *StockLowScanJob {
	return &StockLowScanJob{Pool: pool, Logger: logger, Metrics: metrics, Audit: audit}
}

// Handle executes the low stock scan.
func (j *StockLowScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("stock scan: handler not configured")
	}
	var payload StockLowScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Threshold <= 0 {
		payload.Threshold = 5
	}

	start := time.Now()
	tracker := j.metrics().Track(TaskStockLowScan)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.Int64("threshold", payload.Threshold))
	logger.Info("starting low stock scan")

	low, err := j.scan(ctx, payload.Threshold)
	if err != nil {
		resultErr = err
		logger.Error("scan failed", slog.Any("error", err))
		return resultErr
	}

	for _, p := range low {
		logger.Warn("product low on stock",
			slog.Int64("product_id", p.ID),
			slog.String("name", p.Name),
			slog.Int64("quantity", p.Quantity),
		)
		if j.Audit != nil {
			_ = j.Audit.Record(ctx, shared.AuditLog{
				Action:   "jobs:stock_low",
				Entity:   "product",
				EntityID: strconv.FormatInt(p.ID, 10),
				Meta: map[string]any{
					"name":      p.Name,
					"quantity":  p.Quantity,
					"threshold": payload.Threshold,
				},
			})
		}
	}
	j.metrics().SetLowStock(len(low))

	logger.Info("completed low stock scan",
		slog.Int("products", len(low)),
		slog.Duration("duration", time.Since(start)),
	)
	return resultErr
}

type lowStockProduct struct {
	ID       int64
	Name     string
	Quantity int64
}

func (j *StockLowScanJob) scan(ctx context.Context, threshold int64) ([]lowStockProduct, error) {
	if j.Pool == nil {
		return nil, errors.New("stock scan: pool not configured")
	}
	rows, err := j.Pool.Query(ctx,
		`SELECT id, name, quantity FROM product WHERE quantity <= $1 ORDER BY quantity, id`,
		threshold,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var low []lowStockProduct
	for rows.Next() {
		var p lowStockProduct
		if err := rows.Scan(&p.ID, &p.Name, &p.Quantity); err != nil {
			return nil, err
		}
		low = append(low, p)
	}
	return low, rows.Err()
}

func (j *StockLowScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskStockLowScan))
	}
	return slog.Default().With(slog.String("job", TaskStockLowScan))
}

func (j *StockLowScanJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return jobmetrics.NewMetrics(nil)
}
