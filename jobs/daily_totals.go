package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/balcao-pos/balcao/internal/jobs"
	"github.com/balcao-pos/balcao/internal/money"
)

// DailyTotalsJob summarises one day of purchase and sale movement.
type DailyTotalsJob struct {
	Pool    *pgxpool.Pool
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewDailyTotalsJob initialises the daily totals handler.
func NewDailyTotalsJob(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *DailyTotalsJob {
	return &DailyTotalsJob{
		Pool:    pool,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the daily totals report.
func (j *DailyTotalsJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("daily totals: handler not configured")
	}
	var payload DailyTotalsPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	day := payload.Date
	if day == "" {
		day = j.now().AddDate(0, 0, -1).Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", day); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskDailyTotals)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.String("date", day))

	purchases, purchaseTotal, err := j.totals(ctx, "purchase", day)
	if err != nil {
		resultErr = err
		logger.Error("purchase totals failed", slog.Any("error", err))
		return resultErr
	}
	sales, saleTotal, err := j.totals(ctx, "sale", day)
	if err != nil {
		resultErr = err
		logger.Error("sale totals failed", slog.Any("error", err))
		return resultErr
	}

	logger.Info("daily totals",
		slog.Int64("purchases", purchases),
		slog.String("purchase_total", money.Format(purchaseTotal)),
		slog.Int64("sales", sales),
		slog.String("sale_total", money.Format(saleTotal)),
	)
	return resultErr
}

func (j *DailyTotalsJob) totals(ctx context.Context, table, day string) (count, total int64, err error) {
	if j.Pool == nil {
		return 0, 0, errors.New("daily totals: pool not configured")
	}
	row := j.Pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(total), 0) FROM `+table+` WHERE created_at::date = $1::date`,
		day,
	)
	if err := row.Scan(&count, &total); err != nil {
		return 0, 0, err
	}
	return count, total, nil
}

func (j *DailyTotalsJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskDailyTotals))
	}
	return slog.Default().With(slog.String("job", TaskDailyTotals))
}

func (j *DailyTotalsJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return jobmetrics.NewMetrics(nil)
}

func (j *DailyTotalsJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
