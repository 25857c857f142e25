package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskStockLowScan scans the catalog for products running out of stock.
	TaskStockLowScan = "stock:low_scan"
	// TaskIdempotencyCleanup prunes expired idempotency keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
	// TaskDailyTotals summarises the day's purchase and sale totals.
	TaskDailyTotals = "report:daily_totals"
)

// StockLowScanPayload configures the low stock scan.
type StockLowScanPayload struct {
	Threshold int64 `json:"threshold"`
}

// NewStockLowScanTask constructs an Asynq task for the low stock scan.
func NewStockLowScanTask(payload StockLowScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStockLowScan, data), nil
}

// IdempotencyCleanupPayload configures the idempotency key retention.
type IdempotencyCleanupPayload struct {
	Retention time.Duration `json:"retention"`
}

// NewIdempotencyCleanupTask constructs an Asynq task for key cleanup.
func NewIdempotencyCleanupTask(payload IdempotencyCleanupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, data), nil
}

// DailyTotalsPayload selects the day to summarise. An empty date means the
// previous calendar day.
type DailyTotalsPayload struct {
	Date string `json:"date"`
}

// NewDailyTotalsTask constructs an Asynq task for the daily totals report.
func NewDailyTotalsTask(payload DailyTotalsPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDailyTotals, data), nil
}
