package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Mailer enqueues alert emails. Satisfied by *Client.
type Mailer interface {
	EnqueueSendEmail(ctx context.Context, payload SendEmailPayload) (*asynq.TaskInfo, error)
}

// LowStockScanJob sweeps the inventory for items at or below their
// minimum threshold and mails a digest to the stores team.
type LowStockScanJob struct {
	Pool   *pgxpool.Pool
	Logger *slog.Logger
	Mailer Mailer
	clock  func() time.Time
}

// NewLowStockScanJob initialises the sweep handler.
func NewLowStockScanJob(pool *pgxpool.Pool, logger *slog.Logger, mailer Mailer) *LowStockScanJob {
	return &LowStockScanJob{
		Pool:   pool,
		Logger: logger,
		Mailer: mailer,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

type lowStockHit struct {
	ItemID         int64
	Code           string
	Name           string
	Unit           string
	CurrentBalance float64
	MinThreshold   float64
	Critical       bool
}

// Handle executes the sweep.
func (j *LowStockScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("low stock scan: handler not configured")
	}
	var payload LowStockScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	start := j.now()
	logger := j.logger().With(slog.Int64("location_id", payload.LocationID))
	logger.Info("starting low stock scan")

	hits, err := j.scan(ctx, payload.LocationID)
	if err != nil {
		logger.Error("scan failed", slog.Any("error", err))
		return err
	}

	for _, hit := range hits {
		logger.Warn("item below minimum threshold",
			slog.Int64("item_id", hit.ItemID),
			slog.String("code", hit.Code),
			slog.Float64("balance", hit.CurrentBalance),
			slog.Float64("min_threshold", hit.MinThreshold),
			slog.Bool("critical", hit.Critical),
		)
	}

	if len(hits) > 0 && j.Mailer != nil && payload.Recipient != "" {
		if _, err := j.Mailer.EnqueueSendEmail(ctx, SendEmailPayload{
			To:      payload.Recipient,
			Subject: fmt.Sprintf("Low stock alert: %d item(s) need replenishment", len(hits)),
			Body:    digest(hits, start),
		}); err != nil {
			logger.Warn("enqueue alert email", slog.Any("error", err))
		}
	}

	logger.Info("completed low stock scan",
		slog.Int("hits", len(hits)),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func (j *LowStockScanJob) scan(ctx context.Context, locationID int64) ([]lowStockHit, error) {
	if j.Pool == nil {
		return nil, errors.New("low stock scan: pool not configured")
	}
	rows, err := j.Pool.Query(ctx, `SELECT id, code, name, unit, current_balance, min_threshold, current_balance <= critical_threshold
FROM inventory_items
WHERE current_balance <= min_threshold
  AND ($1 = 0 OR location_id = $1)
ORDER BY current_balance / NULLIF(min_threshold, 0) ASC NULLS FIRST, code`, locationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	hits := make([]lowStockHit, 0)
	for rows.Next() {
		var hit lowStockHit
		if err := rows.Scan(&hit.ItemID, &hit.Code, &hit.Name, &hit.Unit, &hit.CurrentBalance, &hit.MinThreshold, &hit.Critical); err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

func digest(hits []lowStockHit, asOf time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Stock sweep at %s found %d item(s) at or below minimum threshold:\n\n", asOf.Format(time.RFC3339), len(hits))
	for _, hit := range hits {
		marker := "LOW"
		if hit.Critical {
			marker = "CRITICAL"
		}
		fmt.Fprintf(&b, "- [%s] %s %s: %.3f %s remaining (minimum %.3f)\n",
			marker, hit.Code, hit.Name, hit.CurrentBalance, hit.Unit, hit.MinThreshold)
	}
	return b.String()
}

func (j *LowStockScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskLowStockScan))
	}
	return slog.Default().With(slog.String("job", TaskLowStockScan))
}

func (j *LowStockScanJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
