package shared

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// ActivityAction tags an activity log entry with the operation that
// produced it.
type ActivityAction string

const (
	// ActionConsumption is recorded when stock is consumed.
	ActionConsumption ActivityAction = "consumption"
	// ActionAdjustment is recorded when a balance is overwritten.
	ActionAdjustment ActivityAction = "adjustment"
	// ActionAddition is recorded when an item is created.
	ActionAddition ActivityAction = "addition"
)

// ActivityEntry is an immutable audit record. Details carries the
// amount, unit, reason and the before/after balances of the operation.
type ActivityEntry struct {
	ID         uuid.UUID
	ActorID    int64
	Action     ActivityAction
	ItemID     int64
	Details    map[string]any
	OccurredAt time.Time
}

// Execer is satisfied by both *pgxpool.Pool and pgx.Tx, so activity
// entries can be written standalone or inside a transaction.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// ActivityLogger appends entries to activity_logs. Entries are never
// updated or deleted.
type ActivityLogger struct {
	db Execer
}

// NewActivityLogger returns a logger writing through db.
func NewActivityLogger(db Execer) *ActivityLogger {
	return &ActivityLogger{db: db}
}

// Record persists the entry. A zero ID and timestamp are filled in.
func (l *ActivityLogger) Record(ctx context.Context, entry ActivityEntry) error {
	if l == nil || l.db == nil {
		return errors.New("activity logger not initialised")
	}
	if entry.Action == "" {
		return errors.New("activity entry requires an action")
	}
	if entry.ItemID == 0 {
		return errors.New("activity entry requires an item reference")
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = time.Now().UTC()
	}
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return err
	}
	_, err = l.db.Exec(ctx, `INSERT INTO activity_logs (id, actor_id, action, item_id, details, occurred_at)
VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.ActorID, string(entry.Action), entry.ItemID, details, entry.OccurredAt)
	return err
}
