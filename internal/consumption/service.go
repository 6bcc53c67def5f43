package consumption

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/keruru-amuri/spog-management/internal/shared"
	"github.com/keruru-amuri/spog-management/internal/units"
)

// balanceEpsilon absorbs float noise from unit conversion so a request
// for exactly the remaining balance is not rejected.
const balanceEpsilon = 1e-9

// IdempotencyPort guards against double-submitted transactions.
type IdempotencyPort interface {
	Claim(ctx context.Context, key, module string) error
	Release(ctx context.Context, key string) error
}

// CacheInvalidator is notified after every committed transaction so
// cached report views can be refreshed.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// Service coordinates consumption and adjustment transactions. All
// mutation happens inside a single datastore transaction: the item row
// is locked, the balance checked and updated, and the ledger and
// activity entries written, so a failure at any step leaves no partial
// effects.
type Service struct {
	repo        RepositoryPort
	logger      *slog.Logger
	idempotency IdempotencyPort
	invalidator CacheInvalidator
	printer     *message.Printer
	clock       func() time.Time
}

// NewService builds Service. idempotency and invalidator may be nil.
func NewService(repo RepositoryPort, logger *slog.Logger, idempotency IdempotencyPort, invalidator CacheInvalidator) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:        repo,
		logger:      logger,
		idempotency: idempotency,
		invalidator: invalidator,
		printer:     message.NewPrinter(language.English),
		clock:       func() time.Time { return time.Now().UTC() },
	}
}

// RecordConsumption runs the full pipeline: fetch and lock the item,
// convert the requested amount into the stocking unit, check the
// balance, decrement it, and append the ledger and activity entries.
// Rejections carry a message and leave the balance untouched.
func (s *Service) RecordConsumption(ctx context.Context, input ConsumeInput) (Result, error) {
	if input.ItemID <= 0 {
		return Result{Message: "item reference required"}, fmt.Errorf("%w: item reference required", ErrInvalidAmount)
	}
	if input.Amount <= 0 {
		return Result{Message: "consumption amount must be positive"}, fmt.Errorf("%w: amount must be positive", ErrInvalidAmount)
	}

	claimedKey, err := s.claim(ctx, input.IdempotencyKey, "consumption")
	if err != nil {
		return Result{Message: err.Error()}, err
	}

	var result Result
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		item, err := tx.GetItemForUpdate(ctx, input.ItemID)
		if err != nil {
			return err
		}

		converted := input.Amount
		warning := ""
		if units.Normalize(item.ConsumptionUnit) != units.Normalize(item.Unit) {
			value, convErr := units.Convert(input.Amount, item.ConsumptionUnit, item.Unit)
			if convErr != nil {
				// Documented fallback: treat the entered amount as
				// already being in the stocking unit and keep going.
				warning = fmt.Sprintf("no conversion rule from %q to %q; amount applied unconverted", item.ConsumptionUnit, item.Unit)
				s.logger.Warn("unsupported unit conversion",
					slog.Int64("item_id", item.ID),
					slog.String("consumption_unit", item.ConsumptionUnit),
					slog.String("stocking_unit", item.Unit))
			} else {
				converted = value
			}
		}

		if converted > item.CurrentBalance+balanceEpsilon {
			result = Result{
				Success: false,
				Message: s.printer.Sprintf("insufficient balance: %.3f %s available, requested %.3f %s (%.3f %s)",
					item.CurrentBalance, item.Unit, input.Amount, item.ConsumptionUnit, converted, item.Unit),
				Warning: warning,
			}
			return ErrInsufficientBalance
		}

		newBalance := item.CurrentBalance - converted
		if math.Abs(newBalance) < balanceEpsilon {
			newBalance = 0
		}
		if err := tx.UpdateItemBalance(ctx, item.ID, newBalance); err != nil {
			return err
		}

		now := s.clock()
		rec := Record{
			ID:         uuid.New(),
			ItemID:     item.ID,
			ActorID:    input.ActorID,
			Amount:     input.Amount,
			Reason:     input.Reason,
			RecordedAt: now,
		}
		if err := tx.InsertRecord(ctx, rec); err != nil {
			return err
		}

		if err := tx.RecordActivity(ctx, shared.ActivityEntry{
			ActorID: input.ActorID,
			Action:  shared.ActionConsumption,
			ItemID:  item.ID,
			Details: map[string]any{
				"amount":           input.Amount,
				"unit":             item.ConsumptionUnit,
				"converted_amount": converted,
				"stocking_unit":    item.Unit,
				"reason":           input.Reason,
				"previous_balance": item.CurrentBalance,
				"new_balance":      newBalance,
			},
			OccurredAt: now,
		}); err != nil {
			return err
		}

		updated := item
		updated.CurrentBalance = newBalance
		updated = updated.WithStatus()
		result = Result{
			Success: true,
			Message: s.printer.Sprintf("consumed %.3f %s from %s; %.3f %s remaining",
				input.Amount, item.ConsumptionUnit, item.Code, newBalance, item.Unit),
			Warning: warning,
			Item:    &updated,
			Record:  &rec,
		}
		return nil
	})
	if err != nil {
		s.release(ctx, claimedKey)
		switch {
		case errors.Is(err, ErrInsufficientBalance):
			return result, err
		case errors.Is(err, shared.ErrNotFound):
			return Result{Message: err.Error()}, err
		default:
			return Result{Message: "consumption could not be recorded"}, err
		}
	}

	s.invalidate(ctx)
	return result, nil
}

// AdjustBalance overwrites the balance with a caller-supplied value.
// Privileged: role enforcement happens at the HTTP boundary. No
// conversion, no insufficiency check, no ledger entry; the adjustment
// is tracked only in the activity log.
func (s *Service) AdjustBalance(ctx context.Context, input AdjustInput) (Result, error) {
	if input.ItemID <= 0 {
		return Result{Message: "item reference required"}, fmt.Errorf("%w: item reference required", ErrInvalidAmount)
	}
	if input.NewBalance < 0 {
		return Result{Message: "balance must be non-negative"}, fmt.Errorf("%w: balance must be non-negative", ErrInvalidAmount)
	}

	claimedKey, err := s.claim(ctx, input.IdempotencyKey, "adjustment")
	if err != nil {
		return Result{Message: err.Error()}, err
	}

	var result Result
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		item, err := tx.GetItemForUpdate(ctx, input.ItemID)
		if err != nil {
			return err
		}
		if err := tx.UpdateItemBalance(ctx, item.ID, input.NewBalance); err != nil {
			return err
		}
		if err := tx.RecordActivity(ctx, shared.ActivityEntry{
			ActorID: input.ActorID,
			Action:  shared.ActionAdjustment,
			ItemID:  item.ID,
			Details: map[string]any{
				"unit":             item.Unit,
				"reason":           input.Reason,
				"previous_balance": item.CurrentBalance,
				"new_balance":      input.NewBalance,
			},
			OccurredAt: s.clock(),
		}); err != nil {
			return err
		}

		updated := item
		updated.CurrentBalance = input.NewBalance
		updated = updated.WithStatus()
		result = Result{
			Success: true,
			Message: s.printer.Sprintf("balance of %s set to %.3f %s (was %.3f)",
				item.Code, input.NewBalance, item.Unit, item.CurrentBalance),
			Item: &updated,
		}
		return nil
	})
	if err != nil {
		s.release(ctx, claimedKey)
		if errors.Is(err, shared.ErrNotFound) {
			return Result{Message: err.Error()}, err
		}
		return Result{Message: "adjustment could not be recorded"}, err
	}

	s.invalidate(ctx)
	return result, nil
}

// ListRecords reads the ledger for the reporting layer.
func (s *Service) ListRecords(ctx context.Context, filter RecordFilter) ([]Record, error) {
	return s.repo.ListRecords(ctx, filter)
}

func (s *Service) claim(ctx context.Context, key, module string) (string, error) {
	if s.idempotency == nil || key == "" {
		return "", nil
	}
	if err := s.idempotency.Claim(ctx, key, module); err != nil {
		return "", err
	}
	return key, nil
}

func (s *Service) release(ctx context.Context, key string) {
	if s.idempotency == nil || key == "" {
		return
	}
	if err := s.idempotency.Release(ctx, key); err != nil {
		s.logger.Warn("release idempotency key", slog.String("key", key), slog.Any("error", err))
	}
}

func (s *Service) invalidate(ctx context.Context) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Invalidate(ctx); err != nil {
		s.logger.Warn("invalidate report cache", slog.Any("error", err))
	}
}
