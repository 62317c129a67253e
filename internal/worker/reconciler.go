package worker

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Pesokrava/park_reviewer/internal/pkg/database"
	"github.com/Pesokrava/park_reviewer/internal/pkg/logger"
)

// sweepBatchSize is how many drifted review IDs one sweep query returns
const sweepBatchSize = 500

// Reconciler resets likes_count to the number of like rows.
// The review row is locked before counting, so a toggle that is still in flight
// either committed before the count or waits until the correction commits.
// Only likes_count is written, so concurrent content edits are never clobbered.
type Reconciler struct {
	db     *sqlx.DB
	tx     *database.TxManager
	logger *logger.Logger
}

// NewReconciler creates a new likes_count reconciler
func NewReconciler(db *sqlx.DB, logger *logger.Logger) *Reconciler {
	return &Reconciler{
		db:     db,
		tx:     database.NewTxManager(db),
		logger: logger,
	}
}

// Reconcile fixes one review's likes_count and reports whether it had drifted
func (c *Reconciler) Reconcile(ctx context.Context, reviewID uuid.UUID) (bool, error) {
	var corrected bool

	err := c.tx.RunInTx(ctx, func(ctx context.Context) error {
		q := database.QuerierFromCtx(ctx, c.db)

		var stored int
		err := q.GetContext(ctx, &stored, `SELECT likes_count FROM reviews WHERE id = $1 FOR UPDATE`, reviewID)
		if errors.Is(err, sql.ErrNoRows) {
			// Review is gone; nothing to fix
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to lock review: %w", err)
		}

		var actual int
		if err := q.GetContext(ctx, &actual, `SELECT COUNT(*) FROM review_likes WHERE review_id = $1`, reviewID); err != nil {
			return fmt.Errorf("failed to count likes: %w", err)
		}

		if stored == actual {
			return nil
		}

		if _, err := q.ExecContext(ctx, `UPDATE reviews SET likes_count = $2 WHERE id = $1`, reviewID, actual); err != nil {
			return fmt.Errorf("failed to update likes count: %w", err)
		}

		c.logger.WithFields(map[string]any{
			"review_id": reviewID.String(),
			"stored":    stored,
			"actual":    actual,
		}).Warn("Corrected drifted likes count")

		corrected = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to reconcile likes count: %w", err)
	}

	return corrected, nil
}

// ReconcileAll finds drifted reviews in batches and fixes each one under its row lock.
// It returns how many were corrected.
func (c *Reconciler) ReconcileAll(ctx context.Context) (int64, error) {
	query := `
		SELECT r.id
		FROM reviews r
		LEFT JOIN review_likes l ON l.review_id = r.id
		WHERE r.id > $1
		GROUP BY r.id
		HAVING r.likes_count <> COUNT(l.id)
		ORDER BY r.id
		LIMIT $2
	`

	var corrected int64
	after := uuid.Nil

	for {
		var ids []uuid.UUID
		if err := c.db.SelectContext(ctx, &ids, query, after, sweepBatchSize); err != nil {
			return corrected, fmt.Errorf("failed to find drifted reviews: %w", err)
		}

		for _, id := range ids {
			fixed, err := c.Reconcile(ctx, id)
			if err != nil {
				return corrected, err
			}
			if fixed {
				corrected++
			}
		}

		if len(ids) < sweepBatchSize {
			break
		}
		after = ids[len(ids)-1]
	}

	if corrected > 0 {
		c.logger.WithFields(map[string]any{
			"corrected": corrected,
		}).Warn("Corrected drifted likes counts")
	}

	return corrected, nil
}

// GetLikesCount retrieves the stored likes_count of a review (used in tests)
func (c *Reconciler) GetLikesCount(ctx context.Context, reviewID uuid.UUID) (int, error) {
	var count int
	err := c.db.GetContext(ctx, &count, `SELECT likes_count FROM reviews WHERE id = $1`, reviewID)
	if err != nil {
		return 0, fmt.Errorf("failed to get likes count: %w", err)
	}
	return count, nil
}
