package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Pesokrava/park_reviewer/internal/pkg/database"
)

// LikeRepository implements domain.LikeRepository for PostgreSQL.
// The (review_id, liker_id) unique constraint decides whether a like exists.
type LikeRepository struct {
	db *sqlx.DB
}

// NewLikeRepository creates a new PostgreSQL like repository
func NewLikeRepository(db *sqlx.DB) *LikeRepository {
	return &LikeRepository{db: db}
}

// Exists reports whether the liker currently likes the review
func (r *LikeRepository) Exists(ctx context.Context, reviewID, likerID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM review_likes WHERE review_id = $1 AND liker_id = $2)`

	var exists bool
	if err := database.QuerierFromCtx(ctx, r.db).GetContext(ctx, &exists, query, reviewID, likerID); err != nil {
		return false, mapError(err, "like", reviewID)
	}

	return exists, nil
}

// Insert adds a like. A duplicate is absorbed and reported as false.
func (r *LikeRepository) Insert(ctx context.Context, reviewID, likerID uuid.UUID) (bool, error) {
	query := `
		INSERT INTO review_likes (review_id, liker_id)
		VALUES ($1, $2)
		ON CONFLICT (review_id, liker_id) DO NOTHING
	`

	result, err := database.QuerierFromCtx(ctx, r.db).ExecContext(ctx, query, reviewID, likerID)
	if err != nil {
		return false, mapError(err, "like", reviewID)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected == 1, nil
}

// Delete removes a like; false means there was nothing to remove
func (r *LikeRepository) Delete(ctx context.Context, reviewID, likerID uuid.UUID) (bool, error) {
	query := `DELETE FROM review_likes WHERE review_id = $1 AND liker_id = $2`

	result, err := database.QuerierFromCtx(ctx, r.db).ExecContext(ctx, query, reviewID, likerID)
	if err != nil {
		return false, mapError(err, "like", reviewID)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected > 0, nil
}

// DeleteByReview removes all likes of a review
func (r *LikeRepository) DeleteByReview(ctx context.Context, reviewID uuid.UUID) (int64, error) {
	result, err := database.QuerierFromCtx(ctx, r.db).ExecContext(ctx, `DELETE FROM review_likes WHERE review_id = $1`, reviewID)
	if err != nil {
		return 0, mapError(err, "likes", reviewID)
	}

	return result.RowsAffected()
}
