package postgres

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Pesokrava/park_reviewer/internal/domain"
	"github.com/Pesokrava/park_reviewer/internal/pkg/database"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var reviewColumns = []string{
	"r.id", "r.park_id", "r.author_id", "r.content", "r.likes_count", "r.created_at", "r.updated_at",
}

// reviewRow is a review joined with its author's display fields
type reviewRow struct {
	domain.Review
	AuthorDisplayName string  `db:"author_display_name"`
	AuthorAvatarURL   *string `db:"author_avatar_url"`
}

// ReviewRepository implements domain.ReviewRepository for PostgreSQL
type ReviewRepository struct {
	db *sqlx.DB
}

// NewReviewRepository creates a new PostgreSQL review repository
func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create creates a new review.
// A missing park or author surfaces as domain.ErrNotFound through the foreign keys.
func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	query := `
		INSERT INTO reviews (park_id, author_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, likes_count, created_at, updated_at
	`

	err := database.QuerierFromCtx(ctx, r.db).QueryRowxContext(
		ctx,
		query,
		review.ParkID,
		review.AuthorID,
		review.Content,
	).Scan(
		&review.ID,
		&review.LikesCount,
		&review.CreatedAt,
		&review.UpdatedAt,
	)

	return mapError(err, "review", review.ParkID)
}

// GetByID retrieves a review by ID
func (r *ReviewRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Review, error) {
	query, args, err := psql.Select(reviewColumns...).
		From("reviews r").
		Where("r.id = ?", id).
		ToSql()
	if err != nil {
		return nil, err
	}

	var review domain.Review
	if err := database.QuerierFromCtx(ctx, r.db).GetContext(ctx, &review, query, args...); err != nil {
		return nil, mapError(err, "review", id)
	}

	return &review, nil
}

// LockForUpdate locks the review row until the surrounding transaction ends
func (r *ReviewRepository) LockForUpdate(ctx context.Context, id uuid.UUID) error {
	var locked uuid.UUID
	err := database.QuerierFromCtx(ctx, r.db).GetContext(ctx, &locked, `SELECT id FROM reviews WHERE id = $1 FOR UPDATE`, id)
	return mapError(err, "review", id)
}

// ListByAuthor retrieves an author's reviews, newest first
func (r *ReviewRepository) ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]*domain.Review, error) {
	query, args, err := psql.Select(reviewColumns...).
		From("reviews r").
		Where("r.author_id = ?", authorID).
		OrderBy("r.created_at DESC", "r.id DESC").
		ToSql()
	if err != nil {
		return nil, err
	}

	reviews := []*domain.Review{}
	if err := database.QuerierFromCtx(ctx, r.db).SelectContext(ctx, &reviews, query, args...); err != nil {
		return nil, mapError(err, "reviews by author", authorID)
	}

	return reviews, nil
}

// ListByPark retrieves a park's reviews with author display fields, newest first.
// Images are not loaded here.
func (r *ReviewRepository) ListByPark(ctx context.Context, parkID uuid.UUID) ([]*domain.ReviewDetails, error) {
	columns := append([]string{}, reviewColumns...)
	columns = append(columns, "p.display_name AS author_display_name", "p.avatar_url AS author_avatar_url")

	query, args, err := psql.Select(columns...).
		From("reviews r").
		Join("profiles p ON p.id = r.author_id").
		Where("r.park_id = ?", parkID).
		OrderBy("r.created_at DESC", "r.id DESC").
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []reviewRow
	if err := database.QuerierFromCtx(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, mapError(err, "reviews by park", parkID)
	}

	details := make([]*domain.ReviewDetails, 0, len(rows))
	for _, row := range rows {
		details = append(details, &domain.ReviewDetails{
			Review: row.Review,
			Author: &domain.ReviewAuthor{
				DisplayName: row.AuthorDisplayName,
				AvatarURL:   row.AuthorAvatarURL,
			},
			Images: []*domain.ReviewImage{},
		})
	}

	return details, nil
}

// UpdateContent sets the content and updated_at of a review; no other column is written
func (r *ReviewRepository) UpdateContent(ctx context.Context, id uuid.UUID, content string) (*domain.Review, error) {
	query := `
		UPDATE reviews
		SET content = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING id, park_id, author_id, content, likes_count, created_at, updated_at
	`

	var review domain.Review
	if err := database.QuerierFromCtx(ctx, r.db).GetContext(ctx, &review, query, content, id); err != nil {
		return nil, mapError(err, "review", id)
	}

	return &review, nil
}

// AdjustLikes applies a relative change to likes_count, never going below zero
func (r *ReviewRepository) AdjustLikes(ctx context.Context, id uuid.UUID, delta int) error {
	query := `UPDATE reviews SET likes_count = GREATEST(likes_count + $1, 0) WHERE id = $2`

	result, err := database.QuerierFromCtx(ctx, r.db).ExecContext(ctx, query, delta, id)
	if err != nil {
		return mapError(err, "review", id)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return mapError(sql.ErrNoRows, "review", id)
	}

	return nil
}

// Delete removes the review row; false means there was no such row
func (r *ReviewRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result, err := database.QuerierFromCtx(ctx, r.db).ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return false, mapError(err, "review", id)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected > 0, nil
}
