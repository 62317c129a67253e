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

// ImageRepository implements domain.ImageRepository for PostgreSQL
type ImageRepository struct {
	db *sqlx.DB
}

// NewImageRepository creates a new PostgreSQL review image repository
func NewImageRepository(db *sqlx.DB) *ImageRepository {
	return &ImageRepository{db: db}
}

// CreateBatch inserts image rows in order, filling in IDs and timestamps
func (r *ImageRepository) CreateBatch(ctx context.Context, images []*domain.ReviewImage) error {
	query := `
		INSERT INTO review_images (review_id, image_url, storage_path, content_type, size_bytes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	q := database.QuerierFromCtx(ctx, r.db)
	for _, img := range images {
		err := q.QueryRowxContext(
			ctx,
			query,
			img.ReviewID,
			img.URL,
			img.StoragePath,
			img.ContentType,
			img.SizeBytes,
		).Scan(&img.ID, &img.CreatedAt)
		if err != nil {
			return mapError(err, "review image", img.ReviewID)
		}
	}

	return nil
}

// CountByReview returns the number of images attached to a review
func (r *ImageRepository) CountByReview(ctx context.Context, reviewID uuid.UUID) (int, error) {
	var count int
	err := database.QuerierFromCtx(ctx, r.db).GetContext(ctx, &count, `SELECT COUNT(*) FROM review_images WHERE review_id = $1`, reviewID)
	if err != nil {
		return 0, mapError(err, "review images", reviewID)
	}

	return count, nil
}

// ListByReviews returns the images of all given reviews, oldest first
func (r *ImageRepository) ListByReviews(ctx context.Context, reviewIDs []uuid.UUID) ([]*domain.ReviewImage, error) {
	images := []*domain.ReviewImage{}
	if len(reviewIDs) == 0 {
		return images, nil
	}

	query, args, err := psql.Select("id", "review_id", "image_url", "storage_path", "content_type", "size_bytes", "created_at").
		From("review_images").
		Where(sq.Eq{"review_id": reviewIDs}).
		OrderBy("created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	if err := database.QuerierFromCtx(ctx, r.db).SelectContext(ctx, &images, query, args...); err != nil {
		return nil, mapError(err, "review images", len(reviewIDs))
	}

	return images, nil
}

// GetByURL finds an image of a review by its public URL
func (r *ImageRepository) GetByURL(ctx context.Context, reviewID uuid.UUID, url string) (*domain.ReviewImage, error) {
	query := `
		SELECT id, review_id, image_url, storage_path, content_type, size_bytes, created_at
		FROM review_images
		WHERE review_id = $1 AND image_url = $2
		LIMIT 1
	`

	var img domain.ReviewImage
	if err := database.QuerierFromCtx(ctx, r.db).GetContext(ctx, &img, query, reviewID, url); err != nil {
		return nil, mapError(err, "review image", url)
	}

	return &img, nil
}

// Delete removes one image row
func (r *ImageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := database.QuerierFromCtx(ctx, r.db).ExecContext(ctx, `DELETE FROM review_images WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "review image", id)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return mapError(sql.ErrNoRows, "review image", id)
	}

	return nil
}

// DeleteByReview removes every image row of a review and returns their storage paths
func (r *ImageRepository) DeleteByReview(ctx context.Context, reviewID uuid.UUID) ([]string, error) {
	paths := []string{}
	err := database.QuerierFromCtx(ctx, r.db).SelectContext(
		ctx,
		&paths,
		`DELETE FROM review_images WHERE review_id = $1 RETURNING storage_path`,
		reviewID,
	)
	if err != nil {
		return nil, mapError(err, "review images", reviewID)
	}

	return paths, nil
}
