package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Pesokrava/park_reviewer/internal/domain"
	"github.com/Pesokrava/park_reviewer/internal/pkg/database"
)

// ParkRepository implements domain.ParkRepository for PostgreSQL
type ParkRepository struct {
	db *sqlx.DB
}

// NewParkRepository creates a new PostgreSQL park repository
func NewParkRepository(db *sqlx.DB) *ParkRepository {
	return &ParkRepository{db: db}
}

// Upsert creates a park or refreshes the park registered under the same place ID
func (r *ParkRepository) Upsert(ctx context.Context, park *domain.Park) error {
	query := `
		INSERT INTO parks (place_id, name, address)
		VALUES ($1, $2, $3)
		ON CONFLICT (place_id) DO UPDATE
		SET name = EXCLUDED.name, address = EXCLUDED.address, updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	err := database.QuerierFromCtx(ctx, r.db).QueryRowxContext(
		ctx,
		query,
		park.PlaceID,
		park.Name,
		park.Address,
	).Scan(&park.ID, &park.CreatedAt, &park.UpdatedAt)

	return mapError(err, "park", park.PlaceID)
}

// GetByID retrieves a park by ID
func (r *ParkRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Park, error) {
	query := `
		SELECT id, place_id, name, address, created_at, updated_at
		FROM parks
		WHERE id = $1
	`

	var park domain.Park
	if err := database.QuerierFromCtx(ctx, r.db).GetContext(ctx, &park, query, id); err != nil {
		return nil, mapError(err, "park", id)
	}

	return &park, nil
}

// List retrieves a paginated list of parks ordered by name
func (r *ParkRepository) List(ctx context.Context, limit, offset int) ([]*domain.Park, error) {
	query := `
		SELECT id, place_id, name, address, created_at, updated_at
		FROM parks
		ORDER BY name ASC, id ASC
		LIMIT $1 OFFSET $2
	`

	parks := []*domain.Park{}
	if err := database.QuerierFromCtx(ctx, r.db).SelectContext(ctx, &parks, query, limit, offset); err != nil {
		return nil, mapError(err, "parks", "list")
	}

	return parks, nil
}

// Count returns the total number of parks
func (r *ParkRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := database.QuerierFromCtx(ctx, r.db).GetContext(ctx, &count, `SELECT COUNT(*) FROM parks`); err != nil {
		return 0, mapError(err, "parks", "count")
	}

	return count, nil
}
