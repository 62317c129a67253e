package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Pesokrava/park_reviewer/internal/domain"
	"github.com/Pesokrava/park_reviewer/internal/pkg/database"
)

// ProfileRepository implements domain.ProfileRepository for PostgreSQL
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository creates a new PostgreSQL profile repository
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Create inserts a new profile
func (r *ProfileRepository) Create(ctx context.Context, profile *domain.Profile) error {
	query := `
		INSERT INTO profiles (external_subject, display_name, avatar_url)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := database.QuerierFromCtx(ctx, r.db).QueryRowxContext(
		ctx,
		query,
		profile.ExternalSubject,
		profile.DisplayName,
		profile.AvatarURL,
	).Scan(&profile.ID, &profile.CreatedAt)

	return mapError(err, "profile", profile.ExternalSubject)
}

// GetByID retrieves a profile by ID
func (r *ProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	query := `
		SELECT id, external_subject, display_name, avatar_url, created_at
		FROM profiles
		WHERE id = $1
	`

	var profile domain.Profile
	if err := database.QuerierFromCtx(ctx, r.db).GetContext(ctx, &profile, query, id); err != nil {
		return nil, mapError(err, "profile", id)
	}

	return &profile, nil
}

// GetIDBySubject returns the internal ID of the profile owned by an external subject
func (r *ProfileRepository) GetIDBySubject(ctx context.Context, subject string) (uuid.UUID, error) {
	query := `SELECT id FROM profiles WHERE external_subject = $1`

	var id uuid.UUID
	if err := database.QuerierFromCtx(ctx, r.db).GetContext(ctx, &id, query, subject); err != nil {
		return uuid.Nil, mapError(err, "profile", subject)
	}

	return id, nil
}
