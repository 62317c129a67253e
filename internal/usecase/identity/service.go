package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/Pesokrava/park_reviewer/internal/domain"
	"github.com/Pesokrava/park_reviewer/internal/pkg/ctxutil"
	"github.com/Pesokrava/park_reviewer/internal/pkg/logger"
	pkgvalidator "github.com/Pesokrava/park_reviewer/internal/pkg/validator"
)

// ProfileCache caches subject to profile ID mappings
type ProfileCache interface {
	GetProfileID(ctx context.Context, subject string) (uuid.UUID, error)
	SetProfileID(ctx context.Context, subject string, profileID uuid.UUID) error
}

// Service maps the external session subject to the internal profile.
// It is the only place that performs that lookup.
type Service struct {
	repo     domain.ProfileRepository
	cache    ProfileCache
	validate *validator.Validate
	logger   *logger.Logger
}

// NewService creates a new identity service
func NewService(repo domain.ProfileRepository, cache ProfileCache, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		cache:    cache,
		validate: pkgvalidator.Get(),
		logger:   log,
	}
}

// Resolve returns the profile ID of the current session.
// No session yields domain.ErrUnauthenticated; a subject without a profile domain.ErrProfileNotFound.
// Profiles are never created here.
func (s *Service) Resolve(ctx context.Context) (uuid.UUID, error) {
	session, ok := ctxutil.SessionFromCtx(ctx)
	if !ok {
		return uuid.Nil, domain.ErrUnauthenticated
	}

	if id, err := s.cache.GetProfileID(ctx, session.Subject); err == nil {
		return id, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		s.logger.Warnf("Failed to read profile cache for subject %s: %v", session.Subject, err)
	}

	id, err := s.repo.GetIDBySubject(ctx, session.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return uuid.Nil, domain.ErrProfileNotFound
		}
		s.logger.FromContext(ctx).Error("Failed to resolve profile", err)
		return uuid.Nil, err
	}

	if err := s.cache.SetProfileID(ctx, session.Subject, id); err != nil {
		s.logger.Warnf("Failed to cache profile for subject %s: %v", session.Subject, err)
	}

	return id, nil
}

// Signup creates the profile of the current session's subject
func (s *Service) Signup(ctx context.Context, displayName string, avatarURL *string) (*domain.Profile, error) {
	session, ok := ctxutil.SessionFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthenticated
	}

	profile := &domain.Profile{
		ExternalSubject: session.Subject,
		DisplayName:     strings.TrimSpace(displayName),
		AvatarURL:       avatarURL,
	}

	if err := s.validate.Struct(profile); err != nil {
		field, msg := pkgvalidator.Describe(err)
		return nil, domain.NewValidationError(field, msg)
	}

	if err := s.repo.Create(ctx, profile); err != nil {
		if !errors.Is(err, domain.ErrAlreadyExists) {
			s.logger.FromContext(ctx).Error("Failed to create profile", err)
		}
		return nil, err
	}

	if err := s.cache.SetProfileID(ctx, session.Subject, profile.ID); err != nil {
		s.logger.Warnf("Failed to cache profile for subject %s: %v", session.Subject, err)
	}

	s.logger.FromContext(ctx).WithFields(map[string]interface{}{
		"profile_id": profile.ID,
		"subject":    session.Subject,
	}).Info("Profile created")

	return profile, nil
}

// Me returns the profile of the current session
func (s *Service) Me(ctx context.Context) (*domain.Profile, error) {
	id, err := s.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	return s.repo.GetByID(ctx, id)
}
