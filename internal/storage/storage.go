// Package storage holds the object stores for review images and the
// external HEIC converter client.
package storage

import (
	"context"
	"fmt"

	"github.com/Pesokrava/park_reviewer/internal/config"
	"github.com/Pesokrava/park_reviewer/internal/pkg/logger"
)

// ObjectStore stores binary objects under a path and serves them by public URL
type ObjectStore interface {
	// Put stores body under path and returns the object's reference
	Put(ctx context.Context, path string, body []byte, contentType string) (string, error)

	// Delete removes the object with the given reference; missing objects are not an error
	Delete(ctx context.Context, reference string) error

	// PublicURL returns the URL clients use to fetch the object
	PublicURL(reference string) string
}

// New builds the object store selected by cfg.Storage.Driver, wrapped in a circuit breaker
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*GuardedStore, error) {
	var (
		store ObjectStore
		err   error
	)

	switch cfg.Storage.Driver {
	case "s3":
		store, err = NewS3Store(ctx, cfg.Storage)
	case "cloudinary":
		store, err = NewCloudinaryStore(cfg.Storage)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
	if err != nil {
		return nil, err
	}

	return NewGuardedStore(store, cfg.Storage.Driver, cfg.Storage.OperationTimeout, log), nil
}
