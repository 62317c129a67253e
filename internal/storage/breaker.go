package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/Pesokrava/park_reviewer/internal/domain"
	"github.com/Pesokrava/park_reviewer/internal/pkg/logger"
)

// GuardedStore bounds every object store call by a timeout and a circuit breaker.
// An open breaker or a timeout yields domain.ErrUnavailable; any other failure domain.ErrStorage.
type GuardedStore struct {
	store   ObjectStore
	breaker *gobreaker.CircuitBreaker
	timeout time.Duration
}

// NewGuardedStore wraps store; the breaker opens after 5 consecutive failures and probes again after 30s
func NewGuardedStore(store ObjectStore, name string, timeout time.Duration, log *logger.Logger) *GuardedStore {
	settings := gobreaker.Settings{
		Name:        "object-store-" + name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warnf("circuit breaker %s: %s -> %s", name, from, to)
		},
	}

	return &GuardedStore{
		store:   store,
		breaker: gobreaker.NewCircuitBreaker(settings),
		timeout: timeout,
	}
}

func (g *GuardedStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.timeout)
}

// Put stores body through the breaker
func (g *GuardedStore) Put(ctx context.Context, path string, body []byte, contentType string) (string, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	ref, err := g.breaker.Execute(func() (interface{}, error) {
		return g.store.Put(ctx, path, body, contentType)
	})
	if err != nil {
		return "", classify(ctx, "put", err)
	}

	return ref.(string), nil
}

// Delete removes an object through the breaker
func (g *GuardedStore) Delete(ctx context.Context, reference string) error {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	_, err := g.breaker.Execute(func() (interface{}, error) {
		return nil, g.store.Delete(ctx, reference)
	})
	if err != nil {
		return classify(ctx, "delete", err)
	}

	return nil
}

// PublicURL never touches the network
func (g *GuardedStore) PublicURL(reference string) string {
	return g.store.PublicURL(reference)
}

// State reports the breaker state, for health output
func (g *GuardedStore) State() string {
	return g.breaker.State().String()
}

func classify(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return fmt.Errorf("object store %s: %w: %v", op, domain.ErrUnavailable, err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled), ctx.Err() != nil:
		return fmt.Errorf("object store %s: %w: %v", op, domain.ErrUnavailable, err)
	default:
		return fmt.Errorf("object store %s: %w: %v", op, domain.ErrStorage, err)
	}
}
