package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Pesokrava/park_reviewer/internal/domain"
)

// RedisCache caches park review lists and subject to profile mappings
type RedisCache struct {
	client         *redis.Client
	parkReviewsTTL time.Duration
	profileTTL     time.Duration
}

// NewRedisCache creates a new Redis cache instance
func NewRedisCache(client *redis.Client, parkReviewsTTL, profileTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:         client,
		parkReviewsTTL: parkReviewsTTL,
		profileTTL:     profileTTL,
	}
}

// Park reviews list cache keys and methods

func (c *RedisCache) parkReviewsKey(parkID uuid.UUID) string {
	return fmt.Sprintf("park:%s:reviews", parkID.String())
}

// GetParkReviews retrieves the cached review list of a park
func (c *RedisCache) GetParkReviews(ctx context.Context, parkID uuid.UUID) ([]*domain.ReviewDetails, error) {
	val, err := c.client.Get(ctx, c.parkReviewsKey(parkID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	var reviews []*domain.ReviewDetails
	if err := json.Unmarshal(val, &reviews); err != nil {
		return nil, err
	}

	return reviews, nil
}

// SetParkReviews stores the review list of a park
func (c *RedisCache) SetParkReviews(ctx context.Context, parkID uuid.UUID, reviews []*domain.ReviewDetails) error {
	data, err := json.Marshal(reviews)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, c.parkReviewsKey(parkID), data, c.parkReviewsTTL).Err()
}

// InvalidateParkReviews removes the cached review list of a park
func (c *RedisCache) InvalidateParkReviews(ctx context.Context, parkID uuid.UUID) error {
	return c.client.Unlink(ctx, c.parkReviewsKey(parkID)).Err()
}

// Subject to profile cache keys and methods

func (c *RedisCache) profileKey(subject string) string {
	return fmt.Sprintf("profile:subject:%s", subject)
}

// GetProfileID returns the cached profile ID of an external subject
func (c *RedisCache) GetProfileID(ctx context.Context, subject string) (uuid.UUID, error) {
	val, err := c.client.Get(ctx, c.profileKey(subject)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, domain.ErrNotFound
		}
		return uuid.Nil, err
	}

	return uuid.Parse(val)
}

// SetProfileID caches the profile ID of an external subject.
// Profiles are never deleted, so a positive mapping cannot go stale.
func (c *RedisCache) SetProfileID(ctx context.Context, subject string, profileID uuid.UUID) error {
	return c.client.Set(ctx, c.profileKey(subject), profileID.String(), c.profileTTL).Err()
}
