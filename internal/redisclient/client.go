package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"rxmatch-service/internal/models"

	"github.com/go-redis/redis/v8"
)

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// AvailabilityKey builds the cache key for one patient identity.
func AvailabilityKey(accountID int64, email string) string {
	return fmt.Sprintf("availability:%d:%s", accountID, strings.ToLower(strings.TrimSpace(email)))
}

// GetAvailabilityView returns the cached availability view for a key.
// The second return value is false on a cache miss.
func (c *Client) GetAvailabilityView(ctx context.Context, key string) ([]models.AvailabilityEntry, bool, error) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var entries []models.AvailabilityEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, false, fmt.Errorf("corrupt cached view: %w", err)
	}
	return entries, true, nil
}

// SetAvailabilityView caches an availability view with a TTL.
func (c *Client) SetAvailabilityView(ctx context.Context, key string, entries []models.AvailabilityEntry, ttl time.Duration) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, data, ttl).Err()
}

// InvalidateAvailability drops the cached views a patient could be served
// under: the combined identity plus the account-only and email-only keys.
// The cache TTL bounds staleness for identities this cannot enumerate.
func (c *Client) InvalidateAvailability(ctx context.Context, accountID int64, email string) error {
	keys := []string{
		AvailabilityKey(accountID, email),
		AvailabilityKey(accountID, ""),
		AvailabilityKey(0, email),
	}
	return c.rdb.Del(ctx, keys...).Err()
}
