package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"inventra-server/internal/models"

	"github.com/go-redis/redis/v8"
)

// Plan lookups sit in front of every gated create, so they are cached
// briefly. The gate stays correct on stale data only in the caller-visible
// sense (limits change rarely); counts are always read live.
const planCacheTTL = 60 * time.Second

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

func planKey(orgID string) string {
	return fmt.Sprintf("plan:%s", orgID)
}

// CachePlan stores a tenant's resolved plan with a short TTL
func (c *Client) CachePlan(ctx context.Context, orgID string, plan *models.Plan) error {
	payload, err := json.Marshal(plan)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, planKey(orgID), payload, planCacheTTL).Err()
}

// GetCachedPlan retrieves a tenant's cached plan; any redis failure is
// treated as a miss so the caller falls back to the database
func (c *Client) GetCachedPlan(ctx context.Context, orgID string) (*models.Plan, bool) {
	payload, err := c.rdb.Get(ctx, planKey(orgID)).Bytes()
	if err != nil {
		return nil, false
	}
	var plan models.Plan
	if err := json.Unmarshal(payload, &plan); err != nil {
		return nil, false
	}
	return &plan, true
}

// InvalidatePlan drops a tenant's cached plan (after a subscription change)
func (c *Client) InvalidatePlan(ctx context.Context, orgID string) error {
	return c.rdb.Del(ctx, planKey(orgID)).Err()
}

// AcquireLock acquires a distributed lock
func (c *Client) AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, fmt.Sprintf("lock:%s", lockKey), "1", ttl).Result()
}

// ReleaseLock releases a distributed lock
func (c *Client) ReleaseLock(ctx context.Context, lockKey string) error {
	return c.rdb.Del(ctx, fmt.Sprintf("lock:%s", lockKey)).Err()
}
