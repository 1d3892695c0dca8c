package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"inventory-service/internal/models"

	"github.com/go-redis/redis/v8"
)

// Client is a read-through cache for inventory records. It is advisory
// only: every conditional-update path bypasses it and cache failures never
// affect the outcome of a mutation.
type Client struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewClient creates a new Redis cache client
func NewClient(addr, password string, db int, ttl time.Duration) (*Client, error) {
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

	return &Client{rdb: rdb, ttl: ttl}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func recordKey(productID, warehouseID string) string {
	return fmt.Sprintf("inventory:%s:%s", productID, warehouseID)
}

// GetRecord returns a cached record, or nil on miss or any cache error
func (c *Client) GetRecord(ctx context.Context, productID, warehouseID string) (*models.InventoryRecord, error) {
	data, err := c.rdb.Get(ctx, recordKey(productID, warehouseID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var rec models.InventoryRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// SetRecord caches a record with the configured TTL
func (c *Client) SetRecord(ctx context.Context, rec *models.InventoryRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, recordKey(rec.ProductID, rec.WarehouseID), data, c.ttl).Err()
}

// InvalidateRecord drops a record from the cache
func (c *Client) InvalidateRecord(ctx context.Context, productID, warehouseID string) error {
	return c.rdb.Del(ctx, recordKey(productID, warehouseID)).Err()
}
