package cache

import (
	"context"
	"encoding/json"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"lingap/internal/platform/config"
	"lingap/internal/schema/models"
)

const fieldListKey = "lingap:schema:fields"

// Redis is a read-through cache for the field list. Schema edits are rare
// while every beneficiary write validates against the schema, so a short
// TTL plus explicit invalidation keeps instances close to current without
// a broadcast channel.
type Redis struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewRedis(client *goredis.Client) *Redis {
	return &Redis{client: client, ttl: config.SchemaCacheTTL}
}

// Get returns the cached field list and whether the cache held one.
// Redis failures read as a miss; the store is the source of truth.
func (c *Redis) Get(ctx context.Context) ([]*models.FieldDefinition, bool) {
	raw, err := c.client.Get(ctx, fieldListKey).Bytes()
	if err != nil {
		return nil, false
	}
	var fields []*models.FieldDefinition
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, false
	}
	return fields, true
}

// Set stores the field list with the configured TTL, best-effort.
func (c *Redis) Set(ctx context.Context, fields []*models.FieldDefinition) {
	raw, err := json.Marshal(fields)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, fieldListKey, raw, c.ttl).Err()
}

// Invalidate drops the cached list after a schema mutation.
func (c *Redis) Invalidate(ctx context.Context) {
	_ = c.client.Del(ctx, fieldListKey).Err()
}
