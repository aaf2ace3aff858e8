package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/docledger/internal/core/domain"
	"github.com/custodia-labs/docledger/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.CatalogCache = (*CatalogCache)(nil)

const (
	catalogPrefix        = "docledger:catalog:"
	catalogGenerationKey = catalogPrefix + "generation"
)

// CatalogCache implements driven.CatalogCache using Redis.
//
// Entry keys embed a generation counter. Invalidate bumps the counter, which
// orphans every entry at once; orphans expire through their own TTL.
type CatalogCache struct {
	client redis.UniversalClient
}

// NewCatalogCache creates a new Redis-backed CatalogCache
func NewCatalogCache(client redis.UniversalClient) *CatalogCache {
	return &CatalogCache{client: client}
}

func (c *CatalogCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, catalogGenerationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func fieldKey(gen int64, code string) string {
	return fmt.Sprintf("%sg%d:field:%s", catalogPrefix, gen, code)
}

// GetField returns the cached definition for code
func (c *CatalogCache) GetField(ctx context.Context, code string) (*domain.FieldDefinition, bool, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("read catalog generation: %w", err)
	}

	data, err := c.client.Get(ctx, fieldKey(gen, code)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cached field %s: %w", code, err)
	}

	var def domain.FieldDefinition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, false, fmt.Errorf("decode cached field %s: %w", code, err)
	}
	return &def, true, nil
}

// SetField caches def under the current generation
func (c *CatalogCache) SetField(ctx context.Context, def *domain.FieldDefinition, ttl time.Duration) error {
	gen, err := c.generation(ctx)
	if err != nil {
		return fmt.Errorf("read catalog generation: %w", err)
	}
	data, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("encode field %s: %w", def.Code, err)
	}
	if err := c.client.Set(ctx, fieldKey(gen, def.Code), data, ttl).Err(); err != nil {
		return fmt.Errorf("cache field %s: %w", def.Code, err)
	}
	return nil
}

// Invalidate drops every cached entry
func (c *CatalogCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, catalogGenerationKey).Err(); err != nil {
		return fmt.Errorf("invalidate catalog cache: %w", err)
	}
	return nil
}
