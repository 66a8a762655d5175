// Package policy кэширует политики отмены поверх Source.
//
// Локальный уровень: неизменяемый снимок map, опубликованный через atomic.Pointer.
// Каждая запись создаёт новую map и подменяет указатель целиком, читатели не берут блокировок.
// Второй уровень (опционально): Redis с JSON и TTL.
package policy

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m04kA/SMC-CancellationService/internal/domain"
)

const redisKeyPrefix = "cancellation-policy:"

type entry struct {
	policy    *domain.CancellationPolicy
	expiresAt time.Time
}

type snapshot map[int64]entry

// Cache implements the policy store contract with a read-through cache
type Cache struct {
	source       Source
	redis        RedisClient
	ttl          time.Duration
	timeProvider TimeProvider
	metrics      Metrics
	logger       Logger

	current atomic.Pointer[snapshot]
}

// NewCache создает кэш. redisClient может быть nil, тогда используется только локальный уровень.
func NewCache(
	source Source,
	redisClient RedisClient,
	ttl time.Duration,
	timeProvider TimeProvider,
	metrics Metrics,
	logger Logger,
) *Cache {
	c := &Cache{
		source:       source,
		redis:        redisClient,
		ttl:          ttl,
		timeProvider: timeProvider,
		metrics:      metrics,
		logger:       logger,
	}
	empty := snapshot{}
	c.current.Store(&empty)
	return c
}

// GetByProviderID возвращает политику провайдера: локальный снимок, затем Redis, затем Source.
// Ошибки Source (в том числе not found и malformed) не кэшируются.
func (c *Cache) GetByProviderID(ctx context.Context, providerID int64) (*domain.CancellationPolicy, error) {
	now := c.timeProvider.Now()

	if e, ok := (*c.current.Load())[providerID]; ok && now.Before(e.expiresAt) {
		return e.policy.Clone(), nil
	}

	if policy, ok := c.getFromRedis(ctx, providerID); ok {
		c.store(providerID, policy, now)
		return policy.Clone(), nil
	}

	policy, err := c.source.GetByProviderID(ctx, providerID)
	if err != nil {
		return nil, err
	}

	c.putToRedis(ctx, policy)
	c.store(providerID, policy, now)
	return policy.Clone(), nil
}

// Len возвращает количество политик в локальном снимке
func (c *Cache) Len() int {
	return len(*c.current.Load())
}

func (c *Cache) store(providerID int64, policy *domain.CancellationPolicy, now time.Time) {
	e := entry{policy: policy.Clone(), expiresAt: now.Add(c.ttl)}

	for {
		old := c.current.Load()
		next := make(snapshot, len(*old)+1)
		for id, existing := range *old {
			if now.Before(existing.expiresAt) {
				next[id] = existing
			}
		}
		next[providerID] = e

		if c.current.CompareAndSwap(old, &next) {
			c.metrics.SetPolicyCacheEntries(len(next))
			return
		}
	}
}

func (c *Cache) getFromRedis(ctx context.Context, providerID int64) (*domain.CancellationPolicy, bool) {
	if c.redis == nil {
		return nil, false
	}

	raw, err := c.redis.Get(ctx, redisKey(providerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("PolicyCache: redis get failed for provider=%d: %v", providerID, err)
		return nil, false
	}

	var cached cachedPolicy
	if err := json.Unmarshal(raw, &cached); err != nil {
		c.logger.Warn("PolicyCache: corrupted redis entry for provider=%d: %v", providerID, err)
		return nil, false
	}

	policy := cached.toDomain()
	if err := policy.Validate(); err != nil {
		c.logger.Warn("PolicyCache: invalid redis entry for provider=%d: %v", providerID, err)
		return nil, false
	}

	return policy, true
}

func (c *Cache) putToRedis(ctx context.Context, policy *domain.CancellationPolicy) {
	if c.redis == nil {
		return
	}

	raw, err := json.Marshal(fromDomain(policy))
	if err != nil {
		c.logger.Error("PolicyCache: failed to marshal policy id=%d: %v", policy.ID, err)
		return
	}

	if err := c.redis.Set(ctx, redisKey(policy.ProviderID), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("PolicyCache: redis set failed for provider=%d: %v", policy.ProviderID, err)
	}
}

func redisKey(providerID int64) string {
	return redisKeyPrefix + strconv.FormatInt(providerID, 10)
}
