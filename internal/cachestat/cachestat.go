package cachestat

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/d60-Lab/croak-backend/internal/repository"
)

const statsKey = "email_queue:stats"

// StatsCache serves queue-stats snapshots through a short-TTL cache-aside so
// frequent polling of the stats endpoint does not hammer the primary store.
type StatsCache struct {
	queueRepo repository.EmailQueueRepository
	cache     *redis.Client
	ttl       time.Duration
}

func New(queueRepo repository.EmailQueueRepository, cache *redis.Client, ttl time.Duration) *StatsCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &StatsCache{queueRepo: queueRepo, cache: cache, ttl: ttl}
}

// Get returns the cached snapshot when fresh, otherwise recomputes and caches it.
// A nil or unreachable cache degrades to a direct store query.
func (s *StatsCache) Get(ctx context.Context) (*repository.QueueStats, error) {
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, statsKey).Bytes(); err == nil {
			var stats repository.QueueStats
			if uErr := json.Unmarshal(data, &stats); uErr == nil {
				return &stats, nil
			}
		}
	}

	stats, err := s.queueRepo.Stats(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if payload, err := json.Marshal(stats); err == nil {
			_ = s.cache.Set(ctx, statsKey, payload, s.ttl).Err()
		}
	}
	return stats, nil
}

// Invalidate drops the snapshot, used after a drain or cleanup mutates the queue.
func (s *StatsCache) Invalidate(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.Del(ctx, statsKey).Err()
	}
}
