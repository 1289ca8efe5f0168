package store

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrCacheMiss = errors.New("status not cached")

// StatusCache — кэш флага заказов на диспетчерской платформе.
// Снимает нагрузку с платформы при частых запросах статуса из приложения водителя.
type StatusCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStatusCache(rdb *redis.Client, ttl time.Duration) *StatusCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &StatusCache{rdb: rdb, ttl: ttl}
}

func (s *StatusCache) key(driverID uuid.UUID) string { return "routing:status:" + driverID.String() }

func (s *StatusCache) Get(ctx context.Context, driverID uuid.UUID) (bool, error) {
	v, err := s.rdb.Get(ctx, s.key(driverID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, ErrCacheMiss
		}
		return false, err
	}
	enabled, err := strconv.ParseBool(v)
	if err != nil {
		return false, ErrCacheMiss
	}
	return enabled, nil
}

func (s *StatusCache) Set(ctx context.Context, driverID uuid.UUID, enabled bool) error {
	return s.rdb.Set(ctx, s.key(driverID), strconv.FormatBool(enabled), s.ttl).Err()
}

// Invalidate сбрасывает кэш после включения/выключения заказов.
func (s *StatusCache) Invalidate(ctx context.Context, driverID uuid.UUID) error {
	return s.rdb.Del(ctx, s.key(driverID)).Err()
}
