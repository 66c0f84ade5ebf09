package refprice

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"tickerfeed/internal/application/port"
)

// RedisStore 把参考价放进一个 Redis hash，多个引擎进程可以共享
// 同一天的预取结果。后端故障一律降级为未命中，不影响行情转发
type RedisStore struct {
	rdb *redis.Client
	key string
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "tickerfeed"
	}
	return &RedisStore{
		rdb: rdb,
		key: prefix + ":refprice",
		// 兜底过期：正常情况下日切时会整体 Clear
		ttl: 48 * time.Hour,
	}
}

func hashField(exchange, symbol string) string {
	return fmt.Sprintf("%s:%s", exchange, symbol)
}

func (s *RedisStore) Get(ctx context.Context, exchange, symbol string) (float64, bool) {
	v, err := s.rdb.HGet(ctx, s.key, hashField(exchange, symbol)).Result()
	if err != nil {
		if err != redis.Nil {
			log.Debug().Err(err).Str("key", s.key).Msg("refprice redis get failed")
		}
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return 0, false
	}
	return f, true
}

func (s *RedisStore) Set(ctx context.Context, exchange, symbol string, price float64) {
	if price <= 0 {
		return
	}
	pipe := s.rdb.Pipeline()
	pipe.HSet(ctx, s.key, hashField(exchange, symbol), strconv.FormatFloat(price, 'f', -1, 64))
	pipe.Expire(ctx, s.key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Debug().Err(err).Str("key", s.key).Msg("refprice redis set failed")
	}
}

func (s *RedisStore) Clear(ctx context.Context) {
	if err := s.rdb.Del(ctx, s.key).Err(); err != nil {
		log.Debug().Err(err).Str("key", s.key).Msg("refprice redis clear failed")
	}
}

var _ port.RefPriceStore = (*RedisStore)(nil)
