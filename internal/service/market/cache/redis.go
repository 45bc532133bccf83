package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/KNICEX/strategy-monitor/internal/service/market"
	"github.com/go-redis/redis/v8"
)

var _ market.TickService = (*RedisTickService)(nil)

// RedisTickService 读穿缓存, 同一周期内多个策略对相同窗口的请求只打一次上游
type RedisTickService struct {
	next   market.TickService
	rdb    redis.UniversalClient
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

type Option func(s *RedisTickService)

func WithTTL(ttl time.Duration) Option {
	return func(s *RedisTickService) {
		s.ttl = ttl
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *RedisTickService) {
		s.now = now
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *RedisTickService) {
		s.logger = logger
	}
}

func NewRedisTickService(next market.TickService, rdb redis.UniversalClient, opts ...Option) *RedisTickService {
	svc := &RedisTickService{
		next:   next,
		rdb:    rdb,
		ttl:    time.Minute,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func cacheKey(req market.FetchTicksReq) string {
	return fmt.Sprintf("ticks:%s:%s:%d:%d", req.Market, req.Timeframe, req.StartTime.Unix(), req.EndTime.Unix())
}

func (s *RedisTickService) FetchTicks(ctx context.Context, req market.FetchTicksReq) ([]market.Tick, error) {
	// 未收盘的窗口不缓存
	if req.EndTime.IsZero() || req.EndTime.After(s.now()) {
		return s.next.FetchTicks(ctx, req)
	}

	key := cacheKey(req)
	data, err := s.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var ticks []market.Tick
		if err = json.Unmarshal(data, &ticks); err == nil {
			return ticks, nil
		}
		s.logger.Warn("drop corrupted tick cache entry", "key", key, "error", err)
	case !errors.Is(err, redis.Nil):
		s.logger.Warn("tick cache unavailable, fall back to upstream", "key", key, "error", err)
	}

	ticks, err := s.next.FetchTicks(ctx, req)
	if err != nil {
		return nil, err
	}
	if data, err = json.Marshal(ticks); err == nil {
		if err = s.rdb.Set(ctx, key, data, s.ttl).Err(); err != nil {
			s.logger.Warn("failed to write tick cache", "key", key, "error", err)
		}
	}
	return ticks, nil
}
