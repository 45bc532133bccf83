package ioc

import (
	"log/slog"
	"time"

	"github.com/KNICEX/strategy-monitor/internal/repo"
	"github.com/KNICEX/strategy-monitor/internal/service/market"
	"github.com/KNICEX/strategy-monitor/internal/service/market/binance"
	"github.com/KNICEX/strategy-monitor/internal/service/market/cache"
	"github.com/KNICEX/strategy-monitor/internal/service/monitor"
	"github.com/KNICEX/strategy-monitor/internal/service/strategy"
	"github.com/adshao/go-binance/v2/futures"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"
	"gorm.io/gorm"
)

func InitMonitorConfig() monitor.Config {
	cfg := monitor.DefaultConfig()
	if err := viper.UnmarshalKey("monitor", &cfg); err != nil {
		panic(err)
	}
	return cfg
}

// InitGlobalParams indicators 节: "<indicator>.<param>": "<decimal>"
func InitGlobalParams() strategy.Params {
	raw := viper.GetStringMapString("indicators")
	params, err := strategy.ParseParams(raw)
	if err != nil {
		panic(err)
	}
	return params
}

// InitTickService 配置了 redis 时在币安K线接口外加一层缓存
func InitTickService(cli *futures.Client, rdb redis.UniversalClient, logger *slog.Logger) market.TickService {
	var svc market.TickService = binance.NewTickService(cli)
	if rdb == nil {
		return svc
	}
	ttl := viper.GetDuration("redis.tick_ttl")
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return cache.NewRedisTickService(svc, rdb, cache.WithTTL(ttl), cache.WithLogger(logger.With("component", "tick_cache")))
}

func InitPipeline(db *gorm.DB, ticks market.TickService, notifier monitor.Notifier,
	reg prometheus.Registerer, logger *slog.Logger) *monitor.Pipeline {
	return monitor.NewPipeline(InitMonitorConfig(), repo.NewMemberStrategyRepo(db), ticks,
		monitor.WithNotifier(notifier),
		monitor.WithSignalRepo(repo.NewSignalRepo(db)),
		monitor.WithGlobalParams(InitGlobalParams()),
		monitor.WithMetrics(monitor.NewMetrics(reg)),
		monitor.WithLogger(logger),
	)
}
