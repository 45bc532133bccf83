package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KNICEX/strategy-monitor/internal/schedule"
	"github.com/KNICEX/strategy-monitor/internal/service/engine"
	"github.com/KNICEX/strategy-monitor/internal/service/market"
	"github.com/KNICEX/strategy-monitor/internal/service/strategy"
	"github.com/KNICEX/strategy-monitor/ioc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

var (
	// --replay-strategy=MACD_ADX --replay-market=BTCUSDT --replay-timeframe=1h --replay-days=30
	replayStrategy  = pflag.String("replay-strategy", "", "replay a strategy over history instead of monitoring")
	replayMarket    = pflag.String("replay-market", "BTCUSDT", "market to replay")
	replayTimeframe = pflag.String("replay-timeframe", "1h", "timeframe to replay")
	replayDays      = pflag.Int("replay-days", 30, "days of history to replay")
)

func initViper() {

	// --config=./config/xxx.yaml
	file := pflag.String("config", "./config/config.dev.yaml", "specify config file")
	pflag.Parse()

	viper.SetConfigFile(*file)
	err := viper.ReadInConfig()
	if err != nil {
		panic(fmt.Errorf("fatal error config file: %s \n", err))
	}
}

func initLogger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(viper.GetString("log.level"))); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

func main() {
	initViper()
	logger := initLogger()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	ticks := ioc.InitTickService(ioc.InitBinanceFuturesCli(), ioc.InitRedis(), logger)
	if *replayStrategy != "" {
		replay(logger, ticks)
		return
	}

	db := ioc.InitDB()
	notifier := ioc.InitNotifier(ioc.InitLLM(), logger)
	pipeline := ioc.InitPipeline(db, ticks, notifier, reg, logger)

	runner := schedule.NewRunner(schedule.WithLogger(logger), schedule.WithTaskTimeout(viper.GetDuration("monitor.task_timeout")))
	if err := runner.Add(ioc.InitMonitorConfig().Cron, pipeline.Scheduler()); err != nil {
		panic(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := viper.GetString("metrics.addr")
	if addr == "" {
		addr = ":9090"
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	var g errgroup.Group
	g.Go(func() error {
		return pipeline.Run(ctx)
	})
	g.Go(func() error {
		return runner.Run(ctx)
	})
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	logger.Info("strategy monitor started", "metrics_addr", addr)
	if err := g.Wait(); err != nil {
		logger.Error("strategy monitor stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("strategy monitor stopped")
}

func replay(logger *slog.Logger, ticks market.TickService) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tf := market.Timeframe(*replayTimeframe)
	end := time.Now().Truncate(tf.Duration())
	e := engine.NewReplayEngine(ticks, engine.WithGlobalParams(ioc.InitGlobalParams()), engine.WithLogger(logger))
	report, err := e.Replay(ctx, engine.ReplayReq{
		Market:    market.ParseMarket(*replayMarket),
		Timeframe: tf,
		Type:      strategy.Type(*replayStrategy),
		StartTime: end.AddDate(0, 0, -*replayDays),
		EndTime:   end,
	})
	if err != nil {
		logger.Error("replay failed", "error", err)
		os.Exit(1)
	}
	for _, c := range report.Changes {
		logger.Info("positions changed", "timestamp", c.Timestamp, "previous", c.Previous.String(), "positions", c.Positions.String())
	}
	logger.Info("replay finished", "cycles", report.Cycles, "skipped", report.Skipped, "changes", len(report.Changes))
}
