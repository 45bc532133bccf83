package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/KNICEX/strategy-monitor/internal/service/indicator"
	"github.com/KNICEX/strategy-monitor/internal/service/market"
	"github.com/KNICEX/strategy-monitor/internal/service/strategy"
	"golang.org/x/sync/errgroup"
)

// ReplayReq 在历史K线上逐根回放一个策略
type ReplayReq struct {
	Market    market.Market
	Timeframe market.Timeframe
	Type      strategy.Type
	Params    strategy.Params // 为空时使用默认参数
	StartTime time.Time
	EndTime   time.Time
}

// Change 回放过程中的一次持仓变化
type Change struct {
	Timestamp time.Time
	Previous  strategy.Positions
	Positions strategy.Positions
}

type Report struct {
	Req     ReplayReq
	Cycles  int // 成功评估的K线数
	Skipped int // 数据不足跳过的K线数
	Changes []Change
}

type ReplayEngine struct {
	ticks       market.TickService
	global      strategy.Params
	concurrency int
	logger      *slog.Logger
}

type Option func(e *ReplayEngine)

func WithGlobalParams(params strategy.Params) Option {
	return func(e *ReplayEngine) {
		e.global = params
	}
}

func WithConcurrency(n int) Option {
	return func(e *ReplayEngine) {
		e.concurrency = n
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *ReplayEngine) {
		e.logger = logger
	}
}

func NewReplayEngine(ticks market.TickService, opts ...Option) *ReplayEngine {
	e := &ReplayEngine{
		ticks:       ticks,
		concurrency: 4,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run 并发回放多个请求, 任一失败时取消其余回放
func (e *ReplayEngine) Run(ctx context.Context, reqs ...ReplayReq) ([]Report, error) {
	reports := make([]Report, len(reqs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(e.concurrency, 1))
	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			report, err := e.Replay(ctx, req)
			if err != nil {
				return err
			}
			reports[i] = report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// Replay 对 [StartTime, EndTime) 内每根收盘的K线, 用监控时相同长度的窗口评估策略,
// 按与监控相同的规则记录持仓变化
func (e *ReplayEngine) Replay(ctx context.Context, req ReplayReq) (Report, error) {
	report := Report{Req: req}
	if !req.Timeframe.Valid() {
		return report, fmt.Errorf("replay: unknown timeframe %q", req.Timeframe)
	}
	if !req.EndTime.After(req.StartTime) {
		return report, fmt.Errorf("replay: empty time range %s - %s", req.StartTime, req.EndTime)
	}
	params, ignored, err := strategy.ResolveParams(req.Type, e.global, req.Params)
	if err != nil {
		return report, fmt.Errorf("replay: %w", err)
	}
	if len(ignored) > 0 {
		e.logger.Warn("ignore unknown strategy parameters", "strategy_type", req.Type, "params", ignored)
	}
	lookback, err := strategy.Lookback(req.Type, params)
	if err != nil {
		return report, fmt.Errorf("replay: %w", err)
	}

	tf := req.Timeframe.Duration()
	ticks, err := e.ticks.FetchTicks(ctx, market.FetchTicksReq{
		Market:    req.Market,
		Timeframe: req.Timeframe,
		StartTime: req.StartTime.Add(-time.Duration(lookback) * tf),
		EndTime:   req.EndTime,
	})
	if err != nil {
		return report, fmt.Errorf("replay: fetch ticks: %w", err)
	}

	hasResult, prev := false, strategy.Flat
	for i := range ticks {
		if ticks[i].OpenTime.Before(req.StartTime) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}
		window := ticks[max(0, i+1-lookback) : i+1]
		res, err := strategy.Compute(req.Type, params, window)
		if errors.Is(err, indicator.ErrInsufficientData) {
			report.Skipped++
			continue
		}
		if err != nil {
			return report, fmt.Errorf("replay %s at %s: %w", req.Type, ticks[i].OpenTime, err)
		}
		report.Cycles++
		if strategy.Changed(hasResult, prev, res.Positions) {
			report.Changes = append(report.Changes, Change{
				Timestamp: res.Timestamp,
				Previous:  prev,
				Positions: res.Positions,
			})
		}
		hasResult, prev = true, res.Positions
	}
	e.logger.Debug("replay finished", "market", req.Market.String(), "timeframe", req.Timeframe,
		"strategy_type", req.Type, "cycles", report.Cycles, "skipped", report.Skipped, "changes", len(report.Changes))
	return report, nil
}
