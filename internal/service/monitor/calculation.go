package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/KNICEX/strategy-monitor/internal/service/market"
	"github.com/KNICEX/strategy-monitor/internal/service/strategy"
	"github.com/jpillora/backoff"
)

// calculate 拉取K线并评估策略, 任何错误都转为失败结果
func (p *Pipeline) calculate(ctx context.Context, job Job) Outcome {
	start := time.Now()
	res, err := p.evaluate(ctx, job)
	outcome := Outcome{Job: job, Result: res, Err: err, Duration: time.Since(start)}
	p.metrics.CalculationDur.Observe(outcome.Duration.Seconds())
	if err != nil {
		outcome.Kind = classify(err)
		if ctx.Err() != nil {
			outcome.Kind = FailureCanceled
		}
	}
	return outcome
}

func (p *Pipeline) evaluate(ctx context.Context, job Job) (res strategy.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ComputationFault{StrategyId: job.Strategy.Id, Cause: fmt.Errorf("panic: %v", r)}
		}
	}()
	if job.Err != nil {
		return strategy.Result{}, job.Err
	}
	ticks, err := p.fetch(ctx, job)
	if err != nil {
		return strategy.Result{}, err
	}
	return strategy.Compute(job.Type, job.Params, ticks)
}

// fetch 限流, 单次超时, 失败后按退避重试
func (p *Pipeline) fetch(ctx context.Context, job Job) ([]market.Tick, error) {
	b := &backoff.Backoff{
		Min:    p.cfg.FetchBackoff,
		Max:    10 * p.cfg.FetchBackoff,
		Factor: 2,
		Jitter: true,
	}
	var lastErr error
	attempts := 0
	for {
		attempts++
		if err := p.limiter.Wait(ctx); err != nil {
			lastErr = err
			break
		}
		fetchCtx, cancel := context.WithTimeout(ctx, p.cfg.FetchTimeout)
		ticks, err := p.ticks.FetchTicks(fetchCtx, job.Window)
		cancel()
		if err == nil {
			return ticks, nil
		}
		lastErr = err
		if attempts > p.cfg.FetchRetries {
			break
		}
		p.logger.Debug("fetch ticks failed, retry", "strategy_id", job.Strategy.Id,
			"market", job.Market.String(), "timeframe", job.Timeframe, "attempt", attempts, "error", err)
		if !sleep(ctx, b.Duration()) {
			lastErr = ctx.Err()
			break
		}
	}
	return nil, &UpstreamFetchError{Market: job.Market, Timeframe: job.Timeframe, Attempts: attempts, Err: lastErr}
}
