package monitor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/KNICEX/strategy-monitor/internal/entity"
	"github.com/KNICEX/strategy-monitor/internal/service/strategy"
	"github.com/jpillora/backoff"
)

// deliver 投递信号并记录结果, 结束后释放策略租用
func (p *Pipeline) deliver(ctx context.Context, signal Signal) {
	defer p.scheduler.release(signal.StrategyID)

	attempts, err := p.dispatch(ctx, signal)
	record := entity.Signal{
		Uid:          signal.ID.String(),
		StrategyId:   signal.StrategyID,
		MemberId:     signal.MemberID,
		Base:         signal.Market.Base,
		Quote:        signal.Market.Quote,
		Timeframe:    string(signal.Timeframe),
		StrategyType: string(signal.StrategyType),
		Positions:    encodePositions(signal.Positions),
		Previous:     encodePositions(signal.Previous),
		Timestamp:    signal.Timestamp,
		Status:       entity.SignalStatusDelivered,
		Attempts:     attempts,
	}
	if err != nil {
		record.Status = entity.SignalStatusDropped
		record.Error = err.Error()
		p.metrics.Signals.WithLabelValues("dropped").Inc()
		p.logger.Error("signal dropped", "signal_id", signal.ID, "strategy_id", signal.StrategyID,
			"positions", signal.Positions.String(), "attempts", attempts, "error", err)
	} else {
		p.metrics.Signals.WithLabelValues("delivered").Inc()
	}

	if p.signalRepo == nil {
		return
	}
	saveCtx, cancel := context.WithTimeout(ctx, p.cfg.PersistTimeout)
	defer cancel()
	if _, err := p.signalRepo.Create(saveCtx, record); err != nil {
		p.metrics.PersistFailures.Inc()
		p.logger.Error("save signal failed", "signal_id", signal.ID, "error", err)
	}
}

// dispatch 单次超时, 失败按退避重试, 返回尝试次数
func (p *Pipeline) dispatch(ctx context.Context, signal Signal) (int, error) {
	b := &backoff.Backoff{
		Min:    p.cfg.DispatchBackoff,
		Max:    10 * p.cfg.DispatchBackoff,
		Factor: 2,
		Jitter: true,
	}
	attempts := 0
	for {
		attempts++
		notifyCtx, cancel := context.WithTimeout(ctx, p.cfg.DispatchTimeout)
		err := p.notifier.Notify(notifyCtx, signal)
		cancel()
		if err == nil {
			return attempts, nil
		}
		if attempts > p.cfg.DispatchRetries || !sleep(ctx, b.Duration()) {
			return attempts, fmt.Errorf("%w: %w", ErrNotificationFailed, err)
		}
		p.logger.Debug("notify failed, retry", "signal_id", signal.ID, "attempt", attempts, "error", err)
	}
}

func encodePositions(ps strategy.Positions) string {
	raw, _ := json.Marshal(ps)
	return string(raw)
}
