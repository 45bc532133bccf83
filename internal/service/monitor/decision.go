package monitor

import (
	"context"
	"encoding/json"

	"github.com/KNICEX/strategy-monitor/internal/entity"
	"github.com/KNICEX/strategy-monitor/internal/service/strategy"
	"github.com/google/uuid"
)

// decide 更新策略状态并在持仓变化时产生信号.
// 返回 false 时该任务到此结束, 由调用方释放租用.
func (p *Pipeline) decide(ctx context.Context, o Outcome) (Signal, bool) {
	st := o.Job.Strategy
	logger := p.logger.With("strategy_id", st.Id, "market", o.Job.Market.String(), "strategy_type", o.Job.Type)

	if o.Failed() && o.Kind == FailureCanceled {
		p.metrics.Outcomes.WithLabelValues(string(FailureCanceled)).Inc()
		logger.Debug("evaluation canceled", "error", o.Err)
		return Signal{}, false
	}
	st.LastRunAt = o.Job.ScheduledAt

	if o.Failed() {
		p.metrics.Outcomes.WithLabelValues(string(o.Kind)).Inc()
		deactivated := p.tracker.Failure(&st)
		logger.Warn("strategy evaluation failed", "kind", o.Kind, "failed_cycles", st.FailedCycles, "error", o.Err)
		if deactivated {
			p.metrics.Deactivations.Inc()
			logger.Warn("strategy deactivated after consecutive failures",
				"failed_cycles", st.FailedCycles, "allowed", p.tracker.Allowed)
		}
		p.persist(ctx, st)
		return Signal{}, false
	}

	p.metrics.Outcomes.WithLabelValues("ok").Inc()
	p.tracker.Success(&st)
	prev, err := decodePositions(st.LastPositions)
	if err != nil {
		// 无法解析的历史结果按无结果处理
		logger.Warn("decode last positions failed", "error", err)
		st.HasResult = false
	}
	cur := o.Result.Positions
	changed := strategy.Changed(st.HasResult, prev, cur)

	raw, err := json.Marshal(cur)
	if err != nil {
		logger.Error("encode positions failed", "error", err)
		p.persist(ctx, st)
		return Signal{}, false
	}
	st.HasResult = true
	st.LastPositions = string(raw)
	st.LastResultAt = o.Result.Timestamp
	saved := p.persist(ctx, st)

	if !changed {
		return Signal{}, false
	}
	if !saved {
		// 状态未落库时下一周期会再次判定为变化, 此处不发出信号
		logger.Error("drop signal, strategy state not saved", "positions", cur.String())
		return Signal{}, false
	}
	signal := Signal{
		ID:           uuid.New(),
		StrategyID:   st.Id,
		MemberID:     st.MemberId,
		Market:       o.Job.Market,
		Timeframe:    o.Job.Timeframe,
		StrategyType: o.Job.Type,
		Positions:    cur,
		Previous:     prev,
		Timestamp:    o.Result.Timestamp,
		CreatedAt:    p.clock(),
	}
	logger.Info("positions changed", "previous", prev.String(), "positions", cur.String(), "timestamp", signal.Timestamp)
	return signal, true
}

func decodePositions(raw string) (strategy.Positions, error) {
	if raw == "" {
		return strategy.Flat, nil
	}
	var ps strategy.Positions
	if err := json.Unmarshal([]byte(raw), &ps); err != nil {
		return strategy.Flat, err
	}
	return ps, nil
}

func (p *Pipeline) persist(ctx context.Context, st entity.MemberStrategy) bool {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.PersistTimeout)
	defer cancel()
	if err := p.strategies.SaveState(ctx, st); err != nil {
		p.metrics.PersistFailures.Inc()
		p.logger.Error("save strategy state failed", "strategy_id", st.Id, "error", err)
		return false
	}
	return true
}
