package strategy

import (
	"fmt"

	"github.com/KNICEX/strategy-monitor/internal/service/indicator"
	"github.com/KNICEX/strategy-monitor/internal/service/market"
)

// windowExtraKey 在最少K线数之外多取的K线数, 让递归指标充分收敛
const windowExtraKey = "window.extra"

// MaxLookback 单次评估最多拉取的K线数量
const MaxLookback = 5000

// Evaluate 在 latest 位置按策略规则组合分析结果, 无状态
func Evaluate(t Type, readings Readings, latest int) (Positions, error) {
	rule, err := Lookup(t)
	if err != nil {
		return Flat, err
	}
	for _, in := range rule.Inputs {
		series, ok := readings[in.Name]
		if !ok {
			return Flat, fmt.Errorf("%w: %s needs %s", ErrMissingReading, t, in.Name)
		}
		if series.Kind != in.Kind {
			return Flat, fmt.Errorf("%w: %s input %s is %s, want %s", ErrMissingReading, t, in.Name, series.Kind, in.Kind)
		}
		if latest < 0 || latest >= series.Len() {
			return Flat, fmt.Errorf("%w: %s input %s has no index %d", ErrMissingReading, t, in.Name, latest)
		}
	}
	return rule.Combine(readings, latest), nil
}

// Compute 指标 -> 分析 -> 在最后一根K线上评估
func Compute(t Type, p Params, ticks []market.Tick) (Result, error) {
	rule, err := Lookup(t)
	if err != nil {
		return Result{}, err
	}
	if required := rule.MinTicks(p); len(ticks) < required || len(ticks) == 0 {
		return Result{}, &indicator.InsufficientDataError{Indicator: string(t), Required: max(required, 1), Actual: len(ticks)}
	}
	readings, err := rule.Analyze(ticks, p)
	if err != nil {
		return Result{}, fmt.Errorf("analyze %s: %w", t, err)
	}
	latest := len(ticks) - 1
	positions, err := Evaluate(t, readings, latest)
	if err != nil {
		return Result{}, err
	}
	return Result{Timestamp: ticks[latest].OpenTime, Positions: positions}, nil
}

// Lookback 每次评估需要拉取的K线数量
func Lookback(t Type, p Params) (int, error) {
	rule, err := Lookup(t)
	if err != nil {
		return 0, err
	}
	n := rule.MinTicks(p) + max(p.Int(windowExtraKey), 0)
	if n > MaxLookback {
		return 0, fmt.Errorf("%w: %s needs %d ticks, at most %d", indicator.ErrInvalidRequest, t, n, MaxLookback)
	}
	return n, nil
}
