package analyzer

import (
	"fmt"

	"github.com/KNICEX/strategy-monitor/internal/service/indicator"
	"github.com/shopspring/decimal"
)

// ThresholdCross 向上穿越下阈值为 BUY, 向下穿越上阈值为 SELL, 其余为 NEUTRAL.
// 强度按穿越当根K线与阈值的距离计算.
func ThresholdCross(res indicator.Result, lower, upper decimal.Decimal, bands StrengthBands) (Series, error) {
	if lower.GreaterThan(upper) {
		return Series{}, fmt.Errorf("threshold cross on %s: lower %s above upper %s", res.Indicator, lower, upper)
	}
	series := newSeries(fmt.Sprintf("threshold(%s,%s,%s)", res.Indicator, lower, upper), KindSignal, res)
	for i := 1; i < res.Len(); i++ {
		prev, cur := res.Entries[i-1], res.Entries[i]
		if !prev.Defined || !cur.Defined {
			continue
		}
		r := &series.Readings[i]
		r.Defined = true
		r.Signal, r.Strength = Neutral, Weak
		switch {
		case prev.Value.LessThanOrEqual(lower) && cur.Value.GreaterThan(lower):
			r.Signal, r.Strength = Buy, bands.Of(cur.Value.Sub(lower))
		case prev.Value.GreaterThanOrEqual(upper) && cur.Value.LessThan(upper):
			r.Signal, r.Strength = Sell, bands.Of(upper.Sub(cur.Value))
		}
	}
	return series, nil
}

func ZeroLineCross(res indicator.Result, bands StrengthBands) (Series, error) {
	return ThresholdCross(res, decimal.Zero, decimal.Zero, bands)
}

// SignalLineCross 指标线上穿信号线为 BUY, 下穿为 SELL.
// 结论保持最近一次穿越的方向, 强度为穿越当根K线两线的差值, 第一次穿越之前为 NEUTRAL.
func SignalLineCross(res indicator.Result, bands StrengthBands) (Series, error) {
	if err := requireShape(res, indicator.ShapeSignalLine); err != nil {
		return Series{}, err
	}
	series := newSeries(fmt.Sprintf("signal_cross(%s)", res.Indicator), KindSignal, res)
	signal, strength := Neutral, Weak
	for i := 1; i < res.Len(); i++ {
		prev, cur := res.Entries[i-1], res.Entries[i]
		if !cur.Defined {
			continue
		}
		if prev.Defined {
			prevDiff := prev.Value.Sub(prev.Signal)
			diff := cur.Value.Sub(cur.Signal)
			switch {
			case prevDiff.Sign() <= 0 && diff.Sign() > 0:
				signal, strength = Buy, bands.Of(diff)
			case prevDiff.Sign() >= 0 && diff.Sign() < 0:
				signal, strength = Sell, bands.Of(diff)
			}
		}
		series.Readings[i].Defined = true
		series.Readings[i].Signal = signal
		series.Readings[i].Strength = strength
	}
	return series, nil
}
