package analyzer

import (
	"fmt"

	"github.com/KNICEX/strategy-monitor/internal/service/indicator"
	"github.com/KNICEX/strategy-monitor/pkg/decimalx"
	"github.com/shopspring/decimal"
)

// percentOf |a-b| 占 base 的百分比
func percentOf(a, b, base decimal.Decimal) decimal.Decimal {
	return decimalx.Div(decimalx.Hundred.Mul(a.Sub(b).Abs()), base.Abs())
}

// DirectionalTrend ADX 低于 consolidation 为盘整, 否则按 +DI 与 -DI 的大小定方向, 强度取 ADX
func DirectionalTrend(dmi indicator.Result, consolidation decimal.Decimal, bands StrengthBands) (Series, error) {
	if err := requireShape(dmi, indicator.ShapeDual); err != nil {
		return Series{}, err
	}
	series := newSeries(fmt.Sprintf("directional(%s)", dmi.Indicator), KindTrend, dmi)
	for i, e := range dmi.Entries {
		if !e.Defined {
			continue
		}
		r := &series.Readings[i]
		r.Defined = true
		r.Strength = bands.Of(e.Value)
		switch {
		case e.Value.LessThan(consolidation):
			r.Trend = Consolidation
		case e.First.GreaterThan(e.Second):
			r.Trend = Up
		case e.First.LessThan(e.Second):
			r.Trend = Down
		default:
			r.Trend = Consolidation
		}
	}
	return series, nil
}

// ParabolicTrend 价格在 SAR 之上为上升趋势, 强度为两者距离占价格的百分比
func ParabolicTrend(price, sar indicator.Result, bands StrengthBands) (Series, error) {
	if err := Align(price, sar); err != nil {
		return Series{}, err
	}
	series := newSeries(fmt.Sprintf("parabolic(%s)", sar.Indicator), KindTrend, sar)
	for i := range sar.Entries {
		p, s := price.Entries[i], sar.Entries[i]
		if !p.Defined || !s.Defined {
			continue
		}
		r := &series.Readings[i]
		r.Defined = true
		r.Trend = trendOf(p.Value.Cmp(s.Value))
		r.Strength = bands.Of(percentOf(p.Value, s.Value, p.Value))
	}
	return series, nil
}

// MovingAverageTrend 价格在均线之上且均线最近 lookback 个值的斜率为正时为上升趋势, 反之为下降趋势
func MovingAverageTrend(price, ma indicator.Result, lookback int, bands StrengthBands) (Series, error) {
	if lookback < 2 {
		return Series{}, &AlignmentError{Reason: fmt.Sprintf("slope lookback %d is less than 2", lookback)}
	}
	if err := Align(price, ma); err != nil {
		return Series{}, err
	}
	series := newSeries(fmt.Sprintf("ma_trend(%s,%d)", ma.Indicator, lookback), KindTrend, ma)
	window := make([]decimal.Decimal, 0, lookback)
	for i := range ma.Entries {
		p, m := price.Entries[i], ma.Entries[i]
		if !m.Defined {
			window = window[:0]
			continue
		}
		window = append(window, m.Value)
		if len(window) > lookback {
			window = window[1:]
		}
		if !p.Defined || len(window) < lookback {
			continue
		}
		slope := decimalx.Slope(window)
		r := &series.Readings[i]
		r.Defined = true
		r.Trend = Consolidation
		switch {
		case p.Value.GreaterThan(m.Value) && slope.IsPositive():
			r.Trend = Up
		case p.Value.LessThan(m.Value) && slope.IsNegative():
			r.Trend = Down
		}
		r.Strength = bands.Of(percentOf(p.Value, m.Value, m.Value))
	}
	return series, nil
}

// CloudTrend 价格在云层之上且转换线高于基准线为上升趋势, 反之为下降趋势, 处于云层内为盘整.
// 强度为价格与云层边缘的距离占价格的百分比.
func CloudTrend(price indicator.Result, ichimoku indicator.IchimokuResult, bands StrengthBands) (Series, error) {
	if err := Align(price, ichimoku.Tenkan, ichimoku.Kijun, ichimoku.SenkouA, ichimoku.SenkouB); err != nil {
		return Series{}, err
	}
	series := newSeries("cloud("+ichimoku.Tenkan.Indicator+")", KindTrend, price)
	for i := range price.Entries {
		p := price.Entries[i]
		tk, kj := ichimoku.Tenkan.Entries[i], ichimoku.Kijun.Entries[i]
		a, b := ichimoku.SenkouA.Entries[i], ichimoku.SenkouB.Entries[i]
		if !p.Defined || !tk.Defined || !kj.Defined || !a.Defined || !b.Defined {
			continue
		}
		top, bottom := decimal.Max(a.Value, b.Value), decimal.Min(a.Value, b.Value)
		r := &series.Readings[i]
		r.Defined = true
		r.Trend, r.Strength = Consolidation, Weak
		switch {
		case p.Value.GreaterThan(top) && tk.Value.GreaterThan(kj.Value):
			r.Trend, r.Strength = Up, bands.Of(percentOf(p.Value, top, p.Value))
		case p.Value.LessThan(bottom) && tk.Value.LessThan(kj.Value):
			r.Trend, r.Strength = Down, bands.Of(percentOf(p.Value, bottom, p.Value))
		}
	}
	return series, nil
}

func trendOf(cmp int) Trend {
	switch {
	case cmp > 0:
		return Up
	case cmp < 0:
		return Down
	default:
		return Consolidation
	}
}
