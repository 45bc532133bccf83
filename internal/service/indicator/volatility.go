package indicator

import (
	"fmt"

	"github.com/KNICEX/strategy-monitor/internal/service/market"
	"github.com/KNICEX/strategy-monitor/pkg/decimalx"
	"github.com/shopspring/decimal"
)

// trueRangeLine 第一根K线没有前收盘价, 不定义
func trueRangeLine(ticks []market.Tick) line {
	out := make(line, len(ticks))
	for i := 1; i < len(ticks); i++ {
		prevClose := ticks[i-1].Close
		tr := ticks[i].High.Sub(ticks[i].Low)
		tr = decimal.Max(tr, ticks[i].High.Sub(prevClose).Abs())
		tr = decimal.Max(tr, ticks[i].Low.Sub(prevClose).Abs())
		out[i] = point{v: tr, ok: true}
	}
	return out
}

func atrLine(ticks []market.Tick, period int) line {
	return wilderLine(trueRangeLine(ticks), period)
}

type ATRParams struct {
	Period int
}

func (p ATRParams) MinTicks() int {
	return p.Period + 1
}

// ATR 平均真实波幅
func ATR(ticks []market.Tick, p ATRParams) (Result, error) {
	name := fmt.Sprintf("atr(%d)", p.Period)
	if err := validate(name, len(ticks), p.MinTicks(), p.Period); err != nil {
		return Result{}, err
	}
	return valueResult(name, ticks, atrLine(ticks, p.Period)), nil
}

type BollingerParams struct {
	Period     int
	Multiplier decimal.Decimal // 标准差倍数
	Price      PriceType
}

func (p BollingerParams) MinTicks() int {
	return p.Period
}

// Bollinger 布林带, 中轨 SMA, 上下轨为中轨 ± k 倍总体标准差
func Bollinger(ticks []market.Tick, p BollingerParams) (Result, error) {
	name := fmt.Sprintf("bollinger(%d,%s)", p.Period, p.Multiplier)
	if err := validate(name, len(ticks), p.MinTicks(), p.Period); err != nil {
		return Result{}, err
	}
	if p.Multiplier.Sign() <= 0 {
		return Result{}, invalid(name, "multiplier must be positive")
	}
	src := priceLine(ticks, p.Price)
	mid := smaLine(src, p.Period)
	n := decimal.NewFromInt(int64(p.Period))
	upper := make(line, len(ticks))
	lower := make(line, len(ticks))
	for i := range mid {
		if !mid[i].ok {
			continue
		}
		variance := decimal.Zero
		for j := i - p.Period + 1; j <= i; j++ {
			diff := src[j].v.Sub(mid[i].v)
			variance = variance.Add(diff.Mul(diff))
		}
		width := round(p.Multiplier.Mul(decimalx.Sqrt(decimalx.Div(variance, n))))
		upper[i] = point{v: mid[i].v.Add(width), ok: true}
		lower[i] = point{v: mid[i].v.Sub(width), ok: true}
	}
	return bandResult(name, ticks, mid, upper, lower), nil
}

type KeltnerParams struct {
	Period     int
	ATRPeriod  int
	Multiplier decimal.Decimal // ATR 倍数
	Price      PriceType
}

func (p KeltnerParams) MinTicks() int {
	return max(p.Period, p.ATRPeriod+1)
}

// Keltner 肯特纳通道, 中轨 EMA, 上下轨为中轨 ± k 倍 ATR
func Keltner(ticks []market.Tick, p KeltnerParams) (Result, error) {
	name := fmt.Sprintf("keltner(%d,%d,%s)", p.Period, p.ATRPeriod, p.Multiplier)
	if err := validate(name, len(ticks), p.MinTicks(), p.Period, p.ATRPeriod); err != nil {
		return Result{}, err
	}
	if p.Multiplier.Sign() <= 0 {
		return Result{}, invalid(name, "multiplier must be positive")
	}
	mid := emaLine(priceLine(ticks, p.Price), p.Period, emaAlpha(p.Period))
	atr := atrLine(ticks, p.ATRPeriod)
	upper := combine(mid, atr, func(m, a decimal.Decimal) decimal.Decimal {
		return round(m.Add(p.Multiplier.Mul(a)))
	})
	lower := combine(mid, atr, func(m, a decimal.Decimal) decimal.Decimal {
		return round(m.Sub(p.Multiplier.Mul(a)))
	})
	return bandResult(name, ticks, combine(mid, atr, func(m, _ decimal.Decimal) decimal.Decimal { return m }), upper, lower), nil
}

type EnvelopeParams struct {
	Period  int
	Percent decimal.Decimal // 2.5 表示 2.5%
	Price   PriceType
}

func (p EnvelopeParams) MinTicks() int {
	return p.Period
}

// Envelope 价格包络线, 中轨 SMA, 上下轨按百分比偏移
func Envelope(ticks []market.Tick, p EnvelopeParams) (Result, error) {
	name := fmt.Sprintf("envelope(%d,%s)", p.Period, p.Percent)
	if err := validate(name, len(ticks), p.MinTicks(), p.Period); err != nil {
		return Result{}, err
	}
	if p.Percent.Sign() <= 0 {
		return Result{}, invalid(name, "percent must be positive")
	}
	mid := smaLine(priceLine(ticks, p.Price), p.Period)
	ratio := decimalx.Div(p.Percent, decimalx.Hundred)
	upper := make(line, len(ticks))
	lower := make(line, len(ticks))
	for i, m := range mid {
		if m.ok {
			upper[i] = point{v: round(m.v.Mul(decimal.NewFromInt(1).Add(ratio))), ok: true}
			lower[i] = point{v: round(m.v.Mul(decimal.NewFromInt(1).Sub(ratio))), ok: true}
		}
	}
	return bandResult(name, ticks, mid, upper, lower), nil
}
