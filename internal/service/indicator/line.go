package indicator

import (
	"github.com/KNICEX/strategy-monitor/internal/service/market"
	"github.com/KNICEX/strategy-monitor/pkg/decimalx"
	"github.com/shopspring/decimal"
)

type point struct {
	v  decimal.Decimal
	ok bool
}

// line 一次计算内部使用的序列, 已定义的值从 start() 开始连续
type line []point

func priceLine(ticks []market.Tick, pt PriceType) line {
	l := make(line, len(ticks))
	for i, t := range ticks {
		l[i] = point{v: pt.Of(t), ok: true}
	}
	return l
}

func (l line) start() int {
	for i, p := range l {
		if p.ok {
			return i
		}
	}
	return len(l)
}

func smaLine(src line, period int) line {
	out := make(line, len(src))
	s := src.start()
	n := decimal.NewFromInt(int64(period))
	sum := decimal.Zero
	for i := s; i < len(src); i++ {
		sum = sum.Add(src[i].v)
		if i-period >= s {
			sum = sum.Sub(src[i-period].v)
		}
		if i >= s+period-1 {
			out[i] = point{v: decimalx.Div(sum, n), ok: true}
		}
	}
	return out
}

// emaLine 以前 period 个值的 SMA 作为种子, 之后 e = prev + alpha * (v - prev)
func emaLine(src line, period int, alpha decimal.Decimal) line {
	out := make(line, len(src))
	seedAt := src.start() + period - 1
	if seedAt >= len(src) {
		return out
	}
	seed := smaLine(src, period)[seedAt]
	out[seedAt] = seed
	prev := seed.v
	for i := seedAt + 1; i < len(src); i++ {
		prev = round(prev.Add(alpha.Mul(src[i].v.Sub(prev))))
		out[i] = point{v: prev, ok: true}
	}
	return out
}

func emaAlpha(period int) decimal.Decimal {
	return decimalx.Div(decimalx.Two, decimal.NewFromInt(int64(period+1)))
}

// wilderLine Wilder 平滑 (RMA), e = (prev * (n-1) + v) / n
func wilderLine(src line, period int) line {
	out := make(line, len(src))
	seedAt := src.start() + period - 1
	if seedAt >= len(src) {
		return out
	}
	n := decimal.NewFromInt(int64(period))
	n1 := decimal.NewFromInt(int64(period - 1))
	out[seedAt] = smaLine(src, period)[seedAt]
	prev := out[seedAt].v
	for i := seedAt + 1; i < len(src); i++ {
		prev = decimalx.Div(prev.Mul(n1).Add(src[i].v), n)
		out[i] = point{v: prev, ok: true}
	}
	return out
}

// wmaLine 线性加权, 最新的值权重为 period
func wmaLine(src line, period int) line {
	out := make(line, len(src))
	s := src.start()
	denominator := decimal.NewFromInt(int64(period * (period + 1) / 2))
	for i := s + period - 1; i < len(src); i++ {
		sum := decimal.Zero
		for w := 1; w <= period; w++ {
			sum = sum.Add(src[i-period+w].v.Mul(decimal.NewFromInt(int64(w))))
		}
		out[i] = point{v: decimalx.Div(sum, denominator), ok: true}
	}
	return out
}

// shiftLine by > 0 向后(未来)平移, by < 0 向前平移, 移出范围的值丢弃
func shiftLine(src line, by int) line {
	out := make(line, len(src))
	for i := range out {
		j := i - by
		if j >= 0 && j < len(src) {
			out[i] = src[j]
		}
	}
	return out
}

func highestLine(ticks []market.Tick, period int) line {
	out := make(line, len(ticks))
	for i := period - 1; i < len(ticks); i++ {
		hh := ticks[i].High
		for j := i - period + 1; j < i; j++ {
			hh = decimal.Max(hh, ticks[j].High)
		}
		out[i] = point{v: hh, ok: true}
	}
	return out
}

func lowestLine(ticks []market.Tick, period int) line {
	out := make(line, len(ticks))
	for i := period - 1; i < len(ticks); i++ {
		ll := ticks[i].Low
		for j := i - period + 1; j < i; j++ {
			ll = decimal.Min(ll, ticks[j].Low)
		}
		out[i] = point{v: ll, ok: true}
	}
	return out
}

// combine 两条序列都已定义时才计算
func combine(a, b line, fn func(x, y decimal.Decimal) decimal.Decimal) line {
	out := make(line, len(a))
	for i := range a {
		if a[i].ok && b[i].ok {
			out[i] = point{v: fn(a[i].v, b[i].v), ok: true}
		}
	}
	return out
}

func newResult(name string, shape Shape, ticks []market.Tick) Result {
	entries := make([]Entry, len(ticks))
	for i, t := range ticks {
		entries[i].Time = t.OpenTime
	}
	return Result{Indicator: name, Shape: shape, Entries: entries}
}

func valueResult(name string, ticks []market.Tick, v line) Result {
	res := newResult(name, ShapeValue, ticks)
	for i := range res.Entries {
		if v[i].ok {
			res.Entries[i].Defined = true
			res.Entries[i].Value = v[i].v
		}
	}
	return res
}

func signalResult(name string, ticks []market.Tick, v, sig line) Result {
	res := newResult(name, ShapeSignalLine, ticks)
	for i := range res.Entries {
		if v[i].ok && sig[i].ok {
			res.Entries[i].Defined = true
			res.Entries[i].Value = v[i].v
			res.Entries[i].Signal = sig[i].v
		}
	}
	return res
}

func bandResult(name string, ticks []market.Tick, mid, upper, lower line) Result {
	res := newResult(name, ShapeBand, ticks)
	for i := range res.Entries {
		if mid[i].ok && upper[i].ok && lower[i].ok {
			res.Entries[i].Defined = true
			res.Entries[i].Value = mid[i].v
			res.Entries[i].Upper = upper[i].v
			res.Entries[i].Lower = lower[i].v
		}
	}
	return res
}

// dualResult value 可为 nil
func dualResult(name string, ticks []market.Tick, first, second, value line) Result {
	res := newResult(name, ShapeDual, ticks)
	for i := range res.Entries {
		if !first[i].ok || !second[i].ok || (value != nil && !value[i].ok) {
			continue
		}
		res.Entries[i].Defined = true
		res.Entries[i].First = first[i].v
		res.Entries[i].Second = second[i].v
		if value != nil {
			res.Entries[i].Value = value[i].v
		}
	}
	return res
}
