package analyzer

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind 分析结果的形态
type Kind int

const (
	KindSignal Kind = iota + 1
	KindTrend
	KindCross
)

func (k Kind) String() string {
	switch k {
	case KindSignal:
		return "signal"
	case KindTrend:
		return "trend"
	case KindCross:
		return "cross"
	default:
		return "unknown"
	}
}

type Signal string

const (
	Buy     Signal = "BUY"
	Sell    Signal = "SELL"
	Neutral Signal = "NEUTRAL"
)

type Trend string

const (
	Up            Trend = "UP"
	Down          Trend = "DOWN"
	Consolidation Trend = "CONSOLIDATION"
)

type Strength string

const (
	Weak   Strength = "WEAK"
	Normal Strength = "NORMAL"
	Strong Strength = "STRONG"
)

// Cross 相邻两根K线之间价格穿越通道的情况
type Cross struct {
	Upper  bool // 自下而上穿越上轨
	Lower  bool // 自上而下穿越下轨
	Middle bool // 任意方向穿越中轨
}

// Reading 某根K线上的分析结论, 按 Kind 读取对应字段
type Reading struct {
	Time     time.Time
	Defined  bool
	Kind     Kind
	Signal   Signal
	Trend    Trend
	Strength Strength
	Cross    Cross
}

// Bullish 买入信号, 上升趋势或向上突破上轨
func (r Reading) Bullish() bool {
	if !r.Defined {
		return false
	}
	switch r.Kind {
	case KindSignal:
		return r.Signal == Buy
	case KindTrend:
		return r.Trend == Up
	case KindCross:
		return r.Cross.Upper
	default:
		return false
	}
}

// Bearish 卖出信号, 下降趋势或向下跌破下轨
func (r Reading) Bearish() bool {
	if !r.Defined {
		return false
	}
	switch r.Kind {
	case KindSignal:
		return r.Signal == Sell
	case KindTrend:
		return r.Trend == Down
	case KindCross:
		return r.Cross.Lower
	default:
		return false
	}
}

// Series 与输入指标等长的分析结果序列
type Series struct {
	Analyzer string
	Kind     Kind
	Readings []Reading
}

func (s Series) Len() int {
	return len(s.Readings)
}

// At 越界返回未定义的结论
func (s Series) At(i int) Reading {
	if i < 0 || i >= len(s.Readings) {
		return Reading{Kind: s.Kind}
	}
	return s.Readings[i]
}

// StrengthBands 将非负的幅度离散为强弱, 小于 Normal 为 WEAK, 不小于 Strong 为 STRONG
type StrengthBands struct {
	Normal decimal.Decimal
	Strong decimal.Decimal
}

func (b StrengthBands) Of(magnitude decimal.Decimal) Strength {
	m := magnitude.Abs()
	switch {
	case m.GreaterThanOrEqual(b.Strong):
		return Strong
	case m.GreaterThanOrEqual(b.Normal):
		return Normal
	default:
		return Weak
	}
}
