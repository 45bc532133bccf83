package indicator

import (
	"time"

	"github.com/KNICEX/strategy-monitor/internal/service/market"
	"github.com/KNICEX/strategy-monitor/pkg/decimalx"
	"github.com/shopspring/decimal"
)

// Shape 指标结果的形态
type Shape int

const (
	// ShapeValue 单值
	ShapeValue Shape = iota + 1
	// ShapeSignalLine 值 + 信号线
	ShapeSignalLine
	// ShapeBand 上/中/下轨, 中轨存放在 Value
	ShapeBand
	// ShapeDual 成对的值 First/Second
	ShapeDual
)

func (s Shape) String() string {
	switch s {
	case ShapeValue:
		return "value"
	case ShapeSignalLine:
		return "signal_line"
	case ShapeBand:
		return "band"
	case ShapeDual:
		return "dual"
	default:
		return "unknown"
	}
}

// Entry 与输入K线一一对应, 预热期 Defined 为 false
type Entry struct {
	Time    time.Time
	Defined bool

	Value  decimal.Decimal
	Signal decimal.Decimal
	Upper  decimal.Decimal
	Lower  decimal.Decimal
	First  decimal.Decimal
	Second decimal.Decimal
}

type Result struct {
	Indicator string
	Shape     Shape
	Entries   []Entry
}

func (r Result) Len() int {
	return len(r.Entries)
}

// At 越界或未定义时 ok 为 false
func (r Result) At(i int) (Entry, bool) {
	if i < 0 || i >= len(r.Entries) || !r.Entries[i].Defined {
		return Entry{}, false
	}
	return r.Entries[i], true
}

// FirstDefined 没有已定义的值时返回 -1
func (r Result) FirstDefined() int {
	for i, e := range r.Entries {
		if e.Defined {
			return i
		}
	}
	return -1
}

// PriceType 取价方式
type PriceType string

const (
	PriceClose   PriceType = "close"
	PriceOpen    PriceType = "open"
	PriceHigh    PriceType = "high"
	PriceLow     PriceType = "low"
	PriceMedian  PriceType = "hl2"
	PriceTypical PriceType = "hlc3"
)

var three = decimal.NewFromInt(3)

// Of 未知类型按收盘价处理
func (p PriceType) Of(t market.Tick) decimal.Decimal {
	switch p {
	case PriceOpen:
		return t.Open
	case PriceHigh:
		return t.High
	case PriceLow:
		return t.Low
	case PriceMedian:
		return decimalx.Div(t.High.Add(t.Low), decimalx.Two)
	case PriceTypical:
		return decimalx.Div(t.High.Add(t.Low).Add(t.Close), three)
	default:
		return t.Close
	}
}

func round(d decimal.Decimal) decimal.Decimal {
	return d.Round(decimalx.Precision)
}
