package indicator

import (
	"fmt"

	"github.com/KNICEX/strategy-monitor/internal/service/market"
	"github.com/KNICEX/strategy-monitor/pkg/decimalx"
	"github.com/shopspring/decimal"
)

type IchimokuParams struct {
	Tenkan       int
	Kijun        int
	SenkouB      int
	Displacement int // 先行带向后平移, 迟行线向前平移的周期数
}

func (p IchimokuParams) MinTicks() int {
	return max(p.Tenkan, p.Kijun, p.SenkouB) + p.Displacement
}

// IchimokuResult 五条线都与输入等长, 平移出输入范围的位置不定义
type IchimokuResult struct {
	Tenkan  Result
	Kijun   Result
	SenkouA Result
	SenkouB Result
	Chikou  Result
}

func midpointLine(ticks []market.Tick, period int) line {
	return combine(highestLine(ticks, period), lowestLine(ticks, period), func(h, l decimal.Decimal) decimal.Decimal {
		return decimalx.Div(h.Add(l), decimalx.Two)
	})
}

// Ichimoku 一目均衡表
func Ichimoku(ticks []market.Tick, p IchimokuParams) (IchimokuResult, error) {
	name := fmt.Sprintf("ichimoku(%d,%d,%d,%d)", p.Tenkan, p.Kijun, p.SenkouB, p.Displacement)
	if err := validate(name, len(ticks), p.MinTicks(), p.Tenkan, p.Kijun, p.SenkouB, p.Displacement); err != nil {
		return IchimokuResult{}, err
	}
	tenkan := midpointLine(ticks, p.Tenkan)
	kijun := midpointLine(ticks, p.Kijun)
	spanA := combine(tenkan, kijun, func(t, k decimal.Decimal) decimal.Decimal {
		return decimalx.Div(t.Add(k), decimalx.Two)
	})
	return IchimokuResult{
		Tenkan:  valueResult(name+".tenkan", ticks, tenkan),
		Kijun:   valueResult(name+".kijun", ticks, kijun),
		SenkouA: valueResult(name+".senkou_a", ticks, shiftLine(spanA, p.Displacement)),
		SenkouB: valueResult(name+".senkou_b", ticks, shiftLine(midpointLine(ticks, p.SenkouB), p.Displacement)),
		Chikou:  valueResult(name+".chikou", ticks, shiftLine(priceLine(ticks, PriceClose), -p.Displacement)),
	}, nil
}

// TenkanKijun 以转换线为指标线, 基准线为信号线
func (r IchimokuResult) TenkanKijun() Result {
	res := Result{
		Indicator: r.Tenkan.Indicator + "/" + r.Kijun.Indicator,
		Shape:     ShapeSignalLine,
		Entries:   make([]Entry, r.Tenkan.Len()),
	}
	for i, tk := range r.Tenkan.Entries {
		res.Entries[i].Time = tk.Time
		if kj, ok := r.Kijun.At(i); ok && tk.Defined {
			res.Entries[i].Defined = true
			res.Entries[i].Value = tk.Value
			res.Entries[i].Signal = kj.Value
		}
	}
	return res
}
