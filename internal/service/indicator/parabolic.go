package indicator

import (
	"fmt"
	"time"

	"github.com/KNICEX/strategy-monitor/internal/service/market"
	"github.com/shopspring/decimal"
)

type ParabolicParams struct {
	Start decimal.Decimal // 初始加速因子, 反转后重置为该值
	Step  decimal.Decimal // 每创新极值增加的步长
	Max   decimal.Decimal // 加速因子上限
}

func (p ParabolicParams) MinTicks() int {
	return 2
}

func (p ParabolicParams) validate(name string) error {
	if p.Start.Sign() <= 0 || p.Step.Sign() <= 0 || p.Max.Sign() <= 0 {
		return invalid(name, "acceleration factors must be positive")
	}
	if p.Start.GreaterThan(p.Max) {
		return invalid(name, "start acceleration %s exceeds max %s", p.Start, p.Max)
	}
	return nil
}

// ParabolicState 每根K线的抛物线内部状态, SAR 为该K线的止损位
type ParabolicState struct {
	Time     time.Time
	Defined  bool
	SAR      decimal.Decimal
	EP       decimal.Decimal // 当前趋势的极值
	AF       decimal.Decimal
	Long     bool
	Reversal bool // 本根K线发生了方向反转
}

// ParabolicStates 计算抛物线转向指标的完整轨迹, 第一根K线仅用于确定初始方向
func ParabolicStates(ticks []market.Tick, p ParabolicParams) ([]ParabolicState, error) {
	name := fmt.Sprintf("sar(%s,%s,%s)", p.Start, p.Step, p.Max)
	if err := validate(name, len(ticks), p.MinTicks()); err != nil {
		return nil, err
	}
	if err := p.validate(name); err != nil {
		return nil, err
	}

	states := make([]ParabolicState, len(ticks))
	states[0].Time = ticks[0].OpenTime

	// 第二根K线下跌幅度占优则初始为空头
	upMove := ticks[1].High.Sub(ticks[0].High)
	downMove := ticks[0].Low.Sub(ticks[1].Low)
	long := !(downMove.IsPositive() && downMove.GreaterThan(upMove))

	af := p.Start
	var sar, ep decimal.Decimal
	if long {
		sar, ep = ticks[0].Low, ticks[0].High
	} else {
		sar, ep = ticks[0].High, ticks[0].Low
	}

	for i := 1; i < len(ticks); i++ {
		cur, prev := ticks[i], ticks[i-1]
		reversal := false
		if long {
			if cur.Low.LessThanOrEqual(sar) {
				long, reversal = false, true
				sar = decimal.Max(ep, decimal.Max(cur.High, prev.High))
				ep, af = cur.Low, p.Start
			} else if cur.High.GreaterThan(ep) {
				ep = cur.High
				af = decimal.Min(af.Add(p.Step), p.Max)
			}
		} else {
			if cur.High.GreaterThanOrEqual(sar) {
				long, reversal = true, true
				sar = decimal.Min(ep, decimal.Min(cur.Low, prev.Low))
				ep, af = cur.High, p.Start
			} else if cur.Low.LessThan(ep) {
				ep = cur.Low
				af = decimal.Min(af.Add(p.Step), p.Max)
			}
		}

		states[i] = ParabolicState{
			Time:     cur.OpenTime,
			Defined:  true,
			SAR:      sar,
			EP:       ep,
			AF:       af,
			Long:     long,
			Reversal: reversal,
		}

		// 下一根K线的止损位不能进入最近两根K线的价格区间
		sar = round(sar.Add(af.Mul(ep.Sub(sar))))
		if long {
			sar = decimal.Min(sar, decimal.Min(cur.Low, prev.Low))
		} else {
			sar = decimal.Max(sar, decimal.Max(cur.High, prev.High))
		}
	}
	return states, nil
}

// ParabolicSAR 抛物线转向止损位
func ParabolicSAR(ticks []market.Tick, p ParabolicParams) (Result, error) {
	states, err := ParabolicStates(ticks, p)
	if err != nil {
		return Result{}, err
	}
	res := newResult(fmt.Sprintf("sar(%s,%s,%s)", p.Start, p.Step, p.Max), ShapeValue, ticks)
	for i, st := range states {
		if st.Defined {
			res.Entries[i].Defined = true
			res.Entries[i].Value = st.SAR
		}
	}
	return res, nil
}
