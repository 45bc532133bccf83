package indicator

import (
	"fmt"

	"github.com/KNICEX/strategy-monitor/internal/service/market"
	"github.com/KNICEX/strategy-monitor/pkg/decimalx"
	"github.com/shopspring/decimal"
)

type DMIParams struct {
	Period int
}

func (p DMIParams) MinTicks() int {
	return 2 * p.Period
}

// DMI 趋向指标, First 为 +DI, Second 为 -DI, Value 为 ADX.
// 平均真实波幅为0时 DI 取0, +DI 与 -DI 之和为0时 DX 取0.
func DMI(ticks []market.Tick, p DMIParams) (Result, error) {
	name := fmt.Sprintf("dmi(%d)", p.Period)
	if err := validate(name, len(ticks), p.MinTicks(), p.Period); err != nil {
		return Result{}, err
	}
	plusDM := make(line, len(ticks))
	minusDM := make(line, len(ticks))
	for i := 1; i < len(ticks); i++ {
		up := ticks[i].High.Sub(ticks[i-1].High)
		down := ticks[i-1].Low.Sub(ticks[i].Low)
		plusDM[i] = point{v: decimal.Zero, ok: true}
		minusDM[i] = point{v: decimal.Zero, ok: true}
		if up.IsPositive() && up.GreaterThan(down) {
			plusDM[i].v = up
		}
		if down.IsPositive() && down.GreaterThan(up) {
			minusDM[i].v = down
		}
	}

	atr := atrLine(ticks, p.Period)
	di := func(dm line) line {
		return combine(wilderLine(dm, p.Period), atr, func(d, a decimal.Decimal) decimal.Decimal {
			return decimalx.Div(decimalx.Hundred.Mul(d), a)
		})
	}
	plusDI, minusDI := di(plusDM), di(minusDM)
	dx := combine(plusDI, minusDI, func(pd, md decimal.Decimal) decimal.Decimal {
		return decimalx.Div(decimalx.Hundred.Mul(pd.Sub(md).Abs()), pd.Add(md))
	})
	return dualResult(name, ticks, plusDI, minusDI, wilderLine(dx, p.Period)), nil
}

type ChandelierParams struct {
	Period     int
	Multiplier decimal.Decimal
}

func (p ChandelierParams) MinTicks() int {
	return p.Period + 1
}

// ChandelierExit 吊灯止损, First 为多头离场位(最高价 - k*ATR), Second 为空头离场位(最低价 + k*ATR)
func ChandelierExit(ticks []market.Tick, p ChandelierParams) (Result, error) {
	name := fmt.Sprintf("chandelier(%d,%s)", p.Period, p.Multiplier)
	if err := validate(name, len(ticks), p.MinTicks(), p.Period); err != nil {
		return Result{}, err
	}
	if p.Multiplier.Sign() <= 0 {
		return Result{}, invalid(name, "multiplier must be positive")
	}
	atr := atrLine(ticks, p.Period)
	longExit := combine(highestLine(ticks, p.Period), atr, func(h, a decimal.Decimal) decimal.Decimal {
		return round(h.Sub(p.Multiplier.Mul(a)))
	})
	shortExit := combine(lowestLine(ticks, p.Period), atr, func(l, a decimal.Decimal) decimal.Decimal {
		return round(l.Add(p.Multiplier.Mul(a)))
	})
	return dualResult(name, ticks, longExit, shortExit, nil), nil
}
