package indicator

import (
	"fmt"

	"github.com/KNICEX/strategy-monitor/internal/service/market"
)

type MovingAverageType string

const (
	MovingAverageSMA MovingAverageType = "sma"
	MovingAverageEMA MovingAverageType = "ema"
	MovingAverageWMA MovingAverageType = "wma"
)

type MovingAverageParams struct {
	Period int
	Price  PriceType
}

func (p MovingAverageParams) MinTicks() int {
	return p.Period
}

func SMA(ticks []market.Tick, p MovingAverageParams) (Result, error) {
	return MovingAverage(ticks, MovingAverageSMA, p)
}

func EMA(ticks []market.Tick, p MovingAverageParams) (Result, error) {
	return MovingAverage(ticks, MovingAverageEMA, p)
}

func WMA(ticks []market.Tick, p MovingAverageParams) (Result, error) {
	return MovingAverage(ticks, MovingAverageWMA, p)
}

func MovingAverage(ticks []market.Tick, typ MovingAverageType, p MovingAverageParams) (Result, error) {
	name := fmt.Sprintf("%s(%d)", typ, p.Period)
	if err := validate(name, len(ticks), p.MinTicks(), p.Period); err != nil {
		return Result{}, err
	}
	src := priceLine(ticks, p.Price)
	switch typ {
	case MovingAverageSMA:
		return valueResult(name, ticks, smaLine(src, p.Period)), nil
	case MovingAverageEMA:
		return valueResult(name, ticks, emaLine(src, p.Period, emaAlpha(p.Period))), nil
	case MovingAverageWMA:
		return valueResult(name, ticks, wmaLine(src, p.Period)), nil
	default:
		return Result{}, invalid(name, "unknown moving average type %q", typ)
	}
}
