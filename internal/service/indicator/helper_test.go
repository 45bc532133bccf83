package indicator

import (
	"math"
	"time"

	"github.com/KNICEX/strategy-monitor/internal/service/market"
	"github.com/shopspring/decimal"
)

var baseTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// generateTicks 确定性的波动上行序列
func generateTicks(count int) []market.Tick {
	ticks := make([]market.Tick, count)
	prevClose := 100.0
	for i := 0; i < count; i++ {
		x := float64(i)
		closePrice := 100 + 10*math.Sin(x/5) + x*0.3 + 3*math.Cos(x*1.7)
		high := math.Max(prevClose, closePrice) + 0.5 + math.Abs(math.Sin(x))
		low := math.Min(prevClose, closePrice) - 0.5 - math.Abs(math.Cos(x))
		ticks[i] = market.Tick{
			OpenTime:  baseTime.Add(time.Duration(i) * time.Hour),
			CloseTime: baseTime.Add(time.Duration(i+1) * time.Hour),
			Open:      decimal.NewFromFloat(prevClose).Round(4),
			High:      decimal.NewFromFloat(high).Round(4),
			Low:       decimal.NewFromFloat(low).Round(4),
			Close:     decimal.NewFromFloat(closePrice).Round(4),
			Volume:    decimal.NewFromInt(1000 + int64(i)),
		}
		prevClose = ticks[i].Close.InexactFloat64()
	}
	return ticks
}

func flatTicks(count int, price int64) []market.Tick {
	ticks := make([]market.Tick, count)
	for i := range ticks {
		p := decimal.NewFromInt(price)
		ticks[i] = market.Tick{
			OpenTime: baseTime.Add(time.Duration(i) * time.Hour),
			Open:     p, High: p, Low: p, Close: p,
		}
	}
	return ticks
}

func floats(ticks []market.Tick, fn func(t market.Tick) decimal.Decimal) []float64 {
	res := make([]float64, len(ticks))
	for i, t := range ticks {
		res[i] = fn(t).InexactFloat64()
	}
	return res
}

func closes(ticks []market.Tick) []float64 {
	return floats(ticks, func(t market.Tick) decimal.Decimal { return t.Close })
}

func highs(ticks []market.Tick) []float64 {
	return floats(ticks, func(t market.Tick) decimal.Decimal { return t.High })
}

func lows(ticks []market.Tick) []float64 {
	return floats(ticks, func(t market.Tick) decimal.Decimal { return t.Low })
}
