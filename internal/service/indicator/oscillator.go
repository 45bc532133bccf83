package indicator

import (
	"fmt"

	"github.com/KNICEX/strategy-monitor/internal/service/market"
	"github.com/KNICEX/strategy-monitor/pkg/decimalx"
	"github.com/shopspring/decimal"
)

var fifty = decimal.NewFromInt(50)

type RSIParams struct {
	Period       int
	SignalPeriod int // 信号线为 RSI 的 SMA
	Price        PriceType
}

func (p RSIParams) MinTicks() int {
	return p.Period + p.SignalPeriod
}

// RSI 相对强弱指数, 值域 [0, 100], Wilder 平滑.
// 平均跌幅为0时取100, 区间内无波动时取中性值50.
func RSI(ticks []market.Tick, p RSIParams) (Result, error) {
	name := fmt.Sprintf("rsi(%d,%d)", p.Period, p.SignalPeriod)
	if err := validate(name, len(ticks), p.MinTicks(), p.Period, p.SignalPeriod); err != nil {
		return Result{}, err
	}
	rsi := rsiLine(priceLine(ticks, p.Price), p.Period)
	return signalResult(name, ticks, rsi, smaLine(rsi, p.SignalPeriod)), nil
}

func rsiLine(src line, period int) line {
	gains := make(line, len(src))
	losses := make(line, len(src))
	for i := 1; i < len(src); i++ {
		change := src[i].v.Sub(src[i-1].v)
		gains[i] = point{v: decimal.Max(change, decimal.Zero), ok: true}
		losses[i] = point{v: decimal.Max(change.Neg(), decimal.Zero), ok: true}
	}
	return combine(wilderLine(gains, period), wilderLine(losses, period), func(gain, loss decimal.Decimal) decimal.Decimal {
		total := gain.Add(loss)
		if total.IsZero() {
			return fifty
		}
		return decimalx.Div(decimalx.Hundred.Mul(gain), total)
	})
}

type StochasticParams struct {
	KPeriod int
	SmoothK int
	DPeriod int
}

func (p StochasticParams) MinTicks() int {
	return p.KPeriod + p.SmoothK + p.DPeriod - 2
}

// Stochastic 随机指标 %K(平滑后) 与信号线 %D, 值域 [0, 100].
// 区间最高价等于最低价时 %K 取中性值50.
func Stochastic(ticks []market.Tick, p StochasticParams) (Result, error) {
	name := fmt.Sprintf("stoch(%d,%d,%d)", p.KPeriod, p.SmoothK, p.DPeriod)
	if err := validate(name, len(ticks), p.MinTicks(), p.KPeriod, p.SmoothK, p.DPeriod); err != nil {
		return Result{}, err
	}
	hh := highestLine(ticks, p.KPeriod)
	ll := lowestLine(ticks, p.KPeriod)
	fastK := make(line, len(ticks))
	for i := range ticks {
		if !hh[i].ok {
			continue
		}
		fastK[i] = point{
			v:  decimalx.DivOr(decimalx.Hundred.Mul(ticks[i].Close.Sub(ll[i].v)), hh[i].v.Sub(ll[i].v), fifty),
			ok: true,
		}
	}
	slowK := smaLine(fastK, p.SmoothK)
	return signalResult(name, ticks, slowK, smaLine(slowK, p.DPeriod)), nil
}

type MACDParams struct {
	Fast   int
	Slow   int
	Signal int
	Price  PriceType
}

func (p MACDParams) MinTicks() int {
	return p.Slow + p.Signal - 1
}

// MACD 快慢 EMA 之差与其 EMA 信号线
func MACD(ticks []market.Tick, p MACDParams) (Result, error) {
	name := fmt.Sprintf("macd(%d,%d,%d)", p.Fast, p.Slow, p.Signal)
	if err := validate(name, len(ticks), p.MinTicks(), p.Fast, p.Slow, p.Signal); err != nil {
		return Result{}, err
	}
	if p.Fast >= p.Slow {
		return Result{}, invalid(name, "fast period %d must be less than slow period %d", p.Fast, p.Slow)
	}
	src := priceLine(ticks, p.Price)
	macd := combine(emaLine(src, p.Fast, emaAlpha(p.Fast)), emaLine(src, p.Slow, emaAlpha(p.Slow)), decimal.Decimal.Sub)
	return signalResult(name, ticks, macd, emaLine(macd, p.Signal, emaAlpha(p.Signal))), nil
}
