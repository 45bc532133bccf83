package strategy

import (
	"github.com/KNICEX/strategy-monitor/internal/service/analyzer"
	"github.com/KNICEX/strategy-monitor/internal/service/indicator"
	"github.com/KNICEX/strategy-monitor/internal/service/market"
)

var (
	adxBands        = analyzer.StrengthBands{Normal: dec("25"), Strong: dec("40")}
	percentBands    = analyzer.StrengthBands{Normal: dec("0.5"), Strong: dec("2")}
	oscillatorBands = analyzer.StrengthBands{Normal: dec("5"), Strong: dec("15")}
)

// priceBands 以最新收盘价的千分之一和千分之五作为强弱分界, 用于量纲与价格一致的指标
func priceBands(ticks []market.Tick) analyzer.StrengthBands {
	last := ticks[len(ticks)-1].Close.Abs()
	return analyzer.StrengthBands{Normal: last.Mul(dec("0.001")), Strong: last.Mul(dec("0.005"))}
}

func macdParams(p Params, prefix string) indicator.MACDParams {
	return indicator.MACDParams{Fast: p.Int(prefix + ".fast"), Slow: p.Int(prefix + ".slow"), Signal: p.Int(prefix + ".signal")}
}

func dmiParams(p Params) indicator.DMIParams {
	return indicator.DMIParams{Period: p.Int("dmi.period")}
}

func sarParams(p Params, prefix string) indicator.ParabolicParams {
	return indicator.ParabolicParams{
		Start: p.Decimal(prefix + ".start"),
		Step:  p.Decimal(prefix + ".step"),
		Max:   p.Decimal(prefix + ".max"),
	}
}

func macdCross(ticks []market.Tick, p indicator.MACDParams) (analyzer.Series, error) {
	macd, err := indicator.MACD(ticks, p)
	if err != nil {
		return analyzer.Series{}, err
	}
	return analyzer.SignalLineCross(macd, priceBands(ticks))
}

func directionalTrend(ticks []market.Tick, p Params) (analyzer.Series, error) {
	dmi, err := indicator.DMI(ticks, dmiParams(p))
	if err != nil {
		return analyzer.Series{}, err
	}
	return analyzer.DirectionalTrend(dmi, p.Decimal("dmi.consolidation"), adxBands)
}

func parabolicTrend(ticks []market.Tick, p indicator.ParabolicParams) (analyzer.Series, error) {
	sar, err := indicator.ParabolicSAR(ticks, p)
	if err != nil {
		return analyzer.Series{}, err
	}
	return analyzer.ParabolicTrend(analyzer.Closes(ticks), sar, percentBands)
}

// MACD 信号线交叉 + DMI 趋势
func macdADXRule() Rule {
	inputs := []Input{{Name: "macd", Kind: analyzer.KindSignal}, {Name: "dmi", Kind: analyzer.KindTrend}}
	return Rule{
		Type: MACDADX,
		Defaults: Params{
			"macd.fast":         dec("12"),
			"macd.slow":         dec("26"),
			"macd.signal":       dec("9"),
			"dmi.period":        dec("14"),
			"dmi.consolidation": dec("20"),
			windowExtraKey:      dec("100"),
		},
		Inputs: inputs,
		MinTicks: func(p Params) int {
			return max(macdParams(p, "macd").MinTicks(), dmiParams(p).MinTicks())
		},
		Analyze: func(ticks []market.Tick, p Params) (Readings, error) {
			macd, err := macdCross(ticks, macdParams(p, "macd"))
			if err != nil {
				return nil, err
			}
			dmi, err := directionalTrend(ticks, p)
			if err != nil {
				return nil, err
			}
			return Readings{"macd": macd, "dmi": dmi}, nil
		},
		Combine: conjunctive(inputs...),
	}
}

// 随机指标信号线交叉 + DMI 趋势 + EMA 趋势
func stochasticADXEMARule() Rule {
	inputs := []Input{
		{Name: "stochastic", Kind: analyzer.KindSignal},
		{Name: "dmi", Kind: analyzer.KindTrend},
		{Name: "ema", Kind: analyzer.KindTrend},
	}
	stochParams := func(p Params) indicator.StochasticParams {
		return indicator.StochasticParams{KPeriod: p.Int("stochastic.k"), SmoothK: p.Int("stochastic.smooth"), DPeriod: p.Int("stochastic.d")}
	}
	emaParams := func(p Params) indicator.MovingAverageParams {
		return indicator.MovingAverageParams{Period: p.Int("ema.period")}
	}
	return Rule{
		Type: StochasticADXEMA,
		Defaults: Params{
			"stochastic.k":      dec("14"),
			"stochastic.smooth": dec("3"),
			"stochastic.d":      dec("3"),
			"dmi.period":        dec("14"),
			"dmi.consolidation": dec("20"),
			"ema.period":        dec("50"),
			"ema.slope":         dec("5"),
			windowExtraKey:      dec("100"),
		},
		Inputs: inputs,
		MinTicks: func(p Params) int {
			return max(stochParams(p).MinTicks(), dmiParams(p).MinTicks(), emaParams(p).MinTicks())
		},
		Analyze: func(ticks []market.Tick, p Params) (Readings, error) {
			stoch, err := indicator.Stochastic(ticks, stochParams(p))
			if err != nil {
				return nil, err
			}
			stochCross, err := analyzer.SignalLineCross(stoch, oscillatorBands)
			if err != nil {
				return nil, err
			}
			dmi, err := directionalTrend(ticks, p)
			if err != nil {
				return nil, err
			}
			ema, err := indicator.EMA(ticks, emaParams(p))
			if err != nil {
				return nil, err
			}
			emaTrend, err := analyzer.MovingAverageTrend(analyzer.Closes(ticks), ema, p.Int("ema.slope"), percentBands)
			if err != nil {
				return nil, err
			}
			return Readings{"stochastic": stochCross, "dmi": dmi, "ema": emaTrend}, nil
		},
		Combine: conjunctive(inputs...),
	}
}

// 快慢两组加速因子的抛物线趋势
func doubleParabolicRule() Rule {
	inputs := []Input{{Name: "sar_fast", Kind: analyzer.KindTrend}, {Name: "sar_slow", Kind: analyzer.KindTrend}}
	return Rule{
		Type: DoubleParabolic,
		Defaults: Params{
			"sar_fast.start": dec("0.02"),
			"sar_fast.step":  dec("0.02"),
			"sar_fast.max":   dec("0.2"),
			"sar_slow.start": dec("0.01"),
			"sar_slow.step":  dec("0.01"),
			"sar_slow.max":   dec("0.1"),
			windowExtraKey:   dec("100"),
		},
		Inputs: inputs,
		MinTicks: func(p Params) int {
			return sarParams(p, "sar_fast").MinTicks()
		},
		Analyze: func(ticks []market.Tick, p Params) (Readings, error) {
			fast, err := parabolicTrend(ticks, sarParams(p, "sar_fast"))
			if err != nil {
				return nil, err
			}
			slow, err := parabolicTrend(ticks, sarParams(p, "sar_slow"))
			if err != nil {
				return nil, err
			}
			return Readings{"sar_fast": fast, "sar_slow": slow}, nil
		},
		Combine: conjunctive(inputs...),
	}
}

// RSI 穿越超卖超买阈值 + 最近若干根K线内价格穿越布林带下轨或上轨
func rsiBollingerRule() Rule {
	inputs := []Input{{Name: "rsi", Kind: analyzer.KindSignal}, {Name: "bollinger", Kind: analyzer.KindSignal}}
	rsiParams := func(p Params) indicator.RSIParams {
		return indicator.RSIParams{Period: p.Int("rsi.period"), SignalPeriod: p.Int("rsi.signal")}
	}
	bbParams := func(p Params) indicator.BollingerParams {
		return indicator.BollingerParams{Period: p.Int("bollinger.period"), Multiplier: p.Decimal("bollinger.multiplier")}
	}
	return Rule{
		Type: RSIBollinger,
		Defaults: Params{
			"rsi.period":           dec("14"),
			"rsi.signal":           dec("3"),
			"rsi.oversold":         dec("30"),
			"rsi.overbought":       dec("70"),
			"bollinger.period":     dec("20"),
			"bollinger.multiplier": dec("2"),
			"bollinger.window":     dec("3"),
			windowExtraKey:         dec("100"),
		},
		Inputs: inputs,
		MinTicks: func(p Params) int {
			return max(rsiParams(p).MinTicks(), bbParams(p).MinTicks())
		},
		Analyze: func(ticks []market.Tick, p Params) (Readings, error) {
			rsi, err := indicator.RSI(ticks, rsiParams(p))
			if err != nil {
				return nil, err
			}
			rsiCross, err := analyzer.ThresholdCross(rsi, p.Decimal("rsi.oversold"), p.Decimal("rsi.overbought"), oscillatorBands)
			if err != nil {
				return nil, err
			}
			bb, err := indicator.Bollinger(ticks, bbParams(p))
			if err != nil {
				return nil, err
			}
			bandCross, err := analyzer.BandCross(analyzer.Closes(ticks), bb)
			if err != nil {
				return nil, err
			}
			return Readings{"rsi": rsiCross, "bollinger": recentBandCross(bandCross, p.Int("bollinger.window"))}, nil
		},
		Combine: conjunctive(inputs...),
	}
}

// recentBandCross 最近 window 根K线内跌破下轨为 BUY, 突破上轨为 SELL, 两者都有或都没有为 NEUTRAL
func recentBandCross(s analyzer.Series, window int) analyzer.Series {
	window = max(window, 1)
	res := analyzer.Series{Analyzer: s.Analyzer + ".recent", Kind: analyzer.KindSignal, Readings: make([]analyzer.Reading, s.Len())}
	for i, r := range s.Readings {
		res.Readings[i] = analyzer.Reading{Time: r.Time, Kind: analyzer.KindSignal}
		if !r.Defined {
			continue
		}
		var lower, upper bool
		for j := max(i-window+1, 0); j <= i; j++ {
			lower = lower || s.Readings[j].Cross.Lower
			upper = upper || s.Readings[j].Cross.Upper
		}
		signal := analyzer.Neutral
		switch {
		case lower && !upper:
			signal = analyzer.Buy
		case upper && !lower:
			signal = analyzer.Sell
		}
		res.Readings[i].Defined = true
		res.Readings[i].Signal = signal
		res.Readings[i].Strength = analyzer.Normal
	}
	return res
}

// 云层趋势 + 转换线与基准线交叉
func ichimokuCloudRule() Rule {
	inputs := []Input{{Name: "cloud", Kind: analyzer.KindTrend}, {Name: "tk_cross", Kind: analyzer.KindSignal}}
	ichimokuParams := func(p Params) indicator.IchimokuParams {
		return indicator.IchimokuParams{
			Tenkan:       p.Int("ichimoku.tenkan"),
			Kijun:        p.Int("ichimoku.kijun"),
			SenkouB:      p.Int("ichimoku.senkou_b"),
			Displacement: p.Int("ichimoku.displacement"),
		}
	}
	return Rule{
		Type: IchimokuCloud,
		Defaults: Params{
			"ichimoku.tenkan":       dec("9"),
			"ichimoku.kijun":        dec("26"),
			"ichimoku.senkou_b":     dec("52"),
			"ichimoku.displacement": dec("26"),
			windowExtraKey:          dec("100"),
		},
		Inputs: inputs,
		MinTicks: func(p Params) int {
			return ichimokuParams(p).MinTicks()
		},
		Analyze: func(ticks []market.Tick, p Params) (Readings, error) {
			ich, err := indicator.Ichimoku(ticks, ichimokuParams(p))
			if err != nil {
				return nil, err
			}
			cloud, err := analyzer.CloudTrend(analyzer.Closes(ticks), ich, percentBands)
			if err != nil {
				return nil, err
			}
			tk, err := analyzer.SignalLineCross(ich.TenkanKijun(), priceBands(ticks))
			if err != nil {
				return nil, err
			}
			return Readings{"cloud": cloud, "tk_cross": tk}, nil
		},
		Combine: conjunctive(inputs...),
	}
}

// 做多与离场相互独立: SAR 向上且 MACD 看多时做多, 价格跌破肯特纳下轨时给出 SHORT 离场信号
func keltnerBreakoutSARRule() Rule {
	inputs := []Input{
		{Name: "keltner", Kind: analyzer.KindCross},
		{Name: "sar", Kind: analyzer.KindTrend},
		{Name: "macd", Kind: analyzer.KindSignal},
	}
	keltnerParams := func(p Params) indicator.KeltnerParams {
		return indicator.KeltnerParams{
			Period:     p.Int("keltner.period"),
			ATRPeriod:  p.Int("keltner.atr"),
			Multiplier: p.Decimal("keltner.multiplier"),
		}
	}
	return Rule{
		Type: KeltnerBreakoutSAR,
		Defaults: Params{
			"keltner.period":     dec("20"),
			"keltner.atr":        dec("10"),
			"keltner.multiplier": dec("2"),
			"sar.start":          dec("0.02"),
			"sar.step":           dec("0.02"),
			"sar.max":            dec("0.2"),
			"macd.fast":          dec("12"),
			"macd.slow":          dec("26"),
			"macd.signal":        dec("9"),
			windowExtraKey:       dec("100"),
		},
		Inputs: inputs,
		MinTicks: func(p Params) int {
			return max(keltnerParams(p).MinTicks(), sarParams(p, "sar").MinTicks(), macdParams(p, "macd").MinTicks())
		},
		Analyze: func(ticks []market.Tick, p Params) (Readings, error) {
			sar, err := parabolicTrend(ticks, sarParams(p, "sar"))
			if err != nil {
				return nil, err
			}
			macd, err := macdCross(ticks, macdParams(p, "macd"))
			if err != nil {
				return nil, err
			}
			keltner, err := indicator.Keltner(ticks, keltnerParams(p))
			if err != nil {
				return nil, err
			}
			cross, err := analyzer.BandCross(analyzer.Closes(ticks), keltner)
			if err != nil {
				return nil, err
			}
			return Readings{"sar": sar, "macd": macd, "keltner": cross}, nil
		},
		Combine: func(r Readings, latest int) Positions {
			var res Positions
			if r.At("sar", latest).Bullish() && r.At("macd", latest).Bullish() {
				res = res.Add(Long)
			}
			if r.At("keltner", latest).Bearish() {
				res = res.Add(Short)
			}
			return res
		},
	}
}
