package strategy

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/KNICEX/strategy-monitor/internal/service/analyzer"
	"github.com/KNICEX/strategy-monitor/internal/service/indicator"
	"github.com/KNICEX/strategy-monitor/internal/service/market"
	"github.com/KNICEX/strategy-monitor/internal/service/market/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// waveTicks 带趋势的正弦波动
func waveTicks(count int) []market.Tick {
	ticks := make([]market.Tick, count)
	prev := 100.0
	for i := range ticks {
		x := float64(i)
		price := 100 + 8*math.Sin(x/6) + x*0.1
		ticks[i] = memory.NewTick(baseTime.Add(time.Duration(i)*time.Hour), market.Timeframe1h, prev, price)
		prev = price
	}
	return ticks
}

// dipThenRiseTicks 先持续上涨, 短暂回调后再次加速上涨
func dipThenRiseTicks(count int) []market.Tick {
	ticks := make([]market.Tick, count)
	prev := 100.0
	for i := range ticks {
		change := 0.01
		switch {
		case i >= 35 && i < 39:
			change = -0.003
		case i >= 39:
			change = 0.015
		}
		price := prev * (1 + change)
		ticks[i] = memory.NewTick(baseTime.Add(time.Duration(i)*time.Hour), market.Timeframe1h, prev, price)
		prev = price
	}
	return ticks
}

// fixtureReadings 第一个输入取 first, 其余输入取 rest
func fixtureReadings(rule Rule, first, rest func(kind analyzer.Kind) analyzer.Reading) Readings {
	readings := make(Readings, len(rule.Inputs))
	for i, in := range rule.Inputs {
		gen := rest
		if i == 0 {
			gen = first
		}
		readings[in.Name] = analyzer.Series{Analyzer: in.Name, Kind: in.Kind, Readings: []analyzer.Reading{gen(in.Kind)}}
	}
	return readings
}

func bullish(kind analyzer.Kind) analyzer.Reading {
	r := analyzer.Reading{Defined: true, Kind: kind, Strength: analyzer.Normal}
	switch kind {
	case analyzer.KindSignal:
		r.Signal = analyzer.Buy
	case analyzer.KindTrend:
		r.Trend = analyzer.Up
	case analyzer.KindCross:
		r.Cross = analyzer.Cross{Upper: true}
	}
	return r
}

func bearish(kind analyzer.Kind) analyzer.Reading {
	r := analyzer.Reading{Defined: true, Kind: kind, Strength: analyzer.Normal}
	switch kind {
	case analyzer.KindSignal:
		r.Signal = analyzer.Sell
	case analyzer.KindTrend:
		r.Trend = analyzer.Down
	case analyzer.KindCross:
		r.Cross = analyzer.Cross{Lower: true}
	}
	return r
}

func TestPositions(t *testing.T) {
	assert.True(t, Flat.IsFlat())
	assert.Equal(t, "FLAT", Flat.String())

	both := NewPositions(Short, Long)
	assert.True(t, both.Has(Long))
	assert.True(t, both.Has(Short))
	assert.Equal(t, "LONG,SHORT", both.String())
	assert.Equal(t, []Position{Long, Short}, both.Slice())
	assert.True(t, both.Equal(Flat.Add(Long).Add(Short)))
	assert.False(t, both.Equal(NewPositions(Long)))

	data, err := json.Marshal(both)
	require.NoError(t, err)
	assert.JSONEq(t, `["LONG","SHORT"]`, string(data))

	var flat Positions = NewPositions(Long)
	require.NoError(t, json.Unmarshal([]byte(`[]`), &flat))
	assert.True(t, flat.IsFlat())

	assert.ErrorIs(t, json.Unmarshal([]byte(`["SIDEWAYS"]`), &flat), ErrUnknownPosition)
}

func TestEvaluate_Catalogue(t *testing.T) {
	require.Len(t, Types(), 6)
	for _, typ := range Types() {
		rule, err := Lookup(typ)
		require.NoError(t, err)
		require.True(t, typ.Valid())

		t.Run(string(typ)+" all bullish", func(t *testing.T) {
			positions, err := Evaluate(typ, fixtureReadings(rule, bullish, bullish), 0)
			require.NoError(t, err)
			assert.True(t, positions.Has(Long))
			assert.False(t, positions.Has(Short))
		})

		t.Run(string(typ)+" all bearish", func(t *testing.T) {
			positions, err := Evaluate(typ, fixtureReadings(rule, bearish, bearish), 0)
			require.NoError(t, err)
			assert.False(t, positions.Has(Long))
		})

		t.Run(string(typ)+" mixed", func(t *testing.T) {
			positions, err := Evaluate(typ, fixtureReadings(rule, bullish, bearish), 0)
			require.NoError(t, err)
			assert.True(t, positions.IsFlat(), positions.String())
		})

		t.Run(string(typ)+" undefined", func(t *testing.T) {
			undefined := func(kind analyzer.Kind) analyzer.Reading { return analyzer.Reading{Kind: kind} }
			positions, err := Evaluate(typ, fixtureReadings(rule, undefined, undefined), 0)
			require.NoError(t, err)
			assert.True(t, positions.IsFlat())
		})
	}
}

func TestEvaluate_Errors(t *testing.T) {
	_, err := Evaluate("GOLDEN_CROSS", Readings{}, 0)
	assert.ErrorIs(t, err, ErrUnknownType)
	assert.False(t, Type("GOLDEN_CROSS").Valid())

	rule, err := Lookup(MACDADX)
	require.NoError(t, err)
	readings := fixtureReadings(rule, bullish, bullish)

	_, err = Evaluate(MACDADX, readings, 1)
	assert.ErrorIs(t, err, ErrMissingReading)

	delete(readings, "dmi")
	_, err = Evaluate(MACDADX, readings, 0)
	assert.ErrorIs(t, err, ErrMissingReading)

	readings = fixtureReadings(rule, bullish, bullish)
	readings["dmi"] = analyzer.Series{Kind: analyzer.KindSignal, Readings: []analyzer.Reading{bullish(analyzer.KindSignal)}}
	_, err = Evaluate(MACDADX, readings, 0)
	assert.ErrorIs(t, err, ErrMissingReading)
}

func TestKeltnerBreakoutSAR_IndependentTriggers(t *testing.T) {
	cross := func(c analyzer.Cross) analyzer.Reading {
		return analyzer.Reading{Defined: true, Kind: analyzer.KindCross, Cross: c}
	}
	readings := func(sar, macd, keltner analyzer.Reading) Readings {
		return Readings{
			"sar":     {Kind: analyzer.KindTrend, Readings: []analyzer.Reading{sar}},
			"macd":    {Kind: analyzer.KindSignal, Readings: []analyzer.Reading{macd}},
			"keltner": {Kind: analyzer.KindCross, Readings: []analyzer.Reading{keltner}},
		}
	}
	upper, lower, none := cross(analyzer.Cross{Upper: true}), cross(analyzer.Cross{Lower: true}), cross(analyzer.Cross{})

	testCases := []struct {
		name     string
		readings Readings
		want     Positions
	}{
		{name: "entry on breakout", readings: readings(bullish(analyzer.KindTrend), bullish(analyzer.KindSignal), upper), want: NewPositions(Long)},
		{name: "entry and exit", readings: readings(bullish(analyzer.KindTrend), bullish(analyzer.KindSignal), lower), want: NewPositions(Long, Short)},
		{name: "exit only", readings: readings(bearish(analyzer.KindTrend), bearish(analyzer.KindSignal), lower), want: NewPositions(Short)},
		{name: "entry only", readings: readings(bullish(analyzer.KindTrend), bullish(analyzer.KindSignal), none), want: NewPositions(Long)},
		{name: "upper breakout alone", readings: readings(bearish(analyzer.KindTrend), bearish(analyzer.KindSignal), upper), want: Flat},
		{name: "nothing", readings: readings(bearish(analyzer.KindTrend), bullish(analyzer.KindSignal), none), want: Flat},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			positions, err := Evaluate(KeltnerBreakoutSAR, tc.readings, 0)
			require.NoError(t, err)
			assert.Equal(t, tc.want, positions)
		})
	}
}

func TestResolveParams(t *testing.T) {
	params, ignored, err := ResolveParams(MACDADX,
		Params{"macd.fast": dec("10"), "rsi.period": dec("7")},
		Params{"macd.slow": dec("30"), "macd.fast": dec("8"), "foo.bar": dec("1")},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"foo.bar"}, ignored)
	assert.Equal(t, 8, params.Int("macd.fast"))
	assert.Equal(t, 30, params.Int("macd.slow"))
	assert.Equal(t, 9, params.Int("macd.signal"))
	assert.NotContains(t, params, "rsi.period")

	// 默认值不被修改
	rule, _ := Lookup(MACDADX)
	assert.Equal(t, 12, rule.Defaults.Int("macd.fast"))

	_, _, err = ResolveParams("UNKNOWN", nil, nil)
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestParseParams(t *testing.T) {
	params, err := ParseParams(map[string]string{"macd.fast": "8", "keltner.multiplier": "1.5"})
	require.NoError(t, err)
	assert.Equal(t, 8, params.Int("macd.fast"))
	assert.Equal(t, "1.5", params.Decimal("keltner.multiplier").String())

	_, err = ParseParams(map[string]string{"macd.fast": "eight"})
	assert.Error(t, err)
}

func TestCompute_Catalogue(t *testing.T) {
	ticks := waveTicks(220)
	for _, typ := range Types() {
		t.Run(string(typ), func(t *testing.T) {
			rule, err := Lookup(typ)
			require.NoError(t, err)

			res, err := Compute(typ, rule.Defaults, ticks)
			require.NoError(t, err)
			assert.Equal(t, ticks[len(ticks)-1].OpenTime, res.Timestamp)

			lookback, err := Lookback(typ, rule.Defaults)
			require.NoError(t, err)
			minTicks := rule.MinTicks(rule.Defaults)
			assert.Equal(t, minTicks+100, lookback)

			_, err = Compute(typ, rule.Defaults, ticks[:minTicks])
			assert.NoError(t, err)

			_, err = Compute(typ, rule.Defaults, ticks[:minTicks-1])
			assert.ErrorIs(t, err, indicator.ErrInsufficientData)
		})
	}
}

func TestCompute_InvalidParams(t *testing.T) {
	params, _, err := ResolveParams(MACDADX, nil, Params{"macd.fast": dec("40")})
	require.NoError(t, err)
	_, err = Compute(MACDADX, params, waveTicks(200))
	assert.ErrorIs(t, err, indicator.ErrInvalidRequest)
}

func TestCompute_MACDADXGoesLongAfterPullback(t *testing.T) {
	ticks := dipThenRiseTicks(50)
	rule, err := Lookup(MACDADX)
	require.NoError(t, err)

	first := -1
	for end := rule.MinTicks(rule.Defaults); end <= len(ticks); end++ {
		res, err := Compute(MACDADX, rule.Defaults, ticks[:end])
		require.NoError(t, err)
		assert.False(t, res.Positions.Has(Short), "index %d", end-1)
		if res.Positions.Has(Long) && first < 0 {
			first = end - 1
		}
		if first >= 0 {
			// 回调后的上涨中持续看多
			assert.Equal(t, NewPositions(Long), res.Positions, "index %d", end-1)
		}
	}
	require.GreaterOrEqual(t, first, 39)
}

func TestRecentBandCross(t *testing.T) {
	crosses := []analyzer.Cross{{}, {Lower: true}, {}, {}, {}, {Upper: true}, {Lower: true}}
	s := analyzer.Series{Kind: analyzer.KindCross, Readings: make([]analyzer.Reading, len(crosses))}
	for i, c := range crosses {
		s.Readings[i] = analyzer.Reading{Defined: i > 0, Kind: analyzer.KindCross, Cross: c}
	}
	res := recentBandCross(s, 3)
	got := make([]analyzer.Signal, res.Len())
	for i, r := range res.Readings {
		got[i] = r.Signal
	}
	assert.Equal(t, []analyzer.Signal{"", analyzer.Buy, analyzer.Buy, analyzer.Buy, analyzer.Neutral, analyzer.Sell, analyzer.Neutral}, got)
}

func TestChanged(t *testing.T) {
	long := NewPositions(Long)
	both := NewPositions(Long, Short)
	testCases := []struct {
		name      string
		hasResult bool
		prev, cur Positions
		want      bool
	}{
		{name: "first flat", cur: Flat, want: false},
		{name: "first long", cur: long, want: true},
		{name: "unchanged", hasResult: true, prev: long, cur: long, want: false},
		{name: "long to flat", hasResult: true, prev: long, cur: Flat, want: true},
		{name: "long to both", hasResult: true, prev: long, cur: both, want: true},
		{name: "flat stays flat", hasResult: true, cur: Flat, want: false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Changed(tc.hasResult, tc.prev, tc.cur))
		})
	}
}

func TestLookback_Limit(t *testing.T) {
	rule, err := Lookup(MACDADX)
	require.NoError(t, err)
	minTicks := rule.MinTicks(rule.Defaults)

	testCases := []struct {
		name    string
		extra   int
		want    int
		wantErr error
	}{
		{name: "default", extra: 100, want: minTicks + 100},
		{name: "negative extra", extra: -5, want: minTicks},
		{name: "at limit", extra: MaxLookback - minTicks, want: MaxLookback},
		{name: "over limit", extra: MaxLookback, wantErr: indicator.ErrInvalidRequest},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			params, _, err := ResolveParams(MACDADX, nil, Params{windowExtraKey: decimal.NewFromInt(int64(tc.extra))})
			require.NoError(t, err)
			got, err := Lookback(MACDADX, params)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
