package analyzer

import (
	"errors"
	"testing"
	"time"

	"github.com/KNICEX/strategy-monitor/internal/service/indicator"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	baseTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bands    = StrengthBands{Normal: decimal.NewFromInt(5), Strong: decimal.NewFromInt(10)}
)

func d(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

func entryTime(i int) time.Time {
	return baseTime.Add(time.Duration(i) * time.Hour)
}

// values nil 表示该位置未定义
func values(vs ...any) indicator.Result {
	res := indicator.Result{Indicator: "test", Shape: indicator.ShapeValue, Entries: make([]indicator.Entry, len(vs))}
	for i, v := range vs {
		res.Entries[i].Time = entryTime(i)
		if f, ok := v.(float64); ok {
			res.Entries[i].Defined = true
			res.Entries[i].Value = d(f)
		}
	}
	return res
}

func signalLine(pairs ...[2]float64) indicator.Result {
	res := indicator.Result{Indicator: "test", Shape: indicator.ShapeSignalLine, Entries: make([]indicator.Entry, len(pairs))}
	for i, p := range pairs {
		res.Entries[i] = indicator.Entry{Time: entryTime(i), Defined: true, Value: d(p[0]), Signal: d(p[1])}
	}
	return res
}

// band 每项为 {lower, middle, upper}
func band(rows ...[3]float64) indicator.Result {
	res := indicator.Result{Indicator: "band", Shape: indicator.ShapeBand, Entries: make([]indicator.Entry, len(rows))}
	for i, r := range rows {
		res.Entries[i] = indicator.Entry{Time: entryTime(i), Defined: true, Lower: d(r[0]), Value: d(r[1]), Upper: d(r[2])}
	}
	return res
}

func signals(s Series) []Signal {
	res := make([]Signal, s.Len())
	for i, r := range s.Readings {
		if r.Defined {
			res[i] = r.Signal
		}
	}
	return res
}

func TestStrengthBands_Of(t *testing.T) {
	testCases := []struct {
		name      string
		magnitude float64
		want      Strength
	}{
		{name: "below normal", magnitude: 4.99, want: Weak},
		{name: "at normal", magnitude: 5, want: Normal},
		{name: "negative uses magnitude", magnitude: -7, want: Normal},
		{name: "at strong", magnitude: 10, want: Strong},
		{name: "above strong", magnitude: 42, want: Strong},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, bands.Of(d(tc.magnitude)))
		})
	}
}

func TestAlign(t *testing.T) {
	a := values(1.0, 2.0, 3.0)

	assert.NoError(t, Align(a, values(nil, 1.0, 1.0)))

	err := Align(a, values(1.0, 2.0))
	var alignErr *AlignmentError
	require.True(t, errors.As(err, &alignErr))
	assert.ErrorIs(t, err, ErrAlignment)

	shifted := values(1.0, 2.0, 3.0)
	shifted.Entries[2].Time = entryTime(5)
	assert.ErrorIs(t, Align(a, shifted), ErrAlignment)
}

func TestThresholdCross(t *testing.T) {
	res := values(nil, 20.0, 25.0, 35.0, 50.0, 75.0, 65.0, 64.0)
	series, err := ThresholdCross(res, d(30), d(70), bands)
	require.NoError(t, err)
	require.Equal(t, res.Len(), series.Len())

	assert.Equal(t, []Signal{"", "", Neutral, Buy, Neutral, Neutral, Sell, Neutral}, signals(series))
	assert.Equal(t, Normal, series.At(3).Strength)
	assert.Equal(t, Normal, series.At(6).Strength)
	assert.False(t, series.At(100).Defined)

	_, err = ThresholdCross(res, d(70), d(30), bands)
	assert.Error(t, err)
}

func TestZeroLineCross(t *testing.T) {
	series, err := ZeroLineCross(values(-2.0, 0.0, 12.0, -1.0), bands)
	require.NoError(t, err)
	assert.Equal(t, []Signal{"", Neutral, Buy, Sell}, signals(series))
	assert.Equal(t, Strong, series.At(2).Strength)
	assert.Equal(t, Weak, series.At(3).Strength)
}

func TestSignalLineCross_PersistsLatestCross(t *testing.T) {
	res := signalLine(
		[2]float64{1, 2},
		[2]float64{1, 2},
		[2]float64{8, 2},
		[2]float64{9, 2},
		[2]float64{1, 2},
		[2]float64{1, 3},
	)
	res.Entries[0].Defined = false

	series, err := SignalLineCross(res, bands)
	require.NoError(t, err)
	assert.Equal(t, []Signal{"", Neutral, Buy, Buy, Sell, Sell}, signals(series))
	// 强度取穿越当根K线的差值
	assert.Equal(t, Normal, series.At(3).Strength)
	assert.Equal(t, Weak, series.At(5).Strength)
	assert.True(t, series.At(3).Bullish())
	assert.True(t, series.At(4).Bearish())

	_, err = SignalLineCross(values(1.0, 2.0), bands)
	assert.ErrorIs(t, err, ErrAlignment)
}

func TestBandCross(t *testing.T) {
	channel := band(
		[3]float64{90, 100, 110},
		[3]float64{90, 100, 110},
		[3]float64{90, 100, 110},
		[3]float64{90, 100, 110},
		[3]float64{90, 100, 110},
	)
	price := values(105.0, 111.0, 95.0, 89.0, 101.0)

	series, err := BandCross(price, channel)
	require.NoError(t, err)
	assert.False(t, series.At(0).Defined)
	assert.Equal(t, Cross{Upper: true}, series.At(1).Cross)
	assert.Equal(t, Cross{Middle: true}, series.At(2).Cross)
	assert.Equal(t, Cross{Lower: true}, series.At(3).Cross)
	assert.Equal(t, Cross{Middle: true}, series.At(4).Cross)
	assert.True(t, series.At(1).Bullish())
	assert.True(t, series.At(3).Bearish())
	// 中轨穿越不代表方向
	assert.False(t, series.At(2).Bullish())
	assert.False(t, series.At(2).Bearish())

	again, err := BandCross(price, channel)
	require.NoError(t, err)
	assert.Equal(t, series, again)

	_, err = BandCross(values(1.0), channel)
	assert.ErrorIs(t, err, ErrAlignment)
}

func TestDirectionalTrend(t *testing.T) {
	dmi := indicator.Result{Indicator: "dmi", Shape: indicator.ShapeDual, Entries: []indicator.Entry{
		{Time: entryTime(0)},
		{Time: entryTime(1), Defined: true, First: d(30), Second: d(10), Value: d(15)},
		{Time: entryTime(2), Defined: true, First: d(30), Second: d(10), Value: d(27)},
		{Time: entryTime(3), Defined: true, First: d(8), Second: d(25), Value: d(45)},
		{Time: entryTime(4), Defined: true, First: d(20), Second: d(20), Value: d(45)},
	}}
	series, err := DirectionalTrend(dmi, d(20), StrengthBands{Normal: d(25), Strong: d(40)})
	require.NoError(t, err)

	assert.False(t, series.At(0).Defined)
	assert.Equal(t, Consolidation, series.At(1).Trend)
	assert.Equal(t, Up, series.At(2).Trend)
	assert.Equal(t, Normal, series.At(2).Strength)
	assert.Equal(t, Down, series.At(3).Trend)
	assert.Equal(t, Strong, series.At(3).Strength)
	assert.Equal(t, Consolidation, series.At(4).Trend)
}

func TestParabolicTrend(t *testing.T) {
	price := values(100.0, 100.0, 100.0)
	sar := values(nil, 90.0, 104.0)
	series, err := ParabolicTrend(price, sar, bands)
	require.NoError(t, err)

	assert.False(t, series.At(0).Defined)
	assert.Equal(t, Up, series.At(1).Trend)
	assert.Equal(t, Strong, series.At(1).Strength)
	assert.Equal(t, Down, series.At(2).Trend)
	assert.Equal(t, Weak, series.At(2).Strength)
}

func TestMovingAverageTrend(t *testing.T) {
	price := values(10.0, 11.0, 12.0, 13.0, 9.0, 8.0, 12.0)
	ma := values(nil, 10.0, 10.5, 11.0, 10.8, 10.2, 10.0)
	series, err := MovingAverageTrend(price, ma, 3, bands)
	require.NoError(t, err)

	assert.False(t, series.At(2).Defined)
	assert.Equal(t, Up, series.At(3).Trend)
	// 价格跌破均线但斜率仍为正
	assert.Equal(t, Consolidation, series.At(4).Trend)
	assert.Equal(t, Down, series.At(5).Trend)
	// 价格在均线之上但斜率为负
	assert.Equal(t, Consolidation, series.At(6).Trend)

	_, err = MovingAverageTrend(price, ma, 1, bands)
	assert.Error(t, err)
}

func TestCloudTrend(t *testing.T) {
	cloud := indicator.IchimokuResult{
		Tenkan:  values(nil, 105.0, 95.0, 101.0),
		Kijun:   values(nil, 100.0, 100.0, 100.0),
		SenkouA: values(nil, 98.0, 102.0, 99.0),
		SenkouB: values(nil, 96.0, 101.0, 103.0),
		Chikou:  values(nil, nil, nil, nil),
	}
	price := values(100.0, 110.0, 90.0, 100.0)
	series, err := CloudTrend(price, cloud, bands)
	require.NoError(t, err)

	assert.False(t, series.At(0).Defined)
	assert.Equal(t, Up, series.At(1).Trend)
	assert.Equal(t, Strong, series.At(1).Strength)
	assert.Equal(t, Down, series.At(2).Trend)
	assert.Equal(t, Consolidation, series.At(3).Trend)
}
