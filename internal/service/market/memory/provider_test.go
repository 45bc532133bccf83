package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/KNICEX/strategy-monitor/internal/service/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickService_FetchTicks(t *testing.T) {
	svc := NewTickService()
	m := market.Market{Base: "BTC", Quote: "USDT"}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.Generate(m, market.Timeframe1h, start, 50000, 48, "up")

	ticks, err := svc.FetchTicks(context.Background(), market.FetchTicksReq{
		Market:    m,
		Timeframe: market.Timeframe1h,
		StartTime: start.Add(10 * time.Hour),
		EndTime:   start.Add(20 * time.Hour),
	})
	require.NoError(t, err)
	require.Len(t, ticks, 10)
	assert.Equal(t, start.Add(10*time.Hour), ticks[0].OpenTime)
	assert.Equal(t, start.Add(19*time.Hour), ticks[9].OpenTime)
	for i := 1; i < len(ticks); i++ {
		assert.True(t, ticks[i].Close.GreaterThan(ticks[i-1].Close))
	}

	_, err = svc.FetchTicks(context.Background(), market.FetchTicksReq{Market: m, Timeframe: market.Timeframe5m})
	assert.True(t, errors.Is(err, market.ErrDataUnavailable))
}

func TestTickService_AddDedup(t *testing.T) {
	svc := NewTickService()
	m := market.Market{Base: "ETH", Quote: "USDT"}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	svc.Add(m, market.Timeframe1m, NewTick(start.Add(time.Minute), market.Timeframe1m, 1, 2))
	svc.Add(m, market.Timeframe1m, NewTick(start, market.Timeframe1m, 1, 1))
	svc.Add(m, market.Timeframe1m, NewTick(start.Add(time.Minute), market.Timeframe1m, 2, 3))

	ticks, err := svc.FetchTicks(context.Background(), market.FetchTicksReq{Market: m, Timeframe: market.Timeframe1m})
	require.NoError(t, err)
	require.Len(t, ticks, 2)
	assert.Equal(t, start, ticks[0].OpenTime)
	assert.Equal(t, "3", ticks[1].Close.String())
}
