package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/KNICEX/strategy-monitor/internal/service/market"
	"github.com/shopspring/decimal"
)

var _ market.TickService = (*TickService)(nil)

// TickService 内存K线数据, 用于测试和回放
type TickService struct {
	mu    sync.RWMutex
	ticks map[string][]market.Tick // key: market_timeframe
}

func NewTickService() *TickService {
	return &TickService{
		ticks: make(map[string][]market.Tick),
	}
}

func key(m market.Market, tf market.Timeframe) string {
	return m.String() + "_" + tf.String()
}

// Add 合并K线, 相同 OpenTime 的后写覆盖先写
func (s *TickService) Add(m market.Market, tf market.Timeframe, ticks ...market.Tick) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byTime := make(map[int64]market.Tick, len(s.ticks[key(m, tf)])+len(ticks))
	for _, t := range s.ticks[key(m, tf)] {
		byTime[t.OpenTime.UnixNano()] = t
	}
	for _, t := range ticks {
		byTime[t.OpenTime.UnixNano()] = t
	}
	merged := make([]market.Tick, 0, len(byTime))
	for _, t := range byTime {
		merged = append(merged, t)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].OpenTime.Before(merged[j].OpenTime)
	})
	s.ticks[key(m, tf)] = merged
}

// Generate 生成模拟K线数据
// trend: "up"上涨, "down"下跌, "volatile"波动, 其他为横盘
func (s *TickService) Generate(m market.Market, tf market.Timeframe, startTime time.Time, basePrice float64, count int, trend string) []market.Tick {
	ticks := make([]market.Tick, count)
	prev := basePrice
	for i := 0; i < count; i++ {
		var price float64
		switch trend {
		case "up":
			// 每根K线涨0.5%
			price = basePrice * (1 + float64(i)*0.005)
		case "down":
			price = basePrice * (1 - float64(i)*0.005)
		case "volatile":
			if i%2 == 0 {
				price = basePrice * (1 + float64(i%10)*0.002)
			} else {
				price = basePrice * (1 - float64(i%10)*0.002)
			}
		default:
			price = basePrice * (1 + (float64(i%5)-2)*0.001)
		}
		ticks[i] = NewTick(startTime.Add(time.Duration(i)*tf.Duration()), tf, prev, price)
		prev = price
	}
	s.Add(m, tf, ticks...)
	return ticks
}

// NewTick 以 open/close 构造一根K线, 高低价在实体外 0.2%
func NewTick(openTime time.Time, tf market.Timeframe, open, close float64) market.Tick {
	o := decimal.NewFromFloat(open).Round(8)
	c := decimal.NewFromFloat(close).Round(8)
	margin := decimal.NewFromFloat(0.002)
	high := decimal.Max(o, c)
	low := decimal.Min(o, c)
	return market.Tick{
		OpenTime:  openTime,
		CloseTime: openTime.Add(tf.Duration()),
		Open:      o,
		High:      high.Add(high.Mul(margin)).Round(8),
		Low:       low.Sub(low.Mul(margin)).Round(8),
		Close:     c,
		Volume:    decimal.NewFromInt(1000),
	}
}

// FetchTicks 返回 [StartTime, EndTime) 内开盘的K线
func (s *TickService) FetchTicks(ctx context.Context, req market.FetchTicksReq) ([]market.Tick, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all, ok := s.ticks[key(req.Market, req.Timeframe)]
	if !ok {
		return nil, fmt.Errorf("%w: %s %s", market.ErrDataUnavailable, req.Market, req.Timeframe)
	}

	var res []market.Tick
	for _, t := range all {
		if t.OpenTime.Before(req.StartTime) {
			continue
		}
		if !req.EndTime.IsZero() && !t.OpenTime.Before(req.EndTime) {
			break
		}
		res = append(res, t)
	}
	return res, nil
}
