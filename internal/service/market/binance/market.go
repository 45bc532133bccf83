package binance

import (
	"context"
	"fmt"
	"time"

	"github.com/KNICEX/strategy-monitor/internal/service/market"
	"github.com/adshao/go-binance/v2/futures"
	"github.com/shopspring/decimal"
)

// 币安合约 klines 接口单次最多返回 1500 根
const maxKlinesLimit = 1500

// 单次 FetchTicks 最多翻页次数, 超过时返回 ErrDataUnavailable
const maxPages = 8

var _ market.TickService = (*TickService)(nil)

type TickService struct {
	cli   *futures.Client
	limit int
}

type Option func(s *TickService)

// WithPageLimit 每页请求的K线数量, 超出 [1, 1500] 时使用 1500
func WithPageLimit(limit int) Option {
	return func(s *TickService) {
		if limit > 0 && limit <= maxKlinesLimit {
			s.limit = limit
		}
	}
}

func NewTickService(cli *futures.Client, opts ...Option) *TickService {
	s := &TickService{cli: cli, limit: maxKlinesLimit}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchTicks 从 StartTime 向后翻页直到 EndTime, 未指定 StartTime 时只取最近一页
func (s *TickService) FetchTicks(ctx context.Context, req market.FetchTicksReq) ([]market.Tick, error) {
	if !req.Timeframe.Valid() {
		return nil, fmt.Errorf("%w: unsupported timeframe %q", market.ErrDataUnavailable, req.Timeframe)
	}
	var ticks []market.Tick
	start := req.StartTime
	for page := 0; ; page++ {
		if page == maxPages {
			return nil, fmt.Errorf("%w: %s %s needs more than %d pages", market.ErrDataUnavailable, req.Market, req.Timeframe, maxPages)
		}
		res, err := s.fetchPage(ctx, req, start)
		if err != nil {
			return nil, err
		}
		batch, err := convertKlines(res)
		if err != nil {
			return nil, err
		}
		ticks = appendTicks(ticks, batch)
		// 不足一页说明已到 EndTime 或最新K线
		if len(res) < s.limit || req.StartTime.IsZero() || len(ticks) == 0 {
			break
		}
		next := ticks[len(ticks)-1].OpenTime.Add(req.Timeframe.Duration())
		if !req.EndTime.IsZero() && !next.Before(req.EndTime) {
			break
		}
		start = next
	}
	if len(ticks) == 0 {
		return nil, fmt.Errorf("%w: no klines for %s %s", market.ErrDataUnavailable, req.Market, req.Timeframe)
	}
	return ticks, nil
}

func (s *TickService) fetchPage(ctx context.Context, req market.FetchTicksReq, start time.Time) ([]*futures.Kline, error) {
	svc := s.cli.NewKlinesService().
		Symbol(req.Market.String()). // 币安合约API使用 BTCUSDT 格式，不是 BTC/USDT
		Interval(req.Timeframe.String()).
		Limit(s.limit)
	if !start.IsZero() {
		svc.StartTime(start.UnixMilli())
	}
	if !req.EndTime.IsZero() {
		// 币安 endTime 为闭区间
		svc.EndTime(req.EndTime.UnixMilli() - 1)
	}
	res, err := svc.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("binance klines %s %s: %w", req.Market, req.Timeframe, err)
	}
	return res, nil
}

// appendTicks 拼接分页结果, 丢弃与已有结果重叠的K线
func appendTicks(ticks, batch []market.Tick) []market.Tick {
	for _, t := range batch {
		if n := len(ticks); n > 0 && !t.OpenTime.After(ticks[n-1].OpenTime) {
			continue
		}
		ticks = append(ticks, t)
	}
	return ticks
}

func convertKlines(klines []*futures.Kline) ([]market.Tick, error) {
	ticks := make([]market.Tick, 0, len(klines))
	for _, k := range klines {
		prices, err := parseDecimals(k.Open, k.High, k.Low, k.Close, k.Volume)
		if err != nil {
			return nil, fmt.Errorf("kline %d: %w", k.OpenTime, err)
		}
		// 去重, 保证 OpenTime 严格递增
		if n := len(ticks); n > 0 && !time.UnixMilli(k.OpenTime).After(ticks[n-1].OpenTime) {
			continue
		}
		ticks = append(ticks, market.Tick{
			OpenTime:  time.UnixMilli(k.OpenTime),
			CloseTime: time.UnixMilli(k.CloseTime),
			Open:      prices[0],
			High:      prices[1],
			Low:       prices[2],
			Close:     prices[3],
			Volume:    prices[4],
		})
	}
	return ticks, nil
}

func parseDecimals(values ...string) ([]decimal.Decimal, error) {
	res := make([]decimal.Decimal, len(values))
	for i, v := range values {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return nil, err
		}
		res[i] = d
	}
	return res, nil
}
