package market

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrDataUnavailable 行情服务无法提供该市场/周期/时间窗口的数据
var ErrDataUnavailable = errors.New("market data unavailable")

// Market 交易对
type Market struct {
	Base  string `json:"base"`
	Quote string `json:"quote"`
}

func ParseMarket(s string) Market {
	s = strings.ToUpper(s)
	if base, quote, ok := strings.Cut(s, "/"); ok {
		return Market{Base: base, Quote: quote}
	}
	// 常见 Quote 列表
	quotes := []string{"USDT", "BUSD", "USDC", "BTC", "ETH"}
	for _, q := range quotes {
		if strings.HasSuffix(s, q) && len(s) > len(q) {
			return Market{Base: strings.TrimSuffix(s, q), Quote: q}
		}
	}
	return Market{Base: s}
}

func (m Market) IsZero() bool {
	return m.Base == "" || m.Quote == ""
}

func (m Market) String() string {
	return fmt.Sprintf("%s%s", m.Base, m.Quote)
}

func (m Market) Slash() string {
	return fmt.Sprintf("%s/%s", m.Base, m.Quote)
}

type Timeframe string

const (
	Timeframe1m  Timeframe = "1m"
	Timeframe3m  Timeframe = "3m"
	Timeframe5m  Timeframe = "5m"
	Timeframe15m Timeframe = "15m"
	Timeframe30m Timeframe = "30m"
	Timeframe1h  Timeframe = "1h"
	Timeframe2h  Timeframe = "2h"
	Timeframe4h  Timeframe = "4h"
	Timeframe6h  Timeframe = "6h"
	Timeframe8h  Timeframe = "8h"
	Timeframe12h Timeframe = "12h"
	Timeframe1d  Timeframe = "1d"
	Timeframe3d  Timeframe = "3d"
	Timeframe1w  Timeframe = "1w"
)

var timeframeDurations = map[Timeframe]time.Duration{
	Timeframe1m:  time.Minute,
	Timeframe3m:  3 * time.Minute,
	Timeframe5m:  5 * time.Minute,
	Timeframe15m: 15 * time.Minute,
	Timeframe30m: 30 * time.Minute,
	Timeframe1h:  time.Hour,
	Timeframe2h:  2 * time.Hour,
	Timeframe4h:  4 * time.Hour,
	Timeframe6h:  6 * time.Hour,
	Timeframe8h:  8 * time.Hour,
	Timeframe12h: 12 * time.Hour,
	Timeframe1d:  24 * time.Hour,
	Timeframe3d:  72 * time.Hour,
	Timeframe1w:  7 * 24 * time.Hour,
}

func (t Timeframe) String() string {
	return string(t)
}

// Duration 未知周期返回0
func (t Timeframe) Duration() time.Duration {
	return timeframeDurations[t]
}

func (t Timeframe) Valid() bool {
	return t.Duration() > 0
}

// Tick 一根K线
type Tick struct {
	OpenTime  time.Time
	CloseTime time.Time
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
	Volume    decimal.Decimal // 成交量
}

type FetchTicksReq struct {
	Market             Market
	Timeframe          Timeframe
	StartTime, EndTime time.Time
}

// TickService 按 市场+周期+时间范围 获取K线, 结果按 OpenTime 升序且无重复
type TickService interface {
	FetchTicks(ctx context.Context, req FetchTicksReq) ([]Tick, error)
}
