package monitor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/KNICEX/strategy-monitor/internal/entity"
	"github.com/KNICEX/strategy-monitor/internal/repo"
	"github.com/KNICEX/strategy-monitor/internal/service/market"
	"github.com/KNICEX/strategy-monitor/internal/service/market/memory"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	baseTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	btc      = market.Market{Base: "BTC", Quote: "USDT"}
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, repo.InitTables(db))
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.CalculationWorkers = 2
	cfg.DecisionWorkers = 2
	cfg.SignalSenderWorkers = 2
	cfg.QueueSize = 16
	cfg.FetchRate = 0
	cfg.FetchBackoff = time.Millisecond
	cfg.DispatchBackoff = time.Millisecond
	cfg.FetchTimeout = time.Second
	cfg.DispatchTimeout = time.Second
	return cfg
}

func createStrategy(t *testing.T, strategies repo.MemberStrategyRepo, s entity.MemberStrategy) entity.MemberStrategy {
	t.Helper()
	if s.Base == "" {
		s.Base, s.Quote = btc.Base, btc.Quote
	}
	if s.Timeframe == "" {
		s.Timeframe = string(market.Timeframe1h)
	}
	if s.StrategyType == "" {
		s.StrategyType = "MACD_ADX"
	}
	s.MemberId = 7
	s.Active = true
	id, err := strategies.Create(context.Background(), s)
	require.NoError(t, err)
	s.Id = id
	return s
}

// dipThenRise 先持续上涨, 短暂回调后再次加速上涨
func dipThenRise(count int) []market.Tick {
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

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// recordingNotifier 记录收到的信号, 前 failures 次投递返回错误
type recordingNotifier struct {
	mu       sync.Mutex
	failures int
	calls    int
	signals  []Signal
}

func (n *recordingNotifier) Notify(ctx context.Context, signal Signal) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	if n.calls <= n.failures {
		return errors.New("webhook unavailable")
	}
	n.signals = append(n.signals, signal)
	return nil
}

func (n *recordingNotifier) Signals() []Signal {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Signal(nil), n.signals...)
}

func (n *recordingNotifier) Calls() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls
}

// flakyTickService 前 failures 次返回错误, 之后委托给 next
type flakyTickService struct {
	next     market.TickService
	failures int64
	panics   bool
	calls    atomic.Int64
}

func (s *flakyTickService) FetchTicks(ctx context.Context, req market.FetchTicksReq) ([]market.Tick, error) {
	n := s.calls.Add(1)
	if s.panics {
		panic("broken tick source")
	}
	if n <= s.failures || s.next == nil {
		return nil, market.ErrDataUnavailable
	}
	return s.next.FetchTicks(ctx, req)
}

// gatedTickService 每次拉取都等待 gate 关闭后再委托给 next
type gatedTickService struct {
	next    market.TickService
	gate    chan struct{}
	entered chan struct{}
	calls   atomic.Int64
}

func newGatedTickService(next market.TickService) *gatedTickService {
	return &gatedTickService{
		next:    next,
		gate:    make(chan struct{}),
		entered: make(chan struct{}, 16),
	}
}

func (s *gatedTickService) FetchTicks(ctx context.Context, req market.FetchTicksReq) ([]market.Tick, error) {
	s.calls.Add(1)
	s.entered <- struct{}{}
	select {
	case <-s.gate:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return s.next.FetchTicks(ctx, req)
}

// listHookRepo 在 ListActive 返回前执行 afterList
type listHookRepo struct {
	repo.MemberStrategyRepo
	mu        sync.Mutex
	afterList func()
}

func (r *listHookRepo) ListActive(ctx context.Context) ([]entity.MemberStrategy, error) {
	list, err := r.MemberStrategyRepo.ListActive(ctx)
	r.mu.Lock()
	hook := r.afterList
	r.afterList = nil
	r.mu.Unlock()
	if hook != nil {
		hook()
	}
	return list, err
}

func (r *listHookRepo) setAfterList(hook func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.afterList = hook
}

// failingSaveRepo SaveState 总是返回 err
type failingSaveRepo struct {
	repo.MemberStrategyRepo
	err error
}

func (r failingSaveRepo) SaveState(ctx context.Context, s entity.MemberStrategy) error {
	return r.err
}
