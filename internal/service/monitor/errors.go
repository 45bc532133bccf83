package monitor

import (
	"errors"
	"fmt"

	"github.com/KNICEX/strategy-monitor/internal/service/analyzer"
	"github.com/KNICEX/strategy-monitor/internal/service/indicator"
	"github.com/KNICEX/strategy-monitor/internal/service/market"
	"github.com/KNICEX/strategy-monitor/internal/service/strategy"
)

var (
	ErrInvalidJob         = errors.New("invalid monitoring job")
	ErrPipelineStarted    = errors.New("pipeline already started")
	ErrNotificationFailed = errors.New("notification failed")
)

// UpstreamFetchError 重试后仍无法获取K线
type UpstreamFetchError struct {
	Market    market.Market
	Timeframe market.Timeframe
	Attempts  int
	Err       error
}

func (e *UpstreamFetchError) Error() string {
	return fmt.Sprintf("fetch ticks %s %s failed after %d attempts: %v", e.Market, e.Timeframe, e.Attempts, e.Err)
}

func (e *UpstreamFetchError) Unwrap() error {
	return e.Err
}

// ComputationFault 计算过程中的意外错误, 包括 panic
type ComputationFault struct {
	StrategyId int64
	Cause      error
}

func (e *ComputationFault) Error() string {
	return fmt.Sprintf("computation fault in strategy %d: %v", e.StrategyId, e.Cause)
}

func (e *ComputationFault) Unwrap() error {
	return e.Cause
}

func classify(err error) FailureKind {
	var upstream *UpstreamFetchError
	var fault *ComputationFault
	switch {
	case errors.As(err, &upstream):
		return FailureUpstream
	case errors.As(err, &fault):
		return FailureComputation
	case errors.Is(err, indicator.ErrInsufficientData):
		return FailureInsufficientData
	case errors.Is(err, analyzer.ErrAlignment):
		return FailureAlignment
	case errors.Is(err, indicator.ErrInvalidRequest),
		errors.Is(err, strategy.ErrUnknownType),
		errors.Is(err, ErrInvalidJob):
		return FailureInvalidRequest
	default:
		return FailureComputation
	}
}
