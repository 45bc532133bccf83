package monitor

import (
	"context"
	"time"

	"github.com/KNICEX/strategy-monitor/internal/entity"
	"github.com/KNICEX/strategy-monitor/internal/service/market"
	"github.com/KNICEX/strategy-monitor/internal/service/strategy"
	"github.com/google/uuid"
)

// Job 一次策略评估任务
type Job struct {
	Strategy    entity.MemberStrategy // 调度时的快照
	Market      market.Market
	Timeframe   market.Timeframe
	Type        strategy.Type
	Params      strategy.Params
	Window      market.FetchTicksReq
	ScheduledAt time.Time
	// Err 任务准备阶段的错误, 计算阶段直接转为失败结果
	Err error
}

type FailureKind string

const (
	FailureInsufficientData FailureKind = "insufficient_data"
	FailureUpstream         FailureKind = "upstream_fetch"
	FailureAlignment        FailureKind = "alignment"
	FailureInvalidRequest   FailureKind = "invalid_request"
	FailureComputation      FailureKind = "computation"
	// FailureCanceled 流水线关闭导致的中断, 不计入失败次数
	FailureCanceled FailureKind = "canceled"
)

// Outcome 计算阶段的结果, Err 为空时 Result 有效
type Outcome struct {
	Job      Job
	Result   strategy.Result
	Err      error
	Kind     FailureKind
	Duration time.Duration
}

func (o Outcome) Failed() bool {
	return o.Err != nil
}

// Signal 持仓变化信号
type Signal struct {
	ID           uuid.UUID          `json:"id"`
	StrategyID   int64              `json:"strategy_id"`
	MemberID     int64              `json:"member_id"`
	Market       market.Market      `json:"market"`
	Timeframe    market.Timeframe   `json:"timeframe"`
	StrategyType strategy.Type      `json:"strategy_type"`
	Positions    strategy.Positions `json:"positions"`
	Previous     strategy.Positions `json:"previous"`
	Timestamp    time.Time          `json:"timestamp"`
	CreatedAt    time.Time          `json:"created_at"`
	Comment      string             `json:"comment,omitempty"`
}

type Notifier interface {
	Notify(ctx context.Context, signal Signal) error
}
