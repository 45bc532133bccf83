package entity

import (
	"time"
)

// MemberStrategy 用户订阅的监控策略
type MemberStrategy struct {
	Id           int64  `gorm:"primaryKey;autoIncrement"`
	MemberId     int64  `gorm:"index"`
	Base         string `gorm:"index:market_idx"`
	Quote        string `gorm:"index:market_idx"`
	Timeframe    string
	StrategyType string `gorm:"index"`
	Overrides    string // 参数覆盖, json 对象: 参数名 -> 数值字符串
	Active       bool   `gorm:"index"`

	// 以下字段只由监控流程修改
	FailedCycles  int    // 连续失败次数
	LastPositions string // 上次评估结果, json 数组
	HasResult     bool
	LastResultAt  time.Time
	LastRunAt     time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
