package entity

import (
	"time"
)

// Signal 发出的持仓变化信号及其投递结果
type Signal struct {
	Id           int64  `gorm:"primaryKey;autoIncrement"`
	Uid          string `gorm:"uniqueIndex"`
	StrategyId   int64  `gorm:"index"`
	MemberId     int64  `gorm:"index"`
	Base         string
	Quote        string
	Timeframe    string
	StrategyType string
	Positions    string // json 数组
	Previous     string
	Timestamp    time.Time // 被评估的K线时间
	Status       int       `gorm:"index"`
	Attempts     int
	Error        string
	CreatedAt    time.Time `gorm:"index"`
}

const (
	SignalStatusDelivered = 1
	SignalStatusDropped   = 2
)
