package monitor

import (
	"time"
)

// Config 流水线配置, 对应配置文件中的 monitor 节
type Config struct {
	Cron string `mapstructure:"cron"`

	MonitoringWorkers   int `mapstructure:"monitoring_workers"`
	CalculationWorkers  int `mapstructure:"calculation_workers"`
	DecisionWorkers     int `mapstructure:"decision_workers"`
	SignalSenderWorkers int `mapstructure:"signal_sender_workers"`
	QueueSize           int `mapstructure:"queue_size"`

	// FailedCyclesAllowed 连续失败次数超过该值时停用策略
	FailedCyclesAllowed int `mapstructure:"failed_cycles_allowed"`

	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
	FetchRetries int           `mapstructure:"fetch_retries"`
	FetchBackoff time.Duration `mapstructure:"fetch_backoff"`
	FetchRate    float64       `mapstructure:"fetch_rate"` // 每秒最多拉取次数, 0 不限制

	DispatchTimeout time.Duration `mapstructure:"dispatch_timeout"`
	DispatchRetries int           `mapstructure:"dispatch_retries"`
	DispatchBackoff time.Duration `mapstructure:"dispatch_backoff"`

	PersistTimeout time.Duration `mapstructure:"persist_timeout"`
}

func DefaultConfig() Config {
	return Config{
		Cron:                "@every 30s",
		MonitoringWorkers:   4,
		CalculationWorkers:  8,
		DecisionWorkers:     4,
		SignalSenderWorkers: 4,
		QueueSize:           256,
		FailedCyclesAllowed: 3,
		FetchTimeout:        10 * time.Second,
		FetchRetries:        2,
		FetchBackoff:        500 * time.Millisecond,
		FetchRate:           20,
		DispatchTimeout:     10 * time.Second,
		DispatchRetries:     3,
		DispatchBackoff:     time.Second,
		PersistTimeout:      5 * time.Second,
	}
}

// normalize 非法的数量与时长取默认值, 重试次数与失败阈值允许为0
func (c Config) normalize() Config {
	def := DefaultConfig()
	if c.Cron == "" {
		c.Cron = def.Cron
	}
	positive := func(v *int, d int) {
		if *v <= 0 {
			*v = d
		}
	}
	positive(&c.MonitoringWorkers, def.MonitoringWorkers)
	positive(&c.CalculationWorkers, def.CalculationWorkers)
	positive(&c.DecisionWorkers, def.DecisionWorkers)
	positive(&c.SignalSenderWorkers, def.SignalSenderWorkers)
	positive(&c.QueueSize, def.QueueSize)
	duration := func(v *time.Duration, d time.Duration) {
		if *v <= 0 {
			*v = d
		}
	}
	duration(&c.FetchTimeout, def.FetchTimeout)
	duration(&c.FetchBackoff, def.FetchBackoff)
	duration(&c.DispatchTimeout, def.DispatchTimeout)
	duration(&c.DispatchBackoff, def.DispatchBackoff)
	duration(&c.PersistTimeout, def.PersistTimeout)
	c.FailedCyclesAllowed = max(c.FailedCyclesAllowed, 0)
	c.FetchRetries = max(c.FetchRetries, 0)
	c.DispatchRetries = max(c.DispatchRetries, 0)
	return c
}
