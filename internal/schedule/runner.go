package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Runner 按 cron 表达式周期执行任务, 上一次执行未结束时跳过本次
type Runner struct {
	cron    *cron.Cron
	logger  *slog.Logger
	timeout time.Duration
	ctx     context.Context
}

type RunnerOption func(r *Runner)

// WithTaskTimeout 单次执行的超时时间, 0 表示不限制
func WithTaskTimeout(timeout time.Duration) RunnerOption {
	return func(r *Runner) {
		r.timeout = timeout
	}
}

func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		logger: slog.Default(),
		ctx:    context.Background(),
	}
	for _, opt := range opts {
		opt(r)
	}
	logger := cronLogger{logger: r.logger.With("component", "cron")}
	r.cron = cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	return r
}

// Add 注册任务, spec 支持标准 cron 表达式与 @every 1m 形式
func (r *Runner) Add(spec string, task Task) error {
	_, err := r.cron.AddFunc(spec, func() {
		r.runOnce(task)
	})
	if err != nil {
		return fmt.Errorf("schedule task %s with %q: %w", task.Name(), spec, err)
	}
	return nil
}

func (r *Runner) runOnce(task Task) {
	ctx := r.ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	start := time.Now()
	if err := task.Run(ctx); err != nil {
		r.logger.Error("schedule task failed", "task", task.Name(), "error", err)
		return
	}
	r.logger.Debug("schedule task finished", "task", task.Name(), "duration", time.Since(start))
}

// Run 启动调度直到 ctx 结束, 返回前等待正在执行的任务完成
func (r *Runner) Run(ctx context.Context) error {
	r.ctx = ctx
	r.cron.Start()
	<-ctx.Done()
	<-r.cron.Stop().Done()
	return nil
}

type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
