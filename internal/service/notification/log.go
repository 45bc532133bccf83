package notification

import (
	"context"
	"log/slog"

	"github.com/KNICEX/strategy-monitor/internal/service/monitor"
)

var _ monitor.Notifier = (*LogNotifier)(nil)

// LogNotifier 把信号写入日志
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, signal monitor.Signal) error {
	n.logger.InfoContext(ctx, "strategy signal",
		"signal_id", signal.ID,
		"strategy_id", signal.StrategyID,
		"member_id", signal.MemberID,
		"market", signal.Market.Slash(),
		"timeframe", signal.Timeframe,
		"strategy_type", signal.StrategyType,
		"positions", signal.Positions.String(),
		"previous", signal.Previous.String(),
		"timestamp", signal.Timestamp,
		"comment", signal.Comment,
	)
	return nil
}
