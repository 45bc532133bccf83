package notification

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/KNICEX/strategy-monitor/internal/service/llm"
	"github.com/KNICEX/strategy-monitor/internal/service/monitor"
)

const commentSystem = `You are a trading assistant. Explain in one short paragraph what a change in a technical strategy's recommended positions means for a trader. Do not give financial advice and do not invent indicator values.`

var _ monitor.Notifier = (*Commentator)(nil)

// Commentator 投递前让 llm 为信号附上一段说明, llm 出错时不带说明继续投递
type Commentator struct {
	next   monitor.Notifier
	llmSvc llm.Service
	logger *slog.Logger
}

func NewCommentator(next monitor.Notifier, llmSvc llm.Service, logger *slog.Logger) *Commentator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Commentator{
		next:   next,
		llmSvc: llmSvc,
		logger: logger,
	}
}

func (c *Commentator) Notify(ctx context.Context, signal monitor.Signal) error {
	if signal.Comment == "" {
		answer, err := c.llmSvc.AskOnce(ctx, llm.Question{
			System:  commentSystem,
			Content: commentPrompt(signal),
		})
		if err != nil {
			c.logger.Warn("generate signal comment failed", "signal_id", signal.ID, "error", err)
		} else {
			signal.Comment = answer.Content
			c.logger.Debug("signal comment generated", "signal_id", signal.ID,
				"input_token", answer.InputToken, "output_token", answer.OutputToken)
		}
	}
	return c.next.Notify(ctx, signal)
}

func commentPrompt(signal monitor.Signal) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Market: %s\n", signal.Market.Slash())
	fmt.Fprintf(&sb, "Timeframe: %s\n", signal.Timeframe)
	fmt.Fprintf(&sb, "Strategy: %s\n", signal.StrategyType)
	fmt.Fprintf(&sb, "Candle time: %s\n", signal.Timestamp.UTC().Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(&sb, "Previous positions: %s\n", signal.Previous)
	fmt.Fprintf(&sb, "New positions: %s\n", signal.Positions)
	return sb.String()
}
