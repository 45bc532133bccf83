package ioc

import (
	"log/slog"
	"time"

	"github.com/KNICEX/strategy-monitor/internal/service/llm"
	"github.com/KNICEX/strategy-monitor/internal/service/monitor"
	"github.com/KNICEX/strategy-monitor/internal/service/notification"
	"github.com/spf13/viper"
)

func InitNotifier(llmSvc llm.Service, logger *slog.Logger) monitor.Notifier {
	type Config struct {
		Webhook struct {
			URL     string            `mapstructure:"url"`
			Timeout time.Duration     `mapstructure:"timeout"`
			Headers map[string]string `mapstructure:"headers"`
		} `mapstructure:"webhook"`
		Comment bool `mapstructure:"comment"`
	}

	var cfg Config
	if err := viper.UnmarshalKey("notification", &cfg); err != nil {
		panic(err)
	}

	var notifier monitor.Notifier = notification.NewLogNotifier(logger.With("component", "notifier"))
	if cfg.Webhook.URL != "" {
		timeout := cfg.Webhook.Timeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		var opts []notification.WebhookOption
		for k, v := range cfg.Webhook.Headers {
			opts = append(opts, notification.WithHeader(k, v))
		}
		notifier = notification.NewWebhookNotifier(cfg.Webhook.URL, timeout, opts...)
	}
	if cfg.Comment && llmSvc != nil {
		notifier = notification.NewCommentator(notifier, llmSvc, logger.With("component", "commentator"))
	}
	return notifier
}
