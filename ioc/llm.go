package ioc

import (
	"context"

	"github.com/KNICEX/strategy-monitor/internal/service/llm"
	"github.com/KNICEX/strategy-monitor/internal/service/llm/gemini"
	"github.com/google/generative-ai-go/genai"
	"github.com/spf13/viper"
	"google.golang.org/api/option"
)

// InitLLM 未配置 key 时返回 nil, 信号不附带说明
func InitLLM() llm.Service {
	type Config struct {
		ApiKey      []string `mapstructure:"api_key"`
		Model       string   `mapstructure:"model"`
		Temperature float32  `mapstructure:"temperature"`
	}

	var cfg Config
	if err := viper.UnmarshalKey("llm.gemini", &cfg); err != nil {
		panic(err)
	}
	if len(cfg.ApiKey) == 0 {
		return nil
	}

	cli, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.ApiKey[0]))
	if err != nil {
		panic(err)
	}
	opts := []gemini.Option{gemini.WithModel(cfg.Model), gemini.WithMaxOutputTokens(256)}
	if cfg.Temperature > 0 {
		opts = append(opts, gemini.WithTemperature(cfg.Temperature))
	}
	return gemini.NewService(cli, opts...)
}
