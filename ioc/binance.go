package ioc

import (
	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/futures"
	"github.com/spf13/viper"
)

// InitBinanceFuturesCli 拉取K线只需要公共接口, key 可以为空
func InitBinanceFuturesCli() *futures.Client {
	type Config struct {
		ApiKey    string `mapstructure:"api_key"`
		ApiSecret string `mapstructure:"api_secret"`
		Testnet   bool   `mapstructure:"testnet"`
	}

	var cfg Config
	if err := viper.UnmarshalKey("cex.binance", &cfg); err != nil {
		panic(err)
	}

	futures.UseTestnet = cfg.Testnet
	return binance.NewFuturesClient(cfg.ApiKey, cfg.ApiSecret)
}
