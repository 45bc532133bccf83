package ioc

import (
	"github.com/KNICEX/strategy-monitor/internal/repo"
	"github.com/spf13/viper"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB() *gorm.DB {
	type Config struct {
		DSN      string `mapstructure:"dsn"`
		LogLevel string `mapstructure:"log_level"`
	}

	cfg := Config{
		DSN: "file:strategy-monitor.db?_busy_timeout=5000&_journal_mode=WAL",
	}
	if err := viper.UnmarshalKey("db", &cfg); err != nil {
		panic(err)
	}

	level := logger.Warn
	switch cfg.LogLevel {
	case "silent":
		level = logger.Silent
	case "error":
		level = logger.Error
	case "info":
		level = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		panic(err)
	}
	if err := repo.InitTables(db); err != nil {
		panic(err)
	}
	return db
}
