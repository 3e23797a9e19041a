package config

import (
	"fmt"
	"log"
	"strings"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenStateDB connects to the MySQL database that backs the mysql state driver.
func OpenStateDB(cfg *Config) (*gorm.DB, error) {
	if strings.TrimSpace(cfg.StateDSN) == "" {
		return nil, fmt.Errorf("config: REVIEW_STATE_DSN is empty")
	}

	// SQL statements are only worth seeing when debugging the client itself.
	logLevel := logger.Warn
	if strings.EqualFold(cfg.LogLevel, "debug") || strings.EqualFold(cfg.LogLevel, "trace") {
		logLevel = logger.Info
	}

	gormConfig := &gorm.Config{
		Logger: logger.New(
			log.New(LogWriter, "\r\n", log.LstdFlags),
			logger.Config{LogLevel: logLevel},
		),
	}

	db, err := gorm.Open(mysql.Open(cfg.StateDSN), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to state database: %w", err)
	}
	return db, nil
}
