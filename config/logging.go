package config

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// LogWriter is the writer used for application and database logs.
var LogWriter io.Writer = os.Stderr

// LogFilePath returns the log file path, defaulting to logs/reviewctl.log.
func LogFilePath(cfg *Config) string {
	if cfg != nil && cfg.LogFile != "" {
		return cfg.LogFile
	}
	return filepath.Join("logs", "reviewctl.log")
}

// InitLogging prepares the log file and returns a logger writing to stderr and
// the file. The returned file is nil when only stderr could be used.
func InitLogging(cfg *Config) (*logrus.Logger, *os.File) {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	level := logrus.InfoLevel
	format := "text"
	if cfg != nil {
		if parsed, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
			level = parsed
		}
		format = cfg.LogFormat
	}
	logger.SetLevel(level)
	if format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	logPath := LogFilePath(cfg)
	if err := os.MkdirAll(filepath.Dir(logPath), os.ModePerm); err != nil {
		logger.Warnf("Failed to create logs directory: %v", err)
		return logger, nil
	}

	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logger.Warnf("Failed to open log file: %v", err)
		return logger, nil
	}

	LogWriter = io.MultiWriter(os.Stderr, logFile)
	logger.SetOutput(LogWriter)
	return logger, logFile
}

// DiscardLogger is used by components constructed without a logger.
func DiscardLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
