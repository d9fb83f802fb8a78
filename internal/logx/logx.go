package logx

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"orlop/internal/config"
)

const logFileName = "orlop.log"

// New creates a logger that writes to a rotating file inside logsDir. When
// debug logging is enabled the output is mirrored to stderr as well. The
// returned closer should be closed when logging is no longer needed.
func New(logsDir string, cfg config.LogConfig) (*logrus.Logger, io.Closer, error) {
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("ensure logs directory: %w", err)
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("parse log level: %w", err)
	}

	file := &lumberjack.Logger{
		Filename:   filepath.Join(logsDir, logFileName),
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     14,
		Compress:   true,
	}

	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if cfg.Debug {
		logger.SetOutput(io.MultiWriter(os.Stderr, file))
	} else {
		logger.SetOutput(file)
	}
	return logger, file, nil
}

// Discard returns a logger that drops everything. Useful for tests and for
// library callers that do not configure logging.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
