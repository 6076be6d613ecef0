package logging

import (
	"fmt"
	"user-service/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	errInvalidLevelFmt = "invalid log level %q: %w"
	errBuildLoggerFmt  = "failed to build logger: %w"

	timeKey = "timestamp"
)

// New builds the process logger. JSON output uses zap's production encoder,
// console output the development one.
func New(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf(errInvalidLevelFmt, cfg.Level, err)
	}

	var zcfg zap.Config
	if cfg.Format == config.LogFormatConsole {
		zcfg = zap.NewDevelopmentConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zcfg = zap.NewProductionConfig()
		zcfg.EncoderConfig.TimeKey = timeKey
		zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	zcfg.Level = level

	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf(errBuildLoggerFmt, err)
	}

	return logger, nil
}
