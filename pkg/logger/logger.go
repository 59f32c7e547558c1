package logger

import (
	"fmt"

	"github.com/mberezin/microblog/internal/pkg/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger interface {
	Info(args ...interface{})
	Infof(template string, args ...interface{})
	Warnf(template string, args ...interface{})
	Error(args ...interface{})
	Errorf(template string, args ...interface{})
}

func New(cfg config.Logger) (Logger, error) {
	lvl, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse level error: %w", err)
	}

	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(lvl)

	if len(cfg.Output) != 0 {
		zapCfg.OutputPaths = cfg.Output
	}

	if len(cfg.ErrOutput) != 0 {
		zapCfg.ErrorOutputPaths = cfg.ErrOutput
	}

	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	lg, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger error: %w", err)
	}

	return lg.Sugar(), nil
}
