package session

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger adapts a zap logger to the Logger interface.
type ZapLogger struct {
	log *zap.SugaredLogger
}

var _ Logger = (*ZapLogger)(nil)

func NewZapLogger(l *zap.Logger) *ZapLogger {
	return &ZapLogger{log: l.Sugar()}
}

func (z *ZapLogger) Debug(format string, args ...any) { z.log.Debugf(format, args...) }
func (z *ZapLogger) Info(format string, args ...any)  { z.log.Infof(format, args...) }
func (z *ZapLogger) Error(format string, args ...any) { z.log.Errorf(format, args...) }

// NewDevelopmentLogger builds a zap-backed Logger at the given level,
// falling back to info when the level is unknown.
func NewDevelopmentLogger(levelName string) (*ZapLogger, error) {
	level := zapcore.InfoLevel
	if err := level.Set(strings.ToLower(levelName)); err != nil {
		level = zapcore.InfoLevel
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return NewZapLogger(logger), nil
}
