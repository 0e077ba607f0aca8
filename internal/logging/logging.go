package logging

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lucasnoah/scapagent/internal/config"
)

// NewWithWriter returns a logger writing to w; commands pass their stderr so
// stdout is reserved for output such as scan results. An unparseable level
// falls back to info and the parse error is returned alongside a usable logger.
func NewWithWriter(cfg config.Logger, w io.Writer) (*zap.Logger, error) {
	level, parseErr := zapcore.ParseLevel(cfg.Level)
	if parseErr != nil {
		level = zapcore.InfoLevel
	}

	var encoderConfig zapcore.EncoderConfig
	if cfg.Development {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	var encoder zapcore.Encoder
	if cfg.Encoding == "console" {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(w), level)
	if cfg.Development {
		return zap.New(core, zap.Development(), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), parseErr
	}
	return zap.New(core, zap.AddCaller()), parseErr
}

// Leveled adapts a zap logger to the key/value logging interface used by
// go-retryablehttp.
type Leveled struct {
	s *zap.SugaredLogger
}

// NewLeveled wraps l.
func NewLeveled(l *zap.Logger) *Leveled {
	return &Leveled{s: l.WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

func (l *Leveled) Error(msg string, keysAndValues ...interface{}) { l.s.Errorw(msg, keysAndValues...) }
func (l *Leveled) Info(msg string, keysAndValues ...interface{})  { l.s.Infow(msg, keysAndValues...) }
func (l *Leveled) Debug(msg string, keysAndValues ...interface{}) { l.s.Debugw(msg, keysAndValues...) }
func (l *Leveled) Warn(msg string, keysAndValues ...interface{})  { l.s.Warnw(msg, keysAndValues...) }
