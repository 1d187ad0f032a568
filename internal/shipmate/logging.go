package shipmate

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogConfig describes shipmate logging options.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	Output string `toml:"output"`
	Color  bool   `toml:"color"`
	UTC    bool   `toml:"utc"`
	Source bool   `toml:"source"`
}

// NewLogger creates a structured logger.
func NewLogger(cfg LogConfig) *zap.Logger {
	level := zapcore.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	}

	writer := zapcore.Lock(os.Stderr)
	if strings.ToLower(cfg.Output) == "stdout" {
		writer = zapcore.Lock(os.Stdout)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	if cfg.Color {
		encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	var encoder zapcore.Encoder
	if strings.ToLower(cfg.Format) == "json" {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	} else {
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	}

	opts := []zap.Option{}
	if cfg.Source {
		opts = append(opts, zap.AddCaller())
	}

	core := zapcore.NewCore(encoder, writer, level)
	return zap.New(core, opts...).With(
		zap.String("app", "shipmate"),
		zap.Int("pid", os.Getpid()),
	)
}
