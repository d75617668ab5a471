package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process logger. Output always goes to stderr so the tile
// CLI can keep stdout for its JSON payload.
func New(level, format string) *zap.Logger {
	lvl := zap.NewAtomicLevel()
	switch strings.ToLower(level) {
	case "debug":
		lvl.SetLevel(zapcore.DebugLevel)
	case "warn":
		lvl.SetLevel(zapcore.WarnLevel)
	case "error":
		lvl.SetLevel(zapcore.ErrorLevel)
	default:
		lvl.SetLevel(zapcore.InfoLevel)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if strings.ToLower(format) == "json" {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stderr), lvl)
	return zap.New(core, zap.AddStacktrace(zapcore.ErrorLevel))
}
