package config

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

// Prepare returns console logger configured by level: info and warnings go
// to stdout, errors to stderr. Level "none" yields a no-op logger.
func (conf LoggingConfig) Prepare() *zap.Logger {
	return conf.prepare(os.Stdout, os.Stderr, isTerminal(os.Stdout), isTerminal(os.Stderr))
}

func (conf LoggingConfig) prepare(stdout, stderr io.Writer, colorOut, colorErr bool) *zap.Logger {
	var low zapcore.Level
	switch conf.Level {
	case "debug":
		low = zapcore.DebugLevel
	case "normal":
		low = zapcore.InfoLevel
	default:
		return zap.NewNop()
	}

	lowPriority := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return low <= lvl && lvl < zapcore.ErrorLevel
	})
	highPriority := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl >= zapcore.ErrorLevel
	})

	core := zapcore.NewTee(
		zapcore.NewCore(newConsoleEncoder(colorOut), zapcore.Lock(zapcore.AddSync(stdout)), lowPriority),
		zapcore.NewCore(newConsoleEncoder(colorErr), zapcore.Lock(zapcore.AddSync(stderr)), highPriority),
	)
	return zap.New(core)
}

func newConsoleEncoder(color bool) zapcore.Encoder {
	ec := zap.NewDevelopmentEncoderConfig()
	ec.EncodeCaller = nil
	if color {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		ec.TimeKey = zapcore.OmitKey
	} else {
		ec.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	return zapcore.NewConsoleEncoder(ec)
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
