// Package logger owns the process-wide zap logger.
package logger

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// Log is the global logger. It discards everything until Init is called.
	Log = zap.NewNop()
	// Sugar wraps Log for printf-style calls.
	Sugar = Log.Sugar()

	rotated *lumberjack.Logger
)

// Options configures Setup.
type Options struct {
	Level   string    // debug, info, warn or error; empty means info
	Console io.Writer // nil disables console output
	File    string    // empty disables the rotated log file

	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Init logs to stdout and, when logFile is set, to a rotated file.
func Init(level, logFile string) error {
	return Setup(Options{
		Level:      level,
		Console:    os.Stdout,
		File:       logFile,
		MaxSizeMB:  10,
		MaxBackups: 3,
		MaxAgeDays: 7,
		Compress:   true,
	})
}

// Setup replaces the global logger. A previously opened log file is closed.
func Setup(opts Options) error {
	lvl, err := zapcore.ParseLevel(opts.Level)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	if err := Close(); err != nil {
		return err
	}

	var cores []zapcore.Core
	if opts.Console != nil {
		cores = append(cores, newCore(opts.Console, lvl, true))
	}
	if opts.File != "" {
		rotated = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   opts.Compress,
			LocalTime:  true,
		}
		cores = append(cores, newCore(rotated, lvl, false))
	}

	Log = zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))
	Sugar = Log.Sugar()
	return nil
}

// newCore builds a console-format core. Terminal output gets coloured
// levels and a short clock; files get plain levels and full timestamps.
func newCore(w io.Writer, lvl zapcore.Level, terminal bool) zapcore.Core {
	enc := zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		NameKey:          "logger",
		CallerKey:        "caller",
		MessageKey:       "msg",
		EncodeTime:       zapcore.ISO8601TimeEncoder,
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		EncodeCaller:     zapcore.ShortCallerEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
	}
	if terminal {
		enc.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(w), lvl)
}

// Close flushes and releases the log file and resets Log to a no-op.
func Close() error {
	var err error
	// Syncing stdout fails with EINVAL on terminals, so only a file is synced.
	if rotated != nil {
		err = multierr.Append(Log.Sync(), rotated.Close())
		rotated = nil
	}
	Log = zap.NewNop()
	Sugar = Log.Sugar()
	return err
}

func Debug(msg string, fields ...zap.Field) { Log.Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { Log.Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { Log.Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { Log.Error(msg, fields...) }
