// Package logging configures the standard library logger: flags, an
// optional rotated log file, and a debug switch.
package logging

import (
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"

	"gopkg.in/natefinch/lumberjack.v2"

	"refinener/internal/config"
)

var debugEnabled atomic.Bool

// Setup points the standard logger at stderr and, when cfg.File is set, at
// a size-rotated file as well. The returned closer releases the file.
func Setup(cfg config.LogConfig) io.Closer {
	debugEnabled.Store(strings.EqualFold(cfg.Level, "debug"))

	flags := log.LstdFlags
	if debugEnabled.Load() {
		flags |= log.Lmicroseconds
	}
	log.SetFlags(flags)

	if cfg.File == "" {
		log.SetOutput(os.Stderr)
		return nopCloser{}
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stderr, rotator))
	return rotator
}

// DebugEnabled reports whether debug logging is on.
func DebugEnabled() bool {
	return debugEnabled.Load()
}

// SetDebug toggles debug logging.
func SetDebug(on bool) {
	debugEnabled.Store(on)
}

// Debugf logs only when the configured level is debug.
func Debugf(format string, args ...interface{}) {
	if debugEnabled.Load() {
		log.Printf(format, args...)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
