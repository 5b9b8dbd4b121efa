// Package logger sets up structured logging for debug sessions. Diagnostics
// go to a rotated file under the state directory so activation events survive
// the job's scrollback, and optionally to stderr for interactive runs.
package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Rotation defaults, lumberjack semantics.
const (
	DefaultMaxSizeMB  = 10
	DefaultMaxBackups = 3
	DefaultMaxAgeDays = 7
)

type Config struct {
	// Dir is the diagnostic log directory; empty disables file logging.
	Dir        string `mapstructure:"dir"`
	Level      string `mapstructure:"level"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// Setup builds the session logger. The returned closer flushes the rotated
// file writer; it is safe to call with no file configured.
func (c Config) Setup(stderr io.Writer) (*slog.Logger, func() error) {
	level := parseLevel(c.Level)
	var handlers []slog.Handler
	closer := func() error { return nil }

	if c.Dir != "" {
		_ = os.MkdirAll(c.Dir, 0o750)
		fw := &lj.Logger{
			Filename:   filepath.Join(c.Dir, "rdebug.log"),
			MaxSize:    valOr(c.MaxSizeMB, DefaultMaxSizeMB),
			MaxBackups: valOr(c.MaxBackups, DefaultMaxBackups),
			MaxAge:     valOr(c.MaxAgeDays, DefaultMaxAgeDays),
			Compress:   c.Compress,
		}
		handlers = append(handlers, slog.NewJSONHandler(fw, &slog.HandlerOptions{Level: level}))
		closer = fw.Close
	}
	if stderr != nil {
		handlers = append(handlers,
			NewColorTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	}

	switch len(handlers) {
	case 0:
		return slog.New(slog.DiscardHandler), closer
	case 1:
		return slog.New(handlers[0]), closer
	default:
		return slog.New(multiHandler(handlers)), closer
	}
}

func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}

func valOr(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
