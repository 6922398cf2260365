package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Level parses the configured log level.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("config: log level %q: %w", c.LogLevel, err)
	}
	return l, nil
}

// Logger returns the logger of the configuration and the closer of its
// output. Logs go to stderr, or to a size-rotated file when LogFile is set.
func (c *Config) Logger() (*slog.Logger, io.Closer, error) {
	level, err := c.Level()
	if err != nil {
		return nil, nil, err
	}
	var (
		w      io.Writer = os.Stderr
		closer io.Closer = io.NopCloser(nil)
	)
	if c.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(c.LogFile), 0o755); err != nil {
			return nil, nil, fmt.Errorf("config: creating log directory: %w", err)
		}
		f := &lumberjack.Logger{
			Filename:   c.LogFile,
			MaxSize:    c.LogMaxSize,
			MaxBackups: c.LogMaxBackups,
			MaxAge:     c.LogMaxAge,
			Compress:   c.LogCompress,
		}
		w, closer = f, f
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), closer, nil
}
