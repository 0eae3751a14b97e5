package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/S1riyS/tree-server/pkg/logging/slogpretty"
)

// Options selects the handler built by Setup.
type Options struct {
	// Level is one of debug, info, warn, error.
	Level string
	// Format is one of pretty, json, text.
	Format string

	// File, when set, receives the log stream as JSON in addition to stdout
	// and is rotated by size.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Setup builds the process logger. The returned closer releases the log file.
func Setup(opts Options) (*slog.Logger, io.Closer, error) {
	var level slog.Level
	if opts.Level != "" {
		if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
			return nil, nil, fmt.Errorf("logging.Setup: %w", err)
		}
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	var console slog.Handler
	switch strings.ToLower(opts.Format) {
	case "", "pretty":
		console = slogpretty.PrettyHandlerOptions{SlogOpts: handlerOpts}.NewPrettyHandler(os.Stdout)
	case "json":
		console = slog.NewJSONHandler(os.Stdout, handlerOpts)
	case "text":
		console = slog.NewTextHandler(os.Stdout, handlerOpts)
	default:
		return nil, nil, fmt.Errorf("logging.Setup: unknown format %q", opts.Format)
	}

	if opts.File == "" {
		return slog.New(console), nopCloser{}, nil
	}

	file := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   opts.Compress,
	}
	handler := fanout{console, slog.NewJSONHandler(file, handlerOpts)}

	return slog.New(handler), file, nil
}
