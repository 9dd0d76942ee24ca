package logging

import (
	"fmt"
	"io"
	"os"

	"glyphcaster/internal/config"

	"github.com/sirupsen/logrus"
)

// Log is the shared logger. Packages take component-scoped entries via For.
var Log = logrus.New()

// For returns an entry tagged with the component name.
func For(component string) *logrus.Entry {
	return Log.WithField("component", component)
}

// Configure applies level, format and output. When a file is configured the
// returned closer must be closed on shutdown.
func Configure(cfg config.LoggingConfig) (io.Closer, error) {
	level := logrus.InfoLevel
	if cfg.Level != "" {
		parsed, err := logrus.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		level = parsed
	}
	Log.SetLevel(level)

	if cfg.JSON {
		Log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: cfg.File != ""})
	}

	if cfg.File == "" {
		Log.SetOutput(os.Stderr)
		return io.NopCloser(nil), nil
	}

	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	Log.SetOutput(f)
	return f, nil
}
