// Package log provides logging functionality for refnotify.
package log

import (
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/refnotify/refnotify/pkg/config"
)

// NewLogger returns a new logger configured from the given config.
// The returned file, when non-nil, is the log sink and must be closed by the
// caller.
func NewLogger(cfg *config.Config) (*log.Logger, *os.File, error) {
	if cfg == nil {
		return nil, nil, config.ErrNilConfig
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      cfg.Log.TimeFormat,
	})

	if config.IsDebug() {
		logger.SetLevel(log.DebugLevel)
	}

	switch strings.ToLower(cfg.Log.Format) {
	case "json":
		logger.SetFormatter(log.JSONFormatter)
	case "logfmt":
		logger.SetFormatter(log.LogfmtFormatter)
	case "text":
		logger.SetFormatter(log.TextFormatter)
	}

	var f *os.File
	if cfg.Log.Path != "" {
		var err error
		f, err = os.OpenFile(cfg.Log.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) //nolint:gosec
		if err != nil {
			return nil, nil, err //nolint:wrapcheck
		}
		logger.SetOutput(f)
	}

	return logger, f, nil
}
