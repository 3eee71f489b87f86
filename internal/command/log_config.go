package command

import (
	"io"
	"log/slog"

	"github.com/joeycumines/scenario-fragments/internal/config"
	"github.com/joeycumines/scenario-fragments/internal/logging"
)

// newLogger builds the logger for a command. Flag values take precedence over
// the resolved settings. The caller must close the returned closer.
func newLogger(flagPath, flagLevel string, settings config.Settings, stderr io.Writer) (*slog.Logger, io.Closer, error) {
	opts := logging.Options{
		Level:     settings.LogLevel,
		Format:    settings.LogFormat,
		File:      settings.LogFile,
		MaxSizeMB: settings.LogMaxSizeMB,
		MaxFiles:  settings.LogMaxFiles,
		Stderr:    stderr,
	}
	if flagLevel != "" {
		opts.Level = flagLevel
	}
	if flagPath != "" {
		opts.File = flagPath
	}
	return logging.New(opts)
}
