package config

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gear6io/metastore/pkg/errors"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogWriter opens the rotating log file described by cfg. The file is
// rotated once it would grow past MaxSize megabytes; at most MaxBackups
// rotated files younger than MaxAge days are kept.
func NewLogWriter(cfg *LogConfig) (io.WriteCloser, error) {
	if cfg.FilePath == "" {
		return nil, errors.New(ErrLogFilePathRequired, "no log file path specified", nil)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
		return nil, errors.New(ErrLogDirectoryCreationFailed, "failed to create log directory", err).
			AddContext("path", cfg.FilePath)
	}
	if cfg.Cleanup {
		if err := truncateLog(cfg.FilePath); err != nil {
			return nil, errors.New(ErrLogCleanupFailed, "failed to cleanup log file", err).
				AddContext("path", cfg.FilePath)
		}
	}
	return &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		LocalTime:  true,
	}, nil
}

func truncateLog(path string) error {
	if err := os.Truncate(path, 0); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// SetupLogger creates a configured zerolog logger based on the configuration
func SetupLogger(cfg *Config) (zerolog.Logger, error) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var writers []io.Writer
	if cfg.Log.Console {
		if cfg.Log.Format == "json" {
			writers = append(writers, os.Stdout)
		} else {
			writers = append(writers, zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
		}
	}

	// The file always receives JSON lines.
	if cfg.Log.FilePath != "" {
		fileWriter, err := NewLogWriter(&cfg.Log)
		if err != nil {
			return zerolog.Logger{}, errors.New(ErrLogFileWriterSetupFailed, "failed to setup file writer", err)
		}
		writers = append(writers, fileWriter)
	}

	var out io.Writer
	switch len(writers) {
	case 0:
		out = io.Discard
	case 1:
		out = writers[0]
	default:
		out = zerolog.MultiLevelWriter(writers...)
	}

	return zerolog.New(out).With().
		Timestamp().
		Str("service", "metastore").
		Logger(), nil
}
