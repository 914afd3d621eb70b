package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/ai-interviewer/internal/config"
)

// Setup configures the global zerolog logger. When cfg.File is set, log lines
// are also written to a time-rotated file next to it.
func Setup(cfg config.LoggingConfig) (io.Closer, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	var console io.Writer = os.Stderr
	if cfg.Format != "json" && os.Getenv("ENV") != "production" {
		console = zerolog.ConsoleWriter{Out: os.Stderr}
	}

	if cfg.File == "" {
		log.Logger = zerolog.New(console).With().Timestamp().Logger()
		return io.NopCloser(nil), nil
	}

	rotator, err := NewRotator(cfg)
	if err != nil {
		return nil, err
	}

	log.Logger = zerolog.New(zerolog.MultiLevelWriter(console, rotator)).With().Timestamp().Logger()
	return rotator, nil
}

// NewRotator opens a rotating log file writer for cfg.File
func NewRotator(cfg config.LoggingConfig) (*rotatelogs.RotateLogs, error) {
	opts := []rotatelogs.Option{rotatelogs.WithLinkName(cfg.File)}
	if cfg.MaxAge > 0 {
		opts = append(opts, rotatelogs.WithMaxAge(cfg.MaxAge))
	}
	if cfg.RotationTime > 0 {
		opts = append(opts, rotatelogs.WithRotationTime(cfg.RotationTime))
	}

	rotator, err := rotatelogs.New(cfg.File+".%Y%m%d%H%M", opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return rotator, nil
}
