package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds settings read from PADFX_* environment variables.
// Command-line flags and scenario fields override it.
//
// PollHz is the poll rate of scenarios without poll_hz. MaxSequences caps
// live sequences per engine; zero disables the cap.
type Config struct {
	Database     string `env:"PADFX_DB"`
	PollHz       int    `env:"PADFX_POLL_HZ"        envDefault:"125"`
	LogLevel     string `env:"PADFX_LOG_LEVEL"      envDefault:"info"`
	MaxSequences int    `env:"PADFX_MAX_SEQUENCES"  envDefault:"256"`
	RecordBuffer int    `env:"PADFX_RECORD_BUFFER"  envDefault:"4096"`
}

// LoadConfig parses the environment into a Config. When envFile is set it
// is loaded first; variables already in the environment win over the file.
func LoadConfig(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.PollHz <= 0 {
		return Config{}, fmt.Errorf("PADFX_POLL_HZ must be positive, got %d", cfg.PollHz)
	}
	if cfg.MaxSequences < 0 {
		return Config{}, fmt.Errorf("PADFX_MAX_SEQUENCES must not be negative, got %d", cfg.MaxSequences)
	}
	if _, err := parseLevel(cfg.LogLevel); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("PADFX_LOG_LEVEL: %w", err)
	}
	return level, nil
}

// NewLogger returns a text logger on w at the configured level, or Debug
// when verbose.
func (c Config) NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
