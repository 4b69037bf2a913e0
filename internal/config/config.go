package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config controls the replay server. Values come from the environment,
// optionally seeded from a .env file in the working directory.
type Config struct {
	Addr             string        `env:"REPLAY_ADDR"              envDefault:"0.0.0.0:5000"`
	LogLevel         string        `env:"LOGLEVEL"                 envDefault:"info"`
	DevLogging       bool          `env:"REPLAY_DEV_LOGGING"       envDefault:"false"`
	DefaultMatch     string        `env:"REPLAY_DEFAULT_MATCH"     envDefault:"default"`
	PlaybackInterval time.Duration `env:"REPLAY_PLAYBACK_INTERVAL" envDefault:"500ms"`
	MaxUploadBytes   int64         `env:"REPLAY_MAX_UPLOAD_BYTES"  envDefault:"33554432"`
	ShutdownTimeout  time.Duration `env:"REPLAY_SHUTDOWN_TIMEOUT"  envDefault:"5s"`

	// WSOrigins are extra origin patterns accepted on websocket upgrade,
	// e.g. "localhost:*".
	WSOrigins []string `env:"REPLAY_WS_ORIGINS" envSeparator:","`
}

// Load reads dotenv files (a missing file is fine) and parses the
// environment into a Config.
func Load(dotenvFiles ...string) (Config, error) {
	if len(dotenvFiles) == 0 {
		dotenvFiles = []string{".env"}
	}
	for _, f := range dotenvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.PlaybackInterval <= 0 {
		return Config{}, fmt.Errorf("REPLAY_PLAYBACK_INTERVAL must be positive, got %s", cfg.PlaybackInterval)
	}
	if cfg.MaxUploadBytes <= 0 {
		return Config{}, fmt.Errorf("REPLAY_MAX_UPLOAD_BYTES must be positive, got %d", cfg.MaxUploadBytes)
	}
	return cfg, nil
}
