package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config is the process configuration, read from the environment.
// Admins lists the external account ids that are granted the admin flag
// at registration time.
type Config struct {
	Addr   string   `env:"BOT_ADDR" envDefault:":8080"`
	DBPath string   `env:"BOT_DB_PATH" envDefault:"inhouse.db"`
	Admins []string `env:"BOT_ADMINS" envSeparator:","`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
