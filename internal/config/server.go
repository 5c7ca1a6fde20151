package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type ServerConfig struct {
	HTTPAddr  string `env:"HTTP_ADDR" envDefault:":8080"`
	StaticDir string `env:"STATIC_DIR" envDefault:"web/static"`

	RematchDelaySeconds int `env:"REMATCH_DELAY_SECONDS" envDefault:"5"`
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	err := env.Parse(&cfg)
	return cfg, err
}

// RematchDelay is the pause between a finished game and the automatic
// rematch announcement.
func (c ServerConfig) RematchDelay() time.Duration {
	return time.Duration(c.RematchDelaySeconds) * time.Second
}
