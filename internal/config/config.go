package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port          string        `env:"PORT" envDefault:"8080"`
	IdleTimeout   time.Duration `env:"IDLE_TIMEOUT" envDefault:"30m"`
	ReapInterval  time.Duration `env:"REAP_INTERVAL" envDefault:"1m"`
	CodeLength    int           `env:"CODE_LENGTH" envDefault:"5"`
	BoardSize     int           `env:"BOARD_SIZE" envDefault:"8"`
	AutoAdvance   bool          `env:"AUTO_ADVANCE" envDefault:"false"`
	ExportEnabled bool          `env:"EXPORT_ENABLED" envDefault:"false"`
	ExportFile    string        `env:"EXPORT_FILE" envDefault:"./roomcast-results.txt"`
}

func Load() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, err
	}
	return c, nil
}
