package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

// Config is the service configuration, loaded from environment variables.
type Config struct {
	Environment string `env:"ENV" envDefault:"development"`
	HTTP        struct {
		Port            int           `env:"HTTP_PORT" envDefault:"8080"`
		ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
		WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
		IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
		ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	}
	Logging struct {
		Level  string `env:"LOG_LEVEL" envDefault:"info"`
		Format string `env:"LOG_FORMAT" envDefault:"json"`
		Output string `env:"LOG_OUTPUT" envDefault:"stderr"`
	}
	Optimization struct {
		// Defaults applied when a start request omits the optional
		// step-control fields.
		DefaultInitialStep  float64 `env:"OPT_DEFAULT_INITIAL_STEP" envDefault:"1.0"`
		DefaultStepDecay    float64 `env:"OPT_DEFAULT_STEP_DECAY" envDefault:"0.5"`
		DefaultStepIncrease float64 `env:"OPT_DEFAULT_STEP_INCREASE" envDefault:"1.2"`
		DefaultTolerance    float64 `env:"OPT_DEFAULT_TOLERANCE" envDefault:"1e-6"`
		// MaxIterationsCap bounds the iteration cap a caller may request.
		MaxIterationsCap int `env:"OPT_MAX_ITERATIONS_CAP" envDefault:"100000"`
	}
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if cfg.Environment == "development" && cfg.Logging.Level == "" {
		cfg.Logging.Level = "debug"
	}

	return cfg, nil
}
