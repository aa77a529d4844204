package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the application configuration.
type Config struct {
	ServerPort     int      `envconfig:"PORT" default:"8080"`
	LogLevel       string   `envconfig:"LOG_LEVEL" default:"info"`
	DatabasePath   string   `envconfig:"DATABASE_PATH" default:"./accounts.db"`
	StaticDir      string   `envconfig:"STATIC_DIR" default:"./public"`
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`

	// Credential policy knobs.
	BcryptCost        int           `envconfig:"BCRYPT_COST" default:"10"`
	MinPasswordLength int           `envconfig:"MIN_PASSWORD_LENGTH" default:"6"`
	MaxFailedLogins   int           `envconfig:"MAX_FAILED_LOGINS" default:"5"`
	LockoutDuration   time.Duration `envconfig:"LOCKOUT_DURATION" default:"15m"`
}

// Load loads configuration from environment variables or sets defaults.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
