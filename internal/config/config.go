package config

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Addr            string        `envconfig:"ADDR" default:":8080"`
	JWTSecret       string        `envconfig:"JWT_SECRET" validate:"required"`
	DBDriver        string        `envconfig:"DB_DRIVER" default:"sqlite3" validate:"oneof=sqlite3 postgres"`
	DBDSN           string        `envconfig:"DB_DSN" default:"courtside.db"`
	Debug           bool          `envconfig:"DEBUG" default:"false"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

var validate = validator.New()

// Load reads configuration from the environment, with an optional .env file
// for local development.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	if err := validate.Struct(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
