// Package config handles Daygrid configuration.
package config

import (
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds all configuration
type Config struct {
	Env      string   `yaml:"env" env:"DAYGRID_ENV" env-default:"dev"`
	Server   Server   `yaml:"server"`
	Database Database `yaml:"database"`
	Log      Log      `yaml:"log"`
}

// Server for the HTTP server
type Server struct {
	Host string `yaml:"host" env:"DAYGRID_HOST" env-default:"localhost"`
	Port int    `yaml:"port" env:"DAYGRID_PORT" env-default:"8080"`
}

// Database for the SQLite document store
type Database struct {
	Path string `yaml:"path" env:"DAYGRID_DB_PATH" env-default:"daygrid.db"`
}

// Log for the logger
type Log struct {
	Level string `yaml:"level" env:"DAYGRID_LOG_LEVEL" env-default:"info"`
}

// MustLoad reads configuration from CONFIG_PATH (yaml) if set, falling
// back to environment variables. A .env file in the working directory is
// honored. Panics on malformed configuration; there is no sane way to
// run without one.
func MustLoad() *Config {
	godotenv.Load()

	var cfg Config
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			panic(err)
		}
		return &cfg
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		panic(err)
	}
	return &cfg
}
