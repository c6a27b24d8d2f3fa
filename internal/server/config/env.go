package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// parseEnv overlays fields tagged with `env` from the process environment.
// A .env file in the working directory is loaded first when present; variables
// already set in the environment win over the file.
func parseEnv(config *Config) {
	// the .env file is optional
	_ = godotenv.Load()

	if err := env.Parse(config); err != nil {
		panic(err)
	}
}
