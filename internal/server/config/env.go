package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// EnvPrefix is prepended to every variable name declared in Config tags.
const EnvPrefix = "GOPHAUTH_"

const defaultEnvFile = ".env"

// parseEnv loads envFile (or ./.env when present) into the process
// environment without overriding variables that are already set, then maps
// GOPHAUTH_* variables onto cfg. Unset variables leave fields untouched.
func parseEnv(cfg *Config, envFile string) {
	switch {
	case envFile != "":
		if err := godotenv.Load(envFile); err != nil {
			panic(err)
		}
	default:
		if _, err := os.Stat(defaultEnvFile); err == nil {
			if err := godotenv.Load(defaultEnvFile); err != nil {
				panic(err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			panic(err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		panic(err)
	}
}
