package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// EnvFileName is the environment variables file in the install root.
const EnvFileName = ".env"

// LoadDotEnv loads environment variables from <installRoot>/.env if it
// exists. godotenv.Load() does not override variables already set in the
// environment, so system env vars take priority over .env values.
// Returns nil if the file doesn't exist (not an error condition).
func LoadDotEnv(installRoot string) error {
	envPath := filepath.Join(installRoot, EnvFileName)

	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		return nil
	}

	return godotenv.Load(envPath)
}
