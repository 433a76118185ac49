package config

import (
	"os"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads env files in priority order: .env.local overrides
// .env, and variables already present in the OS environment always win
// because godotenv.Load never overwrites existing values. Returns the
// files that were actually found and loaded.
func LoadDotEnv() []string {
	var loaded []string
	for _, name := range []string{".env.local", ".env"} {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err == nil {
			loaded = append(loaded, name)
		}
	}
	return loaded
}
