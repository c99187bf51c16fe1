package config

import (
	"os"

	"github.com/joho/godotenv"
)

// LoadEnv loads KEY=VALUE pairs from each existing file in order. Variables
// already present in the process environment are never overridden, so an
// earlier file wins over a later one. Missing files are skipped.
func LoadEnv(paths ...string) ([]string, error) {
	var loaded []string
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return loaded, err
		}
		loaded = append(loaded, path)
	}
	return loaded, nil
}
