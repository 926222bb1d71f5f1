package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// loadEnvFiles loads .env and .env.local from the working directory and from
// dir (the config file's directory). Existing process variables are never
// overridden.
func loadEnvFiles(dir string) error {
	candidates := []string{".env", ".env.local"}
	if dir != "" && dir != "." {
		candidates = append(candidates, filepath.Join(dir, ".env"), filepath.Join(dir, ".env.local"))
	}

	var found []string
	for _, p := range candidates {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		found = append(found, p)
	}
	if len(found) == 0 {
		return errors.New("no .env file found")
	}
	if err := godotenv.Load(found...); err != nil {
		return err
	}
	slog.Debug("Loaded environment files", slog.Any("files", found))
	return nil
}
