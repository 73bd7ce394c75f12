package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Secrets are read from the process environment only, never from config.yaml.
type Secrets struct {
	OpenRouterAPIKey string `envconfig:"OPENROUTER_API_KEY"`
	DatabasePassword string `envconfig:"DATABASE_PASSWORD"`
	SMTPPassword     string `envconfig:"SMTP_PASSWORD"`
}

// LoadDotEnv loads variables from the given .env files into the environment.
// Missing files are ignored and existing variables are not overwritten.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

func LoadSecrets() (*Secrets, error) {
	var s Secrets
	if err := envconfig.Process("", &s); err != nil {
		return nil, fmt.Errorf("failed to load secrets: %w", err)
	}
	return &s, nil
}

func (s *Secrets) apply(cfg *Config) {
	cfg.LLM.APIKey = s.OpenRouterAPIKey
	cfg.Database.Password = s.DatabasePassword
	cfg.Notification.Password = s.SMTPPassword
}
