package infra

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SecretConfig matches the structure of secrets/upstox.yaml. The Upstox
// access token is short-lived and rotated daily, so it lives outside the
// main config file.
type SecretConfig struct {
	API struct {
		Upstox struct {
			AccessToken string `yaml:"access_token"`
		} `yaml:"upstox"`
	} `yaml:"api"`
}

// LoadSecretConfig loads the access token from a separate yaml file.
// It returns an error if the file is missing (fail fast).
func LoadSecretConfig(path string) (*SecretConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret config: %w", err)
	}

	var cfg SecretConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse secret config: %w", err)
	}

	return &cfg, nil
}
