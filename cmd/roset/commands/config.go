package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// fileConfig is what ~/.roset/config.yaml holds
type fileConfig struct {
	APIURL string `yaml:"api_url,omitempty"`
	APIKey string `yaml:"api_key,omitempty"`
	Debug  bool   `yaml:"debug,omitempty"`
}

func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".roset", "config.yaml"), nil
}

func loadFileConfig() (fileConfig, error) {
	var cfg fileConfig
	path, err := configPath()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

func saveFileConfig(cfg fileConfig) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	// The file holds the API key; keep it private.
	return os.WriteFile(path, data, 0o600)
}

// resolveConfig applies precedence: flags > env > file > defaults
func resolveConfig() (fileConfig, error) {
	cfg, err := loadFileConfig()
	if err != nil {
		return cfg, err
	}

	if v := os.Getenv("ROSET_API_URL"); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv("ROSET_API_KEY"); v != "" {
		cfg.APIKey = v
	}

	if flagAPIURL != "" {
		cfg.APIURL = flagAPIURL
	}
	if flagAPIKey != "" {
		cfg.APIKey = flagAPIKey
	}
	if flagDebug {
		cfg.Debug = true
	}
	return cfg, nil
}
