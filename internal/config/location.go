package config

import (
	"os"
	"path/filepath"
)

// ConfigPathEnv names the environment variable that overrides the config file path.
const ConfigPathEnv = "SFRAG_CONFIG"

// GetConfigPath returns the configuration file path using kubectl-style behavior.
// It first checks the SFRAG_CONFIG environment variable, then falls back
// to the default location (~/.scenario-fragments/config).
func GetConfigPath() (string, error) {
	if configPath := os.Getenv(ConfigPathEnv); configPath != "" {
		return configPath, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(homeDir, ".scenario-fragments", "config"), nil
}
