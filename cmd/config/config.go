package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	yaml "gopkg.in/yaml.v2"
)

// SupportedConfigFiles lists the config file names searched, in order.
var SupportedConfigFiles = []string{
	"caller.yaml",
	"caller.yml",
	"caller.toml",
	"caller.json",
}

// Load returns the effective configuration. An explicit path must exist;
// otherwise configDir is searched and a missing file yields the defaults.
func Load(configDir, explicitPath string) (*CallerConfig, string, error) {
	if explicitPath != "" {
		cfg, err := LoadConfigFile(explicitPath)
		if err != nil {
			return nil, "", err
		}
		return cfg, explicitPath, nil
	}

	foundFile, err := FindConfigFile(configDir)
	if err != nil {
		return Default(), "", nil
	}

	cfg, err := LoadConfigFile(foundFile)
	if err != nil {
		return nil, "", err
	}
	return cfg, foundFile, nil
}

// LoadConfigFile loads a specific caller config file and applies defaults.
func LoadConfigFile(filePath string) (*CallerConfig, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filePath, err)
	}

	fileExt := strings.ToLower(filepath.Ext(filePath))

	var config CallerConfig
	switch fileExt {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config file %s: %w", filePath, err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse TOML config file %s: %w", filePath, err)
		}
	case ".json":
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config file %s: %w", filePath, err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file extension: %s", fileExt)
	}

	config.ApplyDefaults()
	return &config, nil
}

// FindConfigFile searches for caller config files (yaml/toml/json) in the specified directory
func FindConfigFile(searchPath string) (string, error) {
	if searchPath == "" {
		return "", fmt.Errorf("search path is required")
	}

	for _, configFile := range SupportedConfigFiles {
		fullPath := filepath.Join(searchPath, configFile)
		if _, err := os.Stat(fullPath); err == nil {
			return fullPath, nil
		}
	}
	return "", fmt.Errorf("no caller config file (yaml/toml/json) found in %s", searchPath)
}
