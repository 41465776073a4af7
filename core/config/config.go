package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mdlkit/mdlkit/core/logger"
	"gopkg.in/yaml.v3"
)

type Config struct {
	ModelPaths []string `yaml:"model_paths"`
	Stub       Stub     `yaml:"stub"`
}

// Stub controls the geometry of generated ground/terminator blocks.
type Stub struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	Gap    int `yaml:"gap"` // horizontal distance from the repaired block
}

func Default() *Config {
	return &Config{
		ModelPaths: []string{"."},
		Stub: Stub{
			Width:  20,
			Height: 20,
			Gap:    60,
		},
	}
}

func Load() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("cannot determine working dir: %w", err)
	}

	paths := []string{
		filepath.Join(wd, "mdlkit.yaml"),
	}

	var filePath string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			filePath = p
			break
		}
	}

	if filePath == "" {
		logger.Debug("No config file found, using default config")
		return Default(), nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filePath, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}
	if len(cfg.ModelPaths) == 0 {
		cfg.ModelPaths = Default().ModelPaths
	}
	logger.Debug("Config file found: %s", filePath)
	logger.Debug("Config: %+v", cfg)

	return cfg, nil
}
