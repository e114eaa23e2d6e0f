package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// cliConfig is the optional .gch.yaml file. Values act as defaults; flags
// that were set on the command line win.
type cliConfig struct {
	Color     string `yaml:"color"`   // auto|always|never
	Pattern   string `yaml:"pattern"` // spec file glob
	Recursive *bool  `yaml:"recursive"`
	Quiet     bool   `yaml:"quiet"`
	Reporters struct {
		JSON  string `yaml:"json"`
		JUnit string `yaml:"junit"`
		HTML  string `yaml:"html"`
	} `yaml:"reporters"`
}

func defaultConfig() cliConfig {
	return cliConfig{Color: "auto"}
}

// loadConfig reads .gch.yaml from the working directory, falling back to
// ~/.config/gch/config.yaml. A missing file is not an error.
func loadConfig() (cliConfig, error) {
	cfg := defaultConfig()
	path, ok := findConfigFile()
	if !ok {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.Color == "" {
		cfg.Color = "auto"
	}
	return cfg, nil
}

func findConfigFile() (string, bool) {
	if _, err := os.Stat(".gch.yaml"); err == nil {
		return ".gch.yaml", true
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", false
	}
	path := filepath.Join(home, ".config", "gch", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return path, true
	}
	return "", false
}
