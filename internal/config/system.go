// Package config loads the system configuration and workload manifests.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"github.com/goccy/go-yaml"
)

// currentSchema is the config schema line this build understands. Configs
// declaring a different major version are rejected instead of silently
// misread.
const currentSchema = "^1"

// RuleConfig is one policy rule as written in the config file.
type RuleConfig struct {
	Name   string `yaml:"name"`
	Kind   string `yaml:"kind"`
	Scope  string `yaml:"scope,omitempty"`
	Effect string `yaml:"effect"`
	When   string `yaml:"when,omitempty"`
}

// SystemConfig represents the global configuration file
// (~/.veilbox/config.yaml).
type SystemConfig struct {
	// Version is the config schema version, checked against currentSchema.
	Version string `yaml:"version"`

	// SecurityLevel controls the default for descriptors no rule matches:
	// strict, standard, permissive.
	SecurityLevel string `yaml:"security_level"`

	// GrantsPath overrides where remembered grants are persisted.
	GrantsPath string `yaml:"grants_path"`

	// Rules are the ordered policy rules.
	Rules []RuleConfig `yaml:"rules"`
}

// DefaultGrantsPath returns the grants file location used when the config
// does not override it.
func DefaultGrantsPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".veilbox", "grants.yaml")
}

// LoadSystemConfig loads the system configuration from path.
// If the file does not exist, it returns a default config without error.
func LoadSystemConfig(path string) (*SystemConfig, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &SystemConfig{Version: "1.0", SecurityLevel: "standard"}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read system config: %w", err)
	}

	var config SystemConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse system config: %w", err)
	}

	if config.Version == "" {
		config.Version = "1.0"
	}
	if config.SecurityLevel == "" {
		config.SecurityLevel = "standard"
	}
	if config.GrantsPath == "" {
		config.GrantsPath = DefaultGrantsPath()
	}

	if err := checkSchemaVersion(config.Version); err != nil {
		return nil, err
	}

	return &config, nil
}

// checkSchemaVersion rejects configs written for an incompatible schema.
func checkSchemaVersion(version string) error {
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("invalid config version %q: %w", version, err)
	}

	constraint, err := semver.NewConstraint(currentSchema)
	if err != nil {
		return fmt.Errorf("invalid schema constraint %q: %w", currentSchema, err)
	}

	if !constraint.Check(v) {
		return fmt.Errorf("config version %s is not compatible with this build (wants %s)", version, currentSchema)
	}
	return nil
}
