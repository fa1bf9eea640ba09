package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/veilbox-dev/veilbox/internal/domain/permissions"
)

// Manifest declares the capabilities a workload intends to use. It is the
// input to `veilbox check`: every listed descriptor is resolved against the
// policy and reported.
type Manifest struct {
	Name        string                   `yaml:"name"`
	Description string                   `yaml:"description,omitempty"`
	Permissions []permissions.Descriptor `yaml:"permissions"`
}

// LoadManifest reads, schema-validates, and structurally validates a
// manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	if err := ValidateManifestDocument(data); err != nil {
		return nil, err
	}

	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	if err := manifest.Validate(); err != nil {
		return nil, err
	}

	return &manifest, nil
}

// Validate performs structural validation of a manifest.
// Returns an error describing all validation failures found.
func (m *Manifest) Validate() error {
	var errors []string

	if m.Name == "" {
		errors = append(errors, "manifest name is required")
	}
	if len(m.Permissions) == 0 {
		errors = append(errors, "manifest declares no permissions")
	}

	seen := make(map[string]bool)
	for i, d := range m.Permissions {
		if err := d.Validate(); err != nil {
			errors = append(errors, fmt.Sprintf("permission %d: %s", i, err.Error()))
			continue
		}
		key := d.CacheKey()
		if seen[key] {
			errors = append(errors, fmt.Sprintf("permission %d: duplicate entry for %s", i, key))
		}
		seen[key] = true
	}

	if len(errors) > 0 {
		return fmt.Errorf("manifest validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}
