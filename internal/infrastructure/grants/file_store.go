// Package grants provides persistence for remembered capability grants.
package grants

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"

	"github.com/veilbox-dev/veilbox/internal/domain/permissions"
)

// FileStore provides file-based persistence for capability grants.
type FileStore struct {
	configPath string
}

// NewFileStore creates a new FileStore.
func NewFileStore(configPath string) *FileStore {
	return &FileStore{
		configPath: configPath,
	}
}

// ConfigPath returns the path to the grants file.
func (s *FileStore) ConfigPath() string {
	return s.configPath
}

// grantsFile represents the YAML structure of ~/.veilbox/grants.yaml
type grantsFile struct {
	Grants []struct {
		Kind string `yaml:"kind"`
		Path string `yaml:"path,omitempty"`
		Host string `yaml:"host,omitempty"`
	} `yaml:"grants"`
}

// Load loads remembered grants from the grants file.
// If the file does not exist, it returns an empty slice without error.
func (s *FileStore) Load() ([]permissions.Descriptor, error) {
	if _, err := os.Stat(s.configPath); os.IsNotExist(err) {
		return nil, nil
	}

	data, err := os.ReadFile(s.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read grants file: %w", err)
	}

	var file grantsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse grants file: %w", err)
	}

	grants := make([]permissions.Descriptor, 0, len(file.Grants))
	for _, g := range file.Grants {
		d := permissions.Descriptor{Kind: permissions.Kind(g.Kind), Path: g.Path, Host: g.Host}
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("grants file %s: %w", s.configPath, err)
		}
		grants = appendUnique(grants, d)
	}

	return grants, nil
}

// Save saves remembered grants to the grants file.
func (s *FileStore) Save(grants []permissions.Descriptor) error {
	dir := filepath.Dir(s.configPath)
	//nolint:gosec // G301: 0o755 is standard for user config directories (~/.veilbox)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create grants directory: %w", err)
	}

	var file grantsFile
	file.Grants = make([]struct {
		Kind string `yaml:"kind"`
		Path string `yaml:"path,omitempty"`
		Host string `yaml:"host,omitempty"`
	}, len(grants))

	for i, d := range grants {
		file.Grants[i].Kind = string(d.Kind)
		file.Grants[i].Path = d.Path
		file.Grants[i].Host = d.Host
	}

	data, err := yaml.MarshalWithOptions(file, yaml.IndentSequence(true))
	if err != nil {
		return fmt.Errorf("failed to marshal grants to YAML: %w", err)
	}

	return os.WriteFile(s.configPath, data, 0o600)
}

// appendUnique adds a descriptor unless an equal one is already present.
func appendUnique(grants []permissions.Descriptor, d permissions.Descriptor) []permissions.Descriptor {
	for _, existing := range grants {
		if existing.Equals(d) {
			return grants
		}
	}
	return append(grants, d)
}
