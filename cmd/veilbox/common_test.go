package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/veilbox-dev/veilbox/internal/domain/permissions"
)

func TestBuildService(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `version: "1.0"
security_level: strict
grants_path: ` + filepath.Join(dir, "grants.yaml") + `
rules:
  - name: allow-env
    kind: env
    effect: grant
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o600))

	originalCfgFile := cfgFile
	cfgFile = configPath
	defer func() { cfgFile = originalCfgFile }()

	service, sysConfig, err := buildService(false)
	require.NoError(t, err)
	require.NotNil(t, service)
	require.NotNil(t, sysConfig)
	assert.Equal(t, "strict", sysConfig.SecurityLevel)

	ctx := context.Background()

	status, err := service.Query(ctx, domain.Descriptor{Kind: domain.KindEnv})
	require.NoError(t, err)
	assert.Equal(t, domain.StateGranted, status.State())

	// Strict level denies anything the rules do not grant.
	status, err = service.Query(ctx, domain.Descriptor{Kind: domain.KindHrtime})
	require.NoError(t, err)
	assert.Equal(t, domain.StateDenied, status.State())
}

func TestBuildService_MissingConfigUsesDefaults(t *testing.T) {
	originalCfgFile := cfgFile
	cfgFile = filepath.Join(t.TempDir(), "does-not-exist.yaml")
	defer func() { cfgFile = originalCfgFile }()

	service, sysConfig, err := buildService(false)
	require.NoError(t, err)
	require.NotNil(t, service)
	assert.Equal(t, "standard", sysConfig.SecurityLevel)
}

func TestBuildService_RejectsInvalidSecurityLevel(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `version: "1.0"
security_level: banana
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o600))

	originalCfgFile := cfgFile
	cfgFile = configPath
	defer func() { cfgFile = originalCfgFile }()

	_, _, err := buildService(false)
	require.Error(t, err)
}
