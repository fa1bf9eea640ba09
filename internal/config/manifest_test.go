package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veilbox-dev/veilbox/internal/domain/permissions"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "manifest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func Test_LoadManifest(t *testing.T) {
	t.Parallel()

	path := writeManifest(t, `name: data-pipeline
description: nightly ETL job
permissions:
  - kind: read
    path: /srv/input
  - kind: write
    path: /srv/output
  - kind: net
    host: warehouse.internal
  - kind: env
`)

	manifest, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, "data-pipeline", manifest.Name)
	require.Len(t, manifest.Permissions, 4)
	assert.Equal(t, permissions.Descriptor{Kind: permissions.KindRead, Path: "/srv/input"}, manifest.Permissions[0])
	assert.Equal(t, permissions.Descriptor{Kind: permissions.KindNet, Host: "warehouse.internal"}, manifest.Permissions[2])
}

func Test_LoadManifest_SchemaRejectsUnknownKind(t *testing.T) {
	t.Parallel()

	path := writeManifest(t, `name: w
permissions:
  - kind: teleport
`)

	_, err := LoadManifest(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema validation failed")
}

func Test_LoadManifest_SchemaRejectsUnknownFields(t *testing.T) {
	t.Parallel()

	path := writeManifest(t, `name: w
permissions:
  - kind: read
    pattern: "/tmp/**"
`)

	_, err := LoadManifest(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema validation failed")
}

func Test_LoadManifest_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadManifest(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read manifest")
}

func Test_Manifest_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		manifest Manifest
		wantErr  string
	}{
		{
			name: "valid",
			manifest: Manifest{
				Name:        "w",
				Permissions: []permissions.Descriptor{{Kind: permissions.KindEnv}},
			},
		},
		{
			name: "missing name",
			manifest: Manifest{
				Permissions: []permissions.Descriptor{{Kind: permissions.KindEnv}},
			},
			wantErr: "manifest name is required",
		},
		{
			name:     "no permissions",
			manifest: Manifest{Name: "w"},
			wantErr:  "declares no permissions",
		},
		{
			name: "duplicate keys",
			manifest: Manifest{
				Name: "w",
				Permissions: []permissions.Descriptor{
					{Kind: permissions.KindRead, Path: "/tmp/x"},
					{Kind: permissions.KindRead, Path: "/tmp/x"},
				},
			},
			wantErr: "duplicate entry for read:/tmp/x",
		},
		{
			name: "invalid kind",
			manifest: Manifest{
				Name:        "w",
				Permissions: []permissions.Descriptor{{Kind: permissions.Kind("bogus")}},
			},
			wantErr: "unrecognized value",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.manifest.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
