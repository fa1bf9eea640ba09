package grants

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veilbox-dev/veilbox/internal/domain/permissions"
)

func TestFileStore_LoadAndSave(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	storePath := filepath.Join(tmpDir, "grants.yaml")

	store := NewFileStore(storePath)

	// Loading from a non-existent file returns no grants, no error
	grants, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, grants)

	saved := []permissions.Descriptor{
		{Kind: permissions.KindRead, Path: "/etc/hosts"},
		{Kind: permissions.KindNet, Host: "api.example.com"},
		{Kind: permissions.KindHrtime},
	}

	err = store.Save(saved)
	require.NoError(t, err)

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, saved, loaded)
}

func TestFileStore_Load_InvalidYAML(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	storePath := filepath.Join(tmpDir, "grants.yaml")
	store := NewFileStore(storePath)

	err := os.WriteFile(storePath, []byte("invalid yaml: ---\n-"), 0o600)
	require.NoError(t, err)

	_, err = store.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse grants file")
}

func TestFileStore_Load_RejectsUnknownKind(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	storePath := filepath.Join(tmpDir, "grants.yaml")
	store := NewFileStore(storePath)

	content := "grants:\n  - kind: bogus\n"
	require.NoError(t, os.WriteFile(storePath, []byte(content), 0o600))

	_, err := store.Load()
	require.Error(t, err)

	var descErr *permissions.DescriptorError
	assert.ErrorAs(t, err, &descErr)
}

func TestFileStore_Load_DeduplicatesEntries(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	storePath := filepath.Join(tmpDir, "grants.yaml")
	store := NewFileStore(storePath)

	content := "grants:\n  - kind: env\n  - kind: env\n"
	require.NoError(t, os.WriteFile(storePath, []byte(content), 0o600))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Len(t, loaded, 1)
}

func TestFileStore_Save_DirectoryCreation(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	nestedPath := filepath.Join(tmpDir, "nested", "grants.yaml")
	store := NewFileStore(nestedPath)

	err := store.Save([]permissions.Descriptor{{Kind: permissions.KindEnv}})
	require.NoError(t, err)

	info, err := os.Stat(nestedPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
