package state

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectMissingDirectory(t *testing.T) {
	s, err := Detect(filepath.Join(t.TempDir(), "nowhere", ".env"))
	require.NoError(t, err)
	assert.Equal(t, FreshInstall, s)
}

func TestDetectDirectoryWithoutEnvFileIsFresh(t *testing.T) {
	dir := t.TempDir()
	// A pre-existing, partially populated directory is still a fresh host.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "docker-compose.yml"), []byte("services: {}\n"), 0644))

	s, err := Detect(filepath.Join(dir, ".env"))
	require.NoError(t, err)
	assert.Equal(t, FreshInstall, s)
}

func TestDetectEnvFilePresentIsExisting(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("HAWKRA_DOMAIN=hawkra.local\n"), 0600))

	s, err := Detect(envFile)
	require.NoError(t, err)
	assert.Equal(t, ExistingInstall, s)
}

func TestDetectEnvPathIsDirectory(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.Mkdir(envFile, 0755))

	s, err := Detect(envFile)
	assert.Error(t, err)
	assert.Equal(t, FreshInstall, s)
}
