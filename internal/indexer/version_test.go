package indexer

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckAndMigrateCache(t *testing.T) {
	current := strconv.Itoa(IndexVersion)

	tests := []struct {
		name    string
		version string // empty: no version file
		reset   bool
	}{
		{name: "fresh cache", reset: true},
		{name: "current version", version: current, reset: false},
		{name: "current version with newline", version: current + "\n", reset: false},
		{name: "older version", version: "0", reset: true},
		{name: "corrupted version", version: "not-a-number", reset: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cacheDir := t.TempDir()
			versionFile := filepath.Join(cacheDir, versionFileName)
			if tt.version != "" {
				require.NoError(t, os.WriteFile(versionFile, []byte(tt.version), 0644))
			}
			store := filepath.Join(cacheDir, "registrations.db")
			require.NoError(t, os.WriteFile(store, []byte("data"), 0644))

			reset, err := CheckAndMigrateCache(cacheDir)
			require.NoError(t, err)
			assert.Equal(t, tt.reset, reset)

			_, err = os.Stat(store)
			assert.Equal(t, tt.reset, os.IsNotExist(err), "store kept or wiped")

			data, err := os.ReadFile(versionFile)
			require.NoError(t, err)
			if tt.reset {
				assert.Equal(t, current, string(data))
			}
		})
	}
}

func TestCheckAndMigrateCacheClearsSubdirectories(t *testing.T) {
	cacheDir := t.TempDir()
	subDir := filepath.Join(cacheDir, "states")
	require.NoError(t, os.MkdirAll(subDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(subDir, "files.db"), []byte("x"), 0644))

	reset, err := CheckAndMigrateCache(cacheDir)
	require.NoError(t, err)
	assert.True(t, reset)

	_, err = os.Stat(subDir)
	assert.True(t, os.IsNotExist(err))
}

func TestCheckAndMigrateCacheCreatesMissingDir(t *testing.T) {
	cacheDir := filepath.Join(t.TempDir(), "missing")

	reset, err := CheckAndMigrateCache(cacheDir)
	require.NoError(t, err)
	assert.True(t, reset)
	assert.FileExists(t, filepath.Join(cacheDir, versionFileName))
}
