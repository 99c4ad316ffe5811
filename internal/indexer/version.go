package indexer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// IndexVersion is the schema version of the persistent stores. Bump it on
// any incompatible change to a stored type; outdated caches are wiped.
const IndexVersion = 1

const versionFileName = "index_version"

// CheckAndMigrateCache wipes cacheDir unless it was written by the current
// IndexVersion. It reports whether the cache was reset and must be rebuilt.
func CheckAndMigrateCache(cacheDir string) (bool, error) {
	versionFile := filepath.Join(cacheDir, versionFileName)

	data, err := os.ReadFile(versionFile)
	switch {
	case err == nil:
		stored, convErr := strconv.Atoi(strings.TrimSpace(string(data)))
		if convErr == nil && stored == IndexVersion {
			return false, nil
		}
	case !errors.Is(err, os.ErrNotExist):
		return false, fmt.Errorf("failed to read version file: %w", err)
	}

	if err := resetCacheDir(cacheDir); err != nil {
		return false, fmt.Errorf("failed to clear cache: %w", err)
	}
	if err := os.WriteFile(versionFile, []byte(strconv.Itoa(IndexVersion)), 0644); err != nil {
		return false, fmt.Errorf("failed to write version: %w", err)
	}
	return true, nil
}

// resetCacheDir empties cacheDir, creating it when missing
func resetCacheDir(cacheDir string) error {
	entries, err := os.ReadDir(cacheDir)
	if errors.Is(err, os.ErrNotExist) {
		return os.MkdirAll(cacheDir, 0755)
	}
	if err != nil {
		return err
	}

	for _, entry := range entries {
		path := filepath.Join(cacheDir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
	}
	return nil
}
