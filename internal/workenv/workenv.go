// Package workenv manages the freezer's work directories: the per-build
// staging area and the extraction cache used by one-file executables.
package workenv

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// GetCacheRoot returns the root cache directory
func GetCacheRoot() string {
	// Check environment variable first
	if cacheDir := os.Getenv("CRYO_CACHE_DIR"); cacheDir != "" {
		return cacheDir
	}

	// Use platform-specific defaults
	switch runtime.GOOS {
	case "darwin":
		if home := os.Getenv("HOME"); home != "" {
			return filepath.Join(home, "Library", "Caches", "cryo")
		}
	case "linux":
		if xdgCache := os.Getenv("XDG_CACHE_HOME"); xdgCache != "" {
			return filepath.Join(xdgCache, "cryo")
		}
		if home := os.Getenv("HOME"); home != "" {
			return filepath.Join(home, ".cache", "cryo")
		}
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, "cryo", "cache")
		}
	}

	// Fallback to temp directory
	return filepath.Join(os.TempDir(), "cryo", "cache")
}

// InstancePath returns the extraction directory for a one-file collection,
// keyed by payload checksum so that a changed payload never reuses a stale
// extraction.
func InstancePath(collectionName, checksum string) string {
	var identifier string
	if len(checksum) >= 8 {
		identifier = checksum[:8]
	} else if checksum != "" {
		identifier = checksum
	} else {
		h := sha256.Sum256([]byte(collectionName))
		identifier = hex.EncodeToString(h[:])[:8]
	}

	return filepath.Join(GetCacheRoot(), collectionName+"-"+identifier)
}

// NewStagingDir creates a fresh staging directory next to the final
// collection path. Staging inside the same parent keeps the final rename on
// one filesystem, so a finished build appears atomically.
func NewStagingDir(finalPath string) (string, error) {
	parent := filepath.Dir(finalPath)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return "", fmt.Errorf("creating output parent %s: %w", parent, err)
	}

	staging, err := os.MkdirTemp(parent, "."+filepath.Base(finalPath)+".partial-")
	if err != nil {
		return "", fmt.Errorf("creating staging directory: %w", err)
	}
	return staging, nil
}
