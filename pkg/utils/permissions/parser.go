// Package permissions provides utilities for parsing and handling file permissions
package permissions

import (
	"fmt"
	"io/fs"
	"strconv"
	"strings"
)

// Default permission constants
const (
	DefaultFilePerms       = 0o644 // Readable data files
	DefaultExecutablePerms = 0o755 // Launcher stub and extra binaries
	DefaultDirPerms        = 0o755
)

// ParseOctalString parses an octal permission string into a fs.FileMode.
// Handles formats like "755", "0755", "0o755". Empty input yields the
// default file permissions.
func ParseOctalString(s string) (fs.FileMode, error) {
	if s == "" {
		return DefaultFilePerms, nil
	}

	trimmed := strings.TrimPrefix(s, "0o")
	trimmed = strings.TrimPrefix(trimmed, "0")
	if trimmed == "" {
		trimmed = "0"
	}

	val, err := strconv.ParseUint(trimmed, 8, 32)
	if err != nil {
		return DefaultFilePerms, fmt.Errorf("invalid permission string %q: %w", s, err)
	}

	return fs.FileMode(val).Perm(), nil
}

// FormatOctal formats a permission value as an octal string
func FormatOctal(perm fs.FileMode) string {
	return fmt.Sprintf("0%o", perm.Perm())
}

// IsExecutable checks if permissions include execute bit for owner
func IsExecutable(perm fs.FileMode) bool {
	return perm&0o100 != 0
}
