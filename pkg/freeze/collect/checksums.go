// Checksum helpers for the collection manifest.
//
// Format: "algorithm:hexvalue" (e.g., "sha256:c0ffee123...", "adler32:babe1337")
package collect

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"hash/adler32"
	"os"
	"path/filepath"
	"strings"

	ferrors "github.com/cryopack/cryo/pkg/freeze/errors"
)

// ChecksumAlgorithm represents supported checksum algorithms
type ChecksumAlgorithm int

const (
	ChecksumSHA256 ChecksumAlgorithm = iota
	ChecksumAdler32
)

func (c ChecksumAlgorithm) String() string {
	switch c {
	case ChecksumSHA256:
		return "sha256"
	case ChecksumAdler32:
		return "adler32"
	default:
		return "unknown"
	}
}

// CalculateChecksum calculates a prefixed checksum of data.
func CalculateChecksum(data []byte, algorithm ChecksumAlgorithm) string {
	var h hash.Hash
	switch algorithm {
	case ChecksumAdler32:
		h = adler32.New()
	default:
		h = sha256.New()
		algorithm = ChecksumSHA256
	}

	h.Write(data)
	return algorithm.String() + ":" + hex.EncodeToString(h.Sum(nil))
}

// ParseChecksum splits a prefixed checksum string. Unprefixed input is
// assumed to be sha256 (legacy form).
func ParseChecksum(checksumStr string) (ChecksumAlgorithm, string, error) {
	if !strings.Contains(checksumStr, ":") {
		return ChecksumSHA256, checksumStr, nil
	}

	parts := strings.SplitN(checksumStr, ":", 2)
	switch parts[0] {
	case "sha256":
		return ChecksumSHA256, parts[1], nil
	case "adler32":
		return ChecksumAdler32, parts[1], nil
	default:
		return ChecksumSHA256, "", fmt.Errorf("unknown checksum algorithm: %s", parts[0])
	}
}

// VerifyChecksum verifies data against a prefixed checksum string.
func VerifyChecksum(data []byte, checksumStr string) (bool, error) {
	algo, expected, err := ParseChecksum(checksumStr)
	if err != nil {
		return false, err
	}

	actual := CalculateChecksum(data, algo)
	return strings.TrimPrefix(actual, algo.String()+":") == expected, nil
}

// VerifyFiles checks every manifest file entry against its recorded
// checksum. The launcher stub runs this before executing from a plain
// collection, so a corrupted or tampered file is caught before the
// interpreter sees it.
func VerifyFiles(dir string, m *Manifest) error {
	for _, entry := range m.Files {
		data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(entry.Path)))
		if err != nil {
			return fmt.Errorf("reading %s: %w", entry.Path, err)
		}
		ok, err := VerifyChecksum(data, entry.Checksum)
		if err != nil {
			return fmt.Errorf("verifying %s: %w", entry.Path, err)
		}
		if !ok {
			return fmt.Errorf("%w: %s", ferrors.ErrChecksumMismatch, entry.Path)
		}
	}
	return nil
}
