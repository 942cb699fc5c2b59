// Package workenv provides validation for extraction directories
package workenv

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// markerFile flags a completed extraction.
const markerFile = ".extraction.complete"

// ValidationMarker represents the extraction completion marker
type ValidationMarker struct {
	Timestamp      time.Time `json:"timestamp"`
	CollectionName string    `json:"collection_name"`
	Checksum       string    `json:"checksum"`
}

// IsValid checks if an extraction directory is complete and matches the
// expected payload checksum.
func IsValid(path, collectionName, checksum string) bool {
	data, err := os.ReadFile(filepath.Join(path, markerFile))
	if err != nil {
		return false
	}

	var marker ValidationMarker
	if err := json.Unmarshal(data, &marker); err != nil {
		return false
	}

	if marker.CollectionName != collectionName {
		return false
	}
	if checksum != "" && marker.Checksum != checksum {
		return false
	}

	return true
}

// MarkComplete marks an extraction directory as complete
func MarkComplete(path, collectionName, checksum string) error {
	marker := ValidationMarker{
		Timestamp:      time.Now().UTC(),
		CollectionName: collectionName,
		Checksum:       checksum,
	}

	data, err := json.MarshalIndent(marker, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(path, markerFile), data, 0o644)
}
