package collect

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	ferrors "github.com/cryopack/cryo/pkg/freeze/errors"
)

// ManifestName is the manifest file written at the collection root.
const ManifestName = "cryo.manifest.json"

// ManifestVersion is bumped on incompatible manifest changes.
const ManifestVersion = 1

// FileEntry records one collected file with its integrity checksum.
type FileEntry struct {
	Path     string `json:"path"` // collection-relative, slash-separated
	Size     int64  `json:"size"`
	Checksum string `json:"checksum"`
}

// Manifest describes an assembled collection. The launcher stub reads it to
// locate the interpreter, the entry script, and the module path.
type Manifest struct {
	FormatVersion  int         `json:"format_version"`
	CollectionName string      `json:"collection_name"`
	OutputName     string      `json:"output_name"`
	EntryScript    string      `json:"entry_script"` // collection-relative
	Interpreter    string      `json:"interpreter"`
	ModuleDir      string      `json:"module_dir,omitempty"`
	PayloadArchive string      `json:"payload_archive,omitempty"` // archive-mode, one-dir
	PayloadChain   string      `json:"payload_chain,omitempty"`
	OneFile        bool        `json:"one_file"`
	ShowConsole    bool        `json:"show_console"`
	CreatedAt      time.Time   `json:"created_at"`
	Files          []FileEntry `json:"files"`
}

// Write serializes the manifest into dir.
func (m *Manifest) Write(dir string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, ManifestName), append(data, '\n'), 0o644)
}

// ReadManifest loads the manifest from a collection directory.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ferrors.ErrManifestNotFound
		}
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	if m.FormatVersion != ManifestVersion {
		return nil, fmt.Errorf("%w: manifest version %d", ferrors.ErrUnsupportedFormat, m.FormatVersion)
	}
	return &m, nil
}
