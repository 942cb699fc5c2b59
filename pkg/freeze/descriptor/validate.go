package descriptor

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	ferrors "github.com/cryopack/cryo/pkg/freeze/errors"
)

// Validate checks the descriptor invariants before the collector consumes
// it. A failed validation aborts the build before any filesystem effect.
//
// Checked invariants:
//   - the entry script resolves to an existing file
//   - every search path exists and is a directory
//   - every data and binary source path exists
//   - destinations stay inside the collection root
//   - no two entries with different sources target the same destination
//   - no module is both hidden-imported and excluded
//   - output and collection names are plain names, not paths
func (d *Descriptor) Validate() error {
	if d.EntryScript == "" {
		return fmt.Errorf("%w: entry script not set", ferrors.ErrUnresolvedEntryScript)
	}
	if info, err := os.Stat(d.EntryScript); err != nil || info.IsDir() {
		return fmt.Errorf("%w: %s", ferrors.ErrUnresolvedEntryScript, d.EntryScript)
	}

	for _, sp := range d.SearchPaths {
		info, err := os.Stat(sp)
		if err != nil || !info.IsDir() {
			return fmt.Errorf("%w: search path %s", ferrors.ErrMissingSourcePath, sp)
		}
	}

	if err := validateEntries("data", d.ExtraData); err != nil {
		return err
	}
	if err := validateEntries("binary", d.ExtraBinaries); err != nil {
		return err
	}
	if err := checkCollisions(append(append([]DataEntry{}, d.ExtraData...), d.ExtraBinaries...)); err != nil {
		return err
	}

	excluded := make(map[string]bool, len(d.ExcludedModules))
	for _, m := range d.ExcludedModules {
		excluded[m] = true
	}
	for _, m := range d.HiddenImports {
		if excluded[m] {
			return fmt.Errorf("%w: %s", ferrors.ErrInconsistentExclusion, m)
		}
	}

	if err := validateName("output_name", d.OutputName); err != nil {
		return err
	}
	return validateName("collection_name", d.CollectionName)
}

func validateEntries(kind string, entries []DataEntry) error {
	for _, e := range entries {
		if _, err := os.Stat(e.Source); err != nil {
			return fmt.Errorf("%w: %s source %s", ferrors.ErrMissingSourcePath, kind, e.Source)
		}
		dest := path.Clean(e.Dest)
		if path.IsAbs(dest) || dest == ".." || strings.HasPrefix(dest, "../") {
			return fmt.Errorf("%w: %s dest %s", ferrors.ErrInvalidDestination, kind, e.Dest)
		}
	}
	return nil
}

// checkCollisions rejects two entries that would land different sources at
// the same destination path, before any file copy occurs. The same source
// declared twice for one destination is a harmless duplicate.
func checkCollisions(entries []DataEntry) error {
	seen := make(map[string]string, len(entries))
	for _, e := range entries {
		dest := destPath(e)
		if prev, ok := seen[dest]; ok && prev != e.Source {
			return fmt.Errorf("%w: %s claimed by %s and %s", ferrors.ErrDestinationCollision, dest, prev, e.Source)
		}
		seen[dest] = e.Source
	}
	return nil
}

// destPath resolves the final collection-relative path of an entry: the
// source basename placed under the destination directory.
func destPath(e DataEntry) string {
	dest := path.Clean(filepath.ToSlash(e.Dest))
	base := filepath.Base(e.Source)
	if dest == "." || dest == "" {
		return base
	}
	return path.Join(dest, base)
}

// DestPath exposes the resolved collection-relative path for an entry.
func (e DataEntry) DestPath() string {
	return destPath(e)
}

func validateName(field, name string) error {
	if name == "" {
		return fmt.Errorf("descriptor: %s must not be empty", field)
	}
	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("descriptor: %s must be a plain name, got %q", field, name)
	}
	return nil
}
