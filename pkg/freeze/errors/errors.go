// Package errors defines the error kinds surfaced by the freezer.
package errors

import "errors"

var (
	// Descriptor errors 📋
	ErrUnresolvedEntryScript = errors.New("❌ entry script cannot be resolved")
	ErrMissingSourcePath     = errors.New("❌ source path does not exist")
	ErrDestinationCollision  = errors.New("❌ two data entries target the same destination")
	ErrInvalidDestination    = errors.New("❌ destination escapes the collection root")
	ErrUnknownPackagingFlag  = errors.New("❌ unrecognized packaging flag")
	ErrInconsistentExclusion = errors.New("❌ module is both hidden-imported and excluded")

	// Analysis errors 🔍
	ErrUnknownHiddenImport = errors.New("❌ hidden import cannot be resolved")

	// Collection errors 📦
	ErrCollectionExists = errors.New("❌ collection directory already exists")
	ErrPartialOutput    = errors.New("❌ collection step aborted, partial output removed")
	ErrMissingLauncher  = errors.New("❌ launcher stub binary not found")

	// Launcher errors 🚀
	ErrNoPayload         = errors.New("❌ no embedded payload found in executable")
	ErrManifestNotFound  = errors.New("❌ collection manifest not found")
	ErrChecksumMismatch  = errors.New("❌ payload checksum mismatch")
	ErrInvalidTrailer    = errors.New("❌ invalid payload trailer")
	ErrUnsupportedFormat = errors.New("❌ unsupported payload format version")
	ErrExtractionFailed  = errors.New("❌ payload extraction failed")
	ErrExecutionFailed   = errors.New("❌ frozen application could not be executed")
)
