package descriptor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	ferrors "github.com/cryopack/cryo/pkg/freeze/errors"
)

// Recognized packaging flag option names.
const (
	FlagStripSymbols                  = "strip_symbols"
	FlagCompressWithUPX               = "compress_with_upx"
	FlagShowConsoleWindow             = "show_console_window"
	FlagSingleArchiveMode             = "single_archive_mode"
	FlagExcludeBinariesFromExecutable = "exclude_binaries_from_executable"
)

// PackagingFlags is the small configuration record controlling how the
// collection is packaged.
//
// SingleArchiveMode selects whether the module payload is packed into one
// compressed archive or laid out as plain files ("noarchive" semantics).
// ExcludeBinariesFromExecutable controls whether the launcher stub embeds
// the payload (one-file mode) or leaves it beside itself in the collection
// directory (one-dir mode, enabling the later collection step).
type PackagingFlags struct {
	StripSymbols                  bool `json:"strip_symbols"`
	CompressWithUPX               bool `json:"compress_with_upx"`
	ShowConsoleWindow             bool `json:"show_console_window"`
	SingleArchiveMode             bool `json:"single_archive_mode"`
	ExcludeBinariesFromExecutable bool `json:"exclude_binaries_from_executable"`
}

// DefaultFlags returns the defaults: plain-file payload, one-dir layout,
// console visible, no strip, no upx.
func DefaultFlags() PackagingFlags {
	return PackagingFlags{
		ShowConsoleWindow:             true,
		ExcludeBinariesFromExecutable: true,
	}
}

// Set assigns a single option by name. Unrecognized names fail closed.
func (f *PackagingFlags) Set(option string, value bool) error {
	switch option {
	case FlagStripSymbols:
		f.StripSymbols = value
	case FlagCompressWithUPX:
		f.CompressWithUPX = value
	case FlagShowConsoleWindow:
		f.ShowConsoleWindow = value
	case FlagSingleArchiveMode:
		f.SingleArchiveMode = value
	case FlagExcludeBinariesFromExecutable:
		f.ExcludeBinariesFromExecutable = value
	default:
		return fmt.Errorf("%w: %q", ferrors.ErrUnknownPackagingFlag, option)
	}
	return nil
}

// ParseFlagMap builds flags from an option map on top of the defaults.
// Option names are applied in sorted order so errors are deterministic.
func ParseFlagMap(options map[string]bool) (PackagingFlags, error) {
	flags := DefaultFlags()

	names := make([]string, 0, len(options))
	for name := range options {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := flags.Set(name, options[name]); err != nil {
			return PackagingFlags{}, err
		}
	}
	return flags, nil
}

// UnmarshalJSON decodes flags strictly: unknown option names in the JSON
// object are rejected rather than silently dropped. Options absent from the
// object keep the receiver's current value, so a partial flags object
// overlays the defaults instead of zeroing them.
func (f *PackagingFlags) UnmarshalJSON(data []byte) error {
	type plain PackagingFlags

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	p := plain(*f)
	if err := dec.Decode(&p); err != nil {
		return fmt.Errorf("%w: %v", ferrors.ErrUnknownPackagingFlag, err)
	}
	*f = PackagingFlags(p)
	return nil
}
