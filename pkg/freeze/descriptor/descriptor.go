// Package descriptor defines the build descriptor consumed by the freezer.
//
// A Descriptor is a pure declarative record: it names the entry script, the
// data files and binaries to embed, the modules that static analysis cannot
// discover, the modules to forcibly omit, and the packaging flags. It has no
// side effects at declaration time; all filesystem work happens when the
// collector consumes it.
package descriptor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// DataEntry is a (source, destination) pair for a non-code asset to copy
// into the collection. Destination is relative to the collection root; "."
// places the asset at the root.
type DataEntry struct {
	Source      string `json:"source"`
	Dest        string `json:"dest"`
	Permissions string `json:"permissions,omitempty"` // octal string, e.g. "0644"
}

// Descriptor fully specifies how to transform one entry script plus its
// transitive dependencies into a self-contained distributable directory.
type Descriptor struct {
	// Path to the single application entry point to analyze and bundle
	EntryScript string `json:"entry_script"`

	// Ordered filesystem locations used to resolve imports during analysis
	SearchPaths []string `json:"search_paths,omitempty"`

	// Additional binary artifacts to include verbatim
	ExtraBinaries []DataEntry `json:"extra_binaries,omitempty"`

	// Non-code assets to copy into the collection
	ExtraData []DataEntry `json:"extra_data,omitempty"`

	// Modules that must be included even though static analysis cannot
	// discover them (dynamic/plugin-style imports). Set semantics: kept
	// sorted and deduplicated.
	HiddenImports []string `json:"hidden_imports,omitempty"`

	// Modules to forcibly omit even if discovered
	ExcludedModules []string `json:"excluded_modules,omitempty"`

	// Packaging flags (strip, upx, console, archive mode, one-dir layout)
	Flags PackagingFlags `json:"packaging_flags"`

	// Interpreter invoked by the launcher stub on the frozen entry script
	Interpreter string `json:"interpreter,omitempty"`

	// Base name for the produced executable
	OutputName string `json:"output_name"`

	// Base name for the final assembled output directory
	CollectionName string `json:"collection_name"`
}

// DefaultInterpreter is used when a descriptor does not name one.
const DefaultInterpreter = "python3"

// New returns an empty descriptor with default flags.
func New() *Descriptor {
	return &Descriptor{Flags: DefaultFlags()}
}

// SetEntryPoint declares the application entry script. The path is not
// validated here; Validate checks existence.
func (d *Descriptor) SetEntryPoint(path string) {
	d.EntryScript = path
}

// AddSearchPath appends a filesystem location used to resolve imports.
func (d *Descriptor) AddSearchPath(path string) {
	d.SearchPaths = append(d.SearchPaths, path)
}

// AddData declares a non-code asset to copy into the collection. Collisions
// between two entries targeting the same destination are detected by
// Validate before any file copy occurs.
func (d *Descriptor) AddData(source, dest string) {
	d.ExtraData = append(d.ExtraData, DataEntry{Source: source, Dest: dest})
}

// AddBinary declares an additional binary artifact to include verbatim.
func (d *Descriptor) AddBinary(source, dest string) {
	d.ExtraBinaries = append(d.ExtraBinaries, DataEntry{Source: source, Dest: dest})
}

// AddHiddenImport force-includes a module invisible to static analysis.
// Adding the same module twice is idempotent.
func (d *Descriptor) AddHiddenImport(module string) {
	d.HiddenImports = insertSorted(d.HiddenImports, module)
}

// ExcludeModule forcibly omits a module from the bundle even if discovered.
// Exclusion wins over discovery; a module both hidden-imported and excluded
// is rejected by Validate as inconsistent intent.
func (d *Descriptor) ExcludeModule(module string) {
	d.ExcludedModules = insertSorted(d.ExcludedModules, module)
}

// SetPackagingFlags replaces the packaging flags from an option map.
// Unrecognized option names fail closed rather than being silently ignored.
func (d *Descriptor) SetPackagingFlags(options map[string]bool) error {
	flags, err := ParseFlagMap(options)
	if err != nil {
		return err
	}
	d.Flags = flags
	return nil
}

// insertSorted inserts s into a sorted slice unless already present.
func insertSorted(list []string, s string) []string {
	i := sort.SearchStrings(list, s)
	if i < len(list) && list[i] == s {
		return list
	}
	list = append(list, "")
	copy(list[i+1:], list[i:])
	list[i] = s
	return list
}

// Normalize sorts and deduplicates the set-valued fields. Load applies it
// so that a marshaled descriptor always round-trips to an equal value.
func (d *Descriptor) Normalize() {
	d.HiddenImports = sortUnique(d.HiddenImports)
	d.ExcludedModules = sortUnique(d.ExcludedModules)
}

func sortUnique(list []string) []string {
	if len(list) == 0 {
		return list
	}
	sort.Strings(list)
	out := list[:1]
	for _, s := range list[1:] {
		if s != out[len(out)-1] {
			out = append(out, s)
		}
	}
	return out
}

// Marshal serializes the descriptor as indented JSON.
func (d *Descriptor) Marshal() ([]byte, error) {
	d.Normalize()
	return json.MarshalIndent(d, "", "  ")
}

// Unmarshal parses a JSON descriptor. Unknown fields anywhere in the
// document fail closed, since silent acceptance of typos is the most common
// failure mode of this kind of configuration. Decoding starts from New(),
// so omitted packaging flags keep their defaults, matching the HCL front
// end's treatment of unset options.
func Unmarshal(data []byte) (*Descriptor, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	d := New()
	if err := dec.Decode(d); err != nil {
		return nil, fmt.Errorf("parsing descriptor: %w", err)
	}
	d.Normalize()
	return d, nil
}

// Load reads and parses a JSON descriptor from disk.
func Load(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading descriptor %s: %w", path, err)
	}
	return Unmarshal(data)
}

// Save writes the descriptor as JSON to disk.
func (d *Descriptor) Save(path string) error {
	data, err := d.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// InterpreterOrDefault returns the configured interpreter, falling back to
// DefaultInterpreter.
func (d *Descriptor) InterpreterOrDefault() string {
	if d.Interpreter != "" {
		return d.Interpreter
	}
	return DefaultInterpreter
}
