// Package specfile loads build descriptors from declarative spec files.
// Descriptors are authored in HCL (*.hcl); the JSON manifest form produced
// by descriptor.Save is accepted as well, keyed on file extension. HCL spec
// files can vary entries per platform through the `platform` variable:
//
//	app {
//	  entry_script    = "planetary_system_stacker.py"
//	  output_name     = "stacker"
//	  collection_name = "stacker-dist"
//	  hidden_imports  = ["plugins.sharpen"]
//	}
//
//	data "icon.ico" { dest = "." }
//
//	flags {
//	  compress_with_upx   = platform.os == "windows"
//	  show_console_window = false
//	}
package specfile

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/cryopack/cryo/pkg/freeze/descriptor"
)

// specFile is the top-level HCL structure. Unknown blocks or attributes
// anywhere in the file are decoding errors, so typos fail closed.
type specFile struct {
	App      *appBlock    `hcl:"app,block"`
	Data     []entryBlock `hcl:"data,block"`
	Binaries []entryBlock `hcl:"binary,block"`
	Flags    *flagsBlock  `hcl:"flags,block"`
}

type appBlock struct {
	EntryScript     string   `hcl:"entry_script"`
	OutputName      string   `hcl:"output_name"`
	CollectionName  string   `hcl:"collection_name"`
	Interpreter     string   `hcl:"interpreter,optional"`
	SearchPaths     []string `hcl:"search_paths,optional"`
	HiddenImports   []string `hcl:"hidden_imports,optional"`
	ExcludedModules []string `hcl:"excluded_modules,optional"`
}

type entryBlock struct {
	Source      string `hcl:"source,label"`
	Dest        string `hcl:"dest"`
	Permissions string `hcl:"permissions,optional"`
}

// flagsBlock uses pointers so unset options keep their defaults.
type flagsBlock struct {
	StripSymbols                  *bool `hcl:"strip_symbols,optional"`
	CompressWithUPX               *bool `hcl:"compress_with_upx,optional"`
	ShowConsoleWindow             *bool `hcl:"show_console_window,optional"`
	SingleArchiveMode             *bool `hcl:"single_archive_mode,optional"`
	ExcludeBinariesFromExecutable *bool `hcl:"exclude_binaries_from_executable,optional"`
}

// LoadFile loads a descriptor from an HCL spec file or a JSON manifest.
func LoadFile(path string) (*descriptor.Descriptor, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return descriptor.Load(path)
	}
	return loadHCL(path)
}

func loadHCL(path string) (*descriptor.Descriptor, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing spec file %s: %s", path, diags.Error())
	}

	var spec specFile
	diags = gohcl.DecodeBody(file.Body, evalContext(), &spec)
	if diags.HasErrors() {
		return nil, fmt.Errorf("decoding spec file %s: %s", path, diags.Error())
	}
	if spec.App == nil {
		return nil, fmt.Errorf("spec file %s: missing app block", path)
	}

	baseDir := filepath.Dir(path)
	d := descriptor.New()
	d.SetEntryPoint(rebase(baseDir, spec.App.EntryScript))
	d.OutputName = spec.App.OutputName
	d.CollectionName = spec.App.CollectionName
	d.Interpreter = spec.App.Interpreter

	for _, sp := range spec.App.SearchPaths {
		d.AddSearchPath(rebase(baseDir, sp))
	}
	for _, m := range spec.App.HiddenImports {
		d.AddHiddenImport(m)
	}
	for _, m := range spec.App.ExcludedModules {
		d.ExcludeModule(m)
	}

	for _, e := range spec.Data {
		d.ExtraData = append(d.ExtraData, descriptor.DataEntry{
			Source:      rebase(baseDir, e.Source),
			Dest:        e.Dest,
			Permissions: e.Permissions,
		})
	}
	for _, e := range spec.Binaries {
		d.ExtraBinaries = append(d.ExtraBinaries, descriptor.DataEntry{
			Source:      rebase(baseDir, e.Source),
			Dest:        e.Dest,
			Permissions: e.Permissions,
		})
	}

	if spec.Flags != nil {
		applyFlags(&d.Flags, spec.Flags)
	}
	return d, nil
}

// evalContext exposes the build platform to spec expressions.
func evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"platform": cty.ObjectVal(map[string]cty.Value{
				"os":   cty.StringVal(runtime.GOOS),
				"arch": cty.StringVal(runtime.GOARCH),
			}),
		},
	}
}

// rebase resolves a spec-relative path against the spec file's directory.
func rebase(baseDir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

func applyFlags(flags *descriptor.PackagingFlags, block *flagsBlock) {
	if block.StripSymbols != nil {
		flags.StripSymbols = *block.StripSymbols
	}
	if block.CompressWithUPX != nil {
		flags.CompressWithUPX = *block.CompressWithUPX
	}
	if block.ShowConsoleWindow != nil {
		flags.ShowConsoleWindow = *block.ShowConsoleWindow
	}
	if block.SingleArchiveMode != nil {
		flags.SingleArchiveMode = *block.SingleArchiveMode
	}
	if block.ExcludeBinariesFromExecutable != nil {
		flags.ExcludeBinariesFromExecutable = *block.ExcludeBinariesFromExecutable
	}
}
