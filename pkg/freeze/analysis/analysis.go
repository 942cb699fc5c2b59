// Package analysis performs the static import scan of the entry script and
// resolves the module set to bundle. Modules are collected at top-level
// granularity: a package directory is bundled whole, so its internal
// relative imports need no further resolution.
//
// Resolution order follows the documented contract: excluded modules win
// over anything discovered, and hidden imports force-include modules the
// scan cannot see.
package analysis

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/cryopack/cryo/pkg/freeze/descriptor"
	ferrors "github.com/cryopack/cryo/pkg/freeze/errors"
)

// Module is one resolved top-level module to bundle.
type Module struct {
	Name      string // top-level module name, e.g. "frames"
	Path      string // resolved filesystem path
	IsPackage bool   // directory with __init__.py vs single file
}

// Result is the ordered, deduplicated module set of an analysis run.
type Result struct {
	Modules []Module
}

// analyzer walks the import graph of one descriptor.
type analyzer struct {
	searchPaths []string
	excluded    map[string]bool
	resolved    map[string]Module
	visited     map[string]bool
	logger      hclog.Logger
}

// Analyze scans the descriptor's entry script, walks discovered modules
// transitively across the search paths, applies exclusions, and
// force-resolves hidden imports. Imports that resolve nowhere are treated
// as external dependencies and skipped; an unresolvable hidden import is
// an error, since it was declared as required.
func Analyze(d *descriptor.Descriptor, logger hclog.Logger) (*Result, error) {
	a := &analyzer{
		searchPaths: searchPathsFor(d),
		excluded:    make(map[string]bool, len(d.ExcludedModules)),
		resolved:    make(map[string]Module),
		visited:     make(map[string]bool),
		logger:      logger,
	}
	for _, m := range d.ExcludedModules {
		a.excluded[m] = true
	}

	logger.Info("🔍 Analyzing entry script", "path", d.EntryScript, "search_paths", len(a.searchPaths))

	if err := a.scanFile(d.EntryScript); err != nil {
		return nil, err
	}

	for _, hidden := range d.HiddenImports {
		if a.isExcluded(hidden) {
			// Exclusion takes precedence per the resolution order.
			logger.Warn("⚠️ Hidden import suppressed by exclusion", "module", hidden)
			continue
		}
		if err := a.include(hidden); err != nil {
			return nil, fmt.Errorf("%w: %s", ferrors.ErrUnknownHiddenImport, hidden)
		}
	}

	modules := make([]Module, 0, len(a.resolved))
	for _, m := range a.resolved {
		modules = append(modules, m)
	}
	sort.Slice(modules, func(i, j int) bool { return modules[i].Name < modules[j].Name })

	logger.Info("✅ Analysis complete", "modules", len(modules))
	return &Result{Modules: modules}, nil
}

// searchPathsFor returns the descriptor's search paths, defaulting to the
// entry script's directory when none are declared.
func searchPathsFor(d *descriptor.Descriptor) []string {
	if len(d.SearchPaths) > 0 {
		return d.SearchPaths
	}
	return []string{filepath.Dir(d.EntryScript)}
}

// isExcluded reports whether a dotted module name, or any dotted prefix of
// it, was forcibly omitted.
func (a *analyzer) isExcluded(module string) bool {
	for {
		if a.excluded[module] {
			return true
		}
		i := strings.LastIndex(module, ".")
		if i < 0 {
			return false
		}
		module = module[:i]
	}
}

// scanFile extracts imports from one source file and includes each.
func (a *analyzer) scanFile(path string) error {
	imports, err := scanImports(path)
	if err != nil {
		return err
	}
	for _, module := range imports {
		if a.isExcluded(module) {
			a.logger.Debug("🚫 Skipping excluded module", "module", module)
			continue
		}
		if err := a.include(module); err != nil {
			// Unresolved regular imports are external (stdlib or site
			// packages); they are the bundling tool's opaque collaborators.
			a.logger.Debug("↷ External import", "module", module)
		}
	}
	return nil
}

// include resolves a dotted module name to its top-level module, records
// it, and scans its sources for further imports.
func (a *analyzer) include(module string) error {
	top := topLevel(module)
	if a.visited[top] {
		return nil
	}

	m, err := a.resolve(top)
	if err != nil {
		return err
	}
	a.visited[top] = true
	a.resolved[top] = m
	a.logger.Debug("📦 Resolved module", "module", top, "path", m.Path, "package", m.IsPackage)

	if !m.IsPackage {
		return a.scanFile(m.Path)
	}

	// Scan every source file of the package for cross-package imports.
	return filepath.WalkDir(m.Path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".py" {
			return nil
		}
		return a.scanFile(path)
	})
}

// resolve finds a top-level module across the search paths, in order.
// A package directory (containing __init__.py) wins over a plain module
// file within the same search path.
func (a *analyzer) resolve(top string) (Module, error) {
	for _, sp := range a.searchPaths {
		pkgDir := filepath.Join(sp, top)
		if info, err := os.Stat(filepath.Join(pkgDir, "__init__.py")); err == nil && !info.IsDir() {
			return Module{Name: top, Path: pkgDir, IsPackage: true}, nil
		}
		file := filepath.Join(sp, top+".py")
		if info, err := os.Stat(file); err == nil && !info.IsDir() {
			return Module{Name: top, Path: file}, nil
		}
	}
	return Module{}, fmt.Errorf("module %s not found in search paths", top)
}
