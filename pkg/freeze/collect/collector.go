// Package collect assembles the final collection directory: the launcher
// stub, the frozen entry script and module payload, and every declared data
// entry. Assembly happens in a staging directory that is renamed into place
// only when complete, so a failed build never leaves a partially-populated
// output behind.
package collect

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/cryopack/cryo/internal/workenv"
	"github.com/cryopack/cryo/pkg/freeze/analysis"
	"github.com/cryopack/cryo/pkg/freeze/bundle"
	"github.com/cryopack/cryo/pkg/freeze/descriptor"
	ferrors "github.com/cryopack/cryo/pkg/freeze/errors"
	"github.com/cryopack/cryo/pkg/freeze/operations"
	_ "github.com/cryopack/cryo/pkg/freeze/operations/compress"
	"github.com/cryopack/cryo/pkg/freeze/payload"
	"github.com/cryopack/cryo/pkg/utils/permissions"
)

// ModuleDirName is the directory holding bundled modules, both in plain
// collections and inside archive payloads.
const ModuleDirName = "modules"

// DefaultChain is the compression applied to archive-mode payloads.
const DefaultChain = "gzip"

// Options configures a collection run.
type Options struct {
	// Directory the collection is created in
	OutputDir string

	// Launcher stub binary; falls back to CRYO_LAUNCHER_BIN
	LauncherBin string

	// Payload operation chain; empty means DefaultChain
	Chain string
}

// Collector assembles one collection from a validated descriptor and its
// analysis result.
type Collector struct {
	desc   *descriptor.Descriptor
	result *analysis.Result
	opts   Options
	logger hclog.Logger
}

// New creates a collector. The descriptor must already be validated.
func New(desc *descriptor.Descriptor, result *analysis.Result, opts Options, logger hclog.Logger) *Collector {
	return &Collector{desc: desc, result: result, opts: opts, logger: logger}
}

// Collect assembles the collection and returns its final path.
func (c *Collector) Collect() (string, error) {
	finalPath := filepath.Join(c.opts.OutputDir, c.desc.CollectionName)
	if _, err := os.Stat(finalPath); err == nil {
		return "", fmt.Errorf("%w: %s", ferrors.ErrCollectionExists, finalPath)
	}

	launcherBin, err := c.launcherPath()
	if err != nil {
		return "", err
	}

	staging, err := workenv.NewStagingDir(finalPath)
	if err != nil {
		return "", err
	}
	c.logger.Debug("📁 Staging collection", "dir", staging)

	if err := c.populate(staging, launcherBin); err != nil {
		os.RemoveAll(staging)
		return "", fmt.Errorf("%w: %v", ferrors.ErrPartialOutput, err)
	}

	if err := os.Rename(staging, finalPath); err != nil {
		os.RemoveAll(staging)
		return "", fmt.Errorf("finalizing collection: %w", err)
	}

	c.logger.Info("✅ Collection assembled", "path", finalPath)
	return finalPath, nil
}

// launcherPath resolves the stub binary: option first, then environment.
func (c *Collector) launcherPath() (string, error) {
	path := c.opts.LauncherBin
	if path == "" {
		path = os.Getenv("CRYO_LAUNCHER_BIN")
	}
	if path == "" {
		return "", fmt.Errorf("%w: set --launcher-bin or CRYO_LAUNCHER_BIN", ferrors.ErrMissingLauncher)
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: %s", ferrors.ErrMissingLauncher, path)
	}
	return path, nil
}

// populate fills the staging directory with the full collection content.
func (c *Collector) populate(staging, launcherBin string) error {
	flags := c.desc.Flags
	oneFile := !flags.ExcludeBinariesFromExecutable
	archive := flags.SingleArchiveMode || oneFile

	stubPath := filepath.Join(staging, stubName(c.desc.OutputName))
	c.logger.Info("🚀 Placing launcher stub", "stub", stubPath, "one_file", oneFile)
	if err := copyFile(launcherBin, stubPath, permissions.DefaultExecutablePerms); err != nil {
		return err
	}

	if err := applyStubResources(stubPath, c.iconPath(), flags.ShowConsoleWindow, c.logger); err != nil {
		return err
	}
	if flags.StripSymbols {
		if err := stripSymbols(stubPath, c.logger); err != nil {
			return err
		}
	}
	if flags.CompressWithUPX {
		if err := compressWithUPX(stubPath, c.logger); err != nil {
			return err
		}
	}

	manifest := &Manifest{
		FormatVersion:  ManifestVersion,
		CollectionName: c.desc.CollectionName,
		OutputName:     c.desc.OutputName,
		EntryScript:    filepath.Base(c.desc.EntryScript),
		Interpreter:    c.desc.InterpreterOrDefault(),
		ModuleDir:      ModuleDirName,
		OneFile:        oneFile,
		ShowConsole:    flags.ShowConsoleWindow,
		CreatedAt:      time.Now().UTC(),
	}

	if archive {
		if err := c.placeArchive(staging, stubPath, oneFile, manifest); err != nil {
			return err
		}
	} else {
		if err := c.writePayloadTree(staging, false); err != nil {
			return err
		}
	}

	// Data entries live in the collection tree except in one-file mode,
	// where the payload archive carries them.
	if !oneFile {
		if err := c.placeEntries(staging); err != nil {
			return err
		}
	}

	if err := c.recordFiles(staging, manifest); err != nil {
		return err
	}
	return manifest.Write(staging)
}

// placeArchive packs the payload tree into a single compressed archive and
// either appends it to the stub (one-file) or writes it beside the stub.
func (c *Collector) placeArchive(staging, stubPath string, oneFile bool, manifest *Manifest) error {
	payloadRoot, err := os.MkdirTemp("", "cryo-payload-")
	if err != nil {
		return fmt.Errorf("creating payload root: %w", err)
	}
	defer os.RemoveAll(payloadRoot)

	if err := c.writePayloadTree(payloadRoot, oneFile); err != nil {
		return err
	}

	chainStr := c.opts.Chain
	if chainStr == "" {
		chainStr = DefaultChain
	}
	ops, err := operations.ParseChain(chainStr)
	if err != nil {
		return err
	}
	chain := operations.ChainString(ops)
	manifest.PayloadChain = chain

	// A one-file stub extracts the payload far away from the collection
	// directory, so the payload carries its own manifest copy.
	if oneFile {
		if err := manifest.Write(payloadRoot); err != nil {
			return err
		}
	}

	raw, err := bundle.PackDirectory(payloadRoot)
	if err != nil {
		return fmt.Errorf("packing payload: %w", err)
	}
	c.logger.Debug("Packing payload", "raw_size", len(raw),
		"estimated_size", operations.EstimateChain(int64(len(raw)), ops))
	packed, err := operations.ApplyChain(raw, ops)
	if err != nil {
		return err
	}
	c.logger.Info("📦 Payload archived", "raw_size", len(raw), "packed_size", len(packed), "chain", chain)

	if oneFile {
		f, err := os.OpenFile(stubPath, os.O_WRONLY|os.O_APPEND, 0)
		if err != nil {
			return fmt.Errorf("opening stub for payload: %w", err)
		}
		if err := payload.Append(f, packed, chain); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}

	archiveName := c.desc.OutputName + ".pkg"
	manifest.PayloadArchive = archiveName
	return os.WriteFile(filepath.Join(staging, archiveName), packed, permissions.DefaultFilePerms)
}

// writePayloadTree copies the entry script and every resolved module under
// root. With includeEntries set (one-file mode), data and binary entries
// are copied into the tree as well.
func (c *Collector) writePayloadTree(root string, includeEntries bool) error {
	entryDest := filepath.Join(root, filepath.Base(c.desc.EntryScript))
	if err := copyFile(c.desc.EntryScript, entryDest, permissions.DefaultFilePerms); err != nil {
		return err
	}

	moduleDir := filepath.Join(root, ModuleDirName)
	for _, m := range c.result.Modules {
		dest := filepath.Join(moduleDir, m.Name)
		if m.IsPackage {
			if err := copyTree(m.Path, dest); err != nil {
				return fmt.Errorf("copying package %s: %w", m.Name, err)
			}
		} else {
			if err := copyFile(m.Path, dest+".py", permissions.DefaultFilePerms); err != nil {
				return fmt.Errorf("copying module %s: %w", m.Name, err)
			}
		}
		c.logger.Debug("🧩 Bundled module", "module", m.Name, "package", m.IsPackage)
	}

	if includeEntries {
		return c.placeEntries(root)
	}
	return nil
}

// placeEntries copies extra data and binary entries to their declared
// destinations under root.
func (c *Collector) placeEntries(root string) error {
	place := func(e descriptor.DataEntry, defaultPerms fs.FileMode) error {
		perms := defaultPerms
		if e.Permissions != "" {
			parsed, err := permissions.ParseOctalString(e.Permissions)
			if err != nil {
				return err
			}
			perms = parsed
		}

		dest := filepath.Join(root, filepath.FromSlash(e.DestPath()))
		info, err := os.Stat(e.Source)
		if err != nil {
			return fmt.Errorf("%w: %s", ferrors.ErrMissingSourcePath, e.Source)
		}
		if info.IsDir() {
			return copyTree(e.Source, dest)
		}
		return copyFile(e.Source, dest, perms)
	}

	for _, e := range c.desc.ExtraData {
		if err := place(e, permissions.DefaultFilePerms); err != nil {
			return err
		}
		c.logger.Debug("🗂️ Placed data entry", "source", e.Source, "dest", e.DestPath())
	}
	for _, e := range c.desc.ExtraBinaries {
		if err := place(e, permissions.DefaultExecutablePerms); err != nil {
			return err
		}
		c.logger.Debug("🗂️ Placed binary entry", "source", e.Source, "dest", e.DestPath())
	}
	return nil
}

// recordFiles walks the staging tree and records every file with size and
// checksum. The manifest itself is written afterwards and excluded.
func (c *Collector) recordFiles(staging string, manifest *Manifest) error {
	return filepath.WalkDir(staging, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(staging, path)
		if err != nil {
			return err
		}
		if rel == ManifestName {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		manifest.Files = append(manifest.Files, FileEntry{
			Path:     filepath.ToSlash(rel),
			Size:     int64(len(data)),
			Checksum: CalculateChecksum(data, ChecksumSHA256),
		})
		return nil
	})
}

// iconPath returns the source of the first .ico data entry destined for
// the collection root, used as the stub's application icon on Windows.
func (c *Collector) iconPath() string {
	for _, e := range c.desc.ExtraData {
		if strings.EqualFold(filepath.Ext(e.Source), ".ico") && e.DestPath() == filepath.Base(e.Source) {
			return e.Source
		}
	}
	return ""
}

// stubName appends the platform executable suffix to the output name.
func stubName(outputName string) string {
	if runtime.GOOS == "windows" {
		return outputName + ".exe"
	}
	return outputName
}

// copyFile copies src to dst with the given permissions, creating parent
// directories as needed.
func copyFile(src, dst string, perms fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dst), permissions.DefaultDirPerms); err != nil {
		return fmt.Errorf("creating parent of %s: %w", dst, err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perms)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying %s: %w", src, err)
	}
	return out.Close()
}

// copyTree copies a directory tree, preserving file permission bits.
func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			return os.MkdirAll(target, permissions.DefaultDirPerms)
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return fmt.Errorf("unsupported file type: %s", path)
		}
		return copyFile(path, target, info.Mode().Perm())
	})
}
