// Package launch implements the stub executable's runtime: locating the
// frozen application next to (or inside) the running binary, restoring an
// archived payload into the extraction cache, and handing control to the
// configured interpreter.
package launch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/cryopack/cryo/internal/workenv"
	"github.com/cryopack/cryo/pkg/freeze/bundle"
	"github.com/cryopack/cryo/pkg/freeze/collect"
	ferrors "github.com/cryopack/cryo/pkg/freeze/errors"
	"github.com/cryopack/cryo/pkg/freeze/operations"
	_ "github.com/cryopack/cryo/pkg/freeze/operations/compress"
	"github.com/cryopack/cryo/pkg/freeze/payload"
)

// app is a resolved, runnable frozen application.
type app struct {
	manifest *collect.Manifest
	root     string // directory holding entry script and module dir
}

// Launch resolves the frozen application for the stub at exePath and runs
// it with the given arguments. The interpreter's exit code is returned.
func Launch(exePath string, args []string, logger hclog.Logger) (int, error) {
	a, err := resolve(exePath, logger)
	if err != nil {
		return 0, err
	}
	return a.run(args, logger)
}

// resolve locates the application: an embedded one-file payload wins, then
// the collection manifest beside the executable.
func resolve(exePath string, logger hclog.Logger) (*app, error) {
	info, err := payload.Find(exePath)
	if err == nil {
		return resolveEmbedded(exePath, info, logger)
	}
	if !errors.Is(err, ferrors.ErrNoPayload) {
		return nil, err
	}

	dir := filepath.Dir(exePath)
	m, err := collect.ReadManifest(dir)
	if err != nil {
		return nil, err
	}

	if m.PayloadArchive == "" {
		logger.Debug("🗃️ Running from plain collection", "dir", dir)
		if err := collect.VerifyFiles(dir, m); err != nil {
			return nil, err
		}
		return &app{manifest: m, root: dir}, nil
	}

	packed, err := os.ReadFile(filepath.Join(dir, m.PayloadArchive))
	if err != nil {
		return nil, fmt.Errorf("reading payload archive: %w", err)
	}
	checksum := strings.TrimPrefix(collect.CalculateChecksum(packed, collect.ChecksumSHA256), "sha256:")

	root, err := restore(m.CollectionName, checksum, packed, m.PayloadChain, logger)
	if err != nil {
		return nil, err
	}
	return &app{manifest: m, root: root}, nil
}

// resolveEmbedded extracts a one-file payload into the cache and reads the
// manifest copy the payload carries.
func resolveEmbedded(exePath string, info *payload.Info, logger hclog.Logger) (*app, error) {
	logger.Debug("🧊 Found embedded payload", "size", info.Size, "chain", info.Chain)

	packed, err := payload.Read(exePath, info)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSuffix(filepath.Base(exePath), ".exe")
	root, err := restore(name, info.HexChecksum(), packed, info.Chain, logger)
	if err != nil {
		return nil, err
	}

	m, err := collect.ReadManifest(root)
	if err != nil {
		return nil, err
	}
	return &app{manifest: m, root: root}, nil
}

// restore materializes a packed payload in the extraction cache, reusing a
// previous extraction when its checksum still matches.
func restore(name, checksum string, packed []byte, chain string, logger hclog.Logger) (string, error) {
	instance := workenv.InstancePath(name, checksum)

	if workenv.IsValid(instance, name, checksum) {
		logger.Debug("♻️ Reusing cached extraction", "dir", instance)
		return instance, nil
	}

	ops, err := operations.ParseChain(chain)
	if err != nil {
		return "", err
	}
	raw, err := operations.ReverseChain(packed, ops)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ferrors.ErrExtractionFailed, err)
	}

	// Extract into a fresh directory, then mark it complete; a crashed
	// extraction is retried from scratch next launch.
	if err := os.RemoveAll(instance); err != nil {
		return "", fmt.Errorf("%w: clearing stale extraction: %v", ferrors.ErrExtractionFailed, err)
	}
	if err := os.MkdirAll(instance, 0o700); err != nil {
		return "", fmt.Errorf("%w: creating extraction dir: %v", ferrors.ErrExtractionFailed, err)
	}
	if err := bundle.Extract(raw, instance); err != nil {
		os.RemoveAll(instance)
		return "", fmt.Errorf("%w: %v", ferrors.ErrExtractionFailed, err)
	}
	if err := workenv.MarkComplete(instance, name, checksum); err != nil {
		os.RemoveAll(instance)
		return "", fmt.Errorf("%w: %v", ferrors.ErrExtractionFailed, err)
	}

	logger.Info("📂 Payload extracted", "dir", instance, "size", len(raw))
	return instance, nil
}

// run executes the interpreter on the frozen entry script and returns its
// exit code.
func (a *app) run(args []string, logger hclog.Logger) (int, error) {
	m := a.manifest

	entry := filepath.Join(a.root, filepath.FromSlash(m.EntryScript))
	if _, err := os.Stat(entry); err != nil {
		return 0, fmt.Errorf("frozen entry script missing: %w", err)
	}

	moduleDir := filepath.Join(a.root, m.ModuleDir)
	env := append(os.Environ(),
		"CRYO_BUNDLE_DIR="+a.root,
		"PYTHONPATH="+prependPath(os.Getenv("PYTHONPATH"), a.root, moduleDir),
	)

	argv := append([]string{entry}, args...)
	logger.Info("🚀 Launching frozen application", "interpreter", m.Interpreter, "entry", entry)

	code, err := spawn(m.Interpreter, argv, env, m.ShowConsole)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ferrors.ErrExecutionFailed, err)
	}
	return code, nil
}

// prependPath joins dirs ahead of an existing list-style env value.
func prependPath(existing string, dirs ...string) string {
	parts := append([]string{}, dirs...)
	if existing != "" {
		parts = append(parts, existing)
	}
	return strings.Join(parts, string(os.PathListSeparator))
}
