package launch

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"

	"github.com/cryopack/cryo/pkg/freeze/analysis"
	"github.com/cryopack/cryo/pkg/freeze/collect"
	"github.com/cryopack/cryo/pkg/freeze/descriptor"
	ferrors "github.com/cryopack/cryo/pkg/freeze/errors"
)

// buildCollection freezes a minimal app with the given flags and returns
// the collection path and stub path.
func buildCollection(t *testing.T, mutate func(*descriptor.Descriptor)) (string, string) {
	t.Helper()
	src := t.TempDir()

	entry := filepath.Join(src, "app.py")
	if err := os.WriteFile(entry, []byte("import helper\n"), 0o644); err != nil {
		t.Fatalf("write entry: %v", err)
	}
	if err := os.WriteFile(filepath.Join(src, "helper.py"), []byte("H = 1\n"), 0o644); err != nil {
		t.Fatalf("write helper: %v", err)
	}

	launcher := filepath.Join(t.TempDir(), "cryo-run")
	if err := os.WriteFile(launcher, []byte("stub-binary"), 0o755); err != nil {
		t.Fatalf("write launcher: %v", err)
	}

	d := descriptor.New()
	d.SetEntryPoint(entry)
	d.AddSearchPath(src)
	d.OutputName = "app"
	d.CollectionName = "app-dist"
	if mutate != nil {
		mutate(d)
	}
	if err := d.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	result, err := analysis.Analyze(d, hclog.NewNullLogger())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	c := collect.New(d, result, collect.Options{OutputDir: t.TempDir(), LauncherBin: launcher}, hclog.NewNullLogger())
	path, err := c.Collect()
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	stub := filepath.Join(path, "app")
	if _, err := os.Stat(stub); err != nil {
		stub = filepath.Join(path, "app.exe")
	}
	return path, stub
}

func TestResolvePlainCollection(t *testing.T) {
	path, stub := buildCollection(t, nil)

	a, err := resolve(stub, hclog.NewNullLogger())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if a.root != path {
		t.Errorf("root = %q, want collection dir %q", a.root, path)
	}
	if a.manifest.EntryScript != "app.py" {
		t.Errorf("EntryScript = %q", a.manifest.EntryScript)
	}
	if _, err := os.Stat(filepath.Join(a.root, "modules", "helper.py")); err != nil {
		t.Errorf("module not reachable from root: %v", err)
	}
}

func TestResolveRejectsTamperedCollection(t *testing.T) {
	path, stub := buildCollection(t, nil)

	// Corrupt a bundled module after assembly; the recorded checksum no
	// longer matches, so the stub must refuse to launch.
	module := filepath.Join(path, "modules", "helper.py")
	if err := os.WriteFile(module, []byte("H = 666\n"), 0o644); err != nil {
		t.Fatalf("tamper: %v", err)
	}

	if _, err := resolve(stub, hclog.NewNullLogger()); !errors.Is(err, ferrors.ErrChecksumMismatch) {
		t.Errorf("resolve = %v, want ErrChecksumMismatch", err)
	}
}

func TestResolveArchiveCollection(t *testing.T) {
	t.Setenv("CRYO_CACHE_DIR", t.TempDir())

	_, stub := buildCollection(t, func(d *descriptor.Descriptor) {
		d.Flags.SingleArchiveMode = true
	})

	a, err := resolve(stub, hclog.NewNullLogger())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	for _, rel := range []string{"app.py", "modules/helper.py"} {
		if _, err := os.Stat(filepath.Join(a.root, filepath.FromSlash(rel))); err != nil {
			t.Errorf("extraction missing %s: %v", rel, err)
		}
	}

	// Second resolve must reuse the cached extraction.
	again, err := resolve(stub, hclog.NewNullLogger())
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if again.root != a.root {
		t.Errorf("extraction not reused: %q vs %q", again.root, a.root)
	}
}

func TestResolveOneFile(t *testing.T) {
	t.Setenv("CRYO_CACHE_DIR", t.TempDir())

	_, stub := buildCollection(t, func(d *descriptor.Descriptor) {
		d.Flags.ExcludeBinariesFromExecutable = false
	})

	a, err := resolve(stub, hclog.NewNullLogger())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !a.manifest.OneFile {
		t.Error("manifest should be marked one-file")
	}
	if _, err := os.Stat(filepath.Join(a.root, "app.py")); err != nil {
		t.Errorf("extraction missing entry script: %v", err)
	}
}

func TestPrependPath(t *testing.T) {
	sep := string(os.PathListSeparator)

	if got := prependPath("", "/a", "/b"); got != "/a"+sep+"/b" {
		t.Errorf("prependPath = %q", got)
	}
	if got := prependPath("/old", "/a"); got != "/a"+sep+"/old" {
		t.Errorf("prependPath with existing = %q", got)
	}
}
