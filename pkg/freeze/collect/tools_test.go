package collect

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/hashicorp/go-hclog"
)

func toolTarget(t *testing.T) string {
	t.Helper()
	target := filepath.Join(t.TempDir(), "stub")
	if err := os.WriteFile(target, []byte("stub-binary"), 0o755); err != nil {
		t.Fatalf("write target: %v", err)
	}
	return target
}

func TestRunToolMissingToolSkips(t *testing.T) {
	t.Setenv("CRYO_STRIP_CMD", "cryo-no-such-tool-xyzzy")

	if err := stripSymbols(toolTarget(t), hclog.NewNullLogger()); err != nil {
		t.Errorf("stripSymbols with missing tool = %v, want skip", err)
	}
}

func TestRunToolFailureAborts(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on POSIX false(1)")
	}
	t.Setenv("CRYO_UPX_CMD", "false")

	if err := compressWithUPX(toolTarget(t), hclog.NewNullLogger()); err == nil {
		t.Error("compressWithUPX with failing tool succeeded, want error")
	}
}

func TestRunToolSuccess(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on POSIX true(1)")
	}
	t.Setenv("CRYO_STRIP_CMD", "true")

	if err := stripSymbols(toolTarget(t), hclog.NewNullLogger()); err != nil {
		t.Errorf("stripSymbols = %v", err)
	}
}

func TestCollectSkipsMissingUPX(t *testing.T) {
	t.Setenv("CRYO_STRIP_CMD", "cryo-no-such-tool-xyzzy")
	t.Setenv("CRYO_UPX_CMD", "cryo-no-such-tool-xyzzy")

	d, result, _ := fixture(t)
	d.Flags.StripSymbols = true
	d.Flags.CompressWithUPX = true

	// Absent tools are skipped with a warning; the build still completes.
	path := collectWith(t, d, result)
	if _, err := ReadManifest(path); err != nil {
		t.Errorf("ReadManifest after skipped tools: %v", err)
	}
}

func TestRunToolBadOverrideRejected(t *testing.T) {
	t.Setenv("CRYO_UPX_CMD", `upx "--best`)

	if err := compressWithUPX(toolTarget(t), hclog.NewNullLogger()); err == nil {
		t.Error("unclosed quote in override accepted, want parse error")
	}
}
