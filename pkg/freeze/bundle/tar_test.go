package bundle

import (
	"archive/tar"
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestPackExtractRoundTrip(t *testing.T) {
	src := t.TempDir()

	files := map[string]string{
		"app.py":               "print('hi')\n",
		"modules/pkg/a.py":     "A = 1\n",
		"modules/pkg/sub/b.py": "B = 2\n",
	}
	for name, content := range files {
		path := filepath.Join(src, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	data, err := PackDirectory(src)
	if err != nil {
		t.Fatalf("PackDirectory: %v", err)
	}

	dest := t.TempDir()
	if err := Extract(data, dest); err != nil {
		t.Fatalf("Extract: %v", err)
	}

	for name, content := range files {
		got, err := os.ReadFile(filepath.Join(dest, filepath.FromSlash(name)))
		if err != nil {
			t.Fatalf("reading extracted %s: %v", name, err)
		}
		if string(got) != content {
			t.Errorf("%s = %q, want %q", name, got, content)
		}
	}
}

func TestPackDeterministic(t *testing.T) {
	src := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "f.txt"), []byte("stable"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	first, err := PackDirectory(src)
	if err != nil {
		t.Fatalf("PackDirectory: %v", err)
	}
	second, err := PackDirectory(src)
	if err != nil {
		t.Fatalf("PackDirectory: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("identical trees produced different archives")
	}
}

func TestExtractRejectsEscape(t *testing.T) {
	// Hand-build an archive with a hostile member name.
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	content := []byte("x")
	if err := tw.WriteHeader(&tar.Header{Name: "../evil.txt", Mode: 0o644, Size: int64(len(content))}); err != nil {
		t.Fatalf("writing header: %v", err)
	}
	if _, err := tw.Write(content); err != nil {
		t.Fatalf("writing member: %v", err)
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("closing writer: %v", err)
	}

	if err := Extract(buf.Bytes(), t.TempDir()); err == nil {
		t.Error("Extract accepted escaping member name")
	}
}
