package collect

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	ferrors "github.com/cryopack/cryo/pkg/freeze/errors"
)

func TestParseChecksum(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantAlgo ChecksumAlgorithm
		wantHex  string
		wantErr  bool
	}{
		{name: "sha256 prefixed", input: "sha256:c0ffee", wantAlgo: ChecksumSHA256, wantHex: "c0ffee"},
		{name: "adler32 prefixed", input: "adler32:babe1337", wantAlgo: ChecksumAdler32, wantHex: "babe1337"},
		{name: "legacy unprefixed", input: "deadbeef", wantAlgo: ChecksumSHA256, wantHex: "deadbeef"},
		{name: "unknown algorithm", input: "md5:aaaa", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			algo, hexVal, err := ParseChecksum(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseChecksum(%q) succeeded, want error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseChecksum(%q): %v", tt.input, err)
			}
			if algo != tt.wantAlgo || hexVal != tt.wantHex {
				t.Errorf("ParseChecksum(%q) = %v, %q", tt.input, algo, hexVal)
			}
		})
	}
}

func TestVerifyChecksum(t *testing.T) {
	data := []byte("frozen frames")

	for _, algo := range []ChecksumAlgorithm{ChecksumSHA256, ChecksumAdler32} {
		sum := CalculateChecksum(data, algo)
		if !strings.HasPrefix(sum, algo.String()+":") {
			t.Fatalf("CalculateChecksum(%v) = %q, missing prefix", algo, sum)
		}

		ok, err := VerifyChecksum(data, sum)
		if err != nil || !ok {
			t.Errorf("VerifyChecksum(%v) = %v, %v", algo, ok, err)
		}
		ok, err = VerifyChecksum([]byte("tampered"), sum)
		if err != nil || ok {
			t.Errorf("VerifyChecksum(%v) accepted tampered data", algo)
		}
	}
}

func TestVerifyFiles(t *testing.T) {
	dir := t.TempDir()
	data := []byte("H = 1\n")
	if err := os.WriteFile(filepath.Join(dir, "helper.py"), data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	m := &Manifest{Files: []FileEntry{{
		Path:     "helper.py",
		Size:     int64(len(data)),
		Checksum: CalculateChecksum(data, ChecksumSHA256),
	}}}

	if err := VerifyFiles(dir, m); err != nil {
		t.Fatalf("VerifyFiles: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "helper.py"), []byte("H = 2\n"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if err := VerifyFiles(dir, m); !errors.Is(err, ferrors.ErrChecksumMismatch) {
		t.Errorf("VerifyFiles = %v, want ErrChecksumMismatch", err)
	}
}
