package operations_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/cryopack/cryo/pkg/freeze/operations"
	_ "github.com/cryopack/cryo/pkg/freeze/operations/compress"
)

func TestParseChain(t *testing.T) {
	tests := []struct {
		name    string
		chain   string
		want    string
		wantErr bool
	}{
		{name: "empty is raw", chain: "", want: "raw"},
		{name: "raw", chain: "raw", want: "raw"},
		{name: "gzip", chain: "gzip", want: "gzip"},
		{name: "gz alias", chain: "gz", want: "gzip"},
		{name: "bz2 alias", chain: "bz2", want: "bzip2"},
		{name: "pipe form", chain: "gzip|bzip2", want: "gzip|bzip2"},
		{name: "mixed case", chain: "GZIP", want: "gzip"},
		{name: "unknown name", chain: "upx", wantErr: true},
		{name: "unknown in pipe", chain: "gzip|lzma", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ops, err := operations.ParseChain(tt.chain)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseChain(%q) succeeded, want error", tt.chain)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseChain(%q) error: %v", tt.chain, err)
			}
			if got := operations.ChainString(ops); got != tt.want {
				t.Errorf("ChainString = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestChainRoundTrip(t *testing.T) {
	payload := []byte(strings.Repeat("frozen planetary frames\n", 512))

	for _, chain := range []string{"raw", "gzip", "bzip2", "gzip|bzip2"} {
		t.Run(chain, func(t *testing.T) {
			ops, err := operations.ParseChain(chain)
			if err != nil {
				t.Fatalf("ParseChain: %v", err)
			}

			packed, err := operations.ApplyChain(payload, ops)
			if err != nil {
				t.Fatalf("ApplyChain: %v", err)
			}
			if chain != "raw" && bytes.Equal(packed, payload) {
				t.Error("chain did not transform payload")
			}

			restored, err := operations.ReverseChain(packed, ops)
			if err != nil {
				t.Fatalf("ReverseChain: %v", err)
			}
			if !bytes.Equal(restored, payload) {
				t.Error("reversed payload differs from original")
			}
		})
	}
}

func TestEstimateChain(t *testing.T) {
	raw, err := operations.ParseChain("raw")
	if err != nil {
		t.Fatalf("ParseChain: %v", err)
	}
	if got := operations.EstimateChain(10_000, raw); got != 10_000 {
		t.Errorf("EstimateChain(raw) = %d, want identity", got)
	}

	gz, err := operations.ParseChain("gzip")
	if err != nil {
		t.Fatalf("ParseChain: %v", err)
	}
	est := operations.EstimateChain(10_000, gz)
	if est <= 0 || est >= 10_000 {
		t.Errorf("EstimateChain(gzip, 10000) = %d, want a positive reduction", est)
	}

	// Chained estimates feed forward.
	both, err := operations.ParseChain("gzip|bzip2")
	if err != nil {
		t.Fatalf("ParseChain: %v", err)
	}
	if chained := operations.EstimateChain(10_000, both); chained >= est {
		t.Errorf("EstimateChain(gzip|bzip2) = %d, want below gzip estimate %d", chained, est)
	}
}

func TestUnknownOperation(t *testing.T) {
	if _, err := operations.Get("zstd"); err == nil {
		t.Error("Get(zstd) succeeded, want error")
	}
}
