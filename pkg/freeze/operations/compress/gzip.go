// Package compress registers the compression operations available to
// payload chains.
package compress

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/cryopack/cryo/pkg/freeze/operations"
)

func init() {
	operations.Register(&GzipOperation{})
}

// GzipOperation implements GZIP compression
type GzipOperation struct{}

func (o *GzipOperation) Name() string { return "gzip" }

// Apply compresses data using GZIP
func (o *GzipOperation) Apply(input []byte) ([]byte, error) {
	var buf bytes.Buffer

	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(input); err != nil {
		gw.Close()
		return nil, fmt.Errorf("writing gzip data: %w", err)
	}
	if err := gw.Close(); err != nil {
		return nil, fmt.Errorf("closing gzip writer: %w", err)
	}

	return buf.Bytes(), nil
}

// Reverse decompresses GZIP data
func (o *GzipOperation) Reverse(input []byte) ([]byte, error) {
	gr, err := gzip.NewReader(bytes.NewReader(input))
	if err != nil {
		return nil, fmt.Errorf("creating gzip reader: %w", err)
	}
	defer gr.Close()

	data, err := io.ReadAll(gr)
	if err != nil {
		return nil, fmt.Errorf("reading gzip data: %w", err)
	}
	return data, nil
}

// EstimateSize estimates compressed size
func (o *GzipOperation) EstimateSize(inputSize int64) int64 {
	// Conservative 80% for mixed binary data
	return (inputSize*8)/10 + 18 // +18 for gzip header/trailer
}
