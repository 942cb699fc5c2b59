// Package operations provides the payload transformation chain used when a
// collection packs its module payload into a single archive. Operations are
// registered by name and applied in order; reversing a chain restores the
// original bytes.
package operations

import (
	"fmt"
	"strings"
)

// Operation is a single reversible byte transformation.
type Operation interface {
	// Name returns the identifier used in chain strings and manifests
	Name() string

	// Apply transforms input data
	Apply(input []byte) ([]byte, error)

	// Reverse undoes the transformation
	Reverse(input []byte) ([]byte, error)

	// EstimateSize estimates the output size given input size
	EstimateSize(inputSize int64) int64
}

// registry maps operation names to implementations
var registry = make(map[string]Operation)

// Register registers an operation implementation. Compression packages
// register themselves on init.
func Register(op Operation) {
	registry[op.Name()] = op
}

// Get retrieves an operation by name.
func Get(name string) (Operation, error) {
	op, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown operation: %s", name)
	}
	return op, nil
}

// aliases for common chain spellings
var aliases = map[string][]string{
	"":      {},
	"raw":   {},
	"gz":    {"gzip"},
	"bz2":   {"bzip2"},
	"gzip":  {"gzip"},
	"bzip2": {"bzip2"},
}

// ParseChain parses a chain string into operations. Accepts a named alias
// ("gzip", "bz2", "raw") or a pipe-separated list ("gzip|bzip2").
func ParseChain(chain string) ([]Operation, error) {
	chain = strings.ToLower(strings.TrimSpace(chain))

	names, ok := aliases[chain]
	if !ok {
		if !strings.Contains(chain, "|") {
			return nil, fmt.Errorf("unknown operation chain: %s", chain)
		}
		for _, part := range strings.Split(chain, "|") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			names = append(names, part)
		}
	}

	ops := make([]Operation, 0, len(names))
	for _, name := range names {
		op, err := Get(name)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// ChainString renders a chain back to its canonical pipe form.
func ChainString(ops []Operation) string {
	if len(ops) == 0 {
		return "raw"
	}
	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = op.Name()
	}
	return strings.Join(names, "|")
}

// EstimateChain estimates the packed size of inputSize bytes run through
// the chain, feeding each operation's estimate into the next.
func EstimateChain(inputSize int64, ops []Operation) int64 {
	size := inputSize
	for _, op := range ops {
		size = op.EstimateSize(size)
	}
	return size
}

// ApplyChain applies a chain of operations to data in order.
func ApplyChain(data []byte, ops []Operation) ([]byte, error) {
	current := data
	for _, op := range ops {
		result, err := op.Apply(current)
		if err != nil {
			return nil, fmt.Errorf("applying %s: %w", op.Name(), err)
		}
		current = result
	}
	return current, nil
}

// ReverseChain reverses a chain of operations on data, last operation first.
func ReverseChain(data []byte, ops []Operation) ([]byte, error) {
	current := data
	for i := len(ops) - 1; i >= 0; i-- {
		result, err := ops[i].Reverse(current)
		if err != nil {
			return nil, fmt.Errorf("reversing %s: %w", ops[i].Name(), err)
		}
		current = result
	}
	return current, nil
}
