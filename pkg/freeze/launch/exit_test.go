package launch

import (
	"fmt"
	"testing"

	ferrors "github.com/cryopack/cryo/pkg/freeze/errors"
)

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "extraction failure",
			err:  fmt.Errorf("%w: short read", ferrors.ErrExtractionFailed),
			want: ExitExtractionError,
		},
		{
			name: "execution failure",
			err:  fmt.Errorf("%w: interpreter missing", ferrors.ErrExecutionFailed),
			want: ExitExecutionError,
		},
		{
			name: "checksum mismatch is a package error",
			err:  ferrors.ErrChecksumMismatch,
			want: ExitPackageError,
		},
		{
			name: "missing manifest is a package error",
			err:  ferrors.ErrManifestNotFound,
			want: ExitPackageError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCodeFor(tt.err); got != tt.want {
				t.Errorf("ExitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
