package launch

import (
	"errors"

	ferrors "github.com/cryopack/cryo/pkg/freeze/errors"
)

// Exit codes for different stub failure modes. Interpreter exit codes are
// propagated as-is; these only cover failures before the interpreter runs.
const (
	ExitPanic           = 101
	ExitPackageError    = 102
	ExitExtractionError = 103
	ExitExecutionError  = 104
	ExitIOError         = 106
)

// ExitCodeFor maps a Launch error to the stub exit code reported to the
// calling process. Anything not classified as an extraction or execution
// failure is a problem with the package itself.
func ExitCodeFor(err error) int {
	switch {
	case errors.Is(err, ferrors.ErrExtractionFailed):
		return ExitExtractionError
	case errors.Is(err, ferrors.ErrExecutionFailed):
		return ExitExecutionError
	default:
		return ExitPackageError
	}
}
