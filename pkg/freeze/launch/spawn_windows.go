//go:build windows
// +build windows

package launch

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/windows"
)

// spawn runs the interpreter and returns its exit code. For windowed
// applications the child gets no console of its own.
func spawn(interpreter string, argv []string, env []string, showConsole bool) (int, error) {
	path, err := exec.LookPath(interpreter)
	if err != nil {
		return 0, fmt.Errorf("interpreter %s not found: %w", interpreter, err)
	}

	cmd := exec.Command(path, argv...)
	cmd.Env = env
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if !showConsole {
		cmd.SysProcAttr = &syscall.SysProcAttr{
			CreationFlags: windows.CREATE_NO_WINDOW,
		}
	}

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return 0, fmt.Errorf("running %s: %w", interpreter, err)
	}
	return 0, nil
}
