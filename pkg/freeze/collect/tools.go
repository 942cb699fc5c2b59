package collect

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/hashicorp/go-hclog"

	"github.com/cryopack/cryo/pkg/utils/cmdline"
)

// Default external tool invocations. Overridable via CRYO_STRIP_CMD and
// CRYO_UPX_CMD, parsed with shell word splitting.
const (
	defaultStripCmd = "strip"
	defaultUPXCmd   = "upx --best"
)

// runTool invokes an external post-processing tool on the stub executable.
// A missing tool is a warning, not a build failure; a tool that runs and
// fails aborts the build.
func runTool(name, envVar, defaultCmd, target string, logger hclog.Logger) error {
	cmdStr := defaultCmd
	if override := os.Getenv(envVar); override != "" {
		cmdStr = override
	}

	args, err := cmdline.Split(cmdStr)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", envVar, err)
	}
	if len(args) == 0 {
		return fmt.Errorf("parsing %s: empty command", envVar)
	}

	tool, err := exec.LookPath(args[0])
	if err != nil {
		logger.Warn("⚠️ Tool not found, skipping", "tool", name, "command", args[0])
		return nil
	}

	args = append(args[1:], target)
	logger.Info("🔧 Running tool", "tool", name, "path", tool, "args", args)

	cmd := exec.Command(tool, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s failed: %w: %s", name, err, output)
	}
	logger.Debug("✅ Tool finished", "tool", name)
	return nil
}

// stripSymbols strips debug symbols from the stub executable.
func stripSymbols(target string, logger hclog.Logger) error {
	return runTool("strip", "CRYO_STRIP_CMD", defaultStripCmd, target, logger)
}

// compressWithUPX compresses the stub executable with UPX.
func compressWithUPX(target string, logger hclog.Logger) error {
	return runTool("upx", "CRYO_UPX_CMD", defaultUPXCmd, target, logger)
}
