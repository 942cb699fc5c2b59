//go:build !windows
// +build !windows

package collect

import (
	"github.com/hashicorp/go-hclog"
)

// applyStubResources is a no-op on platforms without PE resources. Icon
// embedding and console-window control only apply to Windows stubs.
func applyStubResources(stubPath, iconPath string, showConsole bool, logger hclog.Logger) error {
	if iconPath != "" {
		logger.Debug("Icon embedding skipped on this platform", "icon", iconPath)
	}
	if !showConsole {
		logger.Debug("Console visibility is a Windows-only flag")
	}
	return nil
}
