//go:build windows
// +build windows

package collect

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/tc-hib/winres"
)

// applyStubResources rewrites the stub executable's PE resources: embeds
// the application icon (when an .ico data entry targets the collection
// root) and, for windowed applications, flips the subsystem to GUI so no
// console window opens at launch.
func applyStubResources(stubPath, iconPath string, showConsole bool, logger hclog.Logger) error {
	if iconPath == "" && showConsole {
		return nil
	}

	input, err := os.Open(stubPath)
	if err != nil {
		return fmt.Errorf("opening stub for resources: %w", err)
	}

	rs, err := winres.LoadFromEXE(input)
	if err != nil {
		// Stub carries no resource section yet
		logger.Debug("Creating new resource set for stub")
		rs = &winres.ResourceSet{}
	}
	// Explicit close before rewriting: Windows locks open files.
	if err := input.Close(); err != nil {
		return fmt.Errorf("closing stub: %w", err)
	}

	if iconPath != "" {
		logger.Info("🖼️ Embedding application icon", "icon", iconPath)
		iconFile, err := os.Open(iconPath)
		if err != nil {
			return fmt.Errorf("opening icon %s: %w", iconPath, err)
		}
		icon, err := winres.LoadICO(iconFile)
		iconFile.Close()
		if err != nil {
			return fmt.Errorf("loading icon %s: %w", iconPath, err)
		}
		if err := rs.SetIcon(winres.Name("APPICON"), icon); err != nil {
			return fmt.Errorf("setting icon resource: %w", err)
		}
	}

	tmpPath := stubPath + ".tmp"
	input2, err := os.Open(stubPath)
	if err != nil {
		return fmt.Errorf("reopening stub: %w", err)
	}
	output, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o755)
	if err != nil {
		input2.Close()
		return fmt.Errorf("creating temporary stub: %w", err)
	}

	if err := rs.WriteToEXE(output, input2); err != nil {
		output.Close()
		input2.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing stub resources: %w", err)
	}
	if err := output.Close(); err != nil {
		input2.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("closing temporary stub: %w", err)
	}
	if err := input2.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing stub: %w", err)
	}

	if err := os.Rename(tmpPath, stubPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing stub: %w", err)
	}

	if !showConsole {
		logger.Info("🪟 Switching stub to GUI subsystem")
		if err := setGUISubsystem(stubPath); err != nil {
			return fmt.Errorf("setting GUI subsystem: %w", err)
		}
	}
	return nil
}

// setGUISubsystem patches the PE optional header subsystem field from
// console (3) to GUI (2).
func setGUISubsystem(exePath string) error {
	f, err := os.OpenFile(exePath, os.O_RDWR, 0)
	if err != nil {
		return err
	}
	defer f.Close()

	// e_lfanew at 0x3C points at the PE signature.
	var lfanew [4]byte
	if _, err := f.ReadAt(lfanew[:], 0x3C); err != nil {
		return err
	}
	peOffset := int64(uint32(lfanew[0]) | uint32(lfanew[1])<<8 | uint32(lfanew[2])<<16 | uint32(lfanew[3])<<24)

	// Subsystem lives at offset 68 of the optional header, which starts
	// after the 4-byte signature and 20-byte COFF header.
	subsystemOffset := peOffset + 4 + 20 + 68

	subsystem := []byte{2, 0} // IMAGE_SUBSYSTEM_WINDOWS_GUI
	if _, err := f.WriteAt(subsystem, subsystemOffset); err != nil {
		return err
	}
	return nil
}
