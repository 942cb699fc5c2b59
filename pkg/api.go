package pkg

import (
	"github.com/cryopack/cryo/pkg/freeze"
	"github.com/cryopack/cryo/pkg/freeze/launch"
	"github.com/cryopack/cryo/pkg/freeze/specfile"
	"github.com/cryopack/cryo/pkg/logging"
)

// FreezePackage freezes the application described by specPath into a
// collection under outputDir and returns the collection path.
func FreezePackage(specPath, outputDir, launcherBin string) (string, error) {
	return freeze.RunWithLogLevel(freeze.Options{
		SpecPath:    specPath,
		OutputDir:   outputDir,
		LauncherBin: launcherBin,
	}, "")
}

// FreezePackageWithLogLevel is FreezePackage with explicit chain and log
// level control.
func FreezePackageWithLogLevel(specPath, outputDir, launcherBin, chain, logLevel string) (string, error) {
	return freeze.RunWithLogLevel(freeze.Options{
		SpecPath:    specPath,
		OutputDir:   outputDir,
		LauncherBin: launcherBin,
		Chain:       chain,
	}, logLevel)
}

// ValidateSpec loads a spec file and checks every descriptor invariant
// without building anything.
func ValidateSpec(specPath string) error {
	d, err := specfile.LoadFile(specPath)
	if err != nil {
		return err
	}
	return d.Validate()
}

// LaunchPackage runs the frozen application belonging to the stub at
// exePath and returns the interpreter's exit code.
func LaunchPackage(exePath string, args []string) (int, error) {
	logger := logging.NewLogger("cryo-run", logging.GetLogLevel(), nil)
	return launch.Launch(exePath, args, logger)
}
