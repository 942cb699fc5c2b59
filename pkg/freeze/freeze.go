// Package freeze ties the build pipeline together: load a descriptor from a
// spec file, validate it, analyze the import graph, and collect the frozen
// output.
package freeze

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/cryopack/cryo/pkg/freeze/analysis"
	"github.com/cryopack/cryo/pkg/freeze/collect"
	"github.com/cryopack/cryo/pkg/freeze/specfile"
	"github.com/cryopack/cryo/pkg/logging"
)

// Options controls a freeze run.
type Options struct {
	SpecPath    string // HCL spec file or JSON manifest
	OutputDir   string // directory the collection is created under
	LauncherBin string // stub binary; falls back to CRYO_LAUNCHER_BIN
	Chain       string // operation chain for archived payloads
	DryRun      bool   // analyze and report, but collect nothing
}

// Run executes the full pipeline and returns the collection path. In dry-run
// mode the returned path is empty.
func Run(opts Options, logger hclog.Logger) (string, error) {
	logger.Info("🧾 Loading build descriptor", "path", opts.SpecPath)
	d, err := specfile.LoadFile(opts.SpecPath)
	if err != nil {
		return "", err
	}

	if err := d.Validate(); err != nil {
		logger.Error("Descriptor validation failed", "error", err)
		return "", err
	}
	logger.Debug("Descriptor valid",
		"entry", d.EntryScript,
		"hidden", len(d.HiddenImports),
		"excluded", len(d.ExcludedModules))

	result, err := analysis.Analyze(d, logger)
	if err != nil {
		logger.Error("Import analysis failed", "error", err)
		return "", err
	}
	logger.Info("🔍 Analysis complete", "modules", len(result.Modules))

	if opts.DryRun {
		for _, m := range result.Modules {
			logger.Info("Would freeze", "module", m.Name, "path", m.Path, "package", m.IsPackage)
		}
		logger.Info("🧪 Dry run, skipping collection")
		return "", nil
	}

	c := collect.New(d, result, collect.Options{
		OutputDir:   opts.OutputDir,
		LauncherBin: opts.LauncherBin,
		Chain:       opts.Chain,
	}, logger)

	path, err := c.Collect()
	if err != nil {
		logger.Error("Collection failed", "error", err)
		return "", err
	}
	logger.Info("✅ Collection complete", "path", path)
	return path, nil
}

// RunWithLogLevel runs the pipeline with explicit log level control.
func RunWithLogLevel(opts Options, cliLogLevel string) (string, error) {
	logger := newFreezerLogger(cliLogLevel)
	logger.Info("❄️❄️❄️ Hello from the cryo freezer ❄️❄️❄️")
	return Run(opts, logger)
}

// newFreezerLogger resolves the log level from the CLI flag, then
// CRYO_FREEZER_LOG_LEVEL, then CRYO_LOG_LEVEL. A "json" or "json:level"
// value switches to JSON output.
func newFreezerLogger(cliLogLevel string) hclog.Logger {
	var logLevel string
	var logSource string

	if cliLogLevel != "" {
		logLevel = cliLogLevel
		logSource = "CLI --log-level"
	} else if envLevel := os.Getenv("CRYO_FREEZER_LOG_LEVEL"); envLevel != "" {
		logLevel = envLevel
		logSource = "CRYO_FREEZER_LOG_LEVEL"
	} else if envLevel := os.Getenv("CRYO_LOG_LEVEL"); envLevel != "" {
		logLevel = envLevel
		logSource = "CRYO_LOG_LEVEL"
	} else {
		logLevel = "info"
		logSource = "default"
	}

	jsonFormat := false
	actualLevel := logLevel
	if strings.HasPrefix(logLevel, "json") {
		jsonFormat = true
		parts := strings.Split(logLevel, ":")
		if len(parts) > 1 {
			actualLevel = parts[1]
		} else {
			actualLevel = "info"
		}
	}

	var output io.Writer = os.Stderr
	if logPath := os.Getenv("CRYO_LOG_PATH"); logPath != "" {
		if file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err == nil {
			output = file
		}
	}
	if !jsonFormat {
		output = logging.NewPrefixWriter("❄️ ", output)
	}

	logger := hclog.New(&hclog.LoggerOptions{
		Name:       "cryo",
		Level:      hclog.LevelFromString(actualLevel),
		JSONFormat: jsonFormat,
		Output:     output,
		TimeFormat: "2006-01-02T15:04:05Z", // UTC ISO format without timezone
		TimeFn: func() time.Time {
			return time.Now().UTC()
		},
	})
	logger.Debug("Log level", "level", actualLevel, "source", logSource)
	return logger
}
