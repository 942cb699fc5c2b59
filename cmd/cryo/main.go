package main

import (
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/spf13/cobra"

	"github.com/cryopack/cryo/pkg"
	"github.com/cryopack/cryo/pkg/freeze"
)

const version = "0.1.0"

var (
	specPath     string
	outputDir    string
	launcherBin  string
	chain        string
	logLevel     string
	dryRun       bool
	validateOnly bool
	versionFlag  bool
	rootCmd      *cobra.Command
)

func getBuildTimestamp() string {
	// Try to get vcs.time from build info
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.time" {
				if t, err := time.Parse(time.RFC3339, setting.Value); err == nil {
					return t.UTC().Format(time.RFC3339)
				}
			}
		}
	}
	// Fallback to binary modification time
	if exePath, err := os.Executable(); err == nil {
		if stat, err := os.Stat(exePath); err == nil {
			return stat.ModTime().UTC().Format(time.RFC3339)
		}
	}
	return time.Now().UTC().Format(time.RFC3339)
}

func init() {
	rootCmd = &cobra.Command{
		Use:   "cryo",
		Short: "Freeze Python applications into self-contained collections",
		Long:  `Freeze Python applications into self-contained collections`,
		Run:   runFreeze,
	}

	rootCmd.Flags().StringVarP(&specPath, "spec", "s", "", "Path to spec file (*.hcl or *.json, required)")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory for the collection (required)")
	rootCmd.Flags().StringVar(&launcherBin, "launcher-bin", "", "Path to stub launcher binary")
	rootCmd.Flags().StringVar(&chain, "chain", "", "Payload operation chain (raw, gzip, bzip2, or a|b)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Analyze the spec and report, build nothing")
	rootCmd.Flags().BoolVar(&validateOnly, "validate", false, "Only validate the spec file")
	rootCmd.Flags().BoolVarP(&versionFlag, "version", "V", false, "Show version information")

	if err := rootCmd.MarkFlagRequired("spec"); err != nil {
		panic(err)
	}
}

func main() {
	// Handle --version or -V before cobra parses other flags
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-V") {
		fmt.Printf("cryo %s\n", version)
		fmt.Printf("Built: %s\n", getBuildTimestamp())
		os.Exit(0)
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runFreeze(cmd *cobra.Command, args []string) {
	if versionFlag {
		fmt.Printf("cryo %s\n", version)
		fmt.Printf("Built: %s\n", getBuildTimestamp())
		return
	}

	if validateOnly {
		if err := pkg.ValidateSpec(specPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Printf("✅ %s is valid\n", specPath)
		return
	}

	if outputDir == "" && !dryRun {
		fmt.Fprintln(os.Stderr, "❌ --output is required unless --dry-run or --validate is set")
		os.Exit(1)
	}

	path, err := freeze.RunWithLogLevel(freeze.Options{
		SpecPath:    specPath,
		OutputDir:   outputDir,
		LauncherBin: launcherBin,
		Chain:       chain,
		DryRun:      dryRun,
	}, logLevel)
	if err != nil {
		os.Exit(1)
	}
	if !dryRun {
		fmt.Printf("📦 %s\n", path)
	}
}
