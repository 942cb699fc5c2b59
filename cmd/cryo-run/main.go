package main

import (
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/cryopack/cryo/pkg"
	"github.com/cryopack/cryo/pkg/freeze/launch"
)

const version = "0.1.0"

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

func main() {
	// Set up panic recovery to return a specific exit code
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "PANIC: %v\n", r)
			debug.PrintStack()
			os.Exit(launch.ExitPanic)
		}
	}()

	// The stub never intercepts arguments; everything after argv[0] goes to
	// the frozen application. CRYO_STUB_CLI=1 enables the maintenance flags.
	if os.Getenv("CRYO_STUB_CLI") == "1" && len(os.Args) > 1 &&
		(os.Args[1] == "--version" || os.Args[1] == "-V") {
		fmt.Printf("cryo-run %s\n", version)
		fmt.Printf("Built: %s\n", getBuildTimestamp())
		os.Exit(0)
	}

	exePath, err := os.Executable()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to get executable path: %v\n", err)
		os.Exit(launch.ExitIOError)
	}

	code, err := pkg.LaunchPackage(exePath, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(launch.ExitCodeFor(err))
	}
	os.Exit(code)
}
