// Package misc holds small helpers which do not belong anywhere else.
package misc

import (
	"runtime/debug"
)

const appName = "demc"

// GetAppName returns program name to be used in logs and file names.
func GetAppName() string {
	return appName
}

// GetVersion returns main module version recorded by the build system.
func GetVersion() string {
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" {
		return bi.Main.Version
	}
	return "(devel)"
}

// GetGitHash returns VCS revision recorded by the build system, shortened to
// the usual 12 characters.
func GetGitHash() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	for _, s := range bi.Settings {
		if s.Key == "vcs.revision" {
			if len(s.Value) > 12 {
				return s.Value[:12]
			}
			return s.Value
		}
	}
	return "unknown"
}
