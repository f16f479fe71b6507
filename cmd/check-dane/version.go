// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"os"
	"path/filepath"
	rtdebug "runtime/debug"
	"strings"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags "-X main.version=...".
var version string

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of check-dane",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("check-dane version %s\n", resolveVersion())
		return nil
	},
}

// resolveVersion returns the version string. Preference order: the
// build-time ldflags value, a VERSION file in the working directory or
// next to the binary, then the module version from build info.
func resolveVersion() string {
	if version != "" {
		return version
	}

	candidates := []string{"VERSION"}
	if execPath, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(execPath), "VERSION"))
	}
	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if v := strings.TrimSpace(string(data)); v != "" {
			return v
		}
	}

	if info, ok := rtdebug.ReadBuildInfo(); ok {
		if v := info.Main.Version; v != "" && v != "(devel)" {
			return v
		}
	}
	return "unknown"
}
