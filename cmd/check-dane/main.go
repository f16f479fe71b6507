// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"

	"github.com/jeremyhahn/check-dane/pkg/check"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Flag and configuration problems never produced a run outcome,
		// so they surface as UNKNOWN per the plugin convention.
		fmt.Fprintf(outWriter, "DANE UNKNOWN - %v\n", err)
		exitFunc(check.StatusUnknown.ExitCode())
	}
}
