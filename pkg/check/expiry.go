// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package check

import (
	"fmt"
	"time"
)

// ExpiryThresholds configures certificate expiry evaluation in days of
// remaining validity.
type ExpiryThresholds struct {
	// WarningDays is the warning threshold.
	WarningDays int

	// CriticalDays is the optional critical threshold. Zero disables it.
	CriticalDays int
}

// EvaluateExpiry compares the certificate's notAfter against the
// thresholds. A remaining validity at or below the critical threshold is
// Critical and short-circuits the warning check; at or below the warning
// threshold it is Warning. Otherwise nil is returned and the evaluator
// contributes no outcome.
func EvaluateExpiry(notAfter, now time.Time, thresholds *ExpiryThresholds) *Outcome {
	if thresholds == nil {
		return nil
	}

	remaining := notAfter.Sub(now)
	days := int(remaining.Hours() / 24)

	if thresholds.CriticalDays > 0 && remaining <= daysToDuration(thresholds.CriticalDays) {
		return &Outcome{
			Status: StatusCritical,
			Message: fmt.Sprintf("certificate expires in %d days (critical threshold: %d)",
				days, thresholds.CriticalDays),
		}
	}
	if remaining <= daysToDuration(thresholds.WarningDays) {
		return &Outcome{
			Status: StatusWarning,
			Message: fmt.Sprintf("certificate expires in %d days (warning threshold: %d)",
				days, thresholds.WarningDays),
		}
	}
	return nil
}

func daysToDuration(days int) time.Duration {
	return time.Duration(days) * 24 * time.Hour
}
