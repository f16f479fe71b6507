// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package check

import "fmt"

// Status is the severity of a completed validation run, following the
// Nagios/Icinga plugin convention. The numeric value is the process exit
// code.
type Status int

const (
	// StatusOK means the certificate matched a TLSA record and every
	// requested check passed.
	StatusOK Status = 0

	// StatusWarning means the validation passed but the certificate is
	// within the expiry warning threshold.
	StatusWarning Status = 1

	// StatusCritical means the validation failed: no TLSA record found,
	// no record matched, PKIX trust failed, or expiry is critical.
	StatusCritical Status = 2

	// StatusUnknown means the validation could not be completed:
	// connection, protocol, handshake, or DNS-level failure.
	StatusUnknown Status = 3
)

// statusNames provides O(1) lookup for status labels.
var statusNames = map[Status]string{
	StatusOK:       "OK",
	StatusWarning:  "WARNING",
	StatusCritical: "CRITICAL",
	StatusUnknown:  "UNKNOWN",
}

// String returns the plugin-convention label for the status.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// ExitCode returns the process exit code for the status.
func (s Status) ExitCode() int {
	if _, ok := statusNames[s]; !ok {
		return int(StatusUnknown)
	}
	return int(s)
}

// Outcome is the terminal value of one validation run. Exactly one
// outcome is produced per run.
type Outcome struct {
	// Status is the severity of the run.
	Status Status

	// Message is the human-readable result, rendered after the
	// "DANE <STATUS> - " prefix.
	Message string
}

// String renders the single plugin output line.
func (o *Outcome) String() string {
	return fmt.Sprintf("DANE %s - %s", o.Status, o.Message)
}
