// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

// Package check runs a single DANE/TLSA validation against a live server:
// connect, optionally negotiate STARTTLS, capture the presented
// certificate over a TLS handshake, resolve the DNSSEC-authenticated TLSA
// RRset, match certificate against records, and fold the result into one
// Nagios-style outcome. Every fatal condition ends the run in exactly one
// pass; there is no retry logic anywhere.
package check

import "errors"

var (
	// ErrConnection indicates the TCP connection could not be established
	// or failed during the plaintext exchange.
	ErrConnection = errors.New("check: connection failed")

	// ErrHandshake indicates the TLS handshake failed or the peer
	// presented no certificate.
	ErrHandshake = errors.New("check: TLS handshake failed")

	// ErrCertificateTrust indicates PKIX validation of the presented
	// chain failed while traditional trust checking was enabled.
	ErrCertificateTrust = errors.New("check: certificate trust verification failed")

	// ErrInvalidTarget indicates the target specification is incomplete
	// or out of range.
	ErrInvalidTarget = errors.New("check: invalid target")

	// ErrInvalidConfig indicates the checker configuration is invalid.
	ErrInvalidConfig = errors.New("check: invalid configuration")
)
