// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

// Package dane provides RFC 6698 DANE/TLSA validation primitives: TLSA
// record lookup with DNSSEC enforcement and certificate matching under
// the selector and matching-type rules defined by the RFC.
package dane

import "errors"

// DNS lookup errors indicate issues resolving TLSA records.
var (
	// ErrNoTLSARecords indicates the TLSA query returned NXDOMAIN or an
	// answer without any TLSA records.
	ErrNoTLSARecords = errors.New("dane: no TLSA records found")

	// ErrDNSLookupFailed indicates the DNS query for TLSA records failed.
	ErrDNSLookupFailed = errors.New("dane: DNS lookup failed")

	// ErrDNSTimeout indicates the DNS query exceeded the configured timeout.
	ErrDNSTimeout = errors.New("dane: DNS lookup timed out")

	// ErrDNSSECRequired indicates DNSSEC validation is required but the
	// Authenticated Data (AD) flag was not set in the DNS response.
	ErrDNSSECRequired = errors.New("dane: DNSSEC validation required but AD flag not set")
)

// Input validation errors indicate invalid parameters were provided.
var (
	// ErrInvalidCertificate indicates a nil or malformed certificate was provided.
	ErrInvalidCertificate = errors.New("dane: invalid certificate")

	// ErrInvalidHostname indicates an empty or malformed hostname was provided.
	ErrInvalidHostname = errors.New("dane: invalid hostname")

	// ErrInvalidPort indicates port number zero was provided.
	ErrInvalidPort = errors.New("dane: invalid port")

	// ErrUnsupportedSelector indicates the TLSA selector field value is not supported.
	ErrUnsupportedSelector = errors.New("dane: unsupported TLSA selector")

	// ErrUnsupportedMatching indicates the TLSA matching type field value is not supported.
	ErrUnsupportedMatching = errors.New("dane: unsupported TLSA matching type")
)

// Configuration errors indicate issues with resolver setup.
var (
	// ErrResolverConfig indicates the resolver configuration is invalid.
	ErrResolverConfig = errors.New("dane: invalid resolver configuration")
)
