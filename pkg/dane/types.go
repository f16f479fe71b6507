// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package dane

import (
	"fmt"
	"log/slog"
	"time"
)

// Certificate Usage values as defined in RFC 6698 Section 2.1.1.
// Only UsageDANEEE (3) is accepted by the matcher; the remaining values
// require PKIX chain processing this checker does not perform.
const (
	// UsageCAConstraint (PKIX-TA) constrains which CA can issue certificates
	// for the service. Requires PKIX validation; unsupported here.
	UsageCAConstraint uint8 = 0

	// UsageServiceCert (PKIX-EE) pins a specific end-entity certificate
	// and requires PKIX validation; unsupported here.
	UsageServiceCert uint8 = 1

	// UsageDANETA (DANE-TA) specifies a trust anchor for the domain;
	// unsupported here because it matches against chain certificates.
	UsageDANETA uint8 = 2

	// UsageDANEEE (DANE-EE) pins the presented end-entity certificate.
	// PKIX validation is not required; the TLSA record itself establishes trust.
	UsageDANEEE uint8 = 3
)

// Selector values as defined in RFC 6698 Section 2.1.2.
// These determine which part of the certificate is matched.
const (
	// SelectorFullCert selects the full DER-encoded certificate for matching.
	SelectorFullCert uint8 = 0

	// SelectorSPKI selects the DER-encoded SubjectPublicKeyInfo for matching.
	SelectorSPKI uint8 = 1
)

// Matching Type values as defined in RFC 6698 Section 2.1.3.
// These determine how the selected data is presented for comparison.
const (
	// MatchingExact requires an exact binary match of the selected data.
	MatchingExact uint8 = 0

	// MatchingSHA256 compares a SHA-256 hash of the selected data.
	MatchingSHA256 uint8 = 1

	// MatchingSHA512 compares a SHA-512 hash of the selected data.
	MatchingSHA512 uint8 = 2
)

// TLSARecord represents a parsed TLSA resource record as defined in
// RFC 6698 Section 2.1, sourced verbatim from one DNS answer record.
type TLSARecord struct {
	// Usage is the Certificate Usage field (0-3).
	Usage uint8

	// Selector is the Selector field (0-1).
	Selector uint8

	// MatchingType is the Matching Type field (0-2).
	MatchingType uint8

	// CertData is the Certificate Association Data: a hash digest or raw
	// certificate/SPKI bytes depending on MatchingType.
	CertData []byte
}

// String returns a short diagnostic form of the record suitable for logs.
func (r *TLSARecord) String() string {
	return fmt.Sprintf("TLSA %d %d %d [%d bytes]",
		r.Usage, r.Selector, r.MatchingType, len(r.CertData))
}

// ResolverConfig configures the DNS resolver used for TLSA lookups.
type ResolverConfig struct {
	// Server is the DNS resolver address (e.g., "8.8.8.8:53").
	// When empty, the system resolver from /etc/resolv.conf is used.
	Server string

	// RequireAD requires the Authenticated Data (AD) flag in DNS responses,
	// indicating the resolver has validated DNSSEC signatures. Absence of
	// the flag is then a hard failure, never a downgrade.
	RequireAD bool

	// Timeout is the maximum duration for a DNS query. Zero or negative
	// means the query blocks indefinitely.
	Timeout time.Duration

	// Logger for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}
