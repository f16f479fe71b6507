// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package dane

import (
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"crypto/x509"
)

// SelectorFunc extracts the relevant data from a certificate based on the
// TLSA selector type. For SelectorFullCert it returns the full DER-encoded
// certificate; for SelectorSPKI it returns the DER-encoded SubjectPublicKeyInfo.
type SelectorFunc func(cert *x509.Certificate) []byte

// selectorFuncs provides O(1) lookup for TLSA selector operations.
var selectorFuncs = map[uint8]SelectorFunc{
	SelectorFullCert: func(c *x509.Certificate) []byte { return c.Raw },
	SelectorSPKI:     func(c *x509.Certificate) []byte { return c.RawSubjectPublicKeyInfo },
}

// MatcherFunc computes the hash (or identity) for a TLSA matching type.
// For MatchingExact it returns the data unchanged; for MatchingSHA256 and
// MatchingSHA512 it returns the corresponding hash digest.
type MatcherFunc func(data []byte) []byte

// matcherFuncs provides O(1) lookup for TLSA matching type operations.
var matcherFuncs = map[uint8]MatcherFunc{
	MatchingExact:  func(d []byte) []byte { return d },
	MatchingSHA256: func(d []byte) []byte { h := sha256.Sum256(d); return h[:] },
	MatchingSHA512: func(d []byte) []byte { h := sha512.Sum512(d); return h[:] },
}

// ComputeTLSAData computes the TLSA Certificate Association Data for the given
// certificate using the specified selector and matching type. The selector
// determines which part of the certificate is used (full cert or SPKI), and
// the matching type determines the hash algorithm applied.
func ComputeTLSAData(cert *x509.Certificate, selector, matchingType uint8) ([]byte, error) {
	if cert == nil {
		return nil, ErrInvalidCertificate
	}
	selectorFn, ok := selectorFuncs[selector]
	if !ok {
		return nil, ErrUnsupportedSelector
	}
	matcherFn, ok := matcherFuncs[matchingType]
	if !ok {
		return nil, ErrUnsupportedMatching
	}
	selected := selectorFn(cert)
	return matcherFn(selected), nil
}

// Matches reports whether the certificate satisfies a single TLSA record.
//
// Only UsageDANEEE (3, "domain-issued certificate") records can match;
// every other usage value is rejected outright regardless of the remaining
// fields, because usages 0-2 require PKIX chain processing that a
// leaf-only match cannot provide. The selected certificate data is
// transformed per the record's matching type and compared byte-for-byte
// (constant-time) against the association data. Unsupported selector or
// matching type values never match. The function is pure: identical
// inputs always yield the same answer.
func Matches(cert *x509.Certificate, record *TLSARecord) bool {
	if cert == nil || record == nil {
		return false
	}
	if record.Usage != UsageDANEEE {
		return false
	}
	computed, err := ComputeTLSAData(cert, record.Selector, record.MatchingType)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(computed, record.CertData) == 1
}

// MatchAny reports whether any record in the RRset matches the certificate.
// Records are evaluated in order and the first match short-circuits;
// record order carries no semantic weight.
func MatchAny(cert *x509.Certificate, records []*TLSARecord) bool {
	for _, record := range records {
		if Matches(cert, record) {
			return true
		}
	}
	return false
}
