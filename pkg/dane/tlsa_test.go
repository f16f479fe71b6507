// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package dane

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestCert generates a self-signed X.509 certificate for testing.
func newTestCert(t *testing.T) *x509.Certificate {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject: pkix.Name{
			CommonName: "test.example.com",
		},
		NotBefore: time.Now().Add(-time.Hour),
		NotAfter:  time.Now().Add(24 * time.Hour),
		KeyUsage:  x509.KeyUsageDigitalSignature,
	}

	certDER, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)

	cert, err := x509.ParseCertificate(certDER)
	require.NoError(t, err)

	return cert
}

// record builds a TLSA record pinning the given certificate under the
// given selector and matching type, with usage DANE-EE unless overridden.
func record(t *testing.T, cert *x509.Certificate, usage, selector, matchingType uint8) *TLSARecord {
	t.Helper()
	data, err := ComputeTLSAData(cert, selector, matchingType)
	require.NoError(t, err)
	return &TLSARecord{
		Usage:        usage,
		Selector:     selector,
		MatchingType: matchingType,
		CertData:     data,
	}
}

func TestComputeTLSAData_FullCertSHA256(t *testing.T) {
	cert := newTestCert(t)
	data, err := ComputeTLSAData(cert, SelectorFullCert, MatchingSHA256)
	require.NoError(t, err)

	expected := sha256.Sum256(cert.Raw)
	assert.Equal(t, expected[:], data)
}

func TestComputeTLSAData_FullCertSHA512(t *testing.T) {
	cert := newTestCert(t)
	data, err := ComputeTLSAData(cert, SelectorFullCert, MatchingSHA512)
	require.NoError(t, err)

	expected := sha512.Sum512(cert.Raw)
	assert.Equal(t, expected[:], data)
}

func TestComputeTLSAData_SPKISHA256(t *testing.T) {
	cert := newTestCert(t)
	data, err := ComputeTLSAData(cert, SelectorSPKI, MatchingSHA256)
	require.NoError(t, err)

	expected := sha256.Sum256(cert.RawSubjectPublicKeyInfo)
	assert.Equal(t, expected[:], data)
}

func TestComputeTLSAData_SPKIExact(t *testing.T) {
	cert := newTestCert(t)
	data, err := ComputeTLSAData(cert, SelectorSPKI, MatchingExact)
	require.NoError(t, err)
	assert.Equal(t, cert.RawSubjectPublicKeyInfo, data)
}

func TestComputeTLSAData_NilCert(t *testing.T) {
	_, err := ComputeTLSAData(nil, SelectorFullCert, MatchingSHA256)
	assert.ErrorIs(t, err, ErrInvalidCertificate)
}

func TestComputeTLSAData_UnsupportedSelector(t *testing.T) {
	cert := newTestCert(t)
	_, err := ComputeTLSAData(cert, 99, MatchingSHA256)
	assert.ErrorIs(t, err, ErrUnsupportedSelector)
}

func TestComputeTLSAData_UnsupportedMatching(t *testing.T) {
	cert := newTestCert(t)
	_, err := ComputeTLSAData(cert, SelectorFullCert, 99)
	assert.ErrorIs(t, err, ErrUnsupportedMatching)
}

func TestMatches_FullCertExact(t *testing.T) {
	cert := newTestCert(t)
	rec := &TLSARecord{
		Usage:        UsageDANEEE,
		Selector:     SelectorFullCert,
		MatchingType: MatchingExact,
		CertData:     cert.Raw,
	}
	assert.True(t, Matches(cert, rec))
}

func TestMatches_TrailingByteFlipped(t *testing.T) {
	cert := newTestCert(t)
	data := make([]byte, len(cert.Raw))
	copy(data, cert.Raw)
	data[len(data)-1] ^= 0xff

	rec := &TLSARecord{
		Usage:        UsageDANEEE,
		Selector:     SelectorFullCert,
		MatchingType: MatchingExact,
		CertData:     data,
	}
	assert.False(t, Matches(cert, rec))
}

func TestMatches_AllSupportedCombinations(t *testing.T) {
	cert := newTestCert(t)
	for _, selector := range []uint8{SelectorFullCert, SelectorSPKI} {
		for _, matchingType := range []uint8{MatchingExact, MatchingSHA256, MatchingSHA512} {
			rec := record(t, cert, UsageDANEEE, selector, matchingType)
			assert.True(t, Matches(cert, rec),
				"selector=%d matchingType=%d", selector, matchingType)
		}
	}
}

func TestMatches_Deterministic(t *testing.T) {
	cert := newTestCert(t)
	rec := record(t, cert, UsageDANEEE, SelectorSPKI, MatchingSHA256)
	for i := 0; i < 10; i++ {
		assert.True(t, Matches(cert, rec))
	}
}

// Usage values other than DANE-EE must never match, even when the digest
// itself would be equal.
func TestMatches_RejectsNonDANEEEUsage(t *testing.T) {
	cert := newTestCert(t)
	for _, usage := range []uint8{UsageCAConstraint, UsageServiceCert, UsageDANETA, 4, 255} {
		rec := record(t, cert, usage, SelectorFullCert, MatchingSHA256)
		assert.False(t, Matches(cert, rec), "usage=%d", usage)
	}
}

func TestMatches_UnsupportedSelectorOrMatching(t *testing.T) {
	cert := newTestCert(t)
	digest := sha256.Sum256(cert.Raw)

	badSelector := &TLSARecord{
		Usage:        UsageDANEEE,
		Selector:     7,
		MatchingType: MatchingSHA256,
		CertData:     digest[:],
	}
	assert.False(t, Matches(cert, badSelector))

	badMatching := &TLSARecord{
		Usage:        UsageDANEEE,
		Selector:     SelectorFullCert,
		MatchingType: 7,
		CertData:     cert.Raw,
	}
	assert.False(t, Matches(cert, badMatching))
}

func TestMatches_NilInputs(t *testing.T) {
	cert := newTestCert(t)
	assert.False(t, Matches(nil, record(t, cert, UsageDANEEE, SelectorFullCert, MatchingExact)))
	assert.False(t, Matches(cert, nil))
}

func TestMatchAny_AnyOrder(t *testing.T) {
	cert := newTestCert(t)
	other := newTestCert(t)

	matching := record(t, cert, UsageDANEEE, SelectorSPKI, MatchingSHA256)
	miss := record(t, other, UsageDANEEE, SelectorSPKI, MatchingSHA256)

	assert.True(t, MatchAny(cert, []*TLSARecord{matching, miss}))
	assert.True(t, MatchAny(cert, []*TLSARecord{miss, matching}))
}

func TestMatchAny_NoMatch(t *testing.T) {
	cert := newTestCert(t)
	other := newTestCert(t)

	records := []*TLSARecord{
		record(t, other, UsageDANEEE, SelectorFullCert, MatchingSHA256),
		record(t, other, UsageDANEEE, SelectorSPKI, MatchingSHA512),
	}
	assert.False(t, MatchAny(cert, records))
}

func TestMatchAny_EmptySet(t *testing.T) {
	cert := newTestCert(t)
	assert.False(t, MatchAny(cert, nil))
}

func TestTLSARecord_String(t *testing.T) {
	rec := &TLSARecord{Usage: 3, Selector: 1, MatchingType: 1, CertData: make([]byte, 32)}
	assert.Equal(t, "TLSA 3 1 1 [32 bytes]", rec.String())
}
