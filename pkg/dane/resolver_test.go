// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package dane

import (
	"context"
	"encoding/hex"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockDNSOptions controls the behavior of the in-process DNS server.
type mockDNSOptions struct {
	records  []*dns.TLSA
	setAD    bool
	rcode    int
	noAnswer bool
	hang     time.Duration
}

// startMockDNS starts an in-process DNS server on a random localhost port
// that responds to TLSA queries according to opts. Returns the server
// address ("127.0.0.1:port"); shutdown is registered via t.Cleanup.
func startMockDNS(t *testing.T, opts mockDNSOptions) string {
	t.Helper()

	handler := dns.HandlerFunc(func(w dns.ResponseWriter, r *dns.Msg) {
		if opts.hang > 0 {
			time.Sleep(opts.hang)
		}
		m := new(dns.Msg)
		m.SetReply(r)
		m.Authoritative = true
		m.AuthenticatedData = opts.setAD
		m.Rcode = opts.rcode

		if !opts.noAnswer && opts.rcode == dns.RcodeSuccess {
			for _, q := range r.Question {
				if q.Qtype != dns.TypeTLSA {
					continue
				}
				for _, rec := range opts.records {
					rr := new(dns.TLSA)
					rr.Hdr = dns.RR_Header{
						Name:   q.Name,
						Rrtype: dns.TypeTLSA,
						Class:  dns.ClassINET,
						Ttl:    300,
					}
					rr.Usage = rec.Usage
					rr.Selector = rec.Selector
					rr.MatchingType = rec.MatchingType
					rr.Certificate = rec.Certificate
					m.Answer = append(m.Answer, rr)
				}
			}
		}
		if err := w.WriteMsg(m); err != nil {
			t.Logf("mock DNS: failed to write response: %v", err)
		}
	})

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	server := &dns.Server{
		PacketConn: pc,
		Handler:    handler,
	}

	started := make(chan struct{})
	server.NotifyStartedFunc = func() { close(started) }

	go func() {
		_ = server.ActivateAndServe()
	}()

	<-started
	t.Cleanup(func() {
		server.Shutdown()
	})

	return pc.LocalAddr().String()
}

// testTLSA builds a dns.TLSA answer record with the given rdata.
func testTLSA(usage, selector, matchingType uint8, data []byte) *dns.TLSA {
	return &dns.TLSA{
		Usage:        usage,
		Selector:     selector,
		MatchingType: matchingType,
		Certificate:  hex.EncodeToString(data),
	}
}

func TestNewResolver_NilConfig(t *testing.T) {
	_, err := NewResolver(nil)
	assert.ErrorIs(t, err, ErrResolverConfig)
}

func TestNewResolver_ServerWithoutPort(t *testing.T) {
	r, err := NewResolver(&ResolverConfig{Server: "192.0.2.53"})
	require.NoError(t, err)
	assert.Equal(t, "192.0.2.53:53", r.server)
}

func TestNewResolver_ServerWithPort(t *testing.T) {
	r, err := NewResolver(&ResolverConfig{Server: "192.0.2.53:5353"})
	require.NoError(t, err)
	assert.Equal(t, "192.0.2.53:5353", r.server)
}

func TestLookupTLSA_InvalidInputs(t *testing.T) {
	r, err := NewResolver(&ResolverConfig{Server: "127.0.0.1:53"})
	require.NoError(t, err)

	_, err = r.LookupTLSA(context.Background(), "", 443)
	assert.ErrorIs(t, err, ErrInvalidHostname)

	_, err = r.LookupTLSA(context.Background(), strings.Repeat("a", 260), 443)
	assert.ErrorIs(t, err, ErrInvalidHostname)

	_, err = r.LookupTLSA(context.Background(), "example.com", 0)
	assert.ErrorIs(t, err, ErrInvalidPort)
}

func TestLookupTLSA_Success(t *testing.T) {
	data := []byte{0xde, 0xad, 0xbe, 0xef}
	addr := startMockDNS(t, mockDNSOptions{
		records: []*dns.TLSA{testTLSA(3, 1, 1, data)},
		setAD:   true,
	})

	r, err := NewResolver(&ResolverConfig{Server: addr, RequireAD: true, Timeout: 2 * time.Second})
	require.NoError(t, err)

	records, err := r.LookupTLSA(context.Background(), "example.com", 443)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, uint8(3), records[0].Usage)
	assert.Equal(t, uint8(1), records[0].Selector)
	assert.Equal(t, uint8(1), records[0].MatchingType)
	assert.Equal(t, data, records[0].CertData)
}

func TestLookupTLSA_PreservesAnswerOrder(t *testing.T) {
	addr := startMockDNS(t, mockDNSOptions{
		records: []*dns.TLSA{
			testTLSA(3, 0, 1, []byte{0x01}),
			testTLSA(3, 1, 2, []byte{0x02}),
		},
		setAD: true,
	})

	r, err := NewResolver(&ResolverConfig{Server: addr, Timeout: 2 * time.Second})
	require.NoError(t, err)

	records, err := r.LookupTLSA(context.Background(), "example.com", 25)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []byte{0x01}, records[0].CertData)
	assert.Equal(t, []byte{0x02}, records[1].CertData)
}

// The AD flag must be enforced before the answer is interpreted: matching
// records in an unauthenticated response are still a hard failure.
func TestLookupTLSA_ADFlagMissing(t *testing.T) {
	addr := startMockDNS(t, mockDNSOptions{
		records: []*dns.TLSA{testTLSA(3, 1, 1, []byte{0x01})},
		setAD:   false,
	})

	r, err := NewResolver(&ResolverConfig{Server: addr, RequireAD: true, Timeout: 2 * time.Second})
	require.NoError(t, err)

	_, err = r.LookupTLSA(context.Background(), "example.com", 443)
	assert.ErrorIs(t, err, ErrDNSSECRequired)
}

func TestLookupTLSA_ADFlagNotRequired(t *testing.T) {
	addr := startMockDNS(t, mockDNSOptions{
		records: []*dns.TLSA{testTLSA(3, 1, 1, []byte{0x01})},
		setAD:   false,
	})

	r, err := NewResolver(&ResolverConfig{Server: addr, RequireAD: false, Timeout: 2 * time.Second})
	require.NoError(t, err)

	records, err := r.LookupTLSA(context.Background(), "example.com", 443)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestLookupTLSA_NXDOMAIN(t *testing.T) {
	addr := startMockDNS(t, mockDNSOptions{
		setAD: true,
		rcode: dns.RcodeNameError,
	})

	r, err := NewResolver(&ResolverConfig{Server: addr, RequireAD: true, Timeout: 2 * time.Second})
	require.NoError(t, err)

	_, err = r.LookupTLSA(context.Background(), "example.com", 443)
	assert.ErrorIs(t, err, ErrNoTLSARecords)
	assert.Contains(t, err.Error(), "_443._tcp.example.com")
}

func TestLookupTLSA_EmptyAnswer(t *testing.T) {
	addr := startMockDNS(t, mockDNSOptions{
		setAD:    true,
		noAnswer: true,
	})

	r, err := NewResolver(&ResolverConfig{Server: addr, Timeout: 2 * time.Second})
	require.NoError(t, err)

	_, err = r.LookupTLSA(context.Background(), "example.com", 443)
	assert.ErrorIs(t, err, ErrNoTLSARecords)
}

func TestLookupTLSA_ServFail(t *testing.T) {
	addr := startMockDNS(t, mockDNSOptions{
		setAD: true,
		rcode: dns.RcodeServerFailure,
	})

	r, err := NewResolver(&ResolverConfig{Server: addr, Timeout: 2 * time.Second})
	require.NoError(t, err)

	_, err = r.LookupTLSA(context.Background(), "example.com", 443)
	assert.ErrorIs(t, err, ErrDNSLookupFailed)
}

func TestNewResolver_ZeroTimeoutDisablesDeadline(t *testing.T) {
	r, err := NewResolver(&ResolverConfig{Server: "192.0.2.53"})
	require.NoError(t, err)
	assert.Equal(t, noTimeout, r.client.Timeout)

	r, err = NewResolver(&ResolverConfig{Server: "192.0.2.53", Timeout: 2 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, r.client.Timeout)
}

// With no timeout configured, an answer slower than the DNS client's
// built-in defaults must still be returned rather than reported as a
// timeout.
func TestLookupTLSA_ZeroTimeoutWaitsForSlowAnswer(t *testing.T) {
	data := []byte{0x0a, 0x0b}
	addr := startMockDNS(t, mockDNSOptions{
		records: []*dns.TLSA{testTLSA(3, 1, 1, data)},
		setAD:   true,
		hang:    3 * time.Second,
	})

	r, err := NewResolver(&ResolverConfig{Server: addr, RequireAD: true})
	require.NoError(t, err)

	records, err := r.LookupTLSA(context.Background(), "example.com", 443)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, data, records[0].CertData)
}

func TestLookupTLSA_Timeout(t *testing.T) {
	addr := startMockDNS(t, mockDNSOptions{
		records: []*dns.TLSA{testTLSA(3, 1, 1, []byte{0x01})},
		setAD:   true,
		hang:    2 * time.Second,
	})

	r, err := NewResolver(&ResolverConfig{Server: addr, Timeout: 100 * time.Millisecond})
	require.NoError(t, err)

	_, err = r.LookupTLSA(context.Background(), "example.com", 443)
	assert.ErrorIs(t, err, ErrDNSTimeout)
}

func TestTLSAName(t *testing.T) {
	assert.Equal(t, "_443._tcp.example.com.", TLSAName("example.com", 443))
	assert.Equal(t, "_25._tcp.mail.example.com.", TLSAName("mail.example.com.", 25))
}
