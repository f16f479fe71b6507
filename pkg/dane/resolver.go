// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package dane

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
)

const (
	// defaultDNSPort is the standard DNS port.
	defaultDNSPort = "53"

	// ednsBufferSize is the EDNS0 UDP payload size advertised on queries.
	ednsBufferSize = 4096

	// noTimeout is the client timeout applied when none is configured.
	// The DNS client computes deadlines as now+timeout and carries its
	// own short defaults otherwise, so an indefinite wait is expressed
	// as a duration no query will ever reach.
	noTimeout = 24 * time.Hour
)

// Resolver performs DNS TLSA record lookups with DNSSEC authentication
// enforcement. One Resolver performs exactly one kind of query (TLSA);
// it carries no cache and no retry logic.
type Resolver struct {
	config *ResolverConfig
	client *dns.Client
	server string
	logger *slog.Logger
}

// NewResolver creates a new TLSA resolver from the given configuration.
// When no nameserver is configured, the first server from /etc/resolv.conf
// is used. A nameserver without a port gets the standard DNS port appended.
func NewResolver(cfg *ResolverConfig) (*Resolver, error) {
	if cfg == nil {
		return nil, ErrResolverConfig
	}

	client := &dns.Client{Net: "udp", Timeout: noTimeout}
	if cfg.Timeout > 0 {
		client.Timeout = cfg.Timeout
	}

	server := cfg.Server
	if server != "" && !strings.Contains(server, ":") {
		server = net.JoinHostPort(server, defaultDNSPort)
	}

	// If no server specified, resolve from system configuration.
	if server == "" {
		systemCfg, err := dns.ClientConfigFromFile("/etc/resolv.conf")
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrResolverConfig, err.Error())
		}
		if len(systemCfg.Servers) == 0 {
			return nil, fmt.Errorf("%w: no nameservers in /etc/resolv.conf", ErrResolverConfig)
		}
		port := systemCfg.Port
		if port == "" {
			port = defaultDNSPort
		}
		server = net.JoinHostPort(systemCfg.Servers[0], port)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Resolver{
		config: cfg,
		client: client,
		server: server,
		logger: logger.With("component", "tlsa_resolver"),
	}, nil
}

// LookupTLSA queries DNS for the TLSA RRset associated with the given
// hostname and port. The DNS name is constructed as "_<port>._tcp.<hostname>."
// per RFC 6698 Section 3. When RequireAD is set, a response without the
// Authenticated Data flag fails with ErrDNSSECRequired before any record
// in the answer is trusted. NXDOMAIN and empty answers fail with
// ErrNoTLSARecords. Records are returned in answer order.
func (r *Resolver) LookupTLSA(ctx context.Context, hostname string, port uint16) ([]*TLSARecord, error) {
	if hostname == "" || strings.ContainsRune(hostname, 0) || len(hostname) > 253 {
		return nil, ErrInvalidHostname
	}
	if port == 0 {
		return nil, ErrInvalidPort
	}

	qname := TLSAName(hostname, port)

	msg := new(dns.Msg)
	msg.SetQuestion(qname, dns.TypeTLSA)
	msg.SetEdns0(ednsBufferSize, true) // Enable DNSSEC OK (DO) bit.
	msg.RecursionDesired = true
	msg.AuthenticatedData = true

	r.logger.Debug("querying TLSA RRset", "qname", qname, "server", r.server)

	resp, _, err := r.client.ExchangeContext(ctx, msg, r.server)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %s", ErrDNSTimeout, err.Error())
		}
		return nil, fmt.Errorf("%w: %s", ErrDNSLookupFailed, err.Error())
	}
	if resp == nil {
		return nil, ErrDNSLookupFailed
	}

	if resp.Truncated {
		resp, err = r.retryTCP(ctx, msg)
		if err != nil {
			return nil, err
		}
	}

	// The AD flag must be checked before the answer is interpreted at all:
	// an unauthenticated NXDOMAIN is just as untrustworthy as an
	// unauthenticated answer.
	if r.config.RequireAD && !resp.AuthenticatedData {
		return nil, fmt.Errorf("%w: %s", ErrDNSSECRequired, strings.TrimSuffix(qname, "."))
	}

	switch resp.Rcode {
	case dns.RcodeSuccess:
	case dns.RcodeNameError:
		return nil, fmt.Errorf("%w: %s", ErrNoTLSARecords, strings.TrimSuffix(qname, "."))
	default:
		return nil, fmt.Errorf("%w: rcode %s", ErrDNSLookupFailed, dns.RcodeToString[resp.Rcode])
	}

	records := make([]*TLSARecord, 0, len(resp.Answer))
	for _, rr := range resp.Answer {
		tlsa, ok := rr.(*dns.TLSA)
		if !ok {
			continue
		}
		certData, err := hex.DecodeString(tlsa.Certificate)
		if err != nil {
			r.logger.Warn("skipping TLSA record with undecodable data",
				"qname", qname, "error", err)
			continue
		}
		records = append(records, &TLSARecord{
			Usage:        tlsa.Usage,
			Selector:     tlsa.Selector,
			MatchingType: tlsa.MatchingType,
			CertData:     certData,
		})
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoTLSARecords, strings.TrimSuffix(qname, "."))
	}

	r.logger.Debug("resolved TLSA RRset",
		"qname", qname, "count", len(records), "authenticated", resp.AuthenticatedData)

	return records, nil
}

// retryTCP repeats a truncated query over TCP.
func (r *Resolver) retryTCP(ctx context.Context, msg *dns.Msg) (*dns.Msg, error) {
	tcpClient := &dns.Client{Net: "tcp", Timeout: r.client.Timeout}
	resp, _, err := tcpClient.ExchangeContext(ctx, msg, r.server)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %s", ErrDNSTimeout, err.Error())
		}
		return nil, fmt.Errorf("%w: %s", ErrDNSLookupFailed, err.Error())
	}
	if resp == nil {
		return nil, ErrDNSLookupFailed
	}
	return resp, nil
}

// isTimeout reports whether err is a network timeout or an expired context.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}

// TLSAName constructs the DNS owner name for a TLSA query per RFC 6698.
// The format is "_<port>._tcp.<hostname>." with a trailing dot to form an
// absolute DNS name.
func TLSAName(hostname string, port uint16) string {
	if !strings.HasSuffix(hostname, ".") {
		hostname += "."
	}
	return fmt.Sprintf("_%d._tcp.%s", port, hostname)
}
