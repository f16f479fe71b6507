// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package check

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/jeremyhahn/check-dane/pkg/dane"
	"github.com/jeremyhahn/check-dane/pkg/starttls"
)

// Target describes one validation target: where to connect and which DNS
// name to look up. Immutable once constructed via NewTarget.
type Target struct {
	// Hostname is the DNS name being validated. Used for the TLSA query,
	// the TLS SNI value, and PKIX hostname verification.
	Hostname string

	// ConnectIP is the address the TCP connection is made to. Defaults
	// to Hostname.
	ConnectIP string

	// Port is the TCP port to connect to (1-65535).
	Port uint16

	// TLSAPort is the port used in the TLSA query name. Defaults to Port.
	TLSAPort uint16

	// Protocol selects the STARTTLS negotiation, if any.
	Protocol starttls.Protocol
}

// TargetConfig carries the raw target parameters before defaulting.
type TargetConfig struct {
	Hostname  string
	ConnectIP string
	Port      uint16
	TLSAPort  uint16
	Protocol  starttls.Protocol
}

// NewTarget validates the configuration and returns an immutable Target
// with defaults applied: ConnectIP falls back to Hostname and TLSAPort
// falls back to Port.
func NewTarget(cfg *TargetConfig) (*Target, error) {
	if cfg == nil {
		return nil, ErrInvalidTarget
	}
	if cfg.Hostname == "" {
		return nil, fmt.Errorf("%w: hostname required", ErrInvalidTarget)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("%w: port required", ErrInvalidTarget)
	}

	connectIP := cfg.ConnectIP
	if connectIP == "" {
		connectIP = cfg.Hostname
	}
	tlsaPort := cfg.TLSAPort
	if tlsaPort == 0 {
		tlsaPort = cfg.Port
	}

	switch cfg.Protocol {
	case starttls.ProtocolNone, starttls.ProtocolSMTP, starttls.ProtocolIMAP, starttls.ProtocolXMPP:
	default:
		return nil, fmt.Errorf("%w: unknown STARTTLS protocol %q", ErrInvalidTarget, string(cfg.Protocol))
	}

	return &Target{
		Hostname:  cfg.Hostname,
		ConnectIP: connectIP,
		Port:      cfg.Port,
		TLSAPort:  tlsaPort,
		Protocol:  cfg.Protocol,
	}, nil
}

// ConnectAddr returns the host:port the TCP connection is made to.
func (t *Target) ConnectAddr() string {
	return net.JoinHostPort(t.ConnectIP, strconv.Itoa(int(t.Port)))
}

// TLSAName returns the DNS owner name queried for TLSA records, without
// the trailing dot, for use in messages.
func (t *Target) TLSAName() string {
	return strings.TrimSuffix(dane.TLSAName(t.Hostname, t.TLSAPort), ".")
}

// LookupDiffers reports whether the connect endpoint diverges from the
// lookup target, either through an explicit IP override or a TLSA lookup
// port different from the connect port.
func (t *Target) LookupDiffers() bool {
	return t.ConnectIP != t.Hostname || t.TLSAPort != t.Port
}
