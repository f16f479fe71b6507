// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

// Package starttls drives protocol-specific plaintext negotiation that
// upgrades an open connection to the point where a TLS handshake can
// begin. Three application protocols are supported: SMTP (RFC 3207),
// IMAP (RFC 2595), and XMPP (RFC 6120 Section 5.4.2).
//
// Each negotiator walks the same state machine shape: read the server
// greeting, check the advertised capabilities for STARTTLS support,
// request the upgrade, and confirm the server is ready for a handshake.
// Any required marker missing from a server response is a fatal,
// non-retryable ErrProtocol failure.
package starttls

import (
	"errors"
	"fmt"
	"net"
	"os"
)

// Protocol identifies a STARTTLS-capable application protocol.
type Protocol string

const (
	// ProtocolNone disables STARTTLS negotiation; the connection is
	// treated as TLS-ready immediately.
	ProtocolNone Protocol = ""

	// ProtocolSMTP negotiates STARTTLS per RFC 3207 (EHLO/STARTTLS).
	ProtocolSMTP Protocol = "smtp"

	// ProtocolIMAP negotiates STARTTLS per RFC 2595 (CAPABILITY/STARTTLS).
	ProtocolIMAP Protocol = "imap"

	// ProtocolXMPP negotiates STARTTLS per RFC 6120 (stream features/proceed).
	ProtocolXMPP Protocol = "xmpp"
)

var (
	// ErrProtocol indicates the peer did not advertise or confirm the
	// STARTTLS upgrade. This is fatal and never retried.
	ErrProtocol = errors.New("starttls: protocol error")

	// ErrUnknownProtocol indicates an unrecognized protocol name.
	ErrUnknownProtocol = errors.New("starttls: unknown protocol")
)

// Negotiator drives a plaintext connection through a protocol-specific
// STARTTLS exchange. On success the peer has confirmed readiness and the
// very next bytes on the connection belong to the TLS handshake.
type Negotiator interface {
	Negotiate(conn net.Conn) error
}

// ForProtocol returns the negotiator for the given protocol. The server
// name is the hostname being validated; XMPP addresses its stream header
// to it. ProtocolNone yields a nil negotiator, meaning no negotiation
// is needed.
func ForProtocol(p Protocol, serverName string) (Negotiator, error) {
	switch p {
	case ProtocolNone:
		return nil, nil
	case ProtocolSMTP:
		return &SMTPNegotiator{ClientName: localClientName()}, nil
	case ProtocolIMAP:
		return &IMAPNegotiator{}, nil
	case ProtocolXMPP:
		return &XMPPNegotiator{ServerName: serverName}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProtocol, string(p))
	}
}

// localClientName returns the name this host introduces itself with in
// SMTP EHLO commands.
func localClientName() string {
	name, err := os.Hostname()
	if err != nil || name == "" {
		return "localhost"
	}
	return name
}
