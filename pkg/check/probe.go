// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package check

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/jeremyhahn/check-dane/pkg/starttls"
)

// CertificateHandle holds the certificate material captured from one TLS
// handshake. It lives for the duration of a single run and is never
// persisted; TLSA records are only ever evaluated against the handle of
// the same connection attempt.
type CertificateHandle struct {
	// Leaf is the presented end-entity certificate. Leaf.Raw carries the
	// DER bytes matched under selector 0; Leaf.RawSubjectPublicKeyInfo
	// the SPKI bytes for selector 1.
	Leaf *x509.Certificate

	// Chain is the full presented chain, leaf first, used only for the
	// optional PKIX check.
	Chain []*x509.Certificate
}

// fetchCertificate opens the TCP connection, runs the STARTTLS exchange
// when the target requests one, performs the TLS handshake, and captures
// the presented certificates. The connection is closed before the caller
// proceeds to DNS resolution. The run-wide timeout covers dialing, the
// plaintext exchange, and the handshake; zero means block indefinitely.
func (c *Checker) fetchCertificate(ctx context.Context) (*CertificateHandle, error) {
	negotiator, err := starttls.ForProtocol(c.target.Protocol, c.target.Hostname)
	if err != nil {
		return nil, err
	}

	dialer := &net.Dialer{Timeout: c.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.target.ConnectAddr())
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrConnection, err.Error())
	}
	defer conn.Close()

	if c.timeout > 0 {
		if err := conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrConnection, err.Error())
		}
	}

	if negotiator != nil {
		c.logger.Debug("negotiating STARTTLS",
			"protocol", string(c.target.Protocol), "addr", c.target.ConnectAddr())
		if err := negotiator.Negotiate(conn); err != nil {
			if errors.Is(err, starttls.ErrProtocol) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %s", ErrConnection, err.Error())
		}
	}

	// DANE replaces CA-based trust, so the handshake itself must not
	// verify; the optional PKIX check runs separately on the captured
	// chain.
	tlsConn := tls.Client(conn, &tls.Config{
		ServerName:         c.target.Hostname,
		InsecureSkipVerify: true, //nolint:gosec
	})
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrHandshake, err.Error())
	}

	state := tlsConn.ConnectionState()
	if len(state.PeerCertificates) == 0 {
		return nil, fmt.Errorf("%w: peer presented no certificate", ErrHandshake)
	}

	c.logger.Debug("captured peer certificate",
		"subject", state.PeerCertificates[0].Subject.String(),
		"not_after", state.PeerCertificates[0].NotAfter,
		"chain_length", len(state.PeerCertificates))

	return &CertificateHandle{
		Leaf:  state.PeerCertificates[0],
		Chain: state.PeerCertificates,
	}, nil
}

// verifyPKIX validates the presented chain with hostname verification.
// A nil roots pool uses the system trust store. Expiry at handshake time
// is part of x509 verification.
func verifyPKIX(handle *CertificateHandle, hostname string, roots *x509.CertPool) error {
	intermediates := x509.NewCertPool()
	for _, cert := range handle.Chain[1:] {
		intermediates.AddCert(cert)
	}
	_, err := handle.Leaf.Verify(x509.VerifyOptions{
		DNSName:       hostname,
		Roots:         roots,
		Intermediates: intermediates,
	})
	if err != nil {
		return fmt.Errorf("%w: %s", ErrCertificateTrust, err.Error())
	}
	return nil
}
