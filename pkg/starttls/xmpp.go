// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package starttls

import (
	"fmt"
	"net"
	"strings"
)

// xmppTLSNamespace is the XML namespace of the XMPP STARTTLS extension.
const xmppTLSNamespace = "urn:ietf:params:xml:ns:xmpp-tls"

// xmppReadBuffer is the read buffer size for XMPP stream chunks. XMPP is
// not line-delimited, so responses are read in single chunks and scanned
// for the relevant elements.
const xmppReadBuffer = 4096

// XMPPNegotiator upgrades an XMPP client stream per RFC 6120 Section
// 5.4.2: open a stream addressed to the server, require a <starttls>
// feature in the XMPP-TLS namespace, request the upgrade, and require a
// <proceed> element.
type XMPPNegotiator struct {
	// ServerName is the host the stream header is addressed to.
	ServerName string
}

// Negotiate drives the XMPP STARTTLS exchange on conn.
func (n *XMPPNegotiator) Negotiate(conn net.Conn) error {
	header := fmt.Sprintf(
		"<?xml version='1.0'?><stream:stream to='%s' "+
			"version='1.0' xml:lang='en' xmlns='jabber:client' "+
			"xmlns:stream='http://etherx.jabber.org/streams'>",
		n.ServerName)
	if _, err := conn.Write([]byte(header)); err != nil {
		return err
	}

	features, err := readChunk(conn)
	if err != nil {
		return err
	}
	if !strings.Contains(features, "<starttls") || !strings.Contains(features, xmppTLSNamespace) {
		return fmt.Errorf("%w: XMPP server did not advertise STARTTLS", ErrProtocol)
	}

	request := fmt.Sprintf("<starttls xmlns='%s'/>", xmppTLSNamespace)
	if _, err := conn.Write([]byte(request)); err != nil {
		return err
	}

	response, err := readChunk(conn)
	if err != nil {
		return err
	}
	if !strings.Contains(response, "<proceed") {
		return fmt.Errorf("%w: XMPP server did not proceed with STARTTLS", ErrProtocol)
	}

	return nil
}

// readChunk reads one chunk of stream data from conn.
func readChunk(conn net.Conn) (string, error) {
	buf := make([]byte, xmppReadBuffer)
	read, err := conn.Read(buf)
	if err != nil {
		return "", err
	}
	return string(buf[:read]), nil
}
