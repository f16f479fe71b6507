// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package starttls

import (
	"bufio"
	"fmt"
	"net"
	"strings"
)

// imapTag is the fixed tag used for the commands this negotiator sends.
// A checker issues exactly two commands per connection, so a fixed tag
// is unambiguous.
const imapTag = "."

// IMAPNegotiator upgrades an IMAP session per RFC 2595: read the
// untagged greeting, issue a tagged CAPABILITY command, require the
// STARTTLS capability, issue a tagged STARTTLS command, and require a
// tagged OK.
type IMAPNegotiator struct{}

// Negotiate drives the IMAP STARTTLS exchange on conn.
func (n *IMAPNegotiator) Negotiate(conn net.Conn) error {
	reader := bufio.NewReader(conn)
	writer := bufio.NewWriter(conn)

	greeting, err := readLine(reader)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(greeting, "* ") {
		return fmt.Errorf("%w: unexpected IMAP greeting %q", ErrProtocol, greeting)
	}

	if err := writeLine(writer, imapTag+" CAPABILITY"); err != nil {
		return err
	}

	var hasStartTLS bool
	for {
		line, err := readLine(reader)
		if err != nil {
			return err
		}
		if strings.HasPrefix(line, "* CAPABILITY") && strings.Contains(line, "STARTTLS") {
			hasStartTLS = true
		}
		if strings.HasPrefix(line, imapTag+" ") {
			if !strings.HasPrefix(line, imapTag+" OK") {
				return fmt.Errorf("%w: CAPABILITY command failed: %s", ErrProtocol, line)
			}
			break
		}
	}
	if !hasStartTLS {
		return fmt.Errorf("%w: IMAP server did not advertise STARTTLS", ErrProtocol)
	}

	if err := writeLine(writer, imapTag+" STARTTLS"); err != nil {
		return err
	}

	line, err := readLine(reader)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(line, imapTag+" OK") {
		return fmt.Errorf("%w: STARTTLS command refused: %s", ErrProtocol, line)
	}

	return nil
}

// readLine reads one CRLF-terminated line.
func readLine(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
