// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package starttls

import (
	"bufio"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// SMTPNegotiator upgrades an SMTP session per RFC 3207: read the
// (possibly multi-line) 220 greeting, send EHLO, require a 250 response
// advertising STARTTLS, send STARTTLS, and require a 220 go-ahead.
type SMTPNegotiator struct {
	// ClientName is the name sent in the EHLO command.
	ClientName string
}

// Negotiate drives the SMTP STARTTLS exchange on conn.
func (n *SMTPNegotiator) Negotiate(conn net.Conn) error {
	reader := bufio.NewReader(conn)
	writer := bufio.NewWriter(conn)

	code, _, err := readSMTPResponse(reader)
	if err != nil {
		return err
	}
	if code != 220 {
		return fmt.Errorf("%w: unexpected SMTP greeting code %d", ErrProtocol, code)
	}

	if err := writeLine(writer, "EHLO "+n.ClientName); err != nil {
		return err
	}

	code, lines, err := readSMTPResponse(reader)
	if err != nil {
		return err
	}
	if code != 250 {
		return fmt.Errorf("%w: unexpected EHLO reply code %d", ErrProtocol, code)
	}
	if !smtpAdvertisesStartTLS(lines) {
		return fmt.Errorf("%w: SMTP server did not advertise STARTTLS", ErrProtocol)
	}

	if err := writeLine(writer, "STARTTLS"); err != nil {
		return err
	}

	code, _, err = readSMTPResponse(reader)
	if err != nil {
		return err
	}
	if code != 220 {
		return fmt.Errorf("%w: STARTTLS command refused with code %d", ErrProtocol, code)
	}

	return nil
}

// smtpAdvertisesStartTLS reports whether any EHLO reply line carries the
// STARTTLS keyword.
func smtpAdvertisesStartTLS(lines []string) bool {
	for _, line := range lines {
		if strings.Contains(line, "STARTTLS") {
			return true
		}
	}
	return false
}

// readSMTPResponse reads a complete, possibly multi-line SMTP reply.
// A reply is finished when a line's fourth character is not '-'. Returns
// the reply code of the final line and all lines read.
func readSMTPResponse(reader *bufio.Reader) (int, []string, error) {
	var lines []string
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return 0, nil, err
		}
		line = strings.TrimRight(line, "\r\n")
		lines = append(lines, line)

		code, done, err := parseSMTPLine(line)
		if err != nil {
			return 0, nil, err
		}
		if done {
			return code, lines, nil
		}
	}
}

// parseSMTPLine extracts the reply code from one SMTP reply line and
// reports whether the line terminates the reply.
func parseSMTPLine(line string) (int, bool, error) {
	if len(line) < 3 {
		return 0, false, fmt.Errorf("%w: short SMTP reply line %q", ErrProtocol, line)
	}
	code, err := strconv.Atoi(line[:3])
	if err != nil {
		return 0, false, fmt.Errorf("%w: invalid SMTP reply code in %q", ErrProtocol, line)
	}
	done := len(line) == 3 || line[3] != '-'
	return code, done, nil
}

// writeLine sends one CRLF-terminated command line.
func writeLine(writer *bufio.Writer, line string) error {
	if _, err := writer.WriteString(line + "\r\n"); err != nil {
		return err
	}
	return writer.Flush()
}
