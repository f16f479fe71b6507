// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package check

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jeremyhahn/check-dane/pkg/dane"
)

// TLSAResolver abstracts TLSA DNS record lookup for dependency injection.
// This interface enables both production DNS resolution and test doubles.
type TLSAResolver interface {
	// LookupTLSA resolves TLSA records for the given hostname and port.
	LookupTLSA(ctx context.Context, hostname string, port uint16) ([]*dane.TLSARecord, error)
}

// Config configures a Checker.
type Config struct {
	// Target is the validation target. Required.
	Target *Target

	// Resolver overrides the TLSA resolver. When nil, a production
	// resolver is built from Nameserver, RequireAD, and Timeout.
	Resolver TLSAResolver

	// Nameserver is a custom DNS resolver address, host or host:port.
	// Empty uses the system resolver.
	Nameserver string

	// RequireAD requires DNSSEC authentication of the TLSA response.
	RequireAD bool

	// CheckPKIX additionally validates the presented chain against the
	// trust store, including hostname verification.
	CheckPKIX bool

	// RootCAs overrides the system trust store for the PKIX check.
	RootCAs *x509.CertPool

	// Expiry enables certificate expiry threshold evaluation. Only
	// consulted when CheckPKIX is also set.
	Expiry *ExpiryThresholds

	// Timeout is the run-wide I/O timeout applied uniformly to the
	// plaintext exchange, the TLS handshake, and the DNS query.
	// Zero means no timeout.
	Timeout time.Duration

	// Logger for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Checker performs exactly one DANE validation run and terminates. It
// holds no mutable state across runs beyond its immutable configuration.
type Checker struct {
	target    *Target
	resolver  TLSAResolver
	requireAD bool
	checkPKIX bool
	rootCAs   *x509.CertPool
	expiry    *ExpiryThresholds
	timeout   time.Duration
	logger    *slog.Logger
}

// New creates a Checker from the given configuration.
func New(cfg *Config) (*Checker, error) {
	if cfg == nil || cfg.Target == nil {
		return nil, fmt.Errorf("%w: target required", ErrInvalidConfig)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "checker")

	resolver := cfg.Resolver
	if resolver == nil {
		r, err := dane.NewResolver(&dane.ResolverConfig{
			Server:    cfg.Nameserver,
			RequireAD: cfg.RequireAD,
			Timeout:   cfg.Timeout,
			Logger:    logger,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidConfig, err.Error())
		}
		resolver = r
	}

	return &Checker{
		target:    cfg.Target,
		resolver:  resolver,
		requireAD: cfg.RequireAD,
		checkPKIX: cfg.CheckPKIX,
		rootCAs:   cfg.RootCAs,
		expiry:    cfg.Expiry,
		timeout:   cfg.Timeout,
		logger:    logger,
	}, nil
}

// Run executes the validation: probe the server for its certificate,
// resolve the TLSA RRset, match, then apply the optional PKIX and expiry
// checks. The first fatal condition encountered determines the single
// reported outcome; nothing is retried and nothing is silently
// downgraded.
func (c *Checker) Run(ctx context.Context) *Outcome {
	handle, err := c.fetchCertificate(ctx)
	if err != nil {
		return c.outcomeFromError(err)
	}

	records, err := c.resolver.LookupTLSA(ctx, c.target.Hostname, c.target.TLSAPort)
	if err != nil {
		return c.outcomeFromError(err)
	}

	if !dane.MatchAny(handle.Leaf, records) {
		c.logger.Debug("no TLSA record matched", "records", len(records))
		return &Outcome{
			Status:  StatusCritical,
			Message: "certificate doesn't match TLSA record",
		}
	}

	if c.checkPKIX {
		if err := verifyPKIX(handle, c.target.Hostname, c.rootCAs); err != nil {
			return c.outcomeFromError(err)
		}
		if out := EvaluateExpiry(handle.Leaf.NotAfter, time.Now(), c.expiry); out != nil {
			return out
		}
	}

	return &Outcome{Status: StatusOK, Message: c.okMessage()}
}

// okMessage builds the success message. It always states whether DNSSEC
// authentication was enforced, and names both endpoints when the connect
// target diverges from the TLSA lookup target.
func (c *Checker) okMessage() string {
	msg := "certificate matches TLSA record"
	if c.target.LookupDiffers() {
		msg = fmt.Sprintf("certificate at %s matches TLSA record %s",
			c.target.ConnectAddr(), c.target.TLSAName())
	}
	if c.requireAD {
		return msg + ", DNSSEC verified"
	}
	return msg + ", DNSSEC not checked"
}

// outcomeFromError maps a fatal run error to its severity. This is the
// single boundary where the error taxonomy turns into plugin statuses:
// DNS denial of existence, trust failures, and mismatches are Critical;
// everything preventing a verdict is Unknown.
func (c *Checker) outcomeFromError(err error) *Outcome {
	switch {
	case errors.Is(err, dane.ErrNoTLSARecords):
		return &Outcome{
			Status:  StatusCritical,
			Message: "No DNS TLSA record found: " + c.target.TLSAName(),
		}
	case errors.Is(err, ErrCertificateTrust):
		return &Outcome{Status: StatusCritical, Message: err.Error()}
	case errors.Is(err, dane.ErrDNSSECRequired):
		return &Outcome{
			Status:  StatusUnknown,
			Message: "DNS response not DNSSEC authenticated: " + c.target.TLSAName(),
		}
	default:
		// Protocol, connection, handshake, and remaining DNS failures all
		// prevent a verdict.
		return &Outcome{Status: StatusUnknown, Message: err.Error()}
	}
}
