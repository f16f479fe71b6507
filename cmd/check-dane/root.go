// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/check-dane/pkg/check"
	"github.com/jeremyhahn/check-dane/pkg/starttls"
)

const defaultTimeoutSeconds = 10

var (
	hostname       string
	port           uint16
	tlsaPort       uint16
	connectIP      string
	starttlsProto  string
	checkPKIX      bool
	expirySpec     string
	noDNSSEC       bool
	nameserver     string
	timeoutSeconds int

	quiet     bool
	debug     bool
	logFormat string
)

// logLevel controls the global slog level at runtime.
var logLevel = new(slog.LevelVar)

// exitFunc is the function called to exit the program.
// This can be overridden in tests to capture exit calls.
var exitFunc = os.Exit

// outWriter receives the single plugin output line.
// This can be overridden in tests to capture output.
var outWriter io.Writer = os.Stdout

var rootCmd = &cobra.Command{
	Use:   "check-dane",
	Short: "DANE/TLSA certificate check plugin",
	Long: `check-dane validates that a server's TLS certificate is authorized by a
DNSSEC-authenticated DANE/TLSA record (RFC 6698), optionally negotiating
TLS via STARTTLS (SMTP, IMAP, or XMPP) first.

The result is reported in Nagios/Icinga plugin convention: one line
"DANE OK|WARNING|CRITICAL|UNKNOWN - <message>" on stdout and the
matching exit code 0-3. Diagnostics go to stderr only.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initLogging()
	},
	RunE: runCheck,
}

func init() {
	rootCmd.Flags().StringVarP(&hostname, "hostname", "H", "", "hostname to validate (required)")
	rootCmd.Flags().Uint16VarP(&port, "port", "p", 0, "TCP port to connect to (required)")
	rootCmd.Flags().Uint16Var(&tlsaPort, "tlsa-port", 0, "port for the TLSA lookup (default: connect port)")
	rootCmd.Flags().StringVar(&connectIP, "connect-ip", "", "IP address to connect to (default: hostname)")
	rootCmd.Flags().StringVar(&starttlsProto, "starttls", "", "negotiate STARTTLS first (smtp|imap|xmpp)")
	rootCmd.Flags().BoolVar(&checkPKIX, "check-pkix", false, "additionally verify PKIX trust and hostname")
	rootCmd.Flags().StringVar(&expirySpec, "expiry", "", "expiry thresholds in days, warn[,crit] (requires --check-pkix)")
	rootCmd.Flags().BoolVar(&noDNSSEC, "no-dnssec", false, "do not require DNSSEC authentication of the TLSA response")
	rootCmd.Flags().StringVar(&nameserver, "nameserver", "", "DNS resolver address (default: system resolver)")
	rootCmd.Flags().IntVar(&timeoutSeconds, "timeout", defaultTimeoutSeconds, "I/O timeout in seconds (0 = no timeout)")

	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress diagnostic output (errors only)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log output format (text|json)")

	rootCmd.AddCommand(versionCmd)
}

// initLogging configures the global slog logger based on CLI flags.
//
//	--debug: LevelDebug with source location
//	default: LevelInfo
//	--quiet: LevelError (only errors shown)
//
// --debug takes precedence over --quiet.
// --log-format selects the handler: "text" (default) or "json".
func initLogging() {
	switch {
	case debug:
		logLevel.Set(slog.LevelDebug)
	case quiet:
		logLevel.Set(slog.LevelError)
	default:
		logLevel.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{
		Level:     logLevel,
		AddSource: debug,
	}

	handlers := map[string]func(io.Writer, *slog.HandlerOptions) slog.Handler{
		"text": func(w io.Writer, o *slog.HandlerOptions) slog.Handler { return slog.NewTextHandler(w, o) },
		"json": func(w io.Writer, o *slog.HandlerOptions) slog.Handler { return slog.NewJSONHandler(w, o) },
	}

	factory, ok := handlers[logFormat]
	if !ok {
		factory = handlers["text"]
	}

	handler := factory(os.Stderr, opts)
	slog.SetDefault(slog.New(handler))
}

// runCheck builds the checker from the flags, executes the single
// validation run, and converts the outcome into the plugin line and
// exit code.
func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	checker, err := check.New(cfg)
	if err != nil {
		return err
	}

	out := checker.Run(context.Background())
	fmt.Fprintln(outWriter, out.String())
	exitFunc(out.Status.ExitCode())
	return nil
}

// buildConfig translates the flag surface into a checker configuration.
func buildConfig() (*check.Config, error) {
	if hostname == "" {
		return nil, fmt.Errorf("--hostname is required")
	}
	if port == 0 {
		return nil, fmt.Errorf("--port is required")
	}

	expiry, err := parseExpiry(expirySpec)
	if err != nil {
		return nil, err
	}
	if expiry != nil && !checkPKIX {
		return nil, fmt.Errorf("--expiry requires --check-pkix")
	}

	target, err := check.NewTarget(&check.TargetConfig{
		Hostname:  hostname,
		ConnectIP: connectIP,
		Port:      port,
		TLSAPort:  tlsaPort,
		Protocol:  starttls.Protocol(starttlsProto),
	})
	if err != nil {
		return nil, err
	}
	if timeoutSeconds < 0 {
		return nil, fmt.Errorf("--timeout must not be negative")
	}

	return &check.Config{
		Target:     target,
		Nameserver: nameserver,
		RequireAD:  !noDNSSEC,
		CheckPKIX:  checkPKIX,
		Expiry:     expiry,
		Timeout:    time.Duration(timeoutSeconds) * time.Second,
	}, nil
}

// parseExpiry parses the "warn[,crit]" day threshold specification.
func parseExpiry(spec string) (*check.ExpiryThresholds, error) {
	if spec == "" {
		return nil, nil
	}

	parts := strings.SplitN(spec, ",", 2)
	warn, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || warn <= 0 {
		return nil, fmt.Errorf("invalid expiry warning threshold %q", parts[0])
	}

	thresholds := &check.ExpiryThresholds{WarningDays: warn}
	if len(parts) == 2 {
		crit, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil || crit <= 0 {
			return nil, fmt.Errorf("invalid expiry critical threshold %q", parts[1])
		}
		thresholds.CriticalDays = crit
	}

	return thresholds, nil
}
