package config

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// NetAddress holds structured network address data for host and port.
// It implements the flag.Value interface.
type NetAddress struct {
	Host string
	Port int
}

// parseFlags parses configuration flags from args.
//
// Flags:
//
//	-env application mode (development|production)
//	-a server address in format [host]:[port]
//	-d database DSN
//	-snapshot in-memory store snapshot file
//	-seed-dir directory with <collection>.json seed files
//	-static static asset directory
//	-c/-config json file path with configs
//	-token-sign-key token signing key
//	-token-issuer token issuer name
//	-token-duration token duration (e.g., "1h", "2160h")
//	-body-limit request body ceiling in bytes
//	-cors-origins comma separated allowed origins
//	-rate-limit requests per client per window
//	-rate-window rate limit window (e.g., "1h")
//	-redis-url redis URL for a shared rate limiter
//	-trust-proxy take the client address from proxy headers
//	-webhook-secret payment webhook signing secret
func parseFlags(args []string) (*StructuredConfig, error) {
	fs := flag.NewFlagSet("natours", flag.ContinueOnError)

	var serverAddress NetAddress
	var mode, staticDir string
	var databaseDSN, snapshotFile, seedDir string
	var jsonConfigPath string
	var tokenSignKey, tokenIssuer string
	var tokenDuration time.Duration
	var bodyLimit int64
	var corsOrigins string
	var rateLimit int
	var rateWindow time.Duration
	var redisURL string
	var trustProxy bool
	var webhookSecret string

	fs.StringVar(&mode, "env", "", "Application mode (development|production)")
	fs.Var(&serverAddress, "a", "Net address host:port")
	fs.StringVar(&databaseDSN, "d", "", "Database DSN")
	fs.StringVar(&snapshotFile, "snapshot", "", "In-memory store snapshot file")
	fs.StringVar(&seedDir, "seed-dir", "", "Directory with <collection>.json seed files")
	fs.StringVar(&staticDir, "static", "", "Static asset directory")
	fs.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	fs.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")
	fs.StringVar(&tokenSignKey, "token-sign-key", "", "Token signing key")
	fs.StringVar(&tokenIssuer, "token-issuer", "", "Token issuer")
	fs.DurationVar(&tokenDuration, "token-duration", 0, "Token duration (e.g., 1h, 2160h)")
	fs.Int64Var(&bodyLimit, "body-limit", 0, "Request body ceiling in bytes")
	fs.StringVar(&corsOrigins, "cors-origins", "", "Comma separated allowed origins")
	fs.IntVar(&rateLimit, "rate-limit", 0, "Requests per client per window")
	fs.DurationVar(&rateWindow, "rate-window", 0, "Rate limit window (e.g., 1h)")
	fs.StringVar(&redisURL, "redis-url", "", "Redis URL for a shared rate limiter")
	fs.BoolVar(&trustProxy, "trust-proxy", false, "Take the client address from proxy headers")
	fs.StringVar(&webhookSecret, "webhook-secret", "", "Payment webhook signing secret")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("error parsing flags: %w", err)
	}

	return &StructuredConfig{
		App: App{
			Env:       mode,
			StaticDir: staticDir,
		},
		Auth: Auth{
			TokenSignKey:  tokenSignKey,
			TokenIssuer:   tokenIssuer,
			TokenDuration: tokenDuration,
		},
		Security: Security{
			BodyLimit:   bodyLimit,
			CORSOrigins: splitList(corsOrigins),
		},
		RateLimit: RateLimit{
			Max:        rateLimit,
			Window:     rateWindow,
			RedisURL:   redisURL,
			TrustProxy: trustProxy,
		},
		Webhook: Webhook{
			Secret: webhookSecret,
		},
		Storage: Storage{
			DB:    DB{DSN: databaseDSN},
			Files: Files{SnapshotFile: snapshotFile, SeedDir: seedDir},
		},
		Server: Server{
			HTTPAddress: serverAddress.String(),
		},
		JSONFilePath: jsonConfigPath,
	}, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// String returns a canonical host:port string for a NetAddress.
// If neither Host nor Port are set, it returns "".
func (a *NetAddress) String() string {
	if a.Host == "" && a.Port == 0 {
		return ""
	}

	return a.Host + ":" + strconv.Itoa(a.Port)
}

// Set parses the input string of form [host]:port and populates the
// NetAddress. An empty host listens on all interfaces; any other host must
// be "localhost" or an IP address.
func (a *NetAddress) Set(s string) error {
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return errors.New("need address in a form `host:port`")
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return err
	}

	if port < 1 {
		return errors.New("port number is a positive integer")
	}

	if host != "" && host != "localhost" && net.ParseIP(host) == nil {
		return errors.New("incorrect IP-address provided")
	}

	a.Host = host
	a.Port = port
	return nil
}
