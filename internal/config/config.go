// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ListenAddr string
	DBPath     string
	JWTSecret  string
	// ServiceTag is this instance's identity inside the federation. It is
	// embedded into author refs exported to peers, so changing it after
	// reviews have been exported breaks author resolution on their side.
	ServiceTag string
}

// Load reads configuration from environment variables and returns a validated
// Config. QUILLHUB_JWT_SECRET is required. Optional variables with defaults:
// QUILLHUB_LISTEN_ADDR (127.0.0.1:8080), QUILLHUB_DB_PATH (quillhub.db),
// QUILLHUB_SERVICE_TAG (quillhub).
func Load() (*Config, error) {
	secret := os.Getenv("QUILLHUB_JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("QUILLHUB_JWT_SECRET must be set")
	}

	listenAddr := "127.0.0.1:8080"
	if v, ok := os.LookupEnv("QUILLHUB_LISTEN_ADDR"); ok {
		listenAddr = v
	}

	dbPath := "quillhub.db"
	if v, ok := os.LookupEnv("QUILLHUB_DB_PATH"); ok {
		dbPath = v
	}

	serviceTag := "quillhub"
	if v, ok := os.LookupEnv("QUILLHUB_SERVICE_TAG"); ok && v != "" {
		serviceTag = strings.ToLower(strings.TrimSpace(v))
	}

	return &Config{
		ListenAddr: listenAddr,
		DBPath:     dbPath,
		JWTSecret:  secret,
		ServiceTag: serviceTag,
	}, nil
}

// OverridePort replaces the port of ListenAddr, keeping its host. Used for
// the -port command-line flag, which takes precedence over the environment.
func (c *Config) OverridePort(port int) {
	host, _, err := net.SplitHostPort(c.ListenAddr)
	if err != nil {
		host = c.ListenAddr
	}
	c.ListenAddr = net.JoinHostPort(host, strconv.Itoa(port))
}
