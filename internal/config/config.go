package config

import (
	"fmt"
	"net"
	"os"
	"strings"
)

// Default configuration values
const (
	DefaultListenAddr = ":3000"
	DefaultLogLevel   = "info"
	DefaultSTUN       = "stun:stun.l.google.com:19302"
	DefaultStaticDir  = "public"
)

// Config holds the server configuration.
type Config struct {
	// ListenAddr is the host:port the HTTP server binds to.
	ListenAddr string

	// LogLevel selects the slog level (debug, info, warn, error).
	LogLevel string

	// AllowedOrigins restricts websocket upgrades by Origin header.
	// Empty means all origins are accepted.
	AllowedOrigins []string

	// StaticDir is the directory of client assets served at /.
	StaticDir string

	// STUNServer is the rendezvous server address handed to clients for
	// NAT traversal. The signaling server never contacts it.
	STUNServer string
}

// Options for loading config with CLI flag overrides.
type Options struct {
	ListenAddr     string
	LogLevel       string
	AllowedOrigins string
	StaticDir      string
	STUNServer     string
}

// Load reads configuration with the following priority:
// 1. CLI flags (passed via Options) - highest priority
// 2. Environment variables
// 3. Hardcoded defaults - lowest priority
func Load(opts Options) (*Config, error) {
	cfg := &Config{
		ListenAddr: layered(opts.ListenAddr, "LISTEN_ADDR", DefaultListenAddr),
		LogLevel:   layered(opts.LogLevel, "LOG_LEVEL", DefaultLogLevel),
		StaticDir:  layered(opts.StaticDir, "STATIC_DIR", DefaultStaticDir),
		STUNServer: layered(opts.STUNServer, "STUN_SERVER", DefaultSTUN),
	}

	origins := layered(opts.AllowedOrigins, "ALLOWED_ORIGINS", "")
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}

	if _, _, err := net.SplitHostPort(cfg.ListenAddr); err != nil {
		return nil, fmt.Errorf("invalid listen address %q: %w", cfg.ListenAddr, err)
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid log level %q", cfg.LogLevel)
	}

	return cfg, nil
}

// OriginAllowed reports whether a websocket upgrade from origin should be
// accepted.
func (c *Config) OriginAllowed(origin string) bool {
	if len(c.AllowedOrigins) == 0 {
		return true
	}
	for _, allowed := range c.AllowedOrigins {
		if strings.EqualFold(origin, allowed) {
			return true
		}
	}
	return false
}

// layered returns the flag value if set, then the environment variable,
// then the default.
func layered(flagValue, envVar, def string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	return def
}
