package config_test

import (
	"testing"

	"github.com/grepsan/huddle/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load(config.Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.ListenAddr != config.DefaultListenAddr {
		t.Errorf("ListenAddr = %q, want %q", cfg.ListenAddr, config.DefaultListenAddr)
	}
	if cfg.LogLevel != config.DefaultLogLevel {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, config.DefaultLogLevel)
	}
	if cfg.STUNServer != config.DefaultSTUN {
		t.Errorf("STUNServer = %q, want %q", cfg.STUNServer, config.DefaultSTUN)
	}
	if len(cfg.AllowedOrigins) != 0 {
		t.Errorf("AllowedOrigins = %v, want empty", cfg.AllowedOrigins)
	}
}

func TestLoadLayering(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":4000")
	t.Setenv("LOG_LEVEL", "warn")

	// Flag beats env, env beats default.
	cfg, err := config.Load(config.Options{ListenAddr: ":5000"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.ListenAddr != ":5000" {
		t.Errorf("ListenAddr = %q, want flag value :5000", cfg.ListenAddr)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want env value warn", cfg.LogLevel)
	}
}

func TestLoadAllowedOrigins(t *testing.T) {
	cfg, err := config.Load(config.Options{
		AllowedOrigins: "https://a.example.com, https://b.example.com",
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(cfg.AllowedOrigins) != 2 {
		t.Fatalf("AllowedOrigins = %v, want 2 entries", cfg.AllowedOrigins)
	}
	if !cfg.OriginAllowed("https://a.example.com") {
		t.Error("allowed origin rejected")
	}
	if !cfg.OriginAllowed("HTTPS://A.EXAMPLE.COM") {
		t.Error("origin matching should be case-insensitive")
	}
	if cfg.OriginAllowed("https://evil.example.com") {
		t.Error("unlisted origin accepted")
	}
}

func TestOriginAllowedOpenByDefault(t *testing.T) {
	cfg, err := config.Load(config.Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.OriginAllowed("https://anything.example.com") {
		t.Error("empty allowlist should accept all origins")
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		opts config.Options
	}{
		{name: "bad listen addr", opts: config.Options{ListenAddr: "no-port"}},
		{name: "bad log level", opts: config.Options{LogLevel: "loud"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := config.Load(tt.opts); err == nil {
				t.Fatal("Load succeeded, want error")
			}
		})
	}
}
