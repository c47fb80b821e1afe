// Package config provides configuration management for the label station.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Printer gateway modes.
const (
	PrinterModeAgent    = "agent"
	PrinterModeTCP      = "tcp"
	PrinterModeDisabled = "disabled"
)

// StationConfig holds the station's runtime configuration.
type StationConfig struct {
	// Printer gateway selection.
	PrinterMode string
	AgentURL    string // agent mode: Browser Print agent base URL
	PrinterAddr string // tcp mode: host:port of the raw-9100 printer

	// Scale transport. Empty device disables the reader.
	ScaleDevice string
	ScaleBaud   int

	// Policy.
	EnforceUniqueLots bool
	ExpiryYears       int

	// Admin surfaces. Empty address disables the listener.
	AdminAddr  string // Prometheus /metrics + /healthz
	HealthAddr string // gRPC health endpoint for line supervision

	RequestTimeout time.Duration
}

// DefaultStationConfig returns configuration with default values.
func DefaultStationConfig() *StationConfig {
	return &StationConfig{
		PrinterMode:       PrinterModeAgent,
		AgentURL:          "http://127.0.0.1:9100",
		ScaleBaud:         9600,
		EnforceUniqueLots: true,
		ExpiryYears:       2,
		RequestTimeout:    30 * time.Second,
	}
}

// OfflineSecret reads the operator secret from the environment.
// Environment-only: the secret gates the degraded operating mode and must
// not live in config files. Leading/trailing whitespace is stripped so a
// trailing newline in a systemd credential file cannot break matching.
func OfflineSecret() (string, error) {
	secret := strings.TrimSpace(os.Getenv("LS_OFFLINE_SECRET"))
	if secret == "" {
		return "", fmt.Errorf("no offline secret configured (set LS_OFFLINE_SECRET environment variable)")
	}
	if len(secret) < 8 {
		return "", fmt.Errorf("offline secret must be at least 8 characters, got %d", len(secret))
	}
	return secret, nil
}
