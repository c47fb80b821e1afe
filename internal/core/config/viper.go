package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig loads configuration from file using viper.
// CLI flags > environment > config file > defaults precedence.
func LoadConfig(configPath string) (*StationConfig, error) {
	v := viper.New()

	// Defaults matching DefaultStationConfig
	v.SetDefault("station.printer_mode", PrinterModeAgent)
	v.SetDefault("station.agent_url", "http://127.0.0.1:9100")
	v.SetDefault("station.printer_addr", "")
	v.SetDefault("station.scale_device", "")
	v.SetDefault("station.scale_baud", 9600)
	v.SetDefault("station.enforce_unique_lots", true)
	v.SetDefault("station.expiry_years", 2)
	v.SetDefault("station.admin_addr", "")
	v.SetDefault("station.health_addr", "")
	v.SetDefault("station.request_timeout", "30s")

	// Bind environment variables with LS_ prefix
	v.SetEnvPrefix("LS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Security check: the offline secret must never live in a config file
	if err := validateNoSecretsInConfig(v); err != nil {
		return nil, err
	}

	cfg := &StationConfig{
		PrinterMode:       v.GetString("station.printer_mode"),
		AgentURL:          v.GetString("station.agent_url"),
		PrinterAddr:       v.GetString("station.printer_addr"),
		ScaleDevice:       v.GetString("station.scale_device"),
		ScaleBaud:         v.GetInt("station.scale_baud"),
		EnforceUniqueLots: v.GetBool("station.enforce_unique_lots"),
		ExpiryYears:       v.GetInt("station.expiry_years"),
		AdminAddr:         v.GetString("station.admin_addr"),
		HealthAddr:        v.GetString("station.health_addr"),
		RequestTimeout:    v.GetDuration("station.request_timeout"),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateConfig checks mode-dependent required fields and positive values.
func validateConfig(cfg *StationConfig) error {
	switch cfg.PrinterMode {
	case PrinterModeAgent, PrinterModeDisabled:
	case PrinterModeTCP:
		if cfg.PrinterAddr == "" {
			return fmt.Errorf("printer_addr required when printer_mode is tcp")
		}
	default:
		return fmt.Errorf("printer_mode must be one of agent, tcp, disabled, got %q", cfg.PrinterMode)
	}
	if cfg.ScaleBaud <= 0 {
		return fmt.Errorf("scale_baud must be positive, got %d", cfg.ScaleBaud)
	}
	if cfg.ExpiryYears <= 0 {
		return fmt.Errorf("expiry_years must be positive, got %d", cfg.ExpiryYears)
	}
	if cfg.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", cfg.RequestTimeout)
	}
	return nil
}

// validateNoSecretsInConfig enforces environment-only secrets.
func validateNoSecretsInConfig(v *viper.Viper) error {
	if v.IsSet("offline_secret") || v.IsSet("station.offline_secret") {
		return fmt.Errorf("offline secret not allowed in config files (use LS_OFFLINE_SECRET environment variable)")
	}
	return nil
}
