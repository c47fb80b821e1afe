package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/canline/labelstation/internal/core/config"
	"github.com/canline/labelstation/internal/core/db"
	"github.com/canline/labelstation/internal/core/logging"
	"github.com/canline/labelstation/internal/core/server"
	"github.com/canline/labelstation/internal/observability"
	"github.com/canline/labelstation/internal/printer"
	"github.com/canline/labelstation/internal/scale"
	"github.com/canline/labelstation/internal/station"
	"github.com/canline/labelstation/internal/store"
)

const Version = "0.1.0"

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the interactive labeling station",
	RunE:  runStation,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().String("scale-device", "", "serial device of the scale (overrides config)")
	runCmd.Flags().String("printer-mode", "", "printer gateway mode: agent, tcp, disabled (overrides config)")
}

func runStation(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log, err := logging.Setup(logLevel, logFormat)
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cmd.Flags().Changed("scale-device") {
		cfg.ScaleDevice, _ = cmd.Flags().GetString("scale-device")
	}
	if cmd.Flags().Changed("printer-mode") {
		cfg.PrinterMode, _ = cmd.Flags().GetString("printer-mode")
	}

	secret, err := config.OfflineSecret()
	if err != nil {
		return err
	}

	if dbURL == "" {
		return fmt.Errorf("--db-url required")
	}
	database, err := db.Open(dbURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	var migrationID string
	checkQuery := `SELECT migration_id FROM migrations WHERE migration_id = '001_initial_schema.sql'`
	if err := database.Get(&migrationID, database.Rebind(checkQuery)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("schema not provisioned - run 'labelstation migrate up' first")
		}
		return fmt.Errorf("failed to check migrations: %w", err)
	}

	queries, err := db.LoadQueries(database)
	if err != nil {
		return fmt.Errorf("failed to load queries: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	metrics := observability.NewMetrics(registry)

	gateway, err := buildGateway(cfg)
	if err != nil {
		return err
	}

	ctrl := station.NewController(
		store.NewCounterStore(queries),
		store.NewEventStore(queries),
		store.NewCatalog(queries),
		gateway,
		station.NewSecretMatcher(secret),
		station.Config{EnforceUniqueLots: cfg.EnforceUniqueLots},
		log,
		metrics,
	)

	loadCtx, loadCancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	err = ctrl.Load(loadCtx)
	loadCancel()
	if err != nil {
		return err
	}

	console := station.NewConsole(ctrl, os.Stdin, os.Stdout, cfg.ExpiryYears)

	if cfg.ScaleDevice != "" {
		transport := scale.NewSerialTransport(cfg.ScaleDevice, cfg.ScaleBaud)
		reader := scale.NewReader(transport, log,
			func(grams int) {
				metrics.ObserveScaleReading()
				console.SetWeight(grams)
			},
			console.SetScaleStatus,
		)
		go reader.Run(ctx)
	} else {
		log.Info("no scale device configured, weight is manual entry only")
	}

	var admin *server.AdminServer
	if cfg.AdminAddr != "" {
		admin = server.NewAdminServer(cfg.AdminAddr, registry)
		go func() {
			if err := admin.Start(ctx); err != nil {
				log.Error("admin server stopped", "error", err)
			}
		}()
	}

	var healthSrv *server.HealthServer
	if cfg.HealthAddr != "" {
		healthSrv = server.NewHealthServer(cfg.HealthAddr)
		go func() {
			if err := healthSrv.Start(ctx); err != nil {
				log.Error("health server stopped", "error", err)
			}
		}()
		// Line supervision sees NOT_SERVING while the store is unreachable.
		go healthSrv.Supervise(ctx, 15*time.Second, database.PingContext)
	}

	log.Info("label station ready",
		"version", Version,
		"printer_mode", cfg.PrinterMode,
		"unique_lots", cfg.EnforceUniqueLots)

	errChan := make(chan error, 1)
	go func() {
		errChan <- console.Run(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err = <-errChan:
	case <-sigChan:
		log.Info("shutting down")
		cancel()
		err = nil
	}

	if admin != nil {
		_ = admin.Shutdown(context.Background())
	}
	if healthSrv != nil {
		_ = healthSrv.Shutdown(context.Background())
	}
	return err
}

// buildGateway selects the printer gateway adapter from config.
func buildGateway(cfg *config.StationConfig) (printer.Gateway, error) {
	switch cfg.PrinterMode {
	case config.PrinterModeAgent:
		return printer.NewAgentGateway(cfg.AgentURL), nil
	case config.PrinterModeTCP:
		return printer.NewTCPGateway(cfg.PrinterAddr), nil
	case config.PrinterModeDisabled:
		return printer.Disabled{}, nil
	default:
		return nil, fmt.Errorf("unknown printer mode %q", cfg.PrinterMode)
	}
}
