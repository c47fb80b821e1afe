package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/canline/labelstation/internal/core/config"
	"github.com/canline/labelstation/internal/core/db"
	"github.com/canline/labelstation/internal/station"
	"github.com/canline/labelstation/internal/store"
)

var reprintCmd = &cobra.Command{
	Use:   "reprint <can-id>",
	Short: "Re-print the label for a recorded print event",
	Long:  `reprint looks up the recorded print event for a can identifier and sends its label to the printer again. The counter does not move and no new event is recorded.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		canID, err := strconv.Atoi(args[0])
		if err != nil || canID < 0 {
			return fmt.Errorf("can-id must be a non-negative integer, got %q", args[0])
		}

		cfg, err := config.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		gateway, err := buildGateway(cfg)
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
		queries, err := db.LoadQueries(database)
		if err != nil {
			return fmt.Errorf("failed to load queries: %w", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
		defer cancel()

		out, err := station.Reprint(ctx,
			store.NewEventStore(queries), store.NewCatalog(queries), gateway, canID)
		if err != nil {
			return err
		}
		fmt.Println(out.Message)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reprintCmd)
}
