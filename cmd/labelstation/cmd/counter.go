package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/canline/labelstation/internal/core/db"
	"github.com/canline/labelstation/internal/store"
	"github.com/canline/labelstation/internal/types"
)

var counterCmd = &cobra.Command{
	Use:   "counter",
	Short: "Inspect or provision the shared print counter",
}

var counterShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current counter value",
	RunE: func(cmd *cobra.Command, args []string) error {
		counters, cleanup, err := openCounterStore()
		if err != nil {
			return err
		}
		defer cleanup()

		c, err := counters.Read(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("counter %s: next can id %d\n", c.Handle, c.NextID)
		return nil
	},
}

var counterSetCmd = &cobra.Command{
	Use:   "set <next-id>",
	Short: "Set the counter value (provisioning and manual correction)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		next, err := strconv.Atoi(args[0])
		if err != nil || next < 0 {
			return fmt.Errorf("next-id must be a non-negative integer, got %q", args[0])
		}

		counters, cleanup, err := openCounterStore()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := context.Background()
		c, err := counters.Read(ctx)
		if errors.Is(err, types.ErrCounterMissing) {
			handle, _ := cmd.Flags().GetString("handle")
			if err := counters.Init(ctx, handle, next); err != nil {
				return err
			}
			fmt.Printf("counter %s created: next can id %d\n", handle, next)
			return nil
		}
		if err != nil {
			return err
		}

		if err := counters.Set(ctx, c.Handle, next); err != nil {
			return err
		}
		fmt.Printf("counter %s: next can id %d (was %d)\n", c.Handle, next, c.NextID)
		return nil
	},
}

func openCounterStore() (*store.CounterStore, func(), error) {
	if dbURL == "" {
		return nil, nil, fmt.Errorf("--db-url required")
	}
	database, err := db.Open(dbURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	queries, err := db.LoadQueries(database)
	if err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("failed to load queries: %w", err)
	}
	return store.NewCounterStore(queries), func() { database.Close() }, nil
}

func init() {
	counterSetCmd.Flags().String("handle", "line-1", "counter handle used when creating a missing counter")
	counterCmd.AddCommand(counterShowCmd)
	counterCmd.AddCommand(counterSetCmd)
	rootCmd.AddCommand(counterCmd)
}
