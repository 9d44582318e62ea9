package cmd

import (
	"fmt"

	"nitpickr-api/database"
	"nitpickr-api/internal/usage"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var cleanupUsageCmd = &cobra.Command{
	Use:   "cleanup-usage",
	Short: "Reset every usage counter now",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		if store == nil {
			return fmt.Errorf("redis is required for usage cleanup")
		}
		defer store.Close()

		n, err := usage.NewService(database.DB, store).Cleanup(cmd.Context())
		if err != nil {
			return err
		}
		color.New(color.FgGreen, color.Bold).Printf("✅ Reset %d usage counters\n", n)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(cleanupUsageCmd)
}
