package cmd

import (
	"fmt"
	"os"
	"strconv"

	"nitpickr-api/config"
	"nitpickr-api/database"
	"nitpickr-api/internal/billing"
	stripeinfra "nitpickr-api/internal/infra/stripe"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var syncStripeCmd = &cobra.Command{
	Use:   "sync-stripe",
	Short: "Replace local products, prices, tiers and subscriptions with Stripe's",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := bootstrap(cmd.Context()); err != nil {
			return err
		}
		if config.STRIPE_SECRET_KEY == "" {
			return fmt.Errorf("STRIPE_SECRET_KEY not set")
		}
		stripeinfra.Init(config.STRIPE_SECRET_KEY)

		stats, err := billing.NewSyncer(database.DB, billing.StripeSource{}).Sync(cmd.Context())
		if err != nil {
			return err
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Resource", "Synced"})
		table.Append([]string{"Products", strconv.FormatInt(stats.Products, 10)})
		table.Append([]string{"Prices", strconv.FormatInt(stats.Prices, 10)})
		table.Append([]string{"Subscriptions", strconv.FormatInt(stats.Subscriptions, 10)})
		table.Append([]string{"Skipped subscriptions", strconv.Itoa(stats.Skipped)})
		table.Render()

		color.New(color.FgGreen, color.Bold).Println("✅ Stripe sync complete")
		return nil
	},
}

func init() {
	RootCmd.AddCommand(syncStripeCmd)
}
