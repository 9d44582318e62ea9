package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"nitpickr-api/config"
	"nitpickr-api/database"
	"nitpickr-api/internal/cache"
	"nitpickr-api/internal/logger"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var log = logger.New("cmd")

// RootCmd runs the API server when called without a subcommand.
var RootCmd = &cobra.Command{
	Use:          "nitpickr-api [command]",
	Short:        "Nitpickr API server and maintenance tools",
	SilenceUsage: true,
	RunE:         runServe,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.New(color.FgRed, color.Bold).Sprint("Error: ")+err.Error())
		os.Exit(1)
	}
}

// bootstrap loads the environment and opens the database. Redis is optional:
// a connection failure is logged and the returned store is nil.
func bootstrap(ctx context.Context) (*cache.Store, error) {
	config.LoadEnv()

	if err := database.InitDB(config.DB_URL); err != nil {
		return nil, err
	}

	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := cache.Init(connectCtx, config.REDIS_URL); err != nil {
		log.Warn("Redis unavailable, usage tracking and caching disabled", "error", err)
		return nil, nil
	}
	return cache.Client, nil
}
