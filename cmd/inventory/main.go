// Command inventory runs the order and inventory service and its
// maintenance tasks.
//
//	inventory serve               # HTTP + gRPC health + workers + scheduler
//	inventory migrate             # apply pending migrations
//	inventory seed                # load the sample catalogue and admin user
//	inventory queue:work -w 4     # dedicated webhook workers
//	inventory inventory:reconcile # apply the warehouse CSV once
//	inventory route:list
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/stockroom/config"
	"github.com/shashiranjanraj/stockroom/internal/app"
	"github.com/shashiranjanraj/stockroom/pkg/logger"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "inventory",
	Short:         "Order and inventory service",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, routeListCmd)
	rootCmd.AddCommand(migrateCmd, migrateRollbackCmd, migrateStatusCmd, seedCmd)
	rootCmd.AddCommand(queueWorkCmd, queueFailedCmd, queueRetryCmd, scheduleRunCmd)
	rootCmd.AddCommand(reconcileCmd)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// boot loads configuration, installs the logger and wires the application.
// The returned func releases everything.
func boot(ctx context.Context) (*app.App, func(), error) {
	if err := config.Load(); err != nil {
		return nil, nil, err
	}
	closeLog, err := logger.Setup(config.AppEnv(), config.LogMongoURI())
	if err != nil {
		return nil, nil, err
	}
	a, err := app.Boot(ctx, app.FromEnv())
	if err != nil {
		closeLog()
		return nil, nil, err
	}
	return a, func() {
		a.Close()
		closeLog()
	}, nil
}
