package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/stockroom/database/seeders"
	"github.com/shashiranjanraj/stockroom/pkg/migration"
)

// inventory migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run all pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()
		a, closeApp, err := boot(ctx)
		if err != nil {
			return err
		}
		defer closeApp()

		ran, err := a.Migrate(ctx)
		if err != nil {
			return err
		}
		if len(ran) == 0 {
			fmt.Println("Nothing to migrate.")
		}
		for _, name := range ran {
			fmt.Println("Migrated:", name)
		}
		return nil
	},
}

// inventory migrate:rollback
var migrateRollbackCmd = &cobra.Command{
	Use:   "migrate:rollback",
	Short: "Rollback the last batch of migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()
		a, closeApp, err := boot(ctx)
		if err != nil {
			return err
		}
		defer closeApp()

		reverted, err := migration.New(a.DB).Rollback(ctx)
		if err != nil {
			return err
		}
		if len(reverted) == 0 {
			fmt.Println("Nothing to roll back.")
		}
		for _, name := range reverted {
			fmt.Println("Rolled back:", name)
		}
		return nil
	},
}

// inventory migrate:status
var migrateStatusCmd = &cobra.Command{
	Use:   "migrate:status",
	Short: "Show the status of each migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()
		a, closeApp, err := boot(ctx)
		if err != nil {
			return err
		}
		defer closeApp()

		rows, err := migration.New(a.DB).Status(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "MIGRATION\tRAN\tBATCH")
		for _, s := range rows {
			batch := "-"
			if s.Ran {
				batch = fmt.Sprint(s.Batch)
			}
			fmt.Fprintf(w, "%s\t%t\t%s\n", s.Name, s.Ran, batch)
		}
		return w.Flush()
	},
}

// inventory seed
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Run all database seeders",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()
		a, closeApp, err := boot(ctx)
		if err != nil {
			return err
		}
		defer closeApp()

		fmt.Println("Running seeders…")
		return seeders.RunAll(ctx, a.DB)
	},
}
