package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// inventory inventory:reconcile
var reconcileCmd = &cobra.Command{
	Use:   "inventory:reconcile",
	Short: "Apply the warehouse stock CSV once",
	Long: "Reads INVENTORY_CSV_PATH from INVENTORY_CSV_DISK and overwrites stock for every\n" +
		"valid row in one transaction. An unknown SKU aborts the whole run.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()
		a, closeApp, err := boot(ctx)
		if err != nil {
			return err
		}
		defer closeApp()

		report, err := a.Inventory.Reconcile(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Applied %d rows, skipped %d.\n", len(report.ValidRows), len(report.UnparsedRows))
		if report.StockExportTime != nil {
			fmt.Println("Export time:", *report.StockExportTime)
		}
		for _, line := range report.UnparsedRows {
			fmt.Println("  skipped:", line)
		}
		return nil
	},
}
