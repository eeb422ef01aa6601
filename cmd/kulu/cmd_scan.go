package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kulucloud/kulu/config"
	"github.com/kulucloud/kulu/orchestrator"
)

var scanOutput string

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run one scan across all configured accounts",
	Long: `Scan every configured cloud account: discover resources, fetch
utilization metrics, price the inventory, and emit optimization
recommendations. The report is printed and persisted locally.`,
	Example: `  kulu scan                       # Scan with kulu.yaml
  kulu scan -c prod.yaml          # Scan with another config
  kulu scan -o json               # Machine-readable output`,
	RunE: runScanCmd,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringVarP(&scanOutput, "output", "o", "table", "Output format: table, json")
}

func runScanCmd(cmd *cobra.Command, args []string) error {
	if scanOutput != "table" && scanOutput != "json" {
		return fmt.Errorf("invalid output format: %s (must be table or json)", scanOutput)
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	orch, store, err := buildPipeline(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	report, err := orch.Run(ctx, cfg.ScanRequest())
	if err != nil && !errors.Is(err, orchestrator.ErrScanFailed) {
		return err
	}

	if scanOutput == "json" {
		if renderErr := renderJSON(os.Stdout, report); renderErr != nil {
			return renderErr
		}
	} else {
		if renderErr := renderTable(os.Stdout, report); renderErr != nil {
			return renderErr
		}
	}
	// A failed scan still prints its (empty) report, then exits non-zero.
	return err
}
