package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kulucloud/kulu/config"
	"github.com/kulucloud/kulu/storage"
	"github.com/kulucloud/kulu/types"
)

var (
	reportScanID string
	reportOutput string
	reportList   int
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show stored scan reports",
	Long: `Show reports from the local store without re-scanning anything.
By default the latest report is printed; use --scan-id for a specific
run or --list to see recent scan history.`,
	Example: `  kulu report                     # Latest report
  kulu report --scan-id <id>      # Specific scan
  kulu report --list 10           # Recent scan history
  kulu report -o json             # Machine-readable output`,
	RunE: runReportCmd,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVar(&reportScanID, "scan-id", "", "Show a specific scan by ID")
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "table", "Output format: table, json")
	reportCmd.Flags().IntVar(&reportList, "list", 0, "List the n most recent scans instead")
}

func runReportCmd(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return err
	}

	store, err := storage.Open(cfg.StorageDir)
	if err != nil {
		return err
	}
	defer store.Close()

	if reportList > 0 {
		return listReports(store, reportList)
	}

	report, err := loadReport(store)
	if err != nil {
		return err
	}
	if reportOutput == "json" {
		return renderJSON(os.Stdout, report)
	}
	return renderTable(os.Stdout, report)
}

func loadReport(store *storage.ReportStore) (*types.ScanReport, error) {
	if reportScanID != "" {
		return store.Get(reportScanID)
	}
	return store.Latest()
}

func listReports(store *storage.ReportStore, n int) error {
	reports, err := store.List(n)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SCAN\tSTARTED\tSTATUS\tRESOURCES\tMONTHLY\tSAVINGS")
	for _, report := range reports {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t$%.2f\t$%.2f\n",
			report.ScanID,
			report.StartedAt.Format("2006-01-02 15:04"),
			report.Status,
			report.DiscoveredCount,
			report.TotalMonthlyCost.Amount,
			report.TotalProjectedSavings().Amount)
	}
	return tw.Flush()
}
