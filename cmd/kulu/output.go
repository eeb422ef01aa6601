package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/kulucloud/kulu/types"
)

// renderJSON writes the whole report as indented JSON.
func renderJSON(w io.Writer, report *types.ScanReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// renderTable writes the human summary: totals, the priced inventory,
// recommendations, and any stage errors.
func renderTable(w io.Writer, report *types.ScanReport) error {
	fmt.Fprintf(w, "Scan %s  status=%s  duration=%s\n", report.ScanID, report.Status, report.Duration.Round(10*time.Millisecond))
	fmt.Fprintf(w, "Resources: %d  Estimated monthly cost: $%.2f  Projected savings: $%.2f\n\n",
		report.DiscoveredCount, report.TotalMonthlyCost.Amount, report.TotalProjectedSavings().Amount)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RESOURCE\tTYPE\tREGION\tSTATE\tMONTHLY\tCONFIDENCE")
	for _, pr := range report.Resources {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t$%.2f\t%s\n",
			pr.Resource.ID, pr.Resource.Type, pr.Resource.Region, pr.Resource.State,
			pr.MonthlyCost.Amount, pr.Confidence)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(report.Recommendations) > 0 {
		fmt.Fprintln(w)
		tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ACTION\tRESOURCE\tSAVINGS\tRISK\tRATIONALE")
		for _, rec := range report.Recommendations {
			fmt.Fprintf(tw, "%s\t%s\t$%.2f\t%s\t%s\n",
				rec.Action, rec.ResourceID, rec.ProjectedSavings.Amount, rec.Risk, rec.Rationale)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if len(report.Errors) > 0 {
		fmt.Fprintf(w, "\n%d error(s):\n", len(report.Errors))
		for _, stageErr := range report.Errors {
			fmt.Fprintf(w, "  - %s\n", stageErr.Error())
		}
	}
	return nil
}
