package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	version  = "0.1.0"
	cfgPath  string
	debugLog bool

	rootCmd = &cobra.Command{
		Use:   "kulu",
		Short: "Multi-cloud cost scanner",
		Long: `Kulu - Multi-Cloud Cost Scanner

Kulu scans AWS, Azure, and GCP accounts, normalizes everything it finds
into one resource model, prices it from static rate tables, and emits
ranked optimization recommendations.

A scan that partially fails still reports everything that succeeded;
one broken account never hides the rest of your infrastructure.`,
		Version: version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if debugLog {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			} else {
				zerolog.SetGlobalLevel(zerolog.InfoLevel)
			}
		},
	}
)

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetVersionTemplate(`Kulu {{.Version}} - Multi-Cloud Cost Scanner
`)
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "kulu.yaml", "Path to config file")
	rootCmd.PersistentFlags().BoolVar(&debugLog, "debug", false, "Enable debug logging")
}
