package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	flagConfig  string
	flagVerbose bool
)

// rootCmd is the base command for the healthpick CLI.
var rootCmd = &cobra.Command{
	Use:   "healthpick",
	Short: "Biometric-aware food recommendation service",
	Long: `healthpick recommends food items by combining a learned per-tag preference
model, live wearable vitals and a remote ranking oracle, degrading through
local fallback strategies so a usable recommendation list is always produced.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := zerolog.InfoLevel
		if flagVerbose {
			level = zerolog.DebugLevel
		}
		zerolog.SetGlobalLevel(level)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "config/healthpick.yaml", "Path to configuration file")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
