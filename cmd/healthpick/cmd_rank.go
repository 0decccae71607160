package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	rankSeed     int64
	rankNoJitter bool
	rankNoRemote bool
	rankFormat   string
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Run one ranking cycle and print the result",
	Long: `Run a single recommendation cascade pass over the configured catalog
and print the ordered picks.

Examples:
  healthpick rank
  healthpick rank --no-remote --no-jitter --seed 42
  healthpick rank --format json`,
	RunE: runRank,
}

func init() {
	rootCmd.AddCommand(rankCmd)

	rankCmd.Flags().Int64Var(&rankSeed, "seed", 0, "Random seed for jitter and simulation (0 = time-based)")
	rankCmd.Flags().BoolVar(&rankNoJitter, "no-jitter", false, "Disable novelty jitter for deterministic output")
	rankCmd.Flags().BoolVar(&rankNoRemote, "no-remote", false, "Skip the remote ranking oracle")
	rankCmd.Flags().StringVar(&rankFormat, "format", "table", "Output format: table, json")
}

func runRank(cmd *cobra.Command, args []string) error {
	a, err := loadApp(appOptions{seed: rankSeed, noJitter: rankNoJitter, noRemote: rankNoRemote})
	if err != nil {
		return err
	}

	if err := a.feed.Refresh(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: vitals unavailable (%v), ranking without them\n", err)
	}

	out := a.cascade.Run(context.Background(), a.pool, a.feed.Snapshot(), a.cfg.Prefs)

	switch rankFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case "table":
		if len(out.Items) == 0 {
			fmt.Println("no recommendations available (empty candidate pool)")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "#\tSCORE\tDISH\tPARTNER\tREASON\n")
		for i, r := range out.Items {
			partner := r.Item.Partner
			if partner == "" {
				partner = "-"
			}
			fmt.Fprintf(w, "%d\t%.2f\t%s\t%s\t%s\n", i+1, r.Score, r.Item.Title, partner, r.Reason)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("\nsource: %s, cycle %d\n", out.Source, out.Cycle)
		return nil
	default:
		return fmt.Errorf("unknown format %q, want table or json", rankFormat)
	}
}
