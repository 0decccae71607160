package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/healthpick/healthpick/internal/catalog"
)

var (
	partnersDish string
	partnersCity string
)

var partnersCmd = &cobra.Command{
	Use:   "partners",
	Short: "List partners offering a dish",
	Long: `Look up which restaurant partners offer a dish, optionally narrowed to a
city. With no --city the configured preference city is used; pass --city ""
to search everywhere.

Examples:
  healthpick partners --dish "paneer salad"
  healthpick partners --dish khichdi --city Pune`,
	RunE: runPartners,
}

func init() {
	rootCmd.AddCommand(partnersCmd)

	partnersCmd.Flags().StringVar(&partnersDish, "dish", "", "Dish title to search for (substring match)")
	partnersCmd.Flags().StringVar(&partnersCity, "city", "", "City to search in (default: configured preference)")
	partnersCmd.MarkFlagRequired("dish")
}

func runPartners(cmd *cobra.Command, args []string) error {
	a, err := loadApp(appOptions{noRemote: true})
	if err != nil {
		return err
	}

	city := partnersCity
	if !cmd.Flags().Changed("city") {
		city = a.cfg.Prefs.City
	}

	matches := catalog.PartnersFor(a.menus, partnersDish, city)
	if len(matches) == 0 {
		fmt.Printf("no partners found for %q\n", partnersDish)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "PARTNER\tCITY\tDISH\tPRICE\n")
	for _, m := range matches {
		for _, d := range m.Dishes {
			fmt.Fprintf(w, "%s\t%s\t%s\t%.0f\n", m.Name, m.City, d.Title, d.Price)
		}
	}
	return w.Flush()
}
