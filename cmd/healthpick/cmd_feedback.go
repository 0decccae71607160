package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	feedbackItem string
	feedbackLike bool
	feedbackSkip bool
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Apply a like or skip to an item",
	Long: `Record explicit feedback for a dish. A like nudges every tag on the
dish up by 2 (clamped to the model bounds) and counts a bandit success; a
skip nudges the tags down.

Examples:
  healthpick feedback --item "Paneer Tikka Salad" --like
  healthpick feedback --item "Butter Chicken" --skip`,
	RunE: runFeedback,
}

func init() {
	rootCmd.AddCommand(feedbackCmd)

	feedbackCmd.Flags().StringVar(&feedbackItem, "item", "", "Dish title (or title|partner key)")
	feedbackCmd.Flags().BoolVar(&feedbackLike, "like", false, "Positive feedback")
	feedbackCmd.Flags().BoolVar(&feedbackSkip, "skip", false, "Negative feedback")
	_ = feedbackCmd.MarkFlagRequired("item")
}

func runFeedback(cmd *cobra.Command, args []string) error {
	if feedbackLike == feedbackSkip {
		return fmt.Errorf("specify exactly one of --like or --skip")
	}

	a, err := loadApp(appOptions{noRemote: true})
	if err != nil {
		return err
	}

	id := strings.ToLower(strings.TrimSpace(feedbackItem))
	for _, item := range a.pool {
		if item.Key() == id || strings.EqualFold(item.Title, feedbackItem) {
			delta := 1
			if feedbackSkip {
				delta = -1
			}
			if err := a.store.ApplyFeedback(item.Tags, delta); err != nil {
				return err
			}
			fmt.Printf("recorded %+d for %q (tags: %s)\n", delta, item.Title, strings.Join(item.Tags, ", "))
			return nil
		}
	}
	return fmt.Errorf("item %q not found in catalog", feedbackItem)
}
