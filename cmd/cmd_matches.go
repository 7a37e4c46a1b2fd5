package main

import (
	"cmp"
	"fmt"
	"io"
	"slices"

	"fitnest/client/internal/explore"
	"fitnest/client/internal/models"

	"github.com/spf13/cobra"
)

var matchesCmd = &cobra.Command{
	Use:   "matches",
	Short: "List your roommate matches, best first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := current.requireSession(); err != nil {
			return err
		}
		matches, err := current.api.MyMatches(cmd.Context())
		if err != nil {
			return err
		}
		printMatches(cmd.OutOrStdout(), matches)
		return nil
	},
}

func printMatches(out io.Writer, matches []models.MatchProfile) {
	if len(matches) == 0 {
		fmt.Fprintln(out, current.t("matches.empty"))
		return
	}
	sorted := slices.Clone(matches)
	slices.SortStableFunc(sorted, func(a, b models.MatchProfile) int {
		return cmp.Compare(b.MatchScore, a.MatchScore)
	})
	for _, m := range sorted {
		fmt.Fprintf(out, "%-6d %-20s %3.0f%%  %s\n", m.UserID, m.Username, m.MatchScore,
			current.t("matches.tier."+string(explore.CompatibilityTier(m.MatchScore))))
	}
}
