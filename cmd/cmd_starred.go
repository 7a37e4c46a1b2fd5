package main

import (
	"fmt"
	"strconv"

	"fitnest/client/internal/models"

	"github.com/spf13/cobra"
)

var starredCmd = &cobra.Command{
	Use:   "starred",
	Short: "Show saved roommates and listings",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := current.requireSession(); err != nil {
			return err
		}
		items, err := current.starred().List(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(items) == 0 {
			fmt.Fprintln(out, current.t("starred.empty"))
			return nil
		}
		for _, it := range items {
			fmt.Fprintf(out, "%-8s %-6d %-30s %s\n", it.Type, it.ID, it.Title, it.Subtitle)
		}
		return nil
	},
}

var starredRemoveCmd = &cobra.Command{
	Use:   "remove <id> <roommate|listing>",
	Short: "Unstar an item",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := current.requireSession(); err != nil {
			return err
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid id %q", args[0])
		}
		typ, err := models.ParseItemType(args[1])
		if err != nil {
			return err
		}

		removed, err := current.starred().Remove(cmd.Context(), id, typ)
		if err != nil {
			return err
		}
		if removed {
			fmt.Fprintln(cmd.OutOrStdout(), current.t("starred.removed"))
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), current.t("starred.not_found"))
		}
		return nil
	},
}

func init() {
	starredCmd.AddCommand(starredRemoveCmd)
}
