package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"fitnest/client/internal/explore"
	"fitnest/client/internal/models"

	"github.com/spf13/cobra"
)

var exploreTab string

var exploreCmd = &cobra.Command{
	Use:   "explore",
	Short: "Swipe through roommate or listing suggestions",
	Long: `Shows one card at a time. Commands: l (like), p (pass), s (star),
r (start over), q (quit).`,
	RunE: runExplore,
}

func init() {
	exploreCmd.Flags().StringVarP(&exploreTab, "tab", "t", "roommates", "roommates or listings")
}

func runExplore(cmd *cobra.Command, _ []string) error {
	if err := current.requireSession(); err != nil {
		return err
	}
	tab, err := models.ParseItemType(exploreTab)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	decks, err := explore.Load(ctx, current.api, current.starred(), current.cfg.CurrencySymbol, current.logger.Named("explore"))
	if err != nil {
		return err
	}
	deck := decks.Deck(tab)
	if (tab == models.ItemRoommate && decks.RoommatesErr != nil) || (tab == models.ItemListing && decks.ListingsErr != nil) {
		fmt.Fprintln(out, current.t("explore.load_failed"))
	}

	lines := readLines(cmd.InOrStdin())
	for {
		card, ok := deck.Current()
		if !ok {
			if tab == models.ItemListing {
				fmt.Fprintln(out, current.t("explore.empty_listings"))
			} else {
				fmt.Fprintln(out, current.t("explore.empty_roommates"))
			}
		} else {
			printCard(out, card, deck.Remaining())
		}

		var line string
		select {
		case <-ctx.Done():
			return nil
		case l, open := <-lines:
			if !open {
				return nil
			}
			line = strings.TrimSpace(l)
		}

		switch line {
		case "q", "quit":
			return nil
		case "l", "like":
			deck.Swipe(explore.Like)
		case "p", "pass", "":
			deck.Swipe(explore.Pass)
		case "r", "reset":
			deck.Reset()
		case "s", "star":
			item, added, err := deck.Star(ctx)
			switch {
			case errors.Is(err, explore.ErrNoCard):
			case err != nil:
				fmt.Fprintln(out, "!", err)
			case added:
				fmt.Fprintln(out, current.t("explore.starred", item.Title))
			default:
				fmt.Fprintln(out, current.t("explore.already_starred", item.Title))
			}
		default:
			fmt.Fprintln(out, "? l/p/s/r/q")
		}
	}
}

func printCard(out io.Writer, c explore.Card, remaining int) {
	score := c.Compatibility()
	tier := explore.CompatibilityTier(score)
	if c.Listing != nil {
		l := c.Listing
		fmt.Fprintf(out, "\n[%d left] %s  %s%.0f  %.0fm²  %s\n", remaining, l.Title, current.cfg.CurrencySymbol, l.Price, l.Size, l.Location)
		fmt.Fprintf(out, "  fit %.0f%% (%s)  host %s\n", score, tier, l.Host.Name)
		if len(l.Features) > 0 {
			fmt.Fprintf(out, "  %s\n", strings.Join(l.Features, ", "))
		}
		return
	}
	p := c.Profile
	fmt.Fprintf(out, "\n[%d left] %s, %d  %s\n", remaining, p.Name, p.Age, p.City)
	fmt.Fprintf(out, "  %s, %s  match %.0f%% (%s)\n", p.University, p.Major, score, tier)
}
