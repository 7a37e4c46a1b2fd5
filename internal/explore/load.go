package explore

import (
	"context"

	"fitnest/client/internal/logging"
	"fitnest/client/internal/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Source fetches deck candidates from the backend.
type Source interface {
	ExploreProfiles(ctx context.Context) ([]models.ExploreProfile, error)
	ExploreListings(ctx context.Context) ([]models.ExploreListing, error)
}

// Exclusions yields the (id, type) pairs already starred.
type Exclusions interface {
	Excluded(ctx context.Context) (map[models.ItemKey]struct{}, error)
}

// Cache is what Load needs from the starred cache.
type Cache interface {
	Starrer
	Exclusions
}

// Decks holds both tabs. A source that failed leaves its deck empty and its
// error set; the other deck still loads.
type Decks struct {
	Roommates    *Deck
	Listings     *Deck
	RoommatesErr error
	ListingsErr  error
}

// Deck returns the deck for a tab.
func (d *Decks) Deck(typ models.ItemType) *Deck {
	if typ == models.ItemListing {
		return d.Listings
	}
	return d.Roommates
}

// Load fetches both sources concurrently and drops already starred items.
// Only a failure to read the starred list is returned as an error.
func Load(ctx context.Context, src Source, cache Cache, currencySymbol string, logger *zap.Logger) (*Decks, error) {
	logger = logging.OrNop(logger)

	var (
		profiles []models.ExploreProfile
		listings []models.ExploreListing
		excluded map[models.ItemKey]struct{}
		out      Decks
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if profiles, err = src.ExploreProfiles(gctx); err != nil {
			logger.Warn("loading roommate deck failed", zap.Error(err))
			out.RoommatesErr = err
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if listings, err = src.ExploreListings(gctx); err != nil {
			logger.Warn("loading listing deck failed", zap.Error(err))
			out.ListingsErr = err
		}
		return nil
	})
	g.Go(func() error {
		var err error
		excluded, err = cache.Excluded(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	roommates := make([]Card, 0, len(profiles))
	for i := range profiles {
		c := Card{Profile: &profiles[i]}
		if _, skip := excluded[c.Key()]; !skip {
			roommates = append(roommates, c)
		}
	}
	flats := make([]Card, 0, len(listings))
	for i := range listings {
		c := Card{Listing: &listings[i]}
		if _, skip := excluded[c.Key()]; !skip {
			flats = append(flats, c)
		}
	}

	out.Roommates = newDeck(models.ItemRoommate, roommates, cache, currencySymbol)
	out.Listings = newDeck(models.ItemListing, flats, cache, currencySymbol)
	logger.Debug("decks loaded",
		zap.Int("roommates", len(roommates)),
		zap.Int("listings", len(flats)),
		zap.Int("excluded", len(excluded)))
	return &out, nil
}
