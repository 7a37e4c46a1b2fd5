package devserver

import (
	"context"
	"errors"

	"fitnest/client/internal/logging"
	"fitnest/client/internal/models"

	"go.uber.org/zap"
)

// SeedPassword is the password of every seeded account.
const SeedPassword = "password"

type seedListing struct {
	listing  models.Listing
	images   []string
	features []string
}

var seedAccounts = []models.Account{
	{Username: "an", FullName: "Nguyen An", Age: 21, District: "District 1", University: "HCMUT", Major: "Computer Science"},
	{Username: "binh", FullName: "Tran Binh", Age: 22, District: "District 1", University: "HCMUT", Major: "Architecture"},
	{Username: "chi", FullName: "Le Chi", Age: 20, District: "Binh Thanh", University: "UEH", Major: "Finance"},
	{Username: "dung", FullName: "Pham Dung", Age: 23, District: "District 7", University: "RMIT", Major: "Computer Science"},
}

var seedListings = []seedListing{
	{
		listing:  models.Listing{Title: "Sunny studio near Ben Thanh", Price: 350, Size: 28, Location: "District 1", Description: "Balcony, walk to market."},
		images:   []string{"https://images.unsplash.com/photo-1502672260266-1c1ef2d93688"},
		features: []string{"balcony", "air conditioning"},
	},
	{
		listing:  models.Listing{Title: "Shared room by the river", Price: 180, Size: 20, Location: "Binh Thanh", Description: "Two beds, shared kitchen."},
		images:   []string{"https://images.unsplash.com/photo-1522708323590-d24dbb6b0267"},
		features: []string{"kitchen", "washing machine"},
	},
	{
		listing:  models.Listing{Title: "Quiet flat in Phu My Hung", Price: 420, Size: 45, Location: "District 7"},
		features: []string{"gym", "parking"},
	},
}

// Seed loads demo accounts and listings once. Existing usernames are kept.
func Seed(ctx context.Context, s *Store, logger *zap.Logger) error {
	logger = logging.OrNop(logger)

	var hosts []int64
	for _, a := range seedAccounts {
		acc := a
		err := s.CreateAccount(ctx, &acc, SeedPassword)
		if errors.Is(err, ErrUsernameTaken) {
			continue
		}
		if err != nil {
			return err
		}
		hosts = append(hosts, acc.ID)
	}
	if len(hosts) == 0 {
		logger.Debug("seed data already present")
		return nil
	}

	for i, sl := range seedListings {
		l := sl.listing
		l.HostAccountID = hosts[i%len(hosts)]
		if err := s.CreateListing(ctx, &l, sl.images, sl.features); err != nil {
			return err
		}
	}
	logger.Info("seeded dev data", zap.Int("accounts", len(hosts)), zap.Int("listings", len(seedListings)))
	return nil
}
