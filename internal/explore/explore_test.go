package explore_test

import (
	"context"
	"errors"
	"testing"

	"fitnest/client/internal/auth"
	"fitnest/client/internal/config"
	"fitnest/client/internal/explore"
	"fitnest/client/internal/models"
	"fitnest/client/internal/starred"
	"fitnest/client/internal/storage/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSource struct {
	mock.Mock
}

func (m *MockSource) ExploreProfiles(ctx context.Context) ([]models.ExploreProfile, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ExploreProfile), args.Error(1)
}

func (m *MockSource) ExploreListings(ctx context.Context) ([]models.ExploreListing, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ExploreListing), args.Error(1)
}

var self = &auth.Session{UserID: 2, Token: "tok"}

func profiles() []models.ExploreProfile {
	return []models.ExploreProfile{
		{ID: 1, Name: "Ana", Major: "Biology", Compatibility: 91},
		{ID: 3, Name: "Bo", Major: "Law", Image: "bo.jpg", Compatibility: 72},
		{ID: 4, Name: "Cy", Compatibility: 40},
	}
}

func listings() []models.ExploreListing {
	return []models.ExploreListing{
		{ID: 1, Title: "Loft", Price: 950, Images: []string{"loft1.jpg", "loft2.jpg"}, FitScore: 88},
		{ID: 2, Title: "Room", Price: 420.5},
	}
}

func newCache(t *testing.T) *starred.Cache {
	t.Helper()
	return starred.New(memory.New(), self, nil)
}

func TestLoad_AppliesExclusionFilter(t *testing.T) {
	ctx := context.Background()
	cache := newCache(t)
	_, err := cache.Add(ctx, models.StarredItem{ID: 1, Type: models.ItemListing})
	require.NoError(t, err)
	_, err = cache.Add(ctx, models.StarredItem{ID: 3, Type: models.ItemRoommate})
	require.NoError(t, err)

	src := new(MockSource)
	src.On("ExploreProfiles", mock.Anything).Return(profiles(), nil)
	src.On("ExploreListings", mock.Anything).Return(listings(), nil)

	decks, err := explore.Load(ctx, src, cache, "$", nil)
	require.NoError(t, err)
	src.AssertExpectations(t)

	ex, err := cache.Excluded(ctx)
	require.NoError(t, err)
	for _, deck := range []*explore.Deck{decks.Roommates, decks.Listings} {
		for _, c := range deck.Cards() {
			assert.NotContains(t, ex, c.Key())
		}
	}
	assert.Equal(t, 2, decks.Roommates.Len())
	assert.Equal(t, 1, decks.Listings.Len())
	// Roommate 1 stays: only listing 1 was starred.
	first, ok := decks.Roommates.Current()
	require.True(t, ok)
	assert.Equal(t, int64(1), first.ID())
}

func TestLoad_SourcesFailIndependently(t *testing.T) {
	src := new(MockSource)
	src.On("ExploreProfiles", mock.Anything).Return(nil, errors.New("matches down"))
	src.On("ExploreListings", mock.Anything).Return(listings(), nil)

	decks, err := explore.Load(context.Background(), src, newCache(t), "$", nil)
	require.NoError(t, err)

	assert.EqualError(t, decks.RoommatesErr, "matches down")
	assert.Zero(t, decks.Roommates.Len())
	_, ok := decks.Roommates.Current()
	assert.False(t, ok)

	assert.NoError(t, decks.ListingsErr)
	assert.Equal(t, 2, decks.Deck(models.ItemListing).Len())
}

func TestLoad_UnreadableStarredList(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, store.Set(ctx, config.StarredKey("2"), "not json"))

	src := new(MockSource)
	src.On("ExploreProfiles", mock.Anything).Return(profiles(), nil)
	src.On("ExploreListings", mock.Anything).Return(listings(), nil)

	_, err := explore.Load(ctx, src, starred.New(store, self, nil), "$", nil)
	assert.Error(t, err)
}

func TestDeck_SwipeWrapsAfterExhaustion(t *testing.T) {
	src := new(MockSource)
	src.On("ExploreProfiles", mock.Anything).Return(profiles(), nil)
	src.On("ExploreListings", mock.Anything).Return(nil, nil)
	decks, err := explore.Load(context.Background(), src, newCache(t), "$", nil)
	require.NoError(t, err)
	d := decks.Roommates

	assert.Equal(t, 3, d.Remaining())
	d.Swipe(explore.Like)
	d.Swipe(explore.Pass)
	assert.Equal(t, 1, d.Remaining())
	d.Swipe(explore.Like)

	_, ok := d.Current()
	assert.False(t, ok)
	assert.Zero(t, d.Remaining())

	d.Swipe(explore.Pass)
	c, ok := d.Current()
	require.True(t, ok)
	assert.Equal(t, int64(1), c.ID())

	d.Swipe(explore.Pass)
	d.Reset()
	c, _ = d.Current()
	assert.Equal(t, int64(1), c.ID())
}

func TestDeck_StarKeepsCursorOnNextCard(t *testing.T) {
	ctx := context.Background()
	cache := newCache(t)
	src := new(MockSource)
	src.On("ExploreProfiles", mock.Anything).Return(profiles(), nil)
	src.On("ExploreListings", mock.Anything).Return(listings(), nil)
	decks, err := explore.Load(ctx, src, cache, "$", nil)
	require.NoError(t, err)

	d := decks.Roommates
	d.Swipe(explore.Pass)
	item, added, err := d.Star(ctx)
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, models.StarredItem{ID: 3, Type: models.ItemRoommate, Title: "Bo", Image: "bo.jpg", Subtitle: "Law"}, item)

	c, ok := d.Current()
	require.True(t, ok)
	assert.Equal(t, int64(4), c.ID())
	assert.Equal(t, 2, d.Len())

	saved, err := cache.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.StarredItem{item}, saved)
}

func TestDeck_StarExhausted(t *testing.T) {
	src := new(MockSource)
	src.On("ExploreProfiles", mock.Anything).Return(nil, nil)
	src.On("ExploreListings", mock.Anything).Return(nil, nil)
	decks, err := explore.Load(context.Background(), src, newCache(t), "$", nil)
	require.NoError(t, err)

	_, _, err = decks.Listings.Star(context.Background())
	assert.ErrorIs(t, err, explore.ErrNoCard)
}

func TestCard_Starred(t *testing.T) {
	p := profiles()
	l := listings()

	assert.Equal(t, config.FallbackProfileImage, explore.Card{Profile: &p[0]}.Starred("$").Image)

	loft := explore.Card{Listing: &l[0]}.Starred("€")
	assert.Equal(t, models.StarredItem{ID: 1, Type: models.ItemListing, Title: "Loft", Image: "loft1.jpg", Subtitle: "€950"}, loft)

	room := explore.Card{Listing: &l[1]}.Starred("$")
	assert.Equal(t, "$420.5", room.Subtitle)
	assert.Empty(t, room.Image)
}

func TestCompatibilityTier(t *testing.T) {
	cases := map[float64]explore.Tier{
		100:  explore.TierHigh,
		85:   explore.TierHigh,
		84.9: explore.TierMedium,
		70:   explore.TierMedium,
		69:   explore.TierLow,
		0:    explore.TierLow,
	}
	for score, want := range cases {
		assert.Equal(t, want, explore.CompatibilityTier(score), "score %v", score)
	}
}
