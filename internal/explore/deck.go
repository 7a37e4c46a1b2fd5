// Package explore builds the discovery decks and tracks the swipe cursor.
package explore

import (
	"context"
	"errors"
	"strconv"

	"fitnest/client/internal/config"
	"fitnest/client/internal/models"
)

// Direction of a swipe. The backend records neither yet.
type Direction int

const (
	Pass Direction = iota
	Like
)

func (d Direction) String() string {
	if d == Like {
		return "like"
	}
	return "pass"
}

// Card is one deck entry: exactly one of Profile or Listing is set.
type Card struct {
	Profile *models.ExploreProfile
	Listing *models.ExploreListing
}

func (c Card) Type() models.ItemType {
	if c.Listing != nil {
		return models.ItemListing
	}
	return models.ItemRoommate
}

func (c Card) ID() int64 {
	if c.Listing != nil {
		return c.Listing.ID
	}
	return c.Profile.ID
}

func (c Card) Key() models.ItemKey { return models.ItemKey{ID: c.ID(), Type: c.Type()} }

// Compatibility is the profile's match score or the listing's fit score.
func (c Card) Compatibility() float64 {
	if c.Listing != nil {
		return c.Listing.FitScore
	}
	return c.Profile.Compatibility
}

// Title is what a deck card headlines with.
func (c Card) Title() string {
	if c.Listing != nil {
		return c.Listing.Title
	}
	return c.Profile.Name
}

// Starred converts the card into the entry kept in the starred list.
func (c Card) Starred(currencySymbol string) models.StarredItem {
	if c.Listing != nil {
		l := c.Listing
		item := models.StarredItem{
			ID:       l.ID,
			Type:     models.ItemListing,
			Title:    l.Title,
			Subtitle: currencySymbol + strconv.FormatFloat(l.Price, 'f', -1, 64),
		}
		if len(l.Images) > 0 {
			item.Image = l.Images[0]
		}
		return item
	}

	p := c.Profile
	image := p.Image
	if image == "" {
		image = config.FallbackProfileImage
	}
	return models.StarredItem{
		ID:       p.ID,
		Type:     models.ItemRoommate,
		Title:    p.Name,
		Image:    image,
		Subtitle: p.Major,
	}
}

// Starrer is the part of the starred cache a deck writes to.
type Starrer interface {
	Add(ctx context.Context, item models.StarredItem) (bool, error)
}

var ErrNoCard = errors.New("explore: no card under the cursor")

// Deck is an ordered list of cards with a cursor. The cursor may sit one past
// the last card, which is the exhausted state.
type Deck struct {
	Type     models.ItemType
	cards    []Card
	index    int
	starrer  Starrer
	currency string
}

func newDeck(typ models.ItemType, cards []Card, starrer Starrer, currency string) *Deck {
	return &Deck{Type: typ, cards: cards, starrer: starrer, currency: currency}
}

// Cards returns the remaining cards in deck order.
func (d *Deck) Cards() []Card { return append([]Card(nil), d.cards...) }

func (d *Deck) Len() int { return len(d.cards) }

// Current returns the card under the cursor; ok is false once exhausted.
func (d *Deck) Current() (Card, bool) {
	if d.index >= len(d.cards) {
		return Card{}, false
	}
	return d.cards[d.index], true
}

// Remaining counts the cards from the cursor to the end.
func (d *Deck) Remaining() int {
	if d.index >= len(d.cards) {
		return 0
	}
	return len(d.cards) - d.index
}

// Swipe moves past the current card. Swiping an exhausted deck starts over.
func (d *Deck) Swipe(Direction) {
	if d.index >= len(d.cards) {
		d.index = 0
		return
	}
	d.index++
}

// Reset moves the cursor back to the first card.
func (d *Deck) Reset() { d.index = 0 }

// Star saves the current card and takes it out of the deck. The cursor then
// points at the card that followed it.
func (d *Deck) Star(ctx context.Context) (models.StarredItem, bool, error) {
	card, ok := d.Current()
	if !ok {
		return models.StarredItem{}, false, ErrNoCard
	}
	item := card.Starred(d.currency)
	added, err := d.starrer.Add(ctx, item)
	if err != nil {
		return item, false, err
	}
	d.cards = append(d.cards[:d.index:d.index], d.cards[d.index+1:]...)
	return item, added, nil
}

// Tier buckets a compatibility score for badge colouring.
type Tier string

const (
	TierHigh   Tier = "high"
	TierMedium Tier = "medium"
	TierLow    Tier = "low"
)

func CompatibilityTier(score float64) Tier {
	switch {
	case score >= config.CompatibilityHigh:
		return TierHigh
	case score >= config.CompatibilityMedium:
		return TierMedium
	}
	return TierLow
}
