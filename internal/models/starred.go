package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ItemType tells which deck a starred item came from.
type ItemType string

const (
	ItemRoommate ItemType = "roommate"
	ItemListing  ItemType = "listing"
)

// ParseItemType accepts both the singular names and the plural tab names
// ("roommates", "listings") that older clients persisted.
func ParseItemType(s string) (ItemType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "roommate", "roommates":
		return ItemRoommate, nil
	case "listing", "listings":
		return ItemListing, nil
	}
	return "", fmt.Errorf("unknown item type %q", s)
}

func (t ItemType) Valid() bool { return t == ItemRoommate || t == ItemListing }

// UnmarshalJSON normalises legacy spellings on the way in.
func (t *ItemType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseItemType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ItemKey identifies a starred item. No two stored entries share a key.
type ItemKey struct {
	ID   int64
	Type ItemType
}

// StarredItem is a deck card the user bookmarked.
type StarredItem struct {
	ID       int64    `json:"id"`
	Type     ItemType `json:"type"`
	Title    string   `json:"title"`
	Image    string   `json:"image"`
	Subtitle string   `json:"subtitle"`
}

func (i StarredItem) Key() ItemKey { return ItemKey{ID: i.ID, Type: i.Type} }
