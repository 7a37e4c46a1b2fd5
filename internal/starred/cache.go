// Package starred is the per-user bookmark list of explore-deck items.
//
// The list lives under a single storage key, starredItems_{userId}, most
// recent first. Decks filter against Excluded, which is computed from that
// list rather than kept as a second copy.
package starred

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"fitnest/client/internal/auth"
	"fitnest/client/internal/config"
	"fitnest/client/internal/logging"
	"fitnest/client/internal/models"
	"fitnest/client/internal/storage"

	"go.uber.org/zap"
)

var ErrInvalidItem = errors.New("starred: item needs a positive id and a known type")

// Cache reads and writes the active user's starred list.
type Cache struct {
	store  storage.Store
	userID int64
	logger *zap.Logger

	mu sync.Mutex
}

// New binds a cache to the given session. A nil session, or one without a
// user id, yields a cache on which Add and Remove do nothing.
func New(store storage.Store, self *auth.Session, logger *zap.Logger) *Cache {
	logger = logging.OrNop(logger)
	c := &Cache{store: store, logger: logger}
	if self != nil && self.UserID > 0 {
		c.userID = self.UserID
	}
	return c
}

func (c *Cache) key() string {
	return config.StarredKey(strconv.FormatInt(c.userID, 10))
}

// Add prepends item unless an entry with the same (id, type) exists.
func (c *Cache) Add(ctx context.Context, item models.StarredItem) (bool, error) {
	if item.ID <= 0 || !item.Type.Valid() {
		return false, ErrInvalidItem
	}
	if c.userID == 0 {
		return false, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.load(ctx, c.key())
	if err != nil {
		return false, err
	}
	for _, it := range items {
		if it.Key() == item.Key() {
			return false, nil
		}
	}

	items = append([]models.StarredItem{item}, items...)
	if err := c.save(ctx, items); err != nil {
		return false, err
	}
	c.logger.Debug("starred item", zap.Int64("item_id", item.ID), zap.String("type", string(item.Type)))
	return true, nil
}

// Remove drops the entry matching (id, typ), if any.
func (c *Cache) Remove(ctx context.Context, id int64, typ models.ItemType) (bool, error) {
	if c.userID == 0 {
		return false, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.load(ctx, c.key())
	if err != nil {
		return false, err
	}
	want := models.ItemKey{ID: id, Type: typ}
	for i, it := range items {
		if it.Key() != want {
			continue
		}
		items = append(items[:i:i], items[i+1:]...)
		if err := c.save(ctx, items); err != nil {
			return false, err
		}
		c.logger.Debug("unstarred item", zap.Int64("item_id", id), zap.String("type", string(typ)))
		return true, nil
	}
	return false, nil
}

// List returns the stored items, most recently starred first. Roommate
// entries pointing at the active user are left out.
func (c *Cache) List(ctx context.Context) ([]models.StarredItem, error) {
	if c.userID == 0 {
		return nil, nil
	}

	c.mu.Lock()
	items, err := c.load(ctx, c.key())
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}

	out := items[:0]
	for _, it := range items {
		if it.Type == models.ItemRoommate && it.ID == c.userID {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

// Excluded is the set of (id, type) pairs a freshly fetched deck must drop.
func (c *Cache) Excluded(ctx context.Context) (map[models.ItemKey]struct{}, error) {
	items, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	set := make(map[models.ItemKey]struct{}, len(items))
	for _, it := range items {
		set[it.Key()] = struct{}{}
	}
	return set, nil
}

// MigrateLegacy folds the old unscoped starredItems list into the active
// user's list and deletes it. Items already present keep their position;
// new ones are appended as the oldest entries. It returns how many were added.
func (c *Cache) MigrateLegacy(ctx context.Context) (int, error) {
	if c.userID == 0 {
		return 0, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	legacy, err := c.load(ctx, config.KeyStarredLegacy)
	if err != nil {
		return 0, err
	}
	if len(legacy) == 0 {
		return 0, c.removeLegacy(ctx)
	}

	items, err := c.load(ctx, c.key())
	if err != nil {
		return 0, err
	}
	seen := make(map[models.ItemKey]struct{}, len(items)+len(legacy))
	for _, it := range items {
		seen[it.Key()] = struct{}{}
	}
	added := 0
	for _, it := range legacy {
		if it.ID <= 0 || !it.Type.Valid() {
			continue
		}
		if _, dup := seen[it.Key()]; dup {
			continue
		}
		seen[it.Key()] = struct{}{}
		items = append(items, it)
		added++
	}

	if added > 0 {
		if err := c.save(ctx, items); err != nil {
			return 0, err
		}
	}
	if err := c.removeLegacy(ctx); err != nil {
		return added, err
	}
	c.logger.Info("migrated legacy starred list", zap.Int("added", added))
	return added, nil
}

func (c *Cache) removeLegacy(ctx context.Context) error {
	if err := c.store.Remove(ctx, config.KeyStarredLegacy); err != nil {
		return fmt.Errorf("starred: remove legacy list: %w", err)
	}
	return nil
}

func (c *Cache) load(ctx context.Context, key string) ([]models.StarredItem, error) {
	raw, err := c.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("starred: read %s: %w", key, err)
	}
	if raw == "" {
		return nil, nil
	}
	var items []models.StarredItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("starred: decode %s: %w", key, err)
	}
	return items, nil
}

func (c *Cache) save(ctx context.Context, items []models.StarredItem) error {
	if items == nil {
		items = []models.StarredItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("starred: encode: %w", err)
	}
	if err := c.store.Set(ctx, c.key(), string(data)); err != nil {
		return fmt.Errorf("starred: write %s: %w", c.key(), err)
	}
	return nil
}
