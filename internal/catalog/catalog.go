package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/younghoyk/mr-daebak-order/internal/backend"
	"github.com/younghoyk/mr-daebak-order/internal/models"
)

// Cache holds session-scoped, read-only lookup tables for dinners, serving
// styles and menu items. Each table loads lazily on first use and is
// filtered to active entries; entries never refresh within a session.
type Cache struct {
	client *backend.Client

	mu            sync.Mutex
	dinners       []models.Dinner
	styles        []models.ServingStyle
	menuItems     []models.MenuItem
	defaults      map[int64][]models.DinnerMenuItem
	cheapestStyle int64
}

func NewCache(client *backend.Client) *Cache {
	return &Cache{
		client:   client,
		defaults: make(map[int64][]models.DinnerMenuItem),
	}
}

// Dinners returns the active dinner catalog, fetching it once per session.
func (c *Cache) Dinners(ctx context.Context, token string) ([]models.Dinner, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dinners == nil {
		all, err := c.client.ListDinners(ctx, token)
		if err != nil {
			return nil, err
		}
		active := make([]models.Dinner, 0, len(all))
		for _, d := range all {
			if d.IsActive {
				active = append(active, d)
			}
		}
		c.dinners = active
	}
	return c.dinners, nil
}

// ServingStyles returns the active serving-style catalog.
func (c *Cache) ServingStyles(ctx context.Context, token string) ([]models.ServingStyle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.servingStylesLocked(ctx, token)
}

func (c *Cache) servingStylesLocked(ctx context.Context, token string) ([]models.ServingStyle, error) {
	if c.styles == nil {
		all, err := c.client.ListServingStyles(ctx, token)
		if err != nil {
			return nil, err
		}
		active := make([]models.ServingStyle, 0, len(all))
		for _, s := range all {
			if s.IsActive {
				active = append(active, s)
			}
		}
		c.styles = active

		// Remember the cheapest tier for the eligibility rule.
		c.cheapestStyle = 0
		min := 0
		for i, s := range active {
			if i == 0 || s.ExtraPrice < min {
				min = s.ExtraPrice
				c.cheapestStyle = s.ID
			}
		}
	}
	return c.styles, nil
}

// MenuItems returns the menu-item catalog snapshot.
func (c *Cache) MenuItems(ctx context.Context, token string) ([]models.MenuItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.menuItems == nil {
		items, err := c.client.ListMenuItems(ctx, token)
		if err != nil {
			return nil, err
		}
		c.menuItems = items
	}
	return c.menuItems, nil
}

// DefaultMenuItems returns a dinner's default menu composition, cached per
// dinner id.
func (c *Cache) DefaultMenuItems(ctx context.Context, token string, dinnerID int64) ([]models.DinnerMenuItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if items, ok := c.defaults[dinnerID]; ok {
		return items, nil
	}
	items, err := c.client.ListDinnerMenuItems(ctx, token, dinnerID)
	if err != nil {
		return nil, err
	}
	c.defaults[dinnerID] = items
	return items, nil
}

// DinnerByID looks up an active dinner.
func (c *Cache) DinnerByID(ctx context.Context, token string, id int64) (models.Dinner, error) {
	dinners, err := c.Dinners(ctx, token)
	if err != nil {
		return models.Dinner{}, err
	}
	for _, d := range dinners {
		if d.ID == id {
			return d, nil
		}
	}
	return models.Dinner{}, fmt.Errorf("dinner %d not found", id)
}

// StyleByID looks up an active serving style.
func (c *Cache) StyleByID(ctx context.Context, token string, id int64) (models.ServingStyle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	styles, err := c.servingStylesLocked(ctx, token)
	if err != nil {
		return models.ServingStyle{}, err
	}
	for _, s := range styles {
		if s.ID == id {
			return s, nil
		}
	}
	return models.ServingStyle{}, fmt.Errorf("serving style %d not found", id)
}

// MenuItemByID looks up a menu item.
func (c *Cache) MenuItemByID(ctx context.Context, token string, id int64) (models.MenuItem, error) {
	items, err := c.MenuItems(ctx, token)
	if err != nil {
		return models.MenuItem{}, err
	}
	for _, m := range items {
		if m.ID == id {
			return m, nil
		}
	}
	return models.MenuItem{}, fmt.Errorf("menu item %d not found", id)
}

// StyleAllowed applies the serving-style eligibility rule: the champagne
// feast tier is never served in the cheapest style.
func (c *Cache) StyleAllowed(ctx context.Context, token string, dinner models.Dinner, style models.ServingStyle) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.servingStylesLocked(ctx, token); err != nil {
		return false, err
	}
	if isPremiumDinner(dinner) && style.ID == c.cheapestStyle {
		return false, nil
	}
	return true, nil
}

func isPremiumDinner(d models.Dinner) bool {
	return strings.Contains(strings.ToLower(d.Name), "champagne")
}
