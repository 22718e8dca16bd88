package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/younghoyk/mr-daebak-order/internal/backend"
	"github.com/younghoyk/mr-daebak-order/internal/models"
)

func newCatalogServer(t *testing.T, fetches *int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(fetches, 1)
		switch r.URL.Path {
		case "/api/dinners":
			json.NewEncoder(w).Encode([]models.Dinner{
				{ID: 1, Name: "Valentine dinner", Price: 10000, IsActive: true},
				{ID: 2, Name: "Champagne feast dinner", Price: 30000, IsActive: true},
				{ID: 3, Name: "Retired dinner", Price: 5000, IsActive: false},
			})
		case "/api/serving-styles":
			json.NewEncoder(w).Encode([]models.ServingStyle{
				{ID: 11, Name: "Simple", ExtraPrice: 0, IsActive: true},
				{ID: 12, Name: "Grand", ExtraPrice: 2000, IsActive: true},
				{ID: 13, Name: "Deluxe", ExtraPrice: 5000, IsActive: true},
				{ID: 14, Name: "Legacy", ExtraPrice: 100, IsActive: false},
			})
		case "/api/menu-items":
			json.NewEncoder(w).Encode([]models.MenuItem{
				{ID: 21, Name: "Bread", UnitPrice: 3000, Stock: 50},
				{ID: 22, Name: "Wine", UnitPrice: 15000, Stock: 10},
			})
		case "/api/dinners/1/menu-items":
			json.NewEncoder(w).Encode([]models.DinnerMenuItem{
				{MenuItemID: 21, Name: "Bread", DefaultQuantity: 2},
			})
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestActiveFilteringAndLookup(t *testing.T) {
	var fetches int64
	srv := newCatalogServer(t, &fetches)
	defer srv.Close()

	cache := NewCache(backend.NewClient(srv.URL))
	ctx := context.Background()

	dinners, err := cache.Dinners(ctx, "t")
	require.NoError(t, err)
	assert.Len(t, dinners, 2, "inactive dinners are filtered out")

	styles, err := cache.ServingStyles(ctx, "t")
	require.NoError(t, err)
	assert.Len(t, styles, 3)

	_, err = cache.DinnerByID(ctx, "t", 3)
	assert.Error(t, err, "inactive dinner is not addressable")

	style, err := cache.StyleByID(ctx, "t", 12)
	require.NoError(t, err)
	assert.Equal(t, 2000, style.ExtraPrice)
}

func TestFetchOncePerSession(t *testing.T) {
	var fetches int64
	srv := newCatalogServer(t, &fetches)
	defer srv.Close()

	cache := NewCache(backend.NewClient(srv.URL))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := cache.Dinners(ctx, "t")
		require.NoError(t, err)
		_, err = cache.MenuItems(ctx, "t")
		require.NoError(t, err)
		_, err = cache.DefaultMenuItems(ctx, "t", 1)
		require.NoError(t, err)
	}

	assert.Equal(t, int64(3), atomic.LoadInt64(&fetches), "each table loads exactly once")
}

func TestChampagneFeastDisallowsCheapestStyle(t *testing.T) {
	var fetches int64
	srv := newCatalogServer(t, &fetches)
	defer srv.Close()

	cache := NewCache(backend.NewClient(srv.URL))
	ctx := context.Background()

	champagne, err := cache.DinnerByID(ctx, "t", 2)
	require.NoError(t, err)
	valentine, err := cache.DinnerByID(ctx, "t", 1)
	require.NoError(t, err)
	simple, err := cache.StyleByID(ctx, "t", 11)
	require.NoError(t, err)
	grand, err := cache.StyleByID(ctx, "t", 12)
	require.NoError(t, err)

	allowed, err := cache.StyleAllowed(ctx, "t", champagne, simple)
	require.NoError(t, err)
	assert.False(t, allowed, "premium dinner rejects the cheapest style")

	allowed, err = cache.StyleAllowed(ctx, "t", champagne, grand)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = cache.StyleAllowed(ctx, "t", valentine, simple)
	require.NoError(t, err)
	assert.True(t, allowed)
}
