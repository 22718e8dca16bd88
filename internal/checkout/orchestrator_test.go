package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/younghoyk/mr-daebak-order/internal/backend"
	"github.com/younghoyk/mr-daebak-order/internal/models"
	"github.com/younghoyk/mr-daebak-order/internal/orderflow"
)

type fakeCartBackend struct {
	srv            *httptest.Server
	additionalReqs int64
	failAfter      atomic.Int64 // fail additional-product calls beyond this count; 0 disables
	checkout401    atomic.Bool
	cartItems      atomic.Int64
}

func newFakeCartBackend(t *testing.T) *fakeCartBackend {
	t.Helper()
	fb := &fakeCartBackend{}
	fb.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/products/additional":
			n := atomic.AddInt64(&fb.additionalReqs, 1)
			if limit := fb.failAfter.Load(); limit > 0 && n > limit {
				w.WriteHeader(http.StatusConflict)
				json.NewEncoder(w).Encode(map[string]string{"message": "stock exhausted"})
				return
			}
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(models.Product{ID: 600 + n, TotalPrice: 3000, Quantity: 1})
		case r.URL.Path == "/api/carts":
			var req models.CreateCartRequest
			json.NewDecoder(r.Body).Decode(&req)
			fb.cartItems.Store(int64(len(req.Items)))
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(models.CreateCartResponse{CartID: 900})
		case strings.HasSuffix(r.URL.Path, "/checkout"):
			if fb.checkout401.Load() {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			json.NewEncoder(w).Encode(models.OrderResult{OrderID: 7, OrderNumber: "MD-0007", GrandTotal: 45000})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(fb.srv.Close)
	return fb
}

func completeStore() *orderflow.Store {
	store := orderflow.NewStore()
	store.SetAddress("Seoul, Gangnam-gu")
	id := store.AddDinner(models.Dinner{ID: 1, Name: "Valentine dinner", Price: 10000}, 2)
	for i := 0; i < 2; i++ {
		store.SetInstanceStyle(id, i, models.ServingStyle{ID: 12, Name: "Grand", ExtraPrice: 2000})
		store.SetInstanceProduct(id, i, models.Product{ID: int64(501 + i), TotalPrice: 12000, Quantity: 1})
	}
	return store
}

func TestPreconditionsBlockIncompleteOrders(t *testing.T) {
	fb := newFakeCartBackend(t)
	client := backend.NewClient(fb.srv.URL)
	ctx := context.Background()

	empty := orderflow.NewStore()
	empty.SetAddress("Seoul")
	_, err := NewOrchestrator(empty, client).Submit(ctx, "t")
	require.Error(t, err)
	assert.True(t, IsPrecondition(err))

	noAddress := completeStore()
	noAddress.SetAddress("")
	_, err = NewOrchestrator(noAddress, client).Submit(ctx, "t")
	require.Error(t, err)
	assert.True(t, IsPrecondition(err))

	// quantity 2 but only one materialized instance
	partial := orderflow.NewStore()
	partial.SetAddress("Seoul")
	id := partial.AddDinner(models.Dinner{ID: 1, Name: "Valentine dinner", Price: 10000}, 2)
	partial.SetInstanceStyle(id, 0, models.ServingStyle{ID: 12})
	partial.SetInstanceProduct(id, 0, models.Product{ID: 501})
	_, err = NewOrchestrator(partial, client).Submit(ctx, "t")
	require.Error(t, err)
	assert.True(t, IsPrecondition(err))
	assert.Contains(t, err.Error(), "Valentine dinner")

	assert.Zero(t, atomic.LoadInt64(&fb.additionalReqs), "nothing was sent to the backend")
}

func TestStyledButUnmaterializedInstanceBlocks(t *testing.T) {
	fb := newFakeCartBackend(t)
	store := orderflow.NewStore()
	store.SetAddress("Seoul")
	id := store.AddDinner(models.Dinner{ID: 1, Name: "Valentine dinner", Price: 10000}, 1)
	store.SetInstanceStyle(id, 0, models.ServingStyle{ID: 12})

	_, err := NewOrchestrator(store, backend.NewClient(fb.srv.URL)).Submit(context.Background(), "t")
	require.Error(t, err)
	assert.True(t, IsPrecondition(err))
}

func TestAddOnPartialFailureIdentifiesItem(t *testing.T) {
	fb := newFakeCartBackend(t)
	fb.failAfter.Store(1)

	store := completeStore()
	store.AddAdditionalItem(models.MenuItem{ID: 21, Name: "Bread", UnitPrice: 3000}, 1)
	store.AddAdditionalItem(models.MenuItem{ID: 22, Name: "Wine", UnitPrice: 15000}, 1)

	_, err := NewOrchestrator(store, backend.NewClient(fb.srv.URL)).Submit(context.Background(), "t")
	require.Error(t, err)

	var addOnErr *AddOnError
	require.True(t, errors.As(err, &addOnErr))
	assert.Equal(t, "Wine", addOnErr.MenuItemName)

	// the first add-on's product was created and is not rolled back
	assert.Equal(t, int64(2), atomic.LoadInt64(&fb.additionalReqs))

	// the composed order survives for a retry
	st := store.Snapshot()
	assert.Len(t, st.Dinners, 1)
	assert.Len(t, st.AdditionalItems, 2)
}

func TestSubmitHappyPathResetsStore(t *testing.T) {
	fb := newFakeCartBackend(t)

	store := completeStore()
	store.AddAdditionalItem(models.MenuItem{ID: 21, Name: "Bread", UnitPrice: 3000}, 2)

	order, err := NewOrchestrator(store, backend.NewClient(fb.srv.URL)).Submit(context.Background(), "t")
	require.NoError(t, err)
	assert.Equal(t, "MD-0007", order.OrderNumber)
	assert.Equal(t, 45000, order.GrandTotal, "the server-computed total is authoritative")

	// one cart entry per dinner instance plus one per add-on product
	assert.Equal(t, int64(3), fb.cartItems.Load())

	st := store.Snapshot()
	assert.Empty(t, st.Dinners)
	assert.Empty(t, st.AdditionalItems)
	assert.Equal(t, orderflow.StepIntro, st.Step)
}

func TestAuthFailureIsDistinguishable(t *testing.T) {
	fb := newFakeCartBackend(t)
	fb.checkout401.Store(true)

	store := completeStore()
	_, err := NewOrchestrator(store, backend.NewClient(fb.srv.URL)).Submit(context.Background(), "t")
	require.Error(t, err)
	assert.True(t, backend.IsUnauthorized(err))

	// composed state survives a failed checkout
	assert.Len(t, store.Snapshot().Dinners, 1)
}
