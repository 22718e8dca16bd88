package orderflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/younghoyk/mr-daebak-order/internal/models"
)

var (
	valentine = models.Dinner{ID: 1, Name: "Valentine dinner", Price: 10000, IsActive: true}
	french    = models.Dinner{ID: 2, Name: "French dinner", Price: 20000, IsActive: true}

	simple = models.ServingStyle{ID: 11, Name: "Simple", ExtraPrice: 0, IsActive: true}
	grand  = models.ServingStyle{ID: 12, Name: "Grand", ExtraPrice: 2000, IsActive: true}

	bread = models.MenuItem{ID: 21, Name: "Bread", UnitPrice: 3000}
)

func TestStepNavigation(t *testing.T) {
	s := NewStore()
	assert.Equal(t, StepIntro, s.Step())

	s.PrevStep()
	assert.Equal(t, StepIntro, s.Step(), "prev at first step is a no-op")

	for i := 0; i < 10; i++ {
		s.NextStep()
	}
	assert.Equal(t, StepCheckout, s.Step(), "next at last step is a no-op")

	s.SetStep(StepDinner)
	assert.Equal(t, StepDinner, s.Step())
}

func TestAddDinnerThenRemoveViaQuantity(t *testing.T) {
	s := NewStore()
	id := s.AddDinner(valentine, 2)
	require.NotEmpty(t, id)

	st := s.Snapshot()
	require.Len(t, st.Dinners, 1)
	assert.Equal(t, 2, st.Dinners[0].Quantity)
	assert.Empty(t, st.Dinners[0].Instances)

	s.UpdateDinnerQuantity(id, 0)
	assert.Empty(t, s.Snapshot().Dinners)
}

func TestAddDinnerRejectsNonPositiveQuantity(t *testing.T) {
	s := NewStore()
	assert.Empty(t, s.AddDinner(valentine, 0))
	assert.Empty(t, s.AddDinner(valentine, -1))
	assert.Empty(t, s.Snapshot().Dinners)
}

func TestAddExistingDinnerIncrementsAndResetsInstances(t *testing.T) {
	s := NewStore()
	id := s.AddDinner(valentine, 1)
	s.SetInstanceStyle(id, 0, grand)
	require.Len(t, s.Snapshot().Dinners[0].Instances, 1)

	again := s.AddDinner(valentine, 2)
	assert.Equal(t, id, again)

	st := s.Snapshot()
	require.Len(t, st.Dinners, 1)
	assert.Equal(t, 3, st.Dinners[0].Quantity)
	assert.Empty(t, st.Dinners[0].Instances, "existing instances are invalidated")
}

func TestUpdateQuantityClearsInstances(t *testing.T) {
	s := NewStore()
	id := s.AddDinner(valentine, 2)
	s.SetInstanceStyle(id, 0, grand)
	s.SetInstanceStyle(id, 1, simple)

	s.UpdateDinnerQuantity(id, 5)

	st := s.Snapshot()
	assert.Equal(t, 5, st.Dinners[0].Quantity)
	assert.Empty(t, st.Dinners[0].Instances)
}

func TestRemoveDinnerIsIdempotent(t *testing.T) {
	s := NewStore()
	id := s.AddDinner(valentine, 1)
	s.AddDinner(french, 1)

	s.RemoveDinner(id)
	first := s.Snapshot()
	s.RemoveDinner(id)
	second := s.Snapshot()

	assert.Equal(t, first.Dinners, second.Dinners)
	require.Len(t, second.Dinners, 1)
	assert.Equal(t, french.ID, second.Dinners[0].Dinner.ID)
}

func TestSetInstanceStyleLazilyGrows(t *testing.T) {
	s := NewStore()
	id := s.AddDinner(valentine, 3)

	s.SetInstanceStyle(id, 2, grand)

	st := s.Snapshot()
	require.Len(t, st.Dinners[0].Instances, 3)
	assert.False(t, st.Dinners[0].Instances[0].Started(), "slot 0 is an empty placeholder")
	assert.False(t, st.Dinners[0].Instances[1].Started())
	require.True(t, st.Dinners[0].Instances[2].Started())
	assert.Equal(t, grand.ID, st.Dinners[0].Instances[2].Style.ID)
	assert.Nil(t, st.Dinners[0].Instances[2].Product, "no product before materialization")
}

func TestInstancesNeverExceedQuantity(t *testing.T) {
	s := NewStore()
	id := s.AddDinner(valentine, 2)

	s.SetInstanceStyle(id, 2, grand)
	s.SetInstanceStyle(id, 99, grand)
	s.SetInstanceStyle(id, -1, grand)

	st := s.Snapshot()
	assert.LessOrEqual(t, len(st.Dinners[0].Instances), st.Dinners[0].Quantity)
	assert.Empty(t, st.Dinners[0].Instances)
}

func TestStyleChangeInvalidatesProduct(t *testing.T) {
	s := NewStore()
	id := s.AddDinner(valentine, 1)

	s.SetInstanceStyle(id, 0, simple)
	s.SetInstanceProduct(id, 0, models.Product{ID: 77, TotalPrice: 10000, Quantity: 1})
	require.True(t, s.Snapshot().Dinners[0].Instances[0].Materialized())

	s.SetInstanceStyle(id, 0, grand)

	inst := s.Snapshot().Dinners[0].Instances[0]
	assert.Nil(t, inst.Product, "style change clears the product")
	assert.Empty(t, inst.Customizations)
	require.NotNil(t, inst.Style)
	assert.Equal(t, grand.ID, inst.Style.ID)
}

func TestSetProductOnMissingInstanceIsNoOp(t *testing.T) {
	s := NewStore()
	id := s.AddDinner(valentine, 2)

	s.SetInstanceProduct(id, 0, models.Product{ID: 77})
	s.SetInstanceProduct("no-such-selection", 0, models.Product{ID: 77})

	assert.Empty(t, s.Snapshot().Dinners[0].Instances)
}

func TestClearInstanceStyleRevertsToEmptySlot(t *testing.T) {
	s := NewStore()
	id := s.AddDinner(valentine, 1)
	s.SetInstanceStyle(id, 0, grand)

	s.ClearInstanceStyle(id, 0)

	inst := s.Snapshot().Dinners[0].Instances[0]
	assert.False(t, inst.Started())
	assert.Nil(t, inst.Product)
}

func TestUpdateInstanceMenuItemQuantityClampsAtZero(t *testing.T) {
	s := NewStore()
	id := s.AddDinner(valentine, 1)
	s.SetInstanceStyle(id, 0, grand)
	s.SetInstanceMenuCustomizations(id, 0, []MenuItemCustomization{
		{MenuItemID: 21, Name: "Bread", UnitPrice: 500, DefaultQuantity: 2, Quantity: 2},
	})

	s.UpdateInstanceMenuItemQuantity(id, 0, 21, -3)
	assert.Equal(t, 0, s.Snapshot().Dinners[0].Instances[0].Customizations[0].Quantity)

	s.UpdateInstanceMenuItemQuantity(id, 0, 21, 4)
	assert.Equal(t, 4, s.Snapshot().Dinners[0].Instances[0].Customizations[0].Quantity)
}

func TestAdditionalItemUniqueness(t *testing.T) {
	s := NewStore()
	s.AddAdditionalItem(bread, 1)
	s.AddAdditionalItem(bread, 5)

	st := s.Snapshot()
	require.Len(t, st.AdditionalItems, 1)
	assert.Equal(t, 1, st.AdditionalItems[0].Quantity, "re-adding an existing item is a no-op")
}

func TestAdditionalItemQuantityClampsAtOne(t *testing.T) {
	s := NewStore()
	s.AddAdditionalItem(bread, 3)

	s.UpdateAdditionalItemQuantity(bread.ID, 0)
	assert.Equal(t, 1, s.Snapshot().AdditionalItems[0].Quantity)

	s.RemoveAdditionalItem(bread.ID)
	s.RemoveAdditionalItem(bread.ID)
	assert.Empty(t, s.Snapshot().AdditionalItems)
}

func TestResetOrderRoundTrip(t *testing.T) {
	s := NewStore()
	initial := s.Snapshot()

	id := s.AddDinner(valentine, 2)
	s.SetInstanceStyle(id, 0, grand)
	s.SetAddress("Seoul, Gangnam-gu")
	s.SetMemo("no onions")
	s.AddAdditionalItem(bread, 2)
	s.SetStep(StepCheckout)

	s.ResetOrder()

	assert.Equal(t, initial, s.Snapshot())
	assert.Equal(t, StepIntro, s.Step())
	assert.Zero(t, s.TotalPrice())
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	s := NewStore()
	id := s.AddDinner(valentine, 1)
	s.SetInstanceStyle(id, 0, grand)
	s.SetInstanceProduct(id, 0, models.Product{ID: 1, MenuLineItems: []models.ProductLineItem{{MenuItemID: 21, Quantity: 2}}})

	st := s.Snapshot()
	st.Dinners[0].Quantity = 99
	st.Dinners[0].Instances[0].Product.ID = 99
	st.Dinners[0].Instances[0].Style.ID = 99

	fresh := s.Snapshot()
	assert.Equal(t, 1, fresh.Dinners[0].Quantity)
	assert.Equal(t, int64(1), fresh.Dinners[0].Instances[0].Product.ID)
	assert.Equal(t, grand.ID, fresh.Dinners[0].Instances[0].Style.ID)
}
