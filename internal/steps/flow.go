package steps

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/younghoyk/mr-daebak-order/internal/backend"
	"github.com/younghoyk/mr-daebak-order/internal/catalog"
	"github.com/younghoyk/mr-daebak-order/internal/models"
	"github.com/younghoyk/mr-daebak-order/internal/orderflow"
)

// ValidationError is a locally detected problem: a missing required
// selection or an out-of-contract argument. No remote call was made.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func invalid(format string, args ...any) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a local validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Flow drives the guided order flow. It enforces step-entry/exit
// preconditions, performs the remote product materialization that a style
// selection triggers, and rolls the store back when that call fails so a
// style never dangles without a backing product.
type Flow struct {
	store   *orderflow.Store
	catalog *catalog.Cache
	client  *backend.Client
}

func NewFlow(store *orderflow.Store, cache *catalog.Cache, client *backend.Client) *Flow {
	return &Flow{store: store, catalog: cache, client: client}
}

// Store exposes the underlying order state for reads.
func (f *Flow) Store() *orderflow.Store {
	return f.store
}

// SetAddress records the delivery address. Empty is allowed transiently;
// Advance blocks on it at the address step.
func (f *Flow) SetAddress(address string) {
	f.store.SetAddress(address)
}

// SetMemo records the order-wide memo.
func (f *Flow) SetMemo(memo string) {
	f.store.SetMemo(memo)
}

// Advance moves to the next step after validating the current one.
func (f *Flow) Advance() error {
	st := f.store.Snapshot()
	switch st.Step {
	case orderflow.StepAddress:
		if st.Address == "" {
			return invalid("delivery address is required")
		}
	case orderflow.StepDinner:
		if len(st.Dinners) == 0 {
			return invalid("select at least one dinner")
		}
	case orderflow.StepStyle:
		for _, sd := range st.Dinners {
			if !fullyStyled(sd) {
				return invalid("dinner %q still has unstyled servings", sd.Dinner.Name)
			}
		}
	}
	f.store.NextStep()
	return nil
}

// Back moves one step back without validation.
func (f *Flow) Back() {
	f.store.PrevStep()
}

// SelectDinner adds a dinner by catalog id.
func (f *Flow) SelectDinner(ctx context.Context, token string, dinnerID int64, quantity int) (string, error) {
	if quantity <= 0 {
		return "", invalid("quantity must be at least 1")
	}
	dinner, err := f.catalog.DinnerByID(ctx, token, dinnerID)
	if err != nil {
		return "", err
	}
	return f.store.AddDinner(dinner, quantity), nil
}

// SetDinnerQuantity changes a selection's quantity; zero removes it.
func (f *Flow) SetDinnerQuantity(selectionID string, quantity int) {
	f.store.UpdateDinnerQuantity(selectionID, quantity)
}

// RemoveDinner deletes a selection.
func (f *Flow) RemoveDinner(selectionID string) {
	f.store.RemoveDinner(selectionID)
}

// SelectStyle assigns a serving style to one dinner instance and
// materializes its product. Re-selecting the style an instance already has
// a product for is a no-op, so rapid re-clicks do not create duplicate
// remote products. On materialization failure the style selection is
// reverted and the slot reads as unselected again.
func (f *Flow) SelectStyle(ctx context.Context, token, selectionID string, index int, styleID int64) error {
	st := f.store.Snapshot()
	sd, ok := findSelection(st, selectionID)
	if !ok {
		return invalid("unknown dinner selection")
	}
	if index < 0 || index >= sd.Quantity {
		return invalid("serving %d does not exist for quantity %d", index+1, sd.Quantity)
	}

	style, err := f.catalog.StyleByID(ctx, token, styleID)
	if err != nil {
		return err
	}
	allowed, err := f.catalog.StyleAllowed(ctx, token, sd.Dinner, style)
	if err != nil {
		return err
	}
	if !allowed {
		return invalid("%s cannot be served in %s style", sd.Dinner.Name, style.Name)
	}

	if index < len(sd.Instances) {
		inst := sd.Instances[index]
		if inst.Materialized() && inst.Style.ID == styleID {
			return nil
		}
	}

	f.store.SetInstanceStyle(selectionID, index, style)

	product, err := f.client.CreateProduct(ctx, token, models.CreateProductRequest{
		DinnerID:       sd.Dinner.ID,
		ServingStyleID: style.ID,
		Quantity:       1,
		Address:        st.Address,
		Memo:           st.Memo,
	})
	if err != nil {
		f.store.ClearInstanceStyle(selectionID, index)
		log.WithFields(log.Fields{
			"dinner": sd.Dinner.Name,
			"style":  style.Name,
			"index":  index,
		}).Error("product materialization failed, style reverted: ", err)
		return err
	}

	f.store.SetInstanceProduct(selectionID, index, *product)
	f.store.SetInstanceMenuCustomizations(selectionID, index, defaultCustomizations(product))

	log.WithFields(log.Fields{
		"dinner":     sd.Dinner.Name,
		"style":      style.Name,
		"index":      index,
		"product_id": product.ID,
	}).Info("dinner instance materialized")
	return nil
}

// CustomizeItem patches one menu item's quantity on an instance.
func (f *Flow) CustomizeItem(selectionID string, index int, menuItemID int64, quantity int) error {
	if quantity < 0 {
		return invalid("quantity cannot be negative")
	}
	f.store.UpdateInstanceMenuItemQuantity(selectionID, index, menuItemID, quantity)
	return nil
}

// AddAddOn puts a global additional menu item on the order.
func (f *Flow) AddAddOn(ctx context.Context, token string, menuItemID int64, quantity int) error {
	if quantity <= 0 {
		return invalid("quantity must be at least 1")
	}
	item, err := f.catalog.MenuItemByID(ctx, token, menuItemID)
	if err != nil {
		return err
	}
	f.store.AddAdditionalItem(item, quantity)
	return nil
}

// SetAddOnQuantity updates a global add-on's quantity.
func (f *Flow) SetAddOnQuantity(menuItemID int64, quantity int) {
	f.store.UpdateAdditionalItemQuantity(menuItemID, quantity)
}

// RemoveAddOn deletes a global add-on.
func (f *Flow) RemoveAddOn(menuItemID int64) {
	f.store.RemoveAdditionalItem(menuItemID)
}

func findSelection(st orderflow.State, id string) (orderflow.SelectedDinner, bool) {
	for _, sd := range st.Dinners {
		if sd.ID == id {
			return sd, true
		}
	}
	return orderflow.SelectedDinner{}, false
}

func fullyStyled(sd orderflow.SelectedDinner) bool {
	if len(sd.Instances) != sd.Quantity {
		return false
	}
	for i := range sd.Instances {
		if !sd.Instances[i].Materialized() {
			return false
		}
	}
	return true
}

func defaultCustomizations(p *models.Product) []orderflow.MenuItemCustomization {
	cs := make([]orderflow.MenuItemCustomization, 0, len(p.MenuLineItems))
	for _, line := range p.MenuLineItems {
		cs = append(cs, orderflow.MenuItemCustomization{
			MenuItemID:      line.MenuItemID,
			Name:            line.Name,
			UnitPrice:       line.UnitPrice,
			DefaultQuantity: line.Quantity,
			Quantity:        line.Quantity,
		})
	}
	return cs
}
