package orderflow

import (
	"github.com/younghoyk/mr-daebak-order/internal/models"
)

// Step is one stage of the fixed guided-flow sequence.
type Step int

const (
	StepIntro Step = iota
	StepAddress
	StepDinner
	StepStyle
	StepCustomize
	StepCheckout
)

var stepNames = [...]string{"intro", "address", "dinner", "style", "customize", "checkout"}

func (s Step) String() string {
	if s < StepIntro || s > StepCheckout {
		return "unknown"
	}
	return stepNames[s]
}

// ParseStep maps a step name back to its Step value.
func ParseStep(name string) (Step, bool) {
	for i, n := range stepNames {
		if n == name {
			return Step(i), true
		}
	}
	return StepIntro, false
}

// MenuItemCustomization overrides one default menu item's quantity on a
// single dinner instance. Quantity 0 means fully removed; quantities above
// the default add items at the menu item's unit price.
type MenuItemCustomization struct {
	MenuItemID      int64  `json:"menu_item_id"`
	Name            string `json:"name"`
	UnitPrice       int    `json:"unit_price"`
	DefaultQuantity int    `json:"default_quantity"`
	Quantity        int    `json:"quantity"`
}

// DinnerInstance is one concrete unit of a multi-quantity dinner selection.
// The zero value is an empty slot: no style has been chosen yet. Product is
// set only after a successful remote materialization, and any style change
// clears it along with the customizations.
type DinnerInstance struct {
	Style          *models.ServingStyle    `json:"style,omitempty"`
	Product        *models.Product         `json:"product,omitempty"`
	Customizations []MenuItemCustomization `json:"customizations,omitempty"`
}

// Started reports whether a style has ever been assigned to this slot.
func (di *DinnerInstance) Started() bool {
	return di.Style != nil
}

// Materialized reports whether the instance has a backing remote product.
func (di *DinnerInstance) Materialized() bool {
	return di.Style != nil && di.Product != nil
}

// SelectedDinner is one dinner type chosen with a quantity. Instances are
// populated lazily up to Quantity as styles are assigned; changing the
// quantity discards them all.
type SelectedDinner struct {
	ID        string           `json:"id"`
	Dinner    models.Dinner    `json:"dinner"`
	Quantity  int              `json:"quantity"`
	Instances []DinnerInstance `json:"instances"`
}

// AdditionalMenuItem is a global add-on billed once per order, not per
// dinner instance. At most one entry per menu item id exists in an order.
type AdditionalMenuItem struct {
	MenuItem models.MenuItem `json:"menu_item"`
	Quantity int             `json:"quantity"`
}

// State is a point-in-time copy of the order in progress.
type State struct {
	Step            Step                 `json:"-"`
	StepName        string               `json:"step"`
	Address         string               `json:"address"`
	Memo            string               `json:"memo"`
	Dinners         []SelectedDinner     `json:"dinners"`
	AdditionalItems []AdditionalMenuItem `json:"additional_items"`
	TotalPrice      int                  `json:"total_price"`
}
