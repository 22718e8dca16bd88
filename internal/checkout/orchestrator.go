package checkout

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/younghoyk/mr-daebak-order/internal/backend"
	"github.com/younghoyk/mr-daebak-order/internal/metrics"
	"github.com/younghoyk/mr-daebak-order/internal/models"
	"github.com/younghoyk/mr-daebak-order/internal/orderflow"
)

// PreconditionError means the composed order is not ready for checkout.
// Nothing was sent to the backend.
type PreconditionError struct {
	msg string
}

func (e *PreconditionError) Error() string { return e.msg }

func precondition(format string, args ...any) error {
	return &PreconditionError{msg: fmt.Sprintf(format, args...)}
}

// IsPrecondition reports whether err is a checkout precondition failure.
func IsPrecondition(err error) bool {
	var pe *PreconditionError
	return errors.As(err, &pe)
}

// AddOnError identifies which global additional item failed to materialize
// during checkout. Add-on products already created in the same batch are
// not rolled back; the failure is surfaced and the user may retry.
type AddOnError struct {
	MenuItemName string
	Err          error
}

func (e *AddOnError) Error() string {
	return fmt.Sprintf("additional item %q could not be prepared: %v", e.MenuItemName, e.Err)
}

func (e *AddOnError) Unwrap() error { return e.Err }

// Orchestrator converts a finalized order into the cart-creation and
// checkout calls. The remote sequence is strictly sequential and is not
// compensated on partial failure; the composed order state survives any
// failure so the user can retry.
type Orchestrator struct {
	store  *orderflow.Store
	client *backend.Client
}

func NewOrchestrator(store *orderflow.Store, client *backend.Client) *Orchestrator {
	return &Orchestrator{store: store, client: client}
}

// Validate checks the checkout preconditions without side effects: a
// non-empty address, at least one sellable line, and every dinner fully
// styled and materialized up to its quantity.
func (o *Orchestrator) Validate() error {
	return validate(o.store.Snapshot())
}

func validate(st orderflow.State) error {
	if st.Address == "" {
		return precondition("delivery address is required")
	}
	if len(st.Dinners) == 0 && len(st.AdditionalItems) == 0 {
		return precondition("order is empty")
	}
	for _, sd := range st.Dinners {
		if len(sd.Instances) != sd.Quantity {
			return precondition("dinner %q has %d of %d servings specified",
				sd.Dinner.Name, len(sd.Instances), sd.Quantity)
		}
		for i := range sd.Instances {
			if !sd.Instances[i].Materialized() {
				return precondition("dinner %q serving %d is incomplete", sd.Dinner.Name, i+1)
			}
		}
	}
	return nil
}

// Submit runs the checkout sequence: materialize every global add-on,
// build the flat cart-item list, create the cart, then check it out. On
// success the store is reset and the backend's order is returned; its
// grand total is authoritative, the client-side total was advisory only.
func (o *Orchestrator) Submit(ctx context.Context, token string) (*models.OrderResult, error) {
	st := o.store.Snapshot()
	if err := validate(st); err != nil {
		metrics.CheckoutsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	items := make([]models.CartItem, 0, len(st.AdditionalItems)+len(st.Dinners))

	for _, ai := range st.AdditionalItems {
		product, err := o.client.CreateAdditionalProduct(ctx, token, models.CreateAdditionalProductRequest{
			MenuItemID: ai.MenuItem.ID,
			Quantity:   ai.Quantity,
			Address:    st.Address,
			Memo:       st.Memo,
		})
		if err != nil {
			metrics.CheckoutsTotal.WithLabelValues("failed").Inc()
			log.WithFields(log.Fields{
				"menu_item": ai.MenuItem.Name,
				"created":   len(items),
			}).Error("add-on materialization failed mid-batch: ", err)
			return nil, &AddOnError{MenuItemName: ai.MenuItem.Name, Err: err}
		}
		items = append(items, models.CartItem{ProductID: product.ID, Quantity: 1})
	}

	// Multiplicity is expressed as separate instances, so every dinner
	// product goes in with quantity 1.
	for _, sd := range st.Dinners {
		for i := range sd.Instances {
			items = append(items, models.CartItem{ProductID: sd.Instances[i].Product.ID, Quantity: 1})
		}
	}

	cartID, err := o.client.CreateCart(ctx, token, models.CreateCartRequest{
		Items:           items,
		DeliveryAddress: st.Address,
		DeliveryMethod:  "delivery",
		Memo:            st.Memo,
	})
	if err != nil {
		metrics.CheckoutsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	order, err := o.client.Checkout(ctx, token, cartID)
	if err != nil {
		metrics.CheckoutsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	o.store.ResetOrder()
	metrics.CheckoutsTotal.WithLabelValues("completed").Inc()
	metrics.OrderAmount.Observe(float64(order.GrandTotal))

	log.WithFields(log.Fields{
		"order_number": order.OrderNumber,
		"grand_total":  order.GrandTotal,
		"items":        len(items),
	}).Info("checkout completed")
	return order, nil
}
