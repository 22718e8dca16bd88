package orderflow

import (
	"sync"

	"github.com/google/uuid"

	"github.com/younghoyk/mr-daebak-order/internal/models"
)

// Store is the single source of truth for one order in progress. All
// consumers (guided-flow handlers and the conversational agent) mutate it
// only through these operations so the invalidation invariants hold:
// changing a dinner's quantity discards its instances, and changing an
// instance's style discards its product and customizations.
//
// The Store is purely local state. It never performs remote calls and never
// returns errors for invalid input: out-of-contract calls are no-ops.
type Store struct {
	mu      sync.Mutex
	step    Step
	address string
	memo    string
	dinners []*SelectedDinner
	addOns  []AdditionalMenuItem
}

func NewStore() *Store {
	return &Store{step: StepIntro}
}

// Step returns the current flow step.
func (s *Store) Step() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

// SetStep jumps the cursor to an explicit step.
func (s *Store) SetStep(step Step) {
	if step < StepIntro || step > StepCheckout {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.step = step
}

// NextStep advances one step. At the last step it is a no-op.
func (s *Store) NextStep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step < StepCheckout {
		s.step++
	}
}

// PrevStep moves one step back. At the first step it is a no-op.
func (s *Store) PrevStep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step > StepIntro {
		s.step--
	}
}

// SetAddress assigns the delivery address. No validation happens here;
// step-exit validation belongs to the flow controller.
func (s *Store) SetAddress(address string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.address = address
}

// SetMemo assigns the order-wide free-text memo.
func (s *Store) SetMemo(memo string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memo = memo
}

// AddDinner adds a dinner selection with the given quantity and returns the
// selection id. If the dinner is already selected its quantity is
// incremented and its instances are reset, since every existing instance
// carries a style-specific product that the new quantity invalidates.
// Non-positive quantities are rejected as a no-op.
func (s *Store) AddDinner(dinner models.Dinner, quantity int) string {
	if quantity <= 0 {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sd := range s.dinners {
		if sd.Dinner.ID == dinner.ID {
			sd.Quantity += quantity
			sd.Instances = nil
			return sd.ID
		}
	}
	sd := &SelectedDinner{
		ID:       uuid.New().String(),
		Dinner:   dinner,
		Quantity: quantity,
	}
	s.dinners = append(s.dinners, sd)
	return sd.ID
}

// RemoveDinner deletes the selection with the given id. Removing an absent
// id is a no-op.
func (s *Store) RemoveDinner(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sd := range s.dinners {
		if sd.ID == id {
			s.dinners = append(s.dinners[:i], s.dinners[i+1:]...)
			return
		}
	}
}

// UpdateDinnerQuantity sets a selection's quantity and clears its
// instances. A quantity of zero or less removes the selection entirely.
func (s *Store) UpdateDinnerQuantity(id string, quantity int) {
	if quantity <= 0 {
		s.RemoveDinner(id)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if sd := s.findDinner(id); sd != nil {
		sd.Quantity = quantity
		sd.Instances = nil
	}
}

// SetInstanceStyle assigns a serving style to the instance at index,
// lazily growing the instances list with empty slots up to index+1. The
// slot's product and customizations are cleared: stale pricing must not
// survive a style change. Indexes at or beyond the selection's quantity
// are ignored.
func (s *Store) SetInstanceStyle(id string, index int, style models.ServingStyle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sd := s.findDinner(id)
	if sd == nil || index < 0 || index >= sd.Quantity {
		return
	}
	for len(sd.Instances) <= index {
		sd.Instances = append(sd.Instances, DinnerInstance{})
	}
	st := style
	sd.Instances[index] = DinnerInstance{Style: &st}
}

// ClearInstanceStyle reverts the instance at index to an empty slot. Flow
// controllers use it to roll back a style selection whose product
// materialization failed.
func (s *Store) ClearInstanceStyle(id string, index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sd := s.findDinner(id)
	if sd == nil || index < 0 || index >= len(sd.Instances) {
		return
	}
	sd.Instances[index] = DinnerInstance{}
}

// SetInstanceProduct attaches a materialized product to an existing
// instance. If no instance exists at the index, nothing happens.
func (s *Store) SetInstanceProduct(id string, index int, product models.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sd := s.findDinner(id)
	if sd == nil || index < 0 || index >= len(sd.Instances) {
		return
	}
	p := product
	sd.Instances[index].Product = &p
}

// SetInstanceMenuCustomizations replaces an instance's customization list.
func (s *Store) SetInstanceMenuCustomizations(id string, index int, customizations []MenuItemCustomization) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sd := s.findDinner(id)
	if sd == nil || index < 0 || index >= len(sd.Instances) {
		return
	}
	sd.Instances[index].Customizations = append([]MenuItemCustomization(nil), customizations...)
}

// UpdateInstanceMenuItemQuantity patches one customization's current
// quantity, clamped to zero.
func (s *Store) UpdateInstanceMenuItemQuantity(id string, index int, menuItemID int64, quantity int) {
	if quantity < 0 {
		quantity = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sd := s.findDinner(id)
	if sd == nil || index < 0 || index >= len(sd.Instances) {
		return
	}
	cs := sd.Instances[index].Customizations
	for i := range cs {
		if cs[i].MenuItemID == menuItemID {
			cs[i].Quantity = quantity
			return
		}
	}
}

// AddAdditionalItem appends a global add-on. Re-adding a menu item that is
// already present is a no-op; its quantity has to be changed through
// UpdateAdditionalItemQuantity instead. Non-positive quantities are
// rejected.
func (s *Store) AddAdditionalItem(item models.MenuItem, quantity int) {
	if quantity <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ai := range s.addOns {
		if ai.MenuItem.ID == item.ID {
			return
		}
	}
	s.addOns = append(s.addOns, AdditionalMenuItem{MenuItem: item, Quantity: quantity})
}

// RemoveAdditionalItem deletes the add-on for the given menu item id.
func (s *Store) RemoveAdditionalItem(menuItemID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, ai := range s.addOns {
		if ai.MenuItem.ID == menuItemID {
			s.addOns = append(s.addOns[:i], s.addOns[i+1:]...)
			return
		}
	}
}

// UpdateAdditionalItemQuantity sets an add-on's quantity, clamped to one.
// Removal is RemoveAdditionalItem's job, not a quantity of zero.
func (s *Store) UpdateAdditionalItemQuantity(menuItemID int64, quantity int) {
	if quantity < 1 {
		quantity = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.addOns {
		if s.addOns[i].MenuItem.ID == menuItemID {
			s.addOns[i].Quantity = quantity
			return
		}
	}
}

// ResetOrder restores the initial empty state and the first step.
func (s *Store) ResetOrder() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.step = StepIntro
	s.address = ""
	s.memo = ""
	s.dinners = nil
	s.addOns = nil
}

// TotalPrice derives the current advisory order total. It never mutates
// state; the authoritative total after checkout is the backend's.
func (s *Store) TotalPrice() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return totalPrice(s.dinners, s.addOns)
}

// Snapshot returns a deep copy of the order in progress.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	dinners := make([]SelectedDinner, 0, len(s.dinners))
	for _, sd := range s.dinners {
		cp := SelectedDinner{
			ID:       sd.ID,
			Dinner:   sd.Dinner,
			Quantity: sd.Quantity,
		}
		for _, inst := range sd.Instances {
			cp.Instances = append(cp.Instances, copyInstance(inst))
		}
		dinners = append(dinners, cp)
	}

	return State{
		Step:            s.step,
		StepName:        s.step.String(),
		Address:         s.address,
		Memo:            s.memo,
		Dinners:         dinners,
		AdditionalItems: append([]AdditionalMenuItem(nil), s.addOns...),
		TotalPrice:      totalPrice(s.dinners, s.addOns),
	}
}

func copyInstance(inst DinnerInstance) DinnerInstance {
	cp := DinnerInstance{}
	if inst.Style != nil {
		st := *inst.Style
		cp.Style = &st
	}
	if inst.Product != nil {
		p := *inst.Product
		p.MenuLineItems = append([]models.ProductLineItem(nil), inst.Product.MenuLineItems...)
		cp.Product = &p
	}
	cp.Customizations = append([]MenuItemCustomization(nil), inst.Customizations...)
	return cp
}

// findDinner must be called with the mutex held.
func (s *Store) findDinner(id string) *SelectedDinner {
	for _, sd := range s.dinners {
		if sd.ID == id {
			return sd
		}
	}
	return nil
}
