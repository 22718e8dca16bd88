package orderflow

// Pricing is derived, never stored. Per-instance price is the dinner base
// price plus the style's extra price plus the customization deltas; removing
// items below their defaults legitimately yields a price below base+style,
// so nothing here floors at zero. Instances without a style contribute
// nothing: a partially specified order must not be priced as if complete.

// InstancePrice computes the local price of one dinner instance. Styled
// instances are priced from local state even when a materialized product
// exists, so the total stays live before remote confirmation.
func InstancePrice(basePrice int, inst DinnerInstance) int {
	if inst.Style == nil {
		return 0
	}
	price := basePrice + inst.Style.ExtraPrice
	for _, c := range inst.Customizations {
		price += (c.Quantity - c.DefaultQuantity) * c.UnitPrice
	}
	return price
}

// DinnerSubtotal sums the prices of a selection's styled instances.
func DinnerSubtotal(sd SelectedDinner) int {
	subtotal := 0
	for _, inst := range sd.Instances {
		subtotal += InstancePrice(sd.Dinner.Price, inst)
	}
	return subtotal
}

func totalPrice(dinners []*SelectedDinner, addOns []AdditionalMenuItem) int {
	total := 0
	for _, sd := range dinners {
		total += DinnerSubtotal(*sd)
	}
	for _, ai := range addOns {
		total += ai.MenuItem.UnitPrice * ai.Quantity
	}
	return total
}

// StateTotal recomputes the advisory total of a state copy.
func StateTotal(st State) int {
	total := 0
	for _, sd := range st.Dinners {
		total += DinnerSubtotal(sd)
	}
	for _, ai := range st.AdditionalItems {
		total += ai.MenuItem.UnitPrice * ai.Quantity
	}
	return total
}
