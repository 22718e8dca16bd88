package models

// Dinner represents a fixed dinner package from the catalog
type Dinner struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Price    int    `json:"price"`
	IsActive bool   `json:"is_active"`
}

// ServingStyle represents a presentation tier that adds to the dinner price
type ServingStyle struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	ExtraPrice int    `json:"extra_price"`
	IsActive   bool   `json:"is_active"`
}

// MenuItem represents a single orderable ingredient or side
type MenuItem struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	UnitPrice int    `json:"unit_price"`
	Unit      string `json:"unit,omitempty"`
	Stock     int    `json:"stock"`
}

// DinnerMenuItem is one entry of a dinner's default menu composition
type DinnerMenuItem struct {
	MenuItemID      int64  `json:"menu_item_id"`
	Name            string `json:"name"`
	DefaultQuantity int    `json:"default_quantity"`
}
