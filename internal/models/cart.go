package models

// CartItem references one materialized product inside a cart
type CartItem struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required,gt=0"`
}

// CreateCartRequest creates a cart from materialized products
type CreateCartRequest struct {
	Items           []CartItem `json:"items" binding:"required,dive"`
	DeliveryAddress string     `json:"delivery_address" binding:"required"`
	DeliveryMethod  string     `json:"delivery_method"`
	Memo            string     `json:"memo,omitempty"`
}

// CreateCartResponse carries the id of the created cart
type CreateCartResponse struct {
	CartID int64 `json:"cart_id"`
}

// OrderLineItem is one line of a placed order as reported by the backend
type OrderLineItem struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Price     int    `json:"price"`
}

// OrderResult is the authoritative order returned by checkout. Its grand
// total is server-computed; client-side totals are advisory only.
type OrderResult struct {
	OrderID     int64           `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	GrandTotal  int             `json:"grand_total"`
	Items       []OrderLineItem `json:"items"`
}
