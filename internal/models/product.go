package models

// ProductLineItem is one menu line of a materialized product
type ProductLineItem struct {
	MenuItemID int64  `json:"menu_item_id"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	UnitPrice  int    `json:"unit_price"`
}

// Product is the backend-materialized, priced resource created from a
// dinner+style pair or from a standalone additional menu item. It is the
// unit actually placed into a cart.
type Product struct {
	ID            int64             `json:"id"`
	TotalPrice    int               `json:"total_price"`
	Quantity      int               `json:"quantity"`
	MenuLineItems []ProductLineItem `json:"menu_line_items"`
}

// CreateProductRequest materializes one dinner instance
type CreateProductRequest struct {
	DinnerID       int64  `json:"dinner_id" binding:"required"`
	ServingStyleID int64  `json:"serving_style_id" binding:"required"`
	Quantity       int    `json:"quantity" binding:"required,gt=0"`
	Address        string `json:"address"`
	Memo           string `json:"memo,omitempty"`
}

// CreateAdditionalProductRequest materializes a global add-on menu item
type CreateAdditionalProductRequest struct {
	MenuItemID int64  `json:"menu_item_id" binding:"required"`
	Quantity   int    `json:"quantity" binding:"required,gt=0"`
	Address    string `json:"address"`
	Memo       string `json:"memo,omitempty"`
}
