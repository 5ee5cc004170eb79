package domain

import (
	"time"
)

// StockStatus is the enumerated per-product availability attribute stored in
// the attribute table. The values are plain strings so they stay directly
// comparable in SQL ordering.
type StockStatus string

const (
	StockStatusInStock    StockStatus = "instock"
	StockStatusOutOfStock StockStatus = "outofstock"
)

// StockStatusForQuantity derives the stock status written to the attribute
// store from a product's on-hand quantity.
func StockStatusForQuantity(quantity int32) StockStatus {
	if quantity > 0 {
		return StockStatusInStock
	}
	return StockStatusOutOfStock
}

// Category represents a product category in the catalog.
// The json tags correspond to the fields expected in API responses/requests.
type Category struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Description      *string   `json:"description,omitempty"`        // Pointer for nullable fields, omitempty to exclude if nil
	ParentCategoryID *int64    `json:"parent_category_id,omitempty"` // Pointer for nullable fields
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Product represents a product in the catalog.
// StockStatus mirrors the stock_status entry of the attribute store; products
// without one report out-of-stock. SortOrder is the manual ordering position
// used as the final listing tie-break.
type Product struct {
	ID            int64       `json:"id"`
	Name          string      `json:"name"`
	Description   *string     `json:"description,omitempty"` // Pointer for nullable fields
	SKU           string      `json:"sku"`
	Price         float64     `json:"price"`
	StockQuantity int32       `json:"stock_quantity"`
	StockStatus   StockStatus `json:"stock_status"`
	CategoryID    *int64      `json:"category_id,omitempty"` // Pointer for nullable fields
	ImageURL      *string     `json:"image_url,omitempty"`   // Pointer for nullable fields
	IsActive      bool        `json:"is_active"`
	SortOrder     int32       `json:"sort_order"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}
