package model

import "time"

// Item represents a stocked item type tracked by quantity.
type Item struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description,omitempty"`
	Category     string     `json:"category,omitempty"`
	Quantity     int        `json:"quantity"`
	ReorderLevel int        `json:"reorder_level"`
	Price        float64    `json:"price"`
	SupplierID   *int64     `json:"supplier_id,omitempty"`
	ImageMime    string     `json:"image_mime,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`

	// Joined fields (not always populated).
	SupplierName string `json:"supplier_name,omitempty"`
}

// DefaultReorderLevel is applied when an item is created without one.
const DefaultReorderLevel = 10
