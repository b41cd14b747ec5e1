package model

import "time"

// PurchaseOrder represents a replenishment request to a supplier.
type PurchaseOrder struct {
	ID                   int64               `json:"id"`
	PONumber             string              `json:"po_number"`
	SupplierID           int64               `json:"supplier_id"`
	Status               string              `json:"status"`
	OrderDate            time.Time           `json:"order_date"`
	ExpectedDeliveryDate *time.Time          `json:"expected_delivery_date,omitempty"`
	Notes                string              `json:"notes,omitempty"`
	TotalAmount          float64             `json:"total_amount"`
	CreatedBy            *int64              `json:"created_by,omitempty"`
	CreatedAt            time.Time           `json:"created_at"`
	Lines                []PurchaseOrderLine `json:"items"`

	// Joined fields (not always populated).
	SupplierName string `json:"supplier_name,omitempty"`
}

// PurchaseOrderLine is a single item entry on a purchase order. The item name
// is a snapshot taken at order time so orders stay readable after item edits
// or deletions.
type PurchaseOrderLine struct {
	ID              int64   `json:"id"`
	PurchaseOrderID int64   `json:"purchase_order_id"`
	ItemID          int64   `json:"item_id"`
	ItemName        string  `json:"item_name"`
	Quantity        int     `json:"quantity"`
	UnitPrice       float64 `json:"unit_price"`
}

// Purchase order statuses.
const (
	POStatusPending   = "pending"
	POStatusOrdered   = "ordered"
	POStatusReceived  = "received"
	POStatusCancelled = "cancelled"
)

// ValidPOStatus reports whether status is a known purchase order status.
func ValidPOStatus(status string) bool {
	switch status {
	case POStatusPending, POStatusOrdered, POStatusReceived, POStatusCancelled:
		return true
	}
	return false
}

// poTransitions lists the allowed status moves. Received and cancelled are
// terminal.
var poTransitions = map[string][]string{
	POStatusPending: {POStatusOrdered, POStatusCancelled},
	POStatusOrdered: {POStatusReceived, POStatusCancelled},
}

// CanTransition reports whether a purchase order may move from one status to
// another.
func CanTransition(from, to string) bool {
	for _, allowed := range poTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ComputeTotal recomputes the order total from its lines. The stored total is
// derived and must never be edited independently.
func (po *PurchaseOrder) ComputeTotal() float64 {
	var total float64
	for _, line := range po.Lines {
		total += float64(line.Quantity) * line.UnitPrice
	}
	po.TotalAmount = total
	return total
}
