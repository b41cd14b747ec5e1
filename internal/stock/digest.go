package stock

import "github.com/invtrack/invtrack/internal/model"

// Digest summarizes current low-stock exposure for a notification.
type Digest struct {
	Items            []DigestItem `json:"items"`
	TotalAtRiskValue float64      `json:"total_at_risk_value"`
}

// DigestItem is one item's entry in a digest.
type DigestItem struct {
	Name         string  `json:"name"`
	Quantity     int     `json:"quantity"`
	ReorderLevel int     `json:"reorder_level"`
	SupplierName string  `json:"supplier_name"`
	AtRiskValue  float64 `json:"at_risk_value"`
}

// BuildDigest builds a digest from low-stock items. The at-risk value of an
// item is its remaining quantity times its price. Items without a supplier
// are reported as "N/A".
func BuildDigest(items []model.Item) Digest {
	digest := Digest{Items: make([]DigestItem, 0, len(items))}
	for _, item := range items {
		supplier := item.SupplierName
		if supplier == "" {
			supplier = "N/A"
		}
		value := float64(item.Quantity) * item.Price
		digest.Items = append(digest.Items, DigestItem{
			Name:         item.Name,
			Quantity:     item.Quantity,
			ReorderLevel: item.ReorderLevel,
			SupplierName: supplier,
			AtRiskValue:  value,
		})
		digest.TotalAtRiskValue += value
	}
	return digest
}
