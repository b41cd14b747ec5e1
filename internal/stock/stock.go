// Package stock holds the pure low-stock rules: classification, replenishment
// sizing, and the notification policy. Nothing here touches the database.
package stock

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/invtrack/invtrack/internal/model"
)

// Status is the stock classification of an item.
type Status string

const (
	StatusNormal Status = "normal"
	StatusLow    Status = "low"
)

// Classify returns the stock status of an item. An item exactly at its
// reorder level counts as low (non-strict inequality).
func Classify(item model.Item) Status {
	if item.Quantity <= item.ReorderLevel {
		return StatusLow
	}
	return StatusNormal
}

// PercentRemaining returns the item's quantity as a percentage of its reorder
// level, or 0 when the reorder level is zero.
func PercentRemaining(item model.Item) float64 {
	if item.ReorderLevel <= 0 {
		return 0
	}
	return float64(item.Quantity) / float64(item.ReorderLevel) * 100
}

// ReplenishQuantity returns the order quantity for a low-stock item: the
// smallest amount that brings it strictly above its reorder level, never less
// than 1.
func ReplenishQuantity(item model.Item) int {
	qty := item.ReorderLevel - item.Quantity + 1
	if qty < 1 {
		qty = 1
	}
	return qty
}

// FilterLow returns the low-stock subset of items.
func FilterLow(items []model.Item) []model.Item {
	var low []model.Item
	for _, item := range items {
		if Classify(item) == StatusLow {
			low = append(low, item)
		}
	}
	return low
}

// NotifyWorthy reports whether a low-stock item should count toward a
// notification. The threshold acts as a severity filter: when non-zero, only
// items at or below that percentage of their reorder level qualify. A zero
// threshold means every low-stock item qualifies.
func NotifyWorthy(item model.Item, threshold int) bool {
	if Classify(item) != StatusLow {
		return false
	}
	if threshold <= 0 {
		return true
	}
	return PercentRemaining(item) <= float64(threshold)
}

// WorthyItems filters items down to those that count toward a notification
// under the given settings.
func WorthyItems(items []model.Item, settings model.NotificationSettings) []model.Item {
	var worthy []model.Item
	for _, item := range items {
		if NotifyWorthy(item, settings.Threshold) {
			worthy = append(worthy, item)
		}
	}
	return worthy
}

// Fingerprint returns a stable identifier for a set of low-stock items, used
// to suppress repeat immediate notifications for an unchanged shortage.
func Fingerprint(items []model.Item) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, fmt.Sprintf("%d:%d", item.ID, item.Quantity))
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}

// ShouldNotify decides whether a notification should go out now. The caller
// supplies the full item list, the time a notification was last sent (zero if
// never), and the fingerprint of the last sent set.
func ShouldNotify(settings model.NotificationSettings, items []model.Item, lastSentAt time.Time, lastFingerprint string, now time.Time) bool {
	if !settings.Enabled {
		return false
	}

	worthy := WorthyItems(items, settings)
	if len(worthy) == 0 {
		return false
	}

	switch settings.Frequency {
	case model.FrequencyImmediate:
		return Fingerprint(worthy) != lastFingerprint
	case model.FrequencyDaily:
		return lastSentAt.IsZero() || now.Sub(lastSentAt) >= 24*time.Hour
	case model.FrequencyWeekly:
		return lastSentAt.IsZero() || now.Sub(lastSentAt) >= 7*24*time.Hour
	}
	return false
}
