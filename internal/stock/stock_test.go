package stock

import (
	"testing"
	"time"

	"github.com/invtrack/invtrack/internal/model"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		quantity     int
		reorderLevel int
		expected     Status
	}{
		{0, 0, StatusLow},   // at level counts as low
		{0, 10, StatusLow},
		{5, 10, StatusLow},
		{10, 10, StatusLow}, // exactly at level
		{11, 10, StatusNormal},
		{100, 10, StatusNormal},
		{1, 0, StatusNormal},
		{3, 5, StatusLow},
	}

	for _, tt := range tests {
		item := model.Item{Quantity: tt.quantity, ReorderLevel: tt.reorderLevel}
		got := Classify(item)
		if got != tt.expected {
			t.Errorf("Classify(quantity=%d, reorderLevel=%d) = %q, want %q",
				tt.quantity, tt.reorderLevel, got, tt.expected)
		}
	}
}

func TestPercentRemaining(t *testing.T) {
	tests := []struct {
		quantity     int
		reorderLevel int
		expected     float64
	}{
		{5, 10, 50},
		{10, 10, 100},
		{0, 10, 0},
		{3, 0, 0}, // zero reorder level
		{15, 10, 150},
	}

	for _, tt := range tests {
		item := model.Item{Quantity: tt.quantity, ReorderLevel: tt.reorderLevel}
		got := PercentRemaining(item)
		if got != tt.expected {
			t.Errorf("PercentRemaining(%d/%d) = %v, want %v", tt.quantity, tt.reorderLevel, got, tt.expected)
		}
	}
}

func TestReplenishQuantity(t *testing.T) {
	tests := []struct {
		quantity     int
		reorderLevel int
		expected     int
	}{
		{3, 5, 3},  // brings stock to 6, above level 5
		{0, 10, 11},
		{10, 10, 1}, // exactly at level still needs one to go above
		{0, 0, 1},
		{5, 3, 1}, // never below one
	}

	for _, tt := range tests {
		item := model.Item{Quantity: tt.quantity, ReorderLevel: tt.reorderLevel}
		got := ReplenishQuantity(item)
		if got != tt.expected {
			t.Errorf("ReplenishQuantity(%d/%d) = %d, want %d", tt.quantity, tt.reorderLevel, got, tt.expected)
		}
		// Ordering the replenishment quantity must clear the reorder level.
		if tt.quantity <= tt.reorderLevel && tt.quantity+got <= tt.reorderLevel {
			t.Errorf("ReplenishQuantity(%d/%d) = %d does not clear the reorder level", tt.quantity, tt.reorderLevel, got)
		}
	}
}

func TestFilterLow(t *testing.T) {
	items := []model.Item{
		{ID: 1, Quantity: 3, ReorderLevel: 5},
		{ID: 2, Quantity: 20, ReorderLevel: 5},
		{ID: 3, Quantity: 5, ReorderLevel: 5},
	}

	low := FilterLow(items)
	if len(low) != 2 {
		t.Fatalf("expected 2 low items, got %d", len(low))
	}
	if low[0].ID != 1 || low[1].ID != 3 {
		t.Errorf("unexpected low items: %v", low)
	}
}

func TestNotifyWorthyThreshold(t *testing.T) {
	// 3/10 = 30% remaining.
	item := model.Item{Quantity: 3, ReorderLevel: 10}

	if !NotifyWorthy(item, 0) {
		t.Error("threshold 0 should include every low-stock item")
	}
	if !NotifyWorthy(item, 30) {
		t.Error("item at exactly the threshold should qualify")
	}
	if !NotifyWorthy(item, 50) {
		t.Error("item below the threshold should qualify")
	}
	if NotifyWorthy(item, 20) {
		t.Error("item above the threshold should not qualify")
	}

	// Normal-stock items never qualify, whatever the threshold.
	normal := model.Item{Quantity: 50, ReorderLevel: 10}
	if NotifyWorthy(normal, 50) {
		t.Error("normal-stock item should never qualify")
	}
}

func TestFingerprintStable(t *testing.T) {
	a := []model.Item{{ID: 1, Quantity: 3}, {ID: 2, Quantity: 7}}
	b := []model.Item{{ID: 2, Quantity: 7}, {ID: 1, Quantity: 3}}

	if Fingerprint(a) != Fingerprint(b) {
		t.Error("fingerprint should be order-independent")
	}

	c := []model.Item{{ID: 1, Quantity: 2}, {ID: 2, Quantity: 7}}
	if Fingerprint(a) == Fingerprint(c) {
		t.Error("fingerprint should change when a quantity changes")
	}

	if Fingerprint(nil) != "" {
		t.Errorf("expected empty fingerprint for no items, got %q", Fingerprint(nil))
	}
}

func TestShouldNotify(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	low := []model.Item{{ID: 1, Quantity: 2, ReorderLevel: 5}}
	enabled := model.NotificationSettings{Enabled: true, Email: "ops@example.com"}

	t.Run("disabled never notifies", func(t *testing.T) {
		s := enabled
		s.Enabled = false
		s.Frequency = model.FrequencyImmediate
		if ShouldNotify(s, low, time.Time{}, "", now) {
			t.Error("disabled settings should never notify")
		}
	})

	t.Run("no low stock never notifies", func(t *testing.T) {
		s := enabled
		s.Frequency = model.FrequencyImmediate
		normal := []model.Item{{ID: 1, Quantity: 50, ReorderLevel: 5}}
		if ShouldNotify(s, normal, time.Time{}, "", now) {
			t.Error("should not notify without low-stock items")
		}
	})

	t.Run("immediate notifies on changed set", func(t *testing.T) {
		s := enabled
		s.Frequency = model.FrequencyImmediate
		if !ShouldNotify(s, low, now.Add(-time.Minute), "", now) {
			t.Error("expected notification for new shortage")
		}
		// Same set already reported.
		if ShouldNotify(s, low, now.Add(-time.Minute), Fingerprint(low), now) {
			t.Error("should not re-notify for an unchanged set")
		}
	})

	t.Run("daily gates on 24h", func(t *testing.T) {
		s := enabled
		s.Frequency = model.FrequencyDaily
		if !ShouldNotify(s, low, time.Time{}, "", now) {
			t.Error("never-sent should notify")
		}
		if ShouldNotify(s, low, now.Add(-23*time.Hour), "", now) {
			t.Error("sent 23h ago should not notify")
		}
		if !ShouldNotify(s, low, now.Add(-25*time.Hour), "", now) {
			t.Error("sent 25h ago should notify")
		}
	})

	t.Run("weekly gates on 7 days", func(t *testing.T) {
		s := enabled
		s.Frequency = model.FrequencyWeekly
		if ShouldNotify(s, low, now.Add(-6*24*time.Hour), "", now) {
			t.Error("sent 6 days ago should not notify")
		}
		if !ShouldNotify(s, low, now.Add(-8*24*time.Hour), "", now) {
			t.Error("sent 8 days ago should notify")
		}
	})

	t.Run("threshold filters the set", func(t *testing.T) {
		s := enabled
		s.Frequency = model.FrequencyDaily
		s.Threshold = 20
		// 4/5 = 80% remaining, above the 20% severity threshold.
		mild := []model.Item{{ID: 1, Quantity: 4, ReorderLevel: 5}}
		if ShouldNotify(s, mild, time.Time{}, "", now) {
			t.Error("mildly low item should be filtered by the threshold")
		}
	})
}

func TestBuildDigest(t *testing.T) {
	items := []model.Item{
		{Name: "Widget", Quantity: 3, ReorderLevel: 5, Price: 60, SupplierName: "Acme"},
		{Name: "Gadget", Quantity: 2, ReorderLevel: 10, Price: 9.5},
	}

	digest := BuildDigest(items)
	if len(digest.Items) != 2 {
		t.Fatalf("expected 2 digest items, got %d", len(digest.Items))
	}

	if digest.Items[0].AtRiskValue != 180 {
		t.Errorf("expected at-risk value 180, got %v", digest.Items[0].AtRiskValue)
	}
	if digest.Items[1].SupplierName != "N/A" {
		t.Errorf("expected supplier 'N/A', got %q", digest.Items[1].SupplierName)
	}
	if digest.TotalAtRiskValue != 199 {
		t.Errorf("expected total 199, got %v", digest.TotalAtRiskValue)
	}
}
