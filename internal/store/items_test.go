package store

import (
	"context"
	"errors"
	"testing"

	"github.com/invtrack/invtrack/internal/db"
	"github.com/invtrack/invtrack/internal/model"
)

func TestCreateAndGetItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item, err := CreateItem(ctx, database, model.Item{
		Name:         "Laptop",
		Description:  "Dell XPS 15",
		Category:     "Electronics",
		Quantity:     4,
		ReorderLevel: 2,
		Price:        1200,
	})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if item.Name != "Laptop" {
		t.Errorf("expected name 'Laptop', got %q", item.Name)
	}
	if item.Quantity != 4 || item.ReorderLevel != 2 {
		t.Errorf("unexpected stock fields: %d/%d", item.Quantity, item.ReorderLevel)
	}
	if item.Price != 1200 {
		t.Errorf("expected price 1200, got %v", item.Price)
	}
}

func TestCreateItemValidation(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	tests := []struct {
		name string
		item model.Item
	}{
		{"empty name", model.Item{}},
		{"negative quantity", model.Item{Name: "X", Quantity: -1}},
		{"negative reorder level", model.Item{Name: "X", ReorderLevel: -1}},
		{"negative price", model.Item{Name: "X", Price: -0.01}},
	}

	for _, tt := range tests {
		_, err := CreateItem(ctx, database, tt.item)
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("%s: expected ErrInvalidInput, got %v", tt.name, err)
		}
	}
}

func TestCreateItemUnknownSupplier(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	missing := int64(99)
	_, err := CreateItem(ctx, database, model.Item{Name: "Widget", SupplierID: &missing})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestItemSupplierJoin(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	supplier, _ := CreateSupplier(ctx, database, model.Supplier{Name: "Acme"})
	item, err := CreateItem(ctx, database, model.Item{Name: "Widget", SupplierID: &supplier.ID})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if item.SupplierName != "Acme" {
		t.Errorf("expected supplier name 'Acme', got %q", item.SupplierName)
	}
}

func TestListItemsByCategory(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateItem(ctx, database, model.Item{Name: "Screws", Category: "Hardware"})
	CreateItem(ctx, database, model.Item{Name: "Bolts", Category: "Hardware"})
	CreateItem(ctx, database, model.Item{Name: "Mouse", Category: "Electronics"})

	all, _ := ListItems(ctx, database, "")
	if len(all) != 3 {
		t.Errorf("expected 3 items, got %d", len(all))
	}

	hardware, _ := ListItems(ctx, database, "Hardware")
	if len(hardware) != 2 {
		t.Errorf("expected 2 hardware items, got %d", len(hardware))
	}
}

func TestListLowStockItems(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateItem(ctx, database, model.Item{Name: "Plenty", Quantity: 50, ReorderLevel: 10})
	CreateItem(ctx, database, model.Item{Name: "At Level", Quantity: 10, ReorderLevel: 10})
	CreateItem(ctx, database, model.Item{Name: "Short", Quantity: 1, ReorderLevel: 10})

	low, err := ListLowStockItems(ctx, database)
	if err != nil {
		t.Fatalf("ListLowStockItems: %v", err)
	}
	if len(low) != 2 {
		t.Fatalf("expected 2 low-stock items, got %d", len(low))
	}
	for _, item := range low {
		if item.Quantity > item.ReorderLevel {
			t.Errorf("item %q is not low stock: %d/%d", item.Name, item.Quantity, item.ReorderLevel)
		}
	}
}

func TestUpdateItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item, _ := CreateItem(ctx, database, model.Item{Name: "Widget", Quantity: 5})

	err := UpdateItem(ctx, database, item.ID, model.Item{
		Name:         "Widget v2",
		Quantity:     8,
		ReorderLevel: 3,
		Price:        4.5,
	})
	if err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}

	got, _ := GetItem(ctx, database, item.ID)
	if got.Name != "Widget v2" || got.Quantity != 8 || got.Price != 4.5 {
		t.Errorf("update not applied: %+v", got)
	}

	err = UpdateItem(ctx, database, 9999, model.Item{Name: "Nope"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing item, got %v", err)
	}
}

func TestSoftDeleteItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item, _ := CreateItem(ctx, database, model.Item{Name: "Delete Me"})
	if err := DeleteItem(ctx, database, item.ID); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}

	items, _ := ListItems(ctx, database, "")
	if len(items) != 0 {
		t.Errorf("expected 0 items after soft delete, got %d", len(items))
	}

	// Should still be fetchable by ID (for history).
	got, _ := GetItem(ctx, database, item.ID)
	if got == nil {
		t.Error("expected soft-deleted item to still be fetchable by ID")
	}
}

func TestDeleteItemOnOpenOrderBlocked(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	supplier, _ := CreateSupplier(ctx, database, model.Supplier{Name: "Acme"})
	item, _ := CreateItem(ctx, database, model.Item{Name: "Widget", Quantity: 1, ReorderLevel: 5, SupplierID: &supplier.ID})

	po, err := CreatePurchaseOrder(ctx, database, model.PurchaseOrder{
		SupplierID: supplier.ID,
		Lines:      []model.PurchaseOrderLine{{ItemID: item.ID, Quantity: 5}},
	})
	if err != nil {
		t.Fatalf("CreatePurchaseOrder: %v", err)
	}

	err = DeleteItem(ctx, database, item.ID)
	if !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict for item on open order, got %v", err)
	}

	// Cancelling the order frees the item for deletion.
	if _, err := TransitionPurchaseOrder(ctx, database, po.ID, model.POStatusCancelled); err != nil {
		t.Fatalf("TransitionPurchaseOrder: %v", err)
	}
	if err := DeleteItem(ctx, database, item.ID); err != nil {
		t.Errorf("expected delete to succeed after cancellation, got %v", err)
	}
}

func TestItemImage(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item, _ := CreateItem(ctx, database, model.Item{Name: "Photo Item"})
	imageData := []byte("fake image data")
	SetItemImage(ctx, database, item.ID, imageData, "image/jpeg")

	data, mime, err := GetItemImage(ctx, database, item.ID)
	if err != nil {
		t.Fatalf("GetItemImage: %v", err)
	}
	if string(data) != "fake image data" {
		t.Errorf("expected image data, got %q", string(data))
	}
	if mime != "image/jpeg" {
		t.Errorf("expected mime 'image/jpeg', got %q", mime)
	}
}
