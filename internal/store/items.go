package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/invtrack/invtrack/internal/model"
	"github.com/invtrack/invtrack/internal/stock"
)

const itemColumns = `i.id, i.name, i.description, i.category, i.quantity, i.reorder_level,
	        i.price, i.supplier_id, i.image_mime, i.created_at, i.updated_at, i.deleted_at,
	        COALESCE(s.name, '') AS supplier_name`

func validateItem(item model.Item) error {
	if item.Name == "" {
		return fmt.Errorf("%w: name required", ErrInvalidInput)
	}
	if item.Quantity < 0 {
		return fmt.Errorf("%w: quantity cannot be negative", ErrInvalidInput)
	}
	if item.ReorderLevel < 0 {
		return fmt.Errorf("%w: reorder level cannot be negative", ErrInvalidInput)
	}
	if item.Price < 0 {
		return fmt.Errorf("%w: price cannot be negative", ErrInvalidInput)
	}
	return nil
}

// CreateItem creates a new item. The supplier, if set, must exist.
func CreateItem(ctx context.Context, db *sql.DB, item model.Item) (*model.Item, error) {
	if err := validateItem(item); err != nil {
		return nil, err
	}
	if item.SupplierID != nil {
		supplier, err := GetSupplier(ctx, db, *item.SupplierID)
		if err != nil {
			return nil, err
		}
		if supplier == nil || supplier.DeletedAt != nil {
			return nil, fmt.Errorf("%w: supplier %d", ErrNotFound, *item.SupplierID)
		}
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO items (name, description, category, quantity, reorder_level, price, supplier_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		item.Name, item.Description, item.Category, item.Quantity, item.ReorderLevel, item.Price, item.SupplierID,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item id: %w", err)
	}

	return GetItem(ctx, db, id)
}

// GetItem returns an item by ID, with its supplier name joined.
func GetItem(ctx context.Context, db *sql.DB, id int64) (*model.Item, error) {
	item := &model.Item{}
	var description, category, imageMime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT `+itemColumns+`
		 FROM items i
		 LEFT JOIN suppliers s ON s.id = i.supplier_id
		 WHERE i.id = ?`, id,
	).Scan(&item.ID, &item.Name, &description, &category, &item.Quantity, &item.ReorderLevel,
		&item.Price, &item.SupplierID, &imageMime, &item.CreatedAt, &item.UpdatedAt, &item.DeletedAt,
		&item.SupplierName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	item.Description = description.String
	item.Category = category.String
	item.ImageMime = imageMime.String
	return item, nil
}

// ListItems returns all non-deleted items, optionally filtered by category.
func ListItems(ctx context.Context, db *sql.DB, category string) ([]model.Item, error) {
	query := `SELECT ` + itemColumns + `
	          FROM items i
	          LEFT JOIN suppliers s ON s.id = i.supplier_id
	          WHERE i.deleted_at IS NULL`
	var args []any

	if category != "" {
		query += ` AND i.category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY i.name`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// ListLowStockItems returns all non-deleted items at or below their reorder
// level. Classification happens in Go so the classifier stays the single
// source of truth.
func ListLowStockItems(ctx context.Context, db *sql.DB) ([]model.Item, error) {
	items, err := ListItems(ctx, db, "")
	if err != nil {
		return nil, err
	}
	return stock.FilterLow(items), nil
}

// UpdateItem updates an item's fields.
func UpdateItem(ctx context.Context, db *sql.DB, id int64, item model.Item) error {
	if err := validateItem(item); err != nil {
		return err
	}
	if item.SupplierID != nil {
		supplier, err := GetSupplier(ctx, db, *item.SupplierID)
		if err != nil {
			return err
		}
		if supplier == nil || supplier.DeletedAt != nil {
			return fmt.Errorf("%w: supplier %d", ErrNotFound, *item.SupplierID)
		}
	}

	result, err := db.ExecContext(ctx,
		`UPDATE items
		 SET name = ?, description = ?, category = ?, quantity = ?, reorder_level = ?,
		     price = ?, supplier_id = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		item.Name, item.Description, item.Category, item.Quantity, item.ReorderLevel,
		item.Price, item.SupplierID, id,
	)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: item %d", ErrNotFound, id)
	}
	return nil
}

// DeleteItem soft-deletes an item. Fails while an open (pending or ordered)
// purchase order references it, so receipts always find their items.
func DeleteItem(ctx context.Context, db *sql.DB, id int64) error {
	var open int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*)
		 FROM purchase_order_lines l
		 JOIN purchase_orders po ON po.id = l.purchase_order_id
		 WHERE l.item_id = ? AND po.status IN (?, ?)`,
		id, model.POStatusPending, model.POStatusOrdered,
	).Scan(&open)
	if err != nil {
		return fmt.Errorf("checking open purchase orders: %w", err)
	}
	if open > 0 {
		return fmt.Errorf("%w: item is referenced by %d open purchase order line(s)", ErrConflict, open)
	}

	result, err := db.ExecContext(ctx,
		`UPDATE items SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: item %d", ErrNotFound, id)
	}
	return nil
}

// SetItemImage sets an item's image data.
func SetItemImage(ctx context.Context, db *sql.DB, id int64, image []byte, mime string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE items SET image = ?, image_mime = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		image, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting item image: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: item %d", ErrNotFound, id)
	}
	return nil
}

// GetItemImage returns an item's image data and MIME type.
func GetItemImage(ctx context.Context, db *sql.DB, id int64) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT image, image_mime FROM items WHERE id = ?`, id,
	).Scan(&image, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting item image: %w", err)
	}
	return image, mime.String, nil
}

func scanItems(rows *sql.Rows) ([]model.Item, error) {
	var items []model.Item
	for rows.Next() {
		var item model.Item
		var description, category, imageMime sql.NullString
		if err := rows.Scan(&item.ID, &item.Name, &description, &category, &item.Quantity, &item.ReorderLevel,
			&item.Price, &item.SupplierID, &imageMime, &item.CreatedAt, &item.UpdatedAt, &item.DeletedAt,
			&item.SupplierName); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		item.Description = description.String
		item.Category = category.String
		item.ImageMime = imageMime.String
		items = append(items, item)
	}
	return items, rows.Err()
}
