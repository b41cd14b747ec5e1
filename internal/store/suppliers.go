package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/invtrack/invtrack/internal/model"
)

// CreateSupplier creates a new supplier.
func CreateSupplier(ctx context.Context, db *sql.DB, supplier model.Supplier) (*model.Supplier, error) {
	if supplier.Name == "" {
		return nil, fmt.Errorf("%w: name required", ErrInvalidInput)
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO suppliers (name, email, phone, address, notes) VALUES (?, ?, ?, ?, ?)`,
		supplier.Name, supplier.Email, supplier.Phone, supplier.Address, supplier.Notes,
	)
	if err != nil {
		return nil, fmt.Errorf("creating supplier: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting supplier id: %w", err)
	}

	return GetSupplier(ctx, db, id)
}

// GetSupplier returns a supplier by ID.
func GetSupplier(ctx context.Context, db *sql.DB, id int64) (*model.Supplier, error) {
	s := &model.Supplier{}
	var email, phone, address, notes sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, name, email, phone, address, notes, created_at, deleted_at
		 FROM suppliers WHERE id = ?`, id,
	).Scan(&s.ID, &s.Name, &email, &phone, &address, &notes, &s.CreatedAt, &s.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting supplier: %w", err)
	}
	s.Email = email.String
	s.Phone = phone.String
	s.Address = address.String
	s.Notes = notes.String
	return s, nil
}

// ListSuppliers returns all non-deleted suppliers.
func ListSuppliers(ctx context.Context, db *sql.DB) ([]model.Supplier, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, email, phone, address, notes, created_at, deleted_at
		 FROM suppliers WHERE deleted_at IS NULL ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing suppliers: %w", err)
	}
	defer rows.Close()

	var suppliers []model.Supplier
	for rows.Next() {
		var s model.Supplier
		var email, phone, address, notes sql.NullString
		if err := rows.Scan(&s.ID, &s.Name, &email, &phone, &address, &notes, &s.CreatedAt, &s.DeletedAt); err != nil {
			return nil, fmt.Errorf("scanning supplier: %w", err)
		}
		s.Email = email.String
		s.Phone = phone.String
		s.Address = address.String
		s.Notes = notes.String
		suppliers = append(suppliers, s)
	}
	return suppliers, rows.Err()
}

// UpdateSupplier updates a supplier's details.
func UpdateSupplier(ctx context.Context, db *sql.DB, id int64, supplier model.Supplier) error {
	if supplier.Name == "" {
		return fmt.Errorf("%w: name required", ErrInvalidInput)
	}

	result, err := db.ExecContext(ctx,
		`UPDATE suppliers SET name = ?, email = ?, phone = ?, address = ?, notes = ?
		 WHERE id = ? AND deleted_at IS NULL`,
		supplier.Name, supplier.Email, supplier.Phone, supplier.Address, supplier.Notes, id,
	)
	if err != nil {
		return fmt.Errorf("updating supplier: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: supplier %d", ErrNotFound, id)
	}
	return nil
}

// DeleteSupplier soft-deletes a supplier. Fails if any non-deleted item still
// references it; the returned count tells the caller how many.
func DeleteSupplier(ctx context.Context, db *sql.DB, id int64) (int, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM items WHERE supplier_id = ? AND deleted_at IS NULL`, id,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("checking supplier items: %w", err)
	}
	if count > 0 {
		return count, fmt.Errorf("%w: supplier has %d associated item(s)", ErrConflict, count)
	}

	result, err := db.ExecContext(ctx,
		`UPDATE suppliers SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return 0, fmt.Errorf("deleting supplier: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return 0, fmt.Errorf("%w: supplier %d", ErrNotFound, id)
	}
	return 0, nil
}

// GetSupplierItems returns all non-deleted items for a supplier.
func GetSupplierItems(ctx context.Context, db *sql.DB, supplierID int64) ([]model.Item, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+itemColumns+`
		 FROM items i
		 LEFT JOIN suppliers s ON s.id = i.supplier_id
		 WHERE i.supplier_id = ? AND i.deleted_at IS NULL
		 ORDER BY i.name`, supplierID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting supplier items: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}
