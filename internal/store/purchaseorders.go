package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/invtrack/invtrack/internal/model"
	"github.com/invtrack/invtrack/internal/stock"
)

// DefaultLeadTimeDays is the expected ordering-to-delivery interval used when
// no lead time is given.
const DefaultLeadTimeDays = 7

// generatePONumber creates a human-readable order number from the current
// time plus a random suffix. Truncating a millisecond clock alone can collide
// under rapid repeated calls; the suffix makes that negligible, and a unique
// index on po_number catches the rest.
func generatePONumber(now time.Time) (string, error) {
	buf := make([]byte, 2)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating po number: %w", err)
	}
	return fmt.Sprintf("PO-%s-%s", now.Format("060102150405"), hex.EncodeToString(buf)), nil
}

func isPONumberConflict(err error) bool {
	return err != nil && strings.Contains(err.Error(), "purchase_orders.po_number")
}

// insertPurchaseOrder inserts the order row inside tx, retrying the number on
// the unlikely collision.
func insertPurchaseOrder(ctx context.Context, tx *sql.Tx, po *model.PurchaseOrder) error {
	for attempt := 0; attempt < 3; attempt++ {
		if po.PONumber == "" || attempt > 0 {
			number, err := generatePONumber(po.OrderDate)
			if err != nil {
				return err
			}
			po.PONumber = number
		}

		result, err := tx.ExecContext(ctx,
			`INSERT INTO purchase_orders (po_number, supplier_id, status, order_date, expected_delivery_date, notes, total_amount, created_by)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			po.PONumber, po.SupplierID, po.Status, po.OrderDate, po.ExpectedDeliveryDate, po.Notes, po.TotalAmount, po.CreatedBy,
		)
		if isPONumberConflict(err) {
			continue
		}
		if err != nil {
			return fmt.Errorf("creating purchase order: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("getting purchase order id: %w", err)
		}
		po.ID = id
		return nil
	}
	return fmt.Errorf("creating purchase order: po number collisions exhausted retries")
}

// insertLines inserts the order's lines inside tx and fills in their IDs.
func insertLines(ctx context.Context, tx *sql.Tx, po *model.PurchaseOrder) error {
	for i := range po.Lines {
		line := &po.Lines[i]
		line.PurchaseOrderID = po.ID
		result, err := tx.ExecContext(ctx,
			`INSERT INTO purchase_order_lines (purchase_order_id, item_id, item_name, quantity, unit_price)
			 VALUES (?, ?, ?, ?, ?)`,
			po.ID, line.ItemID, line.ItemName, line.Quantity, line.UnitPrice,
		)
		if err != nil {
			return fmt.Errorf("creating purchase order line: %w", err)
		}
		line.ID, _ = result.LastInsertId()
	}
	return nil
}

// resolveLines validates lines and snapshots item names and default unit
// prices from the referenced items.
func resolveLines(ctx context.Context, tx *sql.Tx, lines []model.PurchaseOrderLine) error {
	if len(lines) == 0 {
		return fmt.Errorf("%w: purchase order needs at least one line", ErrInvalidInput)
	}
	for i := range lines {
		line := &lines[i]
		if line.Quantity <= 0 {
			return fmt.Errorf("%w: line quantity must be positive", ErrInvalidInput)
		}
		if line.UnitPrice < 0 {
			return fmt.Errorf("%w: unit price cannot be negative", ErrInvalidInput)
		}

		var name string
		var price float64
		err := tx.QueryRowContext(ctx,
			`SELECT name, price FROM items WHERE id = ? AND deleted_at IS NULL`, line.ItemID,
		).Scan(&name, &price)
		if err == sql.ErrNoRows {
			return fmt.Errorf("%w: item %d", ErrNotFound, line.ItemID)
		}
		if err != nil {
			return fmt.Errorf("resolving line item: %w", err)
		}

		// Snapshot the item name; default the price to the item's current one.
		line.ItemName = name
		if line.UnitPrice == 0 {
			line.UnitPrice = price
		}
	}
	return nil
}

// CreatePurchaseOrder creates a manually-entered purchase order in pending
// status. Line item names are snapshotted and the total is recomputed.
func CreatePurchaseOrder(ctx context.Context, db *sql.DB, po model.PurchaseOrder) (*model.PurchaseOrder, error) {
	supplier, err := GetSupplier(ctx, db, po.SupplierID)
	if err != nil {
		return nil, err
	}
	if supplier == nil || supplier.DeletedAt != nil {
		return nil, fmt.Errorf("%w: supplier %d", ErrNotFound, po.SupplierID)
	}

	now := time.Now()
	po.Status = model.POStatusPending
	if po.OrderDate.IsZero() {
		po.OrderDate = now
	}
	if po.ExpectedDeliveryDate == nil {
		expected := po.OrderDate.AddDate(0, 0, DefaultLeadTimeDays)
		po.ExpectedDeliveryDate = &expected
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := resolveLines(ctx, tx, po.Lines); err != nil {
		return nil, err
	}
	po.ComputeTotal()

	if err := insertPurchaseOrder(ctx, tx, &po); err != nil {
		return nil, err
	}
	if err := insertLines(ctx, tx, &po); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing purchase order: %w", err)
	}

	return GetPurchaseOrder(ctx, db, po.ID)
}

// GetPurchaseOrder returns a purchase order with its lines and supplier name.
func GetPurchaseOrder(ctx context.Context, db *sql.DB, id int64) (*model.PurchaseOrder, error) {
	po := &model.PurchaseOrder{}
	var notes sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT po.id, po.po_number, po.supplier_id, po.status, po.order_date, po.expected_delivery_date,
		        po.notes, po.total_amount, po.created_by, po.created_at, s.name AS supplier_name
		 FROM purchase_orders po
		 JOIN suppliers s ON s.id = po.supplier_id
		 WHERE po.id = ?`, id,
	).Scan(&po.ID, &po.PONumber, &po.SupplierID, &po.Status, &po.OrderDate, &po.ExpectedDeliveryDate,
		&notes, &po.TotalAmount, &po.CreatedBy, &po.CreatedAt, &po.SupplierName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting purchase order: %w", err)
	}
	po.Notes = notes.String

	po.Lines, err = getPurchaseOrderLines(ctx, db, id)
	if err != nil {
		return nil, err
	}
	return po, nil
}

func getPurchaseOrderLines(ctx context.Context, db *sql.DB, poID int64) ([]model.PurchaseOrderLine, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, purchase_order_id, item_id, item_name, quantity, unit_price
		 FROM purchase_order_lines WHERE purchase_order_id = ? ORDER BY id`, poID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting purchase order lines: %w", err)
	}
	defer rows.Close()

	var lines []model.PurchaseOrderLine
	for rows.Next() {
		var line model.PurchaseOrderLine
		if err := rows.Scan(&line.ID, &line.PurchaseOrderID, &line.ItemID, &line.ItemName, &line.Quantity, &line.UnitPrice); err != nil {
			return nil, fmt.Errorf("scanning purchase order line: %w", err)
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// ListPurchaseOrders returns purchase orders with lines, newest first,
// optionally filtered by status.
func ListPurchaseOrders(ctx context.Context, db *sql.DB, status string) ([]model.PurchaseOrder, error) {
	query := `SELECT po.id, po.po_number, po.supplier_id, po.status, po.order_date, po.expected_delivery_date,
	                 po.notes, po.total_amount, po.created_by, po.created_at, s.name AS supplier_name
	          FROM purchase_orders po
	          JOIN suppliers s ON s.id = po.supplier_id`
	var args []any

	if status != "" {
		query += ` WHERE po.status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY po.order_date DESC, po.id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing purchase orders: %w", err)
	}
	defer rows.Close()

	var orders []model.PurchaseOrder
	for rows.Next() {
		var po model.PurchaseOrder
		var notes sql.NullString
		if err := rows.Scan(&po.ID, &po.PONumber, &po.SupplierID, &po.Status, &po.OrderDate, &po.ExpectedDeliveryDate,
			&notes, &po.TotalAmount, &po.CreatedBy, &po.CreatedAt, &po.SupplierName); err != nil {
			return nil, fmt.Errorf("scanning purchase order: %w", err)
		}
		po.Notes = notes.String
		orders = append(orders, po)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		orders[i].Lines, err = getPurchaseOrderLines(ctx, db, orders[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// UpdatePurchaseOrder replaces a pending order's delivery date, notes, and
// lines, recomputing the total. Non-pending orders cannot be edited.
func UpdatePurchaseOrder(ctx context.Context, db *sql.DB, id int64, expectedDelivery *time.Time, notes string, lines []model.PurchaseOrderLine) (*model.PurchaseOrder, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM purchase_orders WHERE id = ?`, id,
	).Scan(&status)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: purchase order %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("checking purchase order status: %w", err)
	}
	if status != model.POStatusPending {
		return nil, fmt.Errorf("%w: only pending purchase orders can be edited (status is %s)", ErrInvalidState, status)
	}

	if err := resolveLines(ctx, tx, lines); err != nil {
		return nil, err
	}

	po := model.PurchaseOrder{ID: id, Lines: lines}
	po.ComputeTotal()

	_, err = tx.ExecContext(ctx,
		`UPDATE purchase_orders SET expected_delivery_date = ?, notes = ?, total_amount = ? WHERE id = ?`,
		expectedDelivery, notes, po.TotalAmount, id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating purchase order: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM purchase_order_lines WHERE purchase_order_id = ?`, id,
	); err != nil {
		return nil, fmt.Errorf("clearing purchase order lines: %w", err)
	}
	if err := insertLines(ctx, tx, &po); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing purchase order update: %w", err)
	}

	return GetPurchaseOrder(ctx, db, id)
}

// DeletePurchaseOrder deletes a pending purchase order and its lines.
func DeletePurchaseOrder(ctx context.Context, db *sql.DB, id int64) error {
	var status string
	err := db.QueryRowContext(ctx,
		`SELECT status FROM purchase_orders WHERE id = ?`, id,
	).Scan(&status)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: purchase order %d", ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("checking purchase order status: %w", err)
	}
	if status != model.POStatusPending {
		return fmt.Errorf("%w: only pending purchase orders can be deleted (status is %s)", ErrInvalidState, status)
	}

	// Lines cascade via the foreign key.
	_, err = db.ExecContext(ctx, `DELETE FROM purchase_orders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting purchase order: %w", err)
	}
	return nil
}

// TransitionPurchaseOrder moves an order to a new status. Moving from ordered
// to received increments every line's item quantity in the same transaction,
// so stock updates are all-or-nothing.
func TransitionPurchaseOrder(ctx context.Context, db *sql.DB, id int64, newStatus string) (*model.PurchaseOrder, error) {
	if !model.ValidPOStatus(newStatus) {
		return nil, fmt.Errorf("%w: invalid status %q", ErrInvalidInput, newStatus)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM purchase_orders WHERE id = ?`, id,
	).Scan(&current)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: purchase order %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("checking purchase order status: %w", err)
	}

	if !model.CanTransition(current, newStatus) {
		return nil, fmt.Errorf("%w: cannot move purchase order from %s to %s", ErrInvalidTransition, current, newStatus)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE purchase_orders SET status = ? WHERE id = ?`, newStatus, id,
	); err != nil {
		return nil, fmt.Errorf("updating purchase order status: %w", err)
	}

	// Receiving reconciles inventory: every line's quantity lands on its item.
	if newStatus == model.POStatusReceived {
		rows, err := tx.QueryContext(ctx,
			`SELECT item_id, quantity FROM purchase_order_lines WHERE purchase_order_id = ?`, id,
		)
		if err != nil {
			return nil, fmt.Errorf("loading purchase order lines: %w", err)
		}

		type receipt struct {
			itemID   int64
			quantity int
		}
		var receipts []receipt
		for rows.Next() {
			var rec receipt
			if err := rows.Scan(&rec.itemID, &rec.quantity); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scanning purchase order line: %w", err)
			}
			receipts = append(receipts, rec)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}

		for _, rec := range receipts {
			result, err := tx.ExecContext(ctx,
				`UPDATE items SET quantity = quantity + ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
				rec.quantity, rec.itemID,
			)
			if err != nil {
				return nil, fmt.Errorf("applying received stock for item %d: %w", rec.itemID, err)
			}
			if n, _ := result.RowsAffected(); n == 0 {
				return nil, fmt.Errorf("applying received stock: item %d no longer exists", rec.itemID)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing status transition: %w", err)
	}

	return GetPurchaseOrder(ctx, db, id)
}

// GenerateResult reports what purchase order generation did: orders created,
// plus items that could not be covered and why.
type GenerateResult struct {
	Orders            []model.PurchaseOrder `json:"orders"`
	SkippedNoSupplier []string              `json:"skipped_no_supplier,omitempty"`
	SkippedCovered    []string              `json:"skipped_already_covered,omitempty"`
}

// GeneratePurchaseOrders scans for low-stock items and synthesizes one
// pending purchase order per supplier. Items with no supplier are reported,
// not silently dropped. Items already on an open (pending or ordered) order
// are skipped so repeated calls do not duplicate coverage. The whole scan and
// insert runs in one transaction, serializing concurrent generation.
func GeneratePurchaseOrders(ctx context.Context, db *sql.DB, leadTimeDays int, createdBy *int64) (*GenerateResult, error) {
	if leadTimeDays <= 0 {
		leadTimeDays = DefaultLeadTimeDays
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT `+itemColumns+`
		 FROM items i
		 LEFT JOIN suppliers s ON s.id = i.supplier_id
		 WHERE i.deleted_at IS NULL
		 ORDER BY i.name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	items, err := scanItems(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	covered := map[int64]bool{}
	coveredRows, err := tx.QueryContext(ctx,
		`SELECT DISTINCT l.item_id
		 FROM purchase_order_lines l
		 JOIN purchase_orders po ON po.id = l.purchase_order_id
		 WHERE po.status IN (?, ?)`,
		model.POStatusPending, model.POStatusOrdered,
	)
	if err != nil {
		return nil, fmt.Errorf("finding covered items: %w", err)
	}
	for coveredRows.Next() {
		var itemID int64
		if err := coveredRows.Scan(&itemID); err != nil {
			coveredRows.Close()
			return nil, fmt.Errorf("scanning covered item: %w", err)
		}
		covered[itemID] = true
	}
	coveredRows.Close()
	if err := coveredRows.Err(); err != nil {
		return nil, err
	}

	result := &GenerateResult{}
	groups := map[int64][]model.Item{}
	for _, item := range stock.FilterLow(items) {
		switch {
		case covered[item.ID]:
			result.SkippedCovered = append(result.SkippedCovered, item.Name)
		case item.SupplierID == nil:
			result.SkippedNoSupplier = append(result.SkippedNoSupplier, item.Name)
		default:
			groups[*item.SupplierID] = append(groups[*item.SupplierID], item)
		}
	}

	supplierIDs := make([]int64, 0, len(groups))
	for supplierID := range groups {
		supplierIDs = append(supplierIDs, supplierID)
	}
	sort.Slice(supplierIDs, func(i, j int) bool { return supplierIDs[i] < supplierIDs[j] })

	now := time.Now()
	expected := now.AddDate(0, 0, leadTimeDays)

	for _, supplierID := range supplierIDs {
		group := groups[supplierID]
		po := model.PurchaseOrder{
			SupplierID:           supplierID,
			SupplierName:         group[0].SupplierName,
			Status:               model.POStatusPending,
			OrderDate:            now,
			ExpectedDeliveryDate: &expected,
			Notes:                "Auto-generated from low stock",
			CreatedBy:            createdBy,
		}
		for _, item := range group {
			po.Lines = append(po.Lines, model.PurchaseOrderLine{
				ItemID:    item.ID,
				ItemName:  item.Name,
				Quantity:  stock.ReplenishQuantity(item),
				UnitPrice: item.Price,
			})
		}
		po.ComputeTotal()

		if err := insertPurchaseOrder(ctx, tx, &po); err != nil {
			return nil, err
		}
		if err := insertLines(ctx, tx, &po); err != nil {
			return nil, err
		}
		result.Orders = append(result.Orders, po)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing generated purchase orders: %w", err)
	}
	return result, nil
}
