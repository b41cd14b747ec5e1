package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/invtrack/invtrack/internal/model"
	"github.com/invtrack/invtrack/internal/store"
)

// PurchaseOrdersHandler handles purchase order endpoints.
type PurchaseOrdersHandler struct {
	DB *sql.DB
}

type poLineRequest struct {
	ItemID    int64   `json:"item_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

type createPORequest struct {
	SupplierID           int64           `json:"supplier_id"`
	OrderDate            string          `json:"order_date"`
	ExpectedDeliveryDate string          `json:"expected_delivery_date"`
	Notes                string          `json:"notes"`
	Items                []poLineRequest `json:"items"`
}

type updatePORequest struct {
	ExpectedDeliveryDate string          `json:"expected_delivery_date"`
	Notes                string          `json:"notes"`
	Items                []poLineRequest `json:"items"`
}

type transitionPORequest struct {
	Status string `json:"status"`
}

type generatePORequest struct {
	LeadTimeDays int `json:"lead_time_days"`
}

const dateLayout = "2006-01-02"

func parseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func toLines(reqs []poLineRequest) []model.PurchaseOrderLine {
	lines := make([]model.PurchaseOrderLine, 0, len(reqs))
	for _, req := range reqs {
		lines = append(lines, model.PurchaseOrderLine{
			ItemID:    req.ItemID,
			Quantity:  req.Quantity,
			UnitPrice: req.UnitPrice,
		})
	}
	return lines
}

// List handles GET /api/purchase-orders.
func (h *PurchaseOrdersHandler) List(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" && !model.ValidPOStatus(status) {
		jsonError(w, http.StatusBadRequest, "invalid status filter")
		return
	}

	orders, err := store.ListPurchaseOrders(r.Context(), h.DB, status)
	if err != nil {
		storeError(w, err)
		return
	}
	if orders == nil {
		orders = []model.PurchaseOrder{}
	}
	jsonResponse(w, http.StatusOK, orders)
}

// Create handles POST /api/purchase-orders.
func (h *PurchaseOrdersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPORequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	orderDate, err := parseDate(req.OrderDate)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid order_date (expected YYYY-MM-DD)")
		return
	}
	expectedDelivery, err := parseDate(req.ExpectedDeliveryDate)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid expected_delivery_date (expected YYYY-MM-DD)")
		return
	}

	po := model.PurchaseOrder{
		SupplierID:           req.SupplierID,
		ExpectedDeliveryDate: expectedDelivery,
		Notes:                req.Notes,
		Lines:                toLines(req.Items),
	}
	if orderDate != nil {
		po.OrderDate = *orderDate
	}
	if claims := GetClaims(r.Context()); claims != nil {
		po.CreatedBy = &claims.UserID
	}

	created, err := store.CreatePurchaseOrder(r.Context(), h.DB, po)
	if err != nil {
		storeError(w, err)
		return
	}

	slog.Info("purchase order created", "po_number", created.PONumber, "supplier_id", created.SupplierID)
	jsonResponse(w, http.StatusCreated, created)
}

// Get handles GET /api/purchase-orders/{id}.
func (h *PurchaseOrdersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid purchase order id")
		return
	}

	po, err := store.GetPurchaseOrder(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err)
		return
	}
	if po == nil {
		jsonError(w, http.StatusNotFound, "purchase order not found")
		return
	}

	jsonResponse(w, http.StatusOK, po)
}

// Update handles PUT /api/purchase-orders/{id}.
func (h *PurchaseOrdersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid purchase order id")
		return
	}

	var req updatePORequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	expectedDelivery, err := parseDate(req.ExpectedDeliveryDate)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid expected_delivery_date (expected YYYY-MM-DD)")
		return
	}

	po, err := store.UpdatePurchaseOrder(r.Context(), h.DB, id, expectedDelivery, req.Notes, toLines(req.Items))
	if err != nil {
		storeError(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, po)
}

// Delete handles DELETE /api/purchase-orders/{id}.
func (h *PurchaseOrdersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid purchase order id")
		return
	}

	if err := store.DeletePurchaseOrder(r.Context(), h.DB, id); err != nil {
		storeError(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "purchase order deleted"})
}

// Transition handles PUT /api/purchase-orders/{id}/status. Marking an
// order received applies its line quantities to inventory.
func (h *PurchaseOrdersHandler) Transition(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid purchase order id")
		return
	}

	var req transitionPORequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	po, err := store.TransitionPurchaseOrder(r.Context(), h.DB, id, req.Status)
	if err != nil {
		storeError(w, err)
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("purchase order status changed", "user", claims.Username, "po_number", po.PONumber, "status", po.Status)
	jsonResponse(w, http.StatusOK, po)
}

// Generate handles POST /api/purchase-orders/generate. Creates pending
// orders for all low stock items grouped by supplier.
func (h *PurchaseOrdersHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req generatePORequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			jsonError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	if req.LeadTimeDays < 0 {
		jsonError(w, http.StatusBadRequest, "lead_time_days must not be negative")
		return
	}
	if req.LeadTimeDays == 0 {
		req.LeadTimeDays = store.DefaultLeadTimeDays
	}

	var createdBy *int64
	claims := GetClaims(r.Context())
	if claims != nil {
		createdBy = &claims.UserID
	}

	result, err := store.GeneratePurchaseOrders(r.Context(), h.DB, req.LeadTimeDays, createdBy)
	if err != nil {
		storeError(w, err)
		return
	}

	slog.Info("purchase orders generated",
		"user", claims.Username,
		"orders", len(result.Orders),
		"skipped_no_supplier", result.SkippedNoSupplier,
		"skipped_covered", result.SkippedCovered)
	jsonResponse(w, http.StatusCreated, result)
}
