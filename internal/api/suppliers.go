package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/invtrack/invtrack/internal/model"
	"github.com/invtrack/invtrack/internal/store"
)

// SuppliersHandler handles supplier CRUD endpoints.
type SuppliersHandler struct {
	DB *sql.DB
}

type supplierRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Notes   string `json:"notes"`
}

func (req supplierRequest) toModel() model.Supplier {
	return model.Supplier{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
		Notes:   req.Notes,
	}
}

// List handles GET /api/suppliers.
func (h *SuppliersHandler) List(w http.ResponseWriter, r *http.Request) {
	suppliers, err := store.ListSuppliers(r.Context(), h.DB)
	if err != nil {
		storeError(w, err)
		return
	}
	if suppliers == nil {
		suppliers = []model.Supplier{}
	}
	jsonResponse(w, http.StatusOK, suppliers)
}

// Create handles POST /api/suppliers.
func (h *SuppliersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req supplierRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	supplier, err := store.CreateSupplier(r.Context(), h.DB, req.toModel())
	if err != nil {
		storeError(w, err)
		return
	}

	jsonResponse(w, http.StatusCreated, supplier)
}

// Get handles GET /api/suppliers/{id}.
func (h *SuppliersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid supplier id")
		return
	}

	supplier, err := store.GetSupplier(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err)
		return
	}
	if supplier == nil {
		jsonError(w, http.StatusNotFound, "supplier not found")
		return
	}

	jsonResponse(w, http.StatusOK, supplier)
}

// Update handles PUT /api/suppliers/{id}.
func (h *SuppliersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid supplier id")
		return
	}

	var req supplierRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := store.UpdateSupplier(r.Context(), h.DB, id, req.toModel()); err != nil {
		storeError(w, err)
		return
	}

	supplier, err := store.GetSupplier(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err)
		return
	}
	if supplier == nil {
		jsonError(w, http.StatusNotFound, "supplier not found")
		return
	}
	jsonResponse(w, http.StatusOK, supplier)
}

// Delete handles DELETE /api/suppliers/{id}. Refused while items still
// reference the supplier, reporting how many do.
func (h *SuppliersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid supplier id")
		return
	}

	count, err := store.DeleteSupplier(r.Context(), h.DB, id)
	if errors.Is(err, store.ErrConflict) {
		jsonResponse(w, http.StatusBadRequest, map[string]any{
			"error":       "supplier has items assigned",
			"items_count": count,
		})
		return
	}
	if err != nil {
		storeError(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "supplier deleted"})
}

// GetItems handles GET /api/suppliers/{id}/items.
func (h *SuppliersHandler) GetItems(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid supplier id")
		return
	}

	supplier, err := store.GetSupplier(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err)
		return
	}
	if supplier == nil {
		jsonError(w, http.StatusNotFound, "supplier not found")
		return
	}

	items, err := store.GetSupplierItems(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, viewItems(items))
}
