package api

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/invtrack/invtrack/internal/imaging"
	"github.com/invtrack/invtrack/internal/model"
	"github.com/invtrack/invtrack/internal/stock"
	"github.com/invtrack/invtrack/internal/store"
)

// ItemsHandler handles item CRUD and low stock endpoints.
type ItemsHandler struct {
	DB *sql.DB
}

type itemRequest struct {
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Category     string  `json:"category"`
	Quantity     int     `json:"quantity"`
	ReorderLevel *int    `json:"reorder_level"`
	Price        float64 `json:"price"`
	SupplierID   *int64  `json:"supplier_id"`
}

func (req itemRequest) toModel() model.Item {
	item := model.Item{
		Name:         req.Name,
		Description:  req.Description,
		Category:     req.Category,
		Quantity:     req.Quantity,
		ReorderLevel: model.DefaultReorderLevel,
		Price:        req.Price,
		SupplierID:   req.SupplierID,
	}
	if req.ReorderLevel != nil {
		item.ReorderLevel = *req.ReorderLevel
	}
	return item
}

// itemView decorates an item with its stock classification.
type itemView struct {
	model.Item
	StockStatus stock.Status `json:"stock_status"`
}

func viewItems(items []model.Item) []itemView {
	views := make([]itemView, 0, len(items))
	for _, item := range items {
		views = append(views, itemView{Item: item, StockStatus: stock.Classify(item)})
	}
	return views
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	items, err := store.ListItems(r.Context(), h.DB, category)
	if err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, viewItems(items))
}

// ListLowStock handles GET /api/items/low-stock.
func (h *ItemsHandler) ListLowStock(w http.ResponseWriter, r *http.Request) {
	items, err := store.ListLowStockItems(r.Context(), h.DB)
	if err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, viewItems(items))
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := store.CreateItem(r.Context(), h.DB, req.toModel())
	if err != nil {
		storeError(w, err)
		return
	}

	jsonResponse(w, http.StatusCreated, itemView{Item: *item, StockStatus: stock.Classify(*item)})
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err)
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	jsonResponse(w, http.StatusOK, itemView{Item: *item, StockStatus: stock.Classify(*item)})
}

// Update handles PUT /api/items/{id}.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := store.UpdateItem(r.Context(), h.DB, id, req.toModel()); err != nil {
		storeError(w, err)
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err)
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	jsonResponse(w, http.StatusOK, itemView{Item: *item, StockStatus: stock.Classify(*item)})
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	if err := store.DeleteItem(r.Context(), h.DB, id); err != nil {
		storeError(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "item deleted"})
}

// UploadImage handles PUT /api/items/{id}/image.
func (h *ItemsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes)

	if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	// Format is sniffed from bytes, the re-encode normalizes to JPEG.
	result, err := imaging.Process(file)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := store.SetItemImage(r.Context(), h.DB, id, result.Data, result.MIME); err != nil {
		storeError(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "image uploaded"})
}

// GetImage handles GET /api/items/{id}/image.
func (h *ItemsHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	data, mime, err := store.GetItemImage(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err)
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}
