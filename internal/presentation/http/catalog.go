package httppresentation

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	appcatalog "github.com/SivanLevi100/storefront/internal/application/catalog"
	domcatalog "github.com/SivanLevi100/storefront/internal/domain/catalog"
)

type productResponse struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Price         string    `json:"price"`
	StockQuantity int       `json:"stock_quantity"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toProductResponse(p *domcatalog.Product) productResponse {
	return productResponse{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price.StringFixed(2),
		StockQuantity: p.StockQuantity,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	products, err := h.Catalog.List(r.Context(), domcatalog.Filter{
		Query:  r.URL.Query().Get("q"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out := make([]productResponse, 0, len(products))
	for i := range products {
		out = append(out, toProductResponse(&products[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	p, err := h.Catalog.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(p))
}

type productRequest struct {
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
}

func (h *Handler) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	p, err := h.Catalog.Create(r.Context(), appcatalog.CreateProductInput{
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductResponse(p))
}

func (h *Handler) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	var req productRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	p, err := h.Catalog.Update(r.Context(), appcatalog.UpdateProductInput{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(p))
}

type restockRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) handleRestockProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	var req restockRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	p, err := h.Catalog.Restock(r.Context(), id, req.Quantity)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(p))
}

func (h *Handler) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := h.Catalog.Delete(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
