package httppresentation

import (
	"net/http"

	appcart "github.com/SivanLevi100/storefront/internal/application/cart"
	domcart "github.com/SivanLevi100/storefront/internal/domain/cart"
)

type cartLineResponse struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Subtotal  string `json:"subtotal"`
	InStock   int    `json:"in_stock"`
}

type cartResponse struct {
	UserID      int64              `json:"user_id"`
	Lines       []cartLineResponse `json:"lines"`
	TotalItems  int                `json:"total_items"`
	TotalAmount string             `json:"total_amount"`
}

func toCartResponse(v *appcart.View) cartResponse {
	out := cartResponse{
		UserID:      v.UserID,
		Lines:       make([]cartLineResponse, 0, len(v.Lines)),
		TotalItems:  v.TotalItems,
		TotalAmount: v.TotalAmount.StringFixed(2),
	}
	for _, l := range v.Lines {
		out.Lines = append(out.Lines, cartLineResponse{
			ProductID: l.ProductID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice.StringFixed(2),
			Subtotal:  l.Subtotal.StringFixed(2),
			InStock:   l.StockQuantity,
		})
	}
	return out
}

type lineResponse struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

func toLineResponse(l domcart.Line) lineResponse {
	return lineResponse{ProductID: l.ProductID, Quantity: l.Quantity}
}

func (h *Handler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	v, err := h.Carts.Get(r.Context(), principal(r).UserID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(v))
}

type addCartItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

func (h *Handler) handleAddCartItem(w http.ResponseWriter, r *http.Request) {
	var req addCartItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	l, err := h.Carts.Add(r.Context(), principal(r).UserID, req.ProductID, req.Quantity)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toLineResponse(l))
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) handleUpdateCartItem(w http.ResponseWriter, r *http.Request) {
	productID, err := pathID(r, "productID")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	var req updateCartItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	l, err := h.Carts.Update(r.Context(), principal(r).UserID, productID, req.Quantity)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toLineResponse(l))
}

func (h *Handler) handleRemoveCartItem(w http.ResponseWriter, r *http.Request) {
	productID, err := pathID(r, "productID")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := h.Carts.Remove(r.Context(), principal(r).UserID, productID); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.Carts.Clear(r.Context(), principal(r).UserID); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
