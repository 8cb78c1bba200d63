package httppresentation

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	apporder "github.com/SivanLevi100/storefront/internal/application/order"
	"github.com/SivanLevi100/storefront/internal/domain/identity"
	domorder "github.com/SivanLevi100/storefront/internal/domain/order"
	"github.com/SivanLevi100/storefront/internal/infrastructure/export"
	"github.com/SivanLevi100/storefront/internal/observability"
	"github.com/SivanLevi100/storefront/internal/observability/logctx"
)

type orderItemResponse struct {
	ProductID int64  `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Subtotal  string `json:"subtotal"`
}

type orderResponse struct {
	ID          int64               `json:"id"`
	Number      string              `json:"order_number"`
	UserID      int64               `json:"user_id"`
	Status      domorder.Status     `json:"status"`
	TotalItems  int                 `json:"total_items"`
	TotalAmount string              `json:"total_amount"`
	OrderDate   time.Time           `json:"order_date"`
	UpdatedAt   time.Time           `json:"updated_at"`
	Items       []orderItemResponse `json:"items,omitempty"`
}

func toOrderResponse(o *domorder.Order) orderResponse {
	out := orderResponse{
		ID:          o.ID,
		Number:      o.Number,
		UserID:      o.UserID,
		Status:      o.Status,
		TotalItems:  o.TotalItems,
		TotalAmount: o.TotalAmount.StringFixed(2),
		OrderDate:   o.OrderDate,
		UpdatedAt:   o.UpdatedAt,
	}
	for _, it := range o.Items {
		out.Items = append(out.Items, orderItemResponse{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice.StringFixed(2),
			Subtotal:  it.Subtotal().StringFixed(2),
		})
	}
	return out
}

type checkoutResponse struct {
	OrderID     int64  `json:"order_id"`
	OrderNumber string `json:"order_number"`
	TotalItems  int    `json:"total_items"`
	TotalAmount string `json:"total_amount"`
}

func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	placed, err := h.CreateOrder.Execute(r.Context(), apporder.CreateOrderFromCartInput{UserID: principal(r).UserID})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, checkoutResponse{
		OrderID:     placed.OrderID,
		OrderNumber: placed.OrderNumber,
		TotalItems:  placed.TotalItems,
		TotalAmount: placed.TotalAmount.StringFixed(2),
	})
}

// orderFilter reads list parameters. Non-admins are always pinned to their own orders.
func orderFilter(r *http.Request) (domorder.Filter, error) {
	var f domorder.Filter
	var err error
	if f.Limit, err = queryInt(r, "limit"); err != nil {
		return f, err
	}
	if f.Offset, err = queryInt(r, "offset"); err != nil {
		return f, err
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		if f.Status, err = domorder.ParseStatus(raw); err != nil {
			return f, err
		}
	}

	p := principal(r)
	switch {
	case !p.IsAdmin():
		uid := p.UserID
		f.UserID = &uid
	case r.URL.Query().Get("user_id") != "":
		uid, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
		if err != nil {
			return f, errBadRequest
		}
		f.UserID = &uid
	}
	return f, nil
}

func (h *Handler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	f, err := orderFilter(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	orders, err := h.Orders.List(r.Context(), f)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out := make([]orderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, toOrderResponse(&orders[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	o, err := h.Orders.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := identity.Authorize(principal(r), o.UserID); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	var req updateStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	status, err := domorder.ParseStatus(req.Status)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	o, err := h.UpdateStatus.Execute(r.Context(), apporder.UpdateOrderStatusInput{OrderID: id, Status: status})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

type recomputeResponse struct {
	OrderID     int64  `json:"order_id"`
	TotalItems  int    `json:"total_items"`
	TotalAmount string `json:"total_amount"`
	Changed     bool   `json:"changed"`
}

func (h *Handler) handleRecomputeOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	res, err := h.Recompute.Execute(r.Context(), apporder.RecomputeOrderTotalsInput{OrderID: id})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recomputeResponse{
		OrderID:     res.OrderID,
		TotalItems:  res.TotalItems,
		TotalAmount: res.TotalAmount.StringFixed(2),
		Changed:     res.Changed,
	})
}

type deleteOrderResponse struct {
	OrderID       int64  `json:"order_id"`
	OrderNumber   string `json:"order_number"`
	RestoredUnits int    `json:"restored_units"`
}

func (h *Handler) handleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	res, err := h.DeleteOrder.Execute(r.Context(), apporder.DeleteOrderInput{OrderID: id})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, deleteOrderResponse{
		OrderID:       res.OrderID,
		OrderNumber:   res.OrderNumber,
		RestoredUnits: res.RestoredUnits,
	})
}

func (h *Handler) handleExportOrders(w http.ResponseWriter, r *http.Request) {
	f, err := orderFilter(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	orders, err := h.Orders.List(r.Context(), f)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteOrders(&buf, orders); err != nil {
		logctx.FromOr(r.Context(), h.log).Error("orders_export_failed", observability.Err(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename=orders.xlsx")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
