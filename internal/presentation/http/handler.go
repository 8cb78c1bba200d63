package httppresentation

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	appcart "github.com/SivanLevi100/storefront/internal/application/cart"
	appcatalog "github.com/SivanLevi100/storefront/internal/application/catalog"
	apporder "github.com/SivanLevi100/storefront/internal/application/order"
	"github.com/SivanLevi100/storefront/internal/observability"
)

const (
	componentHTTPHandler = "http_server"
	headerRequestID      = "X-Request-ID"
	requestTimeout       = 30 * time.Second
)

type Deps struct {
	Catalog      *appcatalog.Service
	Carts        *appcart.Service
	Orders       *apporder.Service
	CreateOrder  *apporder.CreateOrderFromCartUseCase
	DeleteOrder  *apporder.DeleteOrderUseCase
	Recompute    *apporder.RecomputeOrderTotalsUseCase
	UpdateStatus *apporder.UpdateOrderStatusUseCase
	Tokens       TokenVerifier
	// Metrics, when set, is mounted at /metrics.
	Metrics http.Handler
}

type Handler struct {
	Deps
	log observability.Logger
	tel observability.Observability
}

func NewHandler(deps Deps, logger observability.Logger, tel observability.Observability) *Handler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = observability.NopLogger()
	}
	return &Handler{
		Deps: deps,
		log:  baseLogger.With(observability.F("component", componentHTTPHandler)),
		tel:  tel,
	}
}

// Router wires every route. Middleware order: recover → request logger/metrics/access log → timeout → auth.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(ObservabilityMiddleware(h.log, h.tel))
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/health", h.handleHealth)
	if h.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.Metrics)
	}

	r.Get("/products", h.handleListProducts)
	r.Get("/products/{id}", h.handleGetProduct)

	r.Group(func(r chi.Router) {
		r.Use(Authenticate(h.Tokens))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.handleGetCart)
			r.Delete("/", h.handleClearCart)
			r.Post("/items", h.handleAddCartItem)
			r.Put("/items/{productID}", h.handleUpdateCartItem)
			r.Delete("/items/{productID}", h.handleRemoveCartItem)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", h.handleCheckout)
			r.Get("/", h.handleListOrders)
			r.Get("/{id}", h.handleGetOrder)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(RequireAdmin)

			r.Post("/products", h.handleCreateProduct)
			r.Put("/products/{id}", h.handleUpdateProduct)
			r.Delete("/products/{id}", h.handleDeleteProduct)
			r.Post("/products/{id}/restock", h.handleRestockProduct)

			r.Get("/orders/export", h.handleExportOrders)
			r.Patch("/orders/{id}/status", h.handleUpdateOrderStatus)
			r.Post("/orders/{id}/recompute", h.handleRecomputeOrder)
			r.Delete("/orders/{id}", h.handleDeleteOrder)
		})
	})

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
