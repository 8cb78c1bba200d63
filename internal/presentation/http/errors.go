package httppresentation

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	appcart "github.com/SivanLevi100/storefront/internal/application/cart"
	appcatalog "github.com/SivanLevi100/storefront/internal/application/catalog"
	apporder "github.com/SivanLevi100/storefront/internal/application/order"
	domcart "github.com/SivanLevi100/storefront/internal/domain/cart"
	domcatalog "github.com/SivanLevi100/storefront/internal/domain/catalog"
	"github.com/SivanLevi100/storefront/internal/domain/identity"
	domorder "github.com/SivanLevi100/storefront/internal/domain/order"
	"github.com/SivanLevi100/storefront/internal/observability"
	"github.com/SivanLevi100/storefront/internal/observability/logctx"
)

var errBadRequest = errors.New("bad request")

type errorResponse struct {
	Error     string `json:"error"`
	ProductID int64  `json:"product_id,omitempty"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	v, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%w: invalid %s", errBadRequest, name)
	}
	return v, nil
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: invalid %s", errBadRequest, name)
	}
	return v, nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeDomainError maps application and domain errors onto HTTP statuses. Storage
// failures never leak their cause to the client.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var stockErr *domorder.InsufficientStockError
	switch {
	case errors.Is(err, apporder.ErrStorage),
		errors.Is(err, appcatalog.ErrStorage),
		errors.Is(err, appcart.ErrStorage):
		writeError(w, http.StatusInternalServerError, "internal error")
	case errors.As(err, &stockErr):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "insufficient stock", ProductID: stockErr.ProductID})
	case errors.Is(err, identity.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "unauthenticated")
	case errors.Is(err, identity.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, errBadRequest),
		errors.Is(err, apporder.ErrValidation),
		errors.Is(err, domorder.ErrInvalidStatus),
		errors.Is(err, domcatalog.ErrInvalidPrice),
		errors.Is(err, domcatalog.ErrInvalidQuantity),
		errors.Is(err, domcatalog.ErrInvalidName),
		errors.Is(err, domcart.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domorder.ErrNotFound),
		errors.Is(err, domcatalog.ErrNotFound),
		errors.Is(err, domcart.ErrLineNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domorder.ErrEmptyCart),
		errors.Is(err, domorder.ErrInvalidStateTransition),
		errors.Is(err, domcatalog.ErrInUse):
		writeError(w, http.StatusConflict, err.Error())
	default:
		logctx.FromOr(r.Context(), observability.NopLogger()).Error("http_unmapped_error", observability.Err(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
