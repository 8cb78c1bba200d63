package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	domain "github.com/SivanLevi100/storefront/internal/domain/cart"
	domcatalog "github.com/SivanLevi100/storefront/internal/domain/catalog"
	"github.com/SivanLevi100/storefront/internal/observability"
	"github.com/SivanLevi100/storefront/internal/observability/logctx"
)

var (
	ErrLineNotFound    = domain.ErrLineNotFound
	ErrInvalidQuantity = domain.ErrInvalidQuantity
	ErrProductNotFound = domcatalog.ErrNotFound
	ErrStorage         = errors.New("cart: storage failure")
)

// PricedLine is a cart line valued at the current catalog price.
type PricedLine struct {
	ProductID     int64
	Name          string
	Quantity      int
	UnitPrice     decimal.Decimal
	Subtotal      decimal.Decimal
	StockQuantity int
}

type View struct {
	UserID      int64
	Lines       []PricedLine
	TotalItems  int
	TotalAmount decimal.Decimal
}

type Service struct {
	carts   domain.Store
	catalog domcatalog.Store
	log     observability.Logger
}

func NewService(carts domain.Store, catalog domcatalog.Store, tel observability.Observability) *Service {
	log := observability.NopLogger()
	if tel != nil {
		log = tel.Logger()
	}
	return &Service{
		carts:   carts,
		catalog: catalog,
		log:     log.With(observability.F("service", "cart-service")),
	}
}

// Get prices the cart at current catalog prices. The checkout snapshot may differ if
// prices move in between.
func (s *Service) Get(ctx context.Context, userID int64) (*View, error) {
	lines, err := s.carts.Lines(ctx, userID)
	if err != nil {
		return nil, s.storageError(ctx, err)
	}
	v := &View{UserID: userID, Lines: make([]PricedLine, 0, len(lines)), TotalAmount: decimal.Zero}
	for _, l := range lines {
		p, err := s.catalog.Get(ctx, l.ProductID)
		if errors.Is(err, domcatalog.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, s.storageError(ctx, err)
		}
		sub := p.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
		v.Lines = append(v.Lines, PricedLine{
			ProductID:     l.ProductID,
			Name:          p.Name,
			Quantity:      l.Quantity,
			UnitPrice:     p.Price,
			Subtotal:      sub,
			StockQuantity: p.StockQuantity,
		})
		v.TotalItems += l.Quantity
		v.TotalAmount = v.TotalAmount.Add(sub)
	}
	return v, nil
}

func (s *Service) Add(ctx context.Context, userID, productID int64, quantity int) (domain.Line, error) {
	if quantity <= 0 {
		return domain.Line{}, ErrInvalidQuantity
	}
	l, err := s.carts.Add(ctx, userID, productID, quantity)
	if err != nil {
		return domain.Line{}, s.mapError(ctx, err)
	}
	return l, nil
}

func (s *Service) Update(ctx context.Context, userID, productID int64, quantity int) (domain.Line, error) {
	if quantity <= 0 {
		return domain.Line{}, ErrInvalidQuantity
	}
	l, err := s.carts.SetQuantity(ctx, userID, productID, quantity)
	if err != nil {
		return domain.Line{}, s.mapError(ctx, err)
	}
	return l, nil
}

func (s *Service) Remove(ctx context.Context, userID, productID int64) error {
	if err := s.carts.Remove(ctx, userID, productID); err != nil {
		return s.mapError(ctx, err)
	}
	return nil
}

func (s *Service) Clear(ctx context.Context, userID int64) error {
	if err := s.carts.Clear(ctx, userID); err != nil {
		return s.storageError(ctx, err)
	}
	return nil
}

func (s *Service) mapError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrLineNotFound),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domcatalog.ErrNotFound):
		return err
	default:
		return s.storageError(ctx, err)
	}
}

func (s *Service) storageError(ctx context.Context, err error) error {
	logctx.FromOr(ctx, s.log).Error("cart_store_failed", observability.Err(err))
	return fmt.Errorf("%w: %w", ErrStorage, err)
}
