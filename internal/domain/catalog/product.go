package catalog

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("catalog: product not found")
	ErrInvalidQuantity   = errors.New("catalog: quantity must be greater than zero")
	ErrInvalidPrice      = errors.New("catalog: price must be greater than zero with at most two decimals")
	ErrInvalidName       = errors.New("catalog: name is required")
	ErrInsufficientStock = errors.New("catalog: insufficient stock")
	ErrInUse             = errors.New("catalog: product is referenced by orders")
)

// PriceScale is the number of decimal places a stored price keeps.
const PriceScale = 2

// NormalizePrice rounds price to PriceScale, the precision of the price column.
func NormalizePrice(price decimal.Decimal) decimal.Decimal {
	return price.Round(PriceScale)
}

type Product struct {
	ID            int64
	Name          string
	Description   string
	Price         decimal.Decimal
	StockQuantity int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PriceAndStock is the subset of a product read by checkout.
type PriceAndStock struct {
	ProductID     int64
	Price         decimal.Decimal
	StockQuantity int
}

func NewProduct(name, description string, price decimal.Decimal, stock int) (*Product, error) {
	p := &Product{
		Name:          strings.TrimSpace(name),
		Description:   description,
		Price:         price,
		StockQuantity: stock,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	return p, nil
}

func (p *Product) Validate() error {
	if p.Name == "" {
		return ErrInvalidName
	}
	if !p.Price.IsPositive() || !p.Price.Equal(NormalizePrice(p.Price)) {
		return ErrInvalidPrice
	}
	if p.StockQuantity < 0 {
		return ErrInvalidQuantity
	}
	return nil
}

// Deduct removes quantity from stock, refusing to go below zero.
func (p *Product) Deduct(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if quantity > p.StockQuantity {
		return ErrInsufficientStock
	}
	p.StockQuantity -= quantity
	p.touch()
	return nil
}

func (p *Product) Restock(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	p.StockQuantity += quantity
	p.touch()
	return nil
}

func (p *Product) touch() {
	p.UpdatedAt = time.Now().UTC()
}
