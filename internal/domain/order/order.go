package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound               = errors.New("order: not found")
	ErrEmptyCart              = errors.New("order: cart is empty")
	ErrInsufficientStock      = errors.New("order: insufficient stock")
	ErrInvalidStateTransition = errors.New("order: invalid state transition")
	ErrInvalidStatus          = errors.New("order: unknown status")
	ErrDuplicateNumber        = errors.New("order: duplicate order number")
	ErrInvalidQuantity        = errors.New("order: quantity must be greater than zero")
	ErrInvalidPrice           = errors.New("order: unit price must not be negative")
)

// InsufficientStockError names the first product whose stock could not cover its cart line.
type InsufficientStockError struct {
	ProductID int64
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("order: insufficient stock for product %d (requested %d, available %d)",
		e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// ParseStatus normalises s into a known Status.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusPending, StatusConfirmed, StatusDelivered, StatusCancelled:
		return st, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}

type Order struct {
	ID          int64
	Number      string
	UserID      int64
	TotalAmount decimal.Decimal
	TotalItems  int
	Status      Status
	OrderDate   time.Time
	UpdatedAt   time.Time
	Items       []Item
}

// Item is one order line. UnitPrice is the catalog price captured when the order was placed.
type Item struct {
	ID        int64
	OrderID   int64
	ProductID int64
	Quantity  int
	UnitPrice decimal.Decimal
}

func (i Item) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Totals struct {
	Items  int
	Amount decimal.Decimal
}

// ComputeTotals sums quantities and quantity*unit price over items.
func ComputeTotals(items []Item) Totals {
	t := Totals{Amount: decimal.Zero}
	for _, it := range items {
		t.Items += it.Quantity
		t.Amount = t.Amount.Add(it.Subtotal())
	}
	return t
}

// New builds a pending order from snapshot-priced items and computes its totals.
func New(number string, userID int64, items []Item, now time.Time) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		if it.UnitPrice.IsNegative() {
			return nil, ErrInvalidPrice
		}
	}

	now = now.UTC()
	totals := ComputeTotals(items)
	return &Order{
		Number:      number,
		UserID:      userID,
		TotalAmount: totals.Amount,
		TotalItems:  totals.Items,
		Status:      StatusPending,
		OrderDate:   now,
		UpdatedAt:   now,
		Items:       append([]Item(nil), items...),
	}, nil
}

func (o *Order) Confirm() error { return o.transition((OrderState).Confirm) }
func (o *Order) Deliver() error { return o.transition((OrderState).Deliver) }
func (o *Order) Cancel() error  { return o.transition((OrderState).Cancel) }

// TransitionTo moves the order to target following the lifecycle rules.
func (o *Order) TransitionTo(target Status) error {
	switch target {
	case StatusConfirmed:
		return o.Confirm()
	case StatusDelivered:
		return o.Deliver()
	case StatusCancelled:
		return o.Cancel()
	case StatusPending:
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStateTransition, o.Status, target)
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStatus, target)
	}
}

func (o *Order) transition(step func(OrderState, *Order) (OrderState, error)) error {
	current, err := stateFor(o.Status)
	if err != nil {
		return err
	}
	next, err := step(current, o)
	if err != nil {
		return err
	}
	o.Status = next.Status()
	o.touch()
	return nil
}

// Clone returns a deep copy of the order.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Items = append([]Item(nil), o.Items...)
	return &clone
}

func (o *Order) touch() {
	o.UpdatedAt = time.Now().UTC()
}
