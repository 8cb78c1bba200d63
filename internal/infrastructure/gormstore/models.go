package gormstore

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/SivanLevi100/storefront/internal/domain/cart"
	"github.com/SivanLevi100/storefront/internal/domain/catalog"
	"github.com/SivanLevi100/storefront/internal/domain/order"
)

type productRow struct {
	ID            int64           `gorm:"primaryKey;autoIncrement"`
	Name          string          `gorm:"size:255;not null;index"`
	Description   string          `gorm:"type:text"`
	Price         decimal.Decimal `gorm:"type:decimal(12,2);not null;check:chk_products_price,price > 0"`
	StockQuantity int             `gorm:"not null;default:0;check:chk_products_stock,stock_quantity >= 0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (productRow) TableName() string { return "products" }

type cartLineRow struct {
	UserID    int64       `gorm:"primaryKey;autoIncrement:false"`
	ProductID int64       `gorm:"primaryKey;autoIncrement:false"`
	Quantity  int         `gorm:"not null;check:chk_cart_lines_quantity,quantity > 0"`
	UpdatedAt time.Time   `gorm:"not null"`
	Product   *productRow `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

func (cartLineRow) TableName() string { return "cart_lines" }

type orderRow struct {
	ID          int64           `gorm:"primaryKey;autoIncrement"`
	OrderNumber string          `gorm:"size:64;not null;uniqueIndex"`
	UserID      int64           `gorm:"not null;index"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalItems  int             `gorm:"not null"`
	Status      string          `gorm:"size:16;not null;index"`
	OrderDate   time.Time       `gorm:"not null;index"`
	UpdatedAt   time.Time
}

func (orderRow) TableName() string { return "orders" }

type orderItemRow struct {
	ID        int64           `gorm:"primaryKey;autoIncrement"`
	OrderID   int64           `gorm:"not null;index"`
	ProductID int64           `gorm:"not null;index"`
	Quantity  int             `gorm:"not null;check:chk_order_items_quantity,quantity > 0"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Order     *orderRow       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Product   *productRow     `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT"`
}

func (orderItemRow) TableName() string { return "order_items" }

func (r productRow) toDomain() *catalog.Product {
	return &catalog.Product{
		ID:            r.ID,
		Name:          r.Name,
		Description:   r.Description,
		Price:         r.Price,
		StockQuantity: r.StockQuantity,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func (r cartLineRow) toDomain() cart.Line {
	return cart.Line{UserID: r.UserID, ProductID: r.ProductID, Quantity: r.Quantity, UpdatedAt: r.UpdatedAt}
}

func orderRowFrom(o *order.Order) orderRow {
	return orderRow{
		ID:          o.ID,
		OrderNumber: o.Number,
		UserID:      o.UserID,
		TotalAmount: o.TotalAmount,
		TotalItems:  o.TotalItems,
		Status:      string(o.Status),
		OrderDate:   o.OrderDate,
		UpdatedAt:   o.UpdatedAt,
	}
}

func (r orderRow) toDomain() order.Order {
	return order.Order{
		ID:          r.ID,
		Number:      r.OrderNumber,
		UserID:      r.UserID,
		TotalAmount: r.TotalAmount,
		TotalItems:  r.TotalItems,
		Status:      order.Status(r.Status),
		OrderDate:   r.OrderDate,
		UpdatedAt:   r.UpdatedAt,
	}
}

func (r orderItemRow) toDomain() order.Item {
	return order.Item{
		ID:        r.ID,
		OrderID:   r.OrderID,
		ProductID: r.ProductID,
		Quantity:  r.Quantity,
		UnitPrice: r.UnitPrice,
	}
}
