package gormstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SivanLevi100/storefront/internal/domain/catalog"
)

type catalogStore struct {
	db      *gorm.DB
	locking bool
}

func (s catalogStore) Get(ctx context.Context, id int64) (*catalog.Product, error) {
	var row productRow
	if err := s.db.WithContext(ctx).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalog.ErrNotFound
		}
		return nil, err
	}
	return row.toDomain(), nil
}

func (s catalogStore) List(ctx context.Context, f catalog.Filter) ([]catalog.Product, error) {
	q := s.db.WithContext(ctx).Order("id ASC")
	if term := strings.ToLower(strings.TrimSpace(f.Query)); term != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+term+"%")
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	var rows []productRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]catalog.Product, 0, len(rows))
	for _, r := range rows {
		out = append(out, *r.toDomain())
	}
	return out, nil
}

func (s catalogStore) PriceAndStock(ctx context.Context, id int64) (catalog.PriceAndStock, error) {
	q := s.db.WithContext(ctx)
	if s.locking {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var row productRow
	if err := q.Select("id", "price", "stock_quantity").First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return catalog.PriceAndStock{}, catalog.ErrNotFound
		}
		return catalog.PriceAndStock{}, err
	}
	return catalog.PriceAndStock{ProductID: row.ID, Price: row.Price, StockQuantity: row.StockQuantity}, nil
}

// DecrementStock is a conditional update so stock can never go negative even without
// a prior lock.
func (s catalogStore) DecrementStock(ctx context.Context, id int64, amount int) error {
	if amount <= 0 {
		return catalog.ErrInvalidQuantity
	}
	res := s.db.WithContext(ctx).Model(&productRow{}).
		Where("id = ? AND stock_quantity >= ?", id, amount).
		Updates(map[string]any{
			"stock_quantity": gorm.Expr("stock_quantity - ?", amount),
			"updated_at":     time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if err := s.exists(ctx, id); err != nil {
			return err
		}
		return catalog.ErrInsufficientStock
	}
	return nil
}

func (s catalogStore) IncrementStock(ctx context.Context, id int64, amount int) error {
	if amount <= 0 {
		return catalog.ErrInvalidQuantity
	}
	res := s.db.WithContext(ctx).Model(&productRow{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"stock_quantity": gorm.Expr("stock_quantity + ?", amount),
			"updated_at":     time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

func (s catalogStore) Create(ctx context.Context, p *catalog.Product) error {
	row := productRow{
		Name:          p.Name,
		Description:   p.Description,
		Price:         catalog.NormalizePrice(p.Price),
		StockQuantity: p.StockQuantity,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}
	*p = *row.toDomain()
	return nil
}

func (s catalogStore) Update(ctx context.Context, p *catalog.Product) error {
	res := s.db.WithContext(ctx).Model(&productRow{}).
		Where("id = ?", p.ID).
		Updates(map[string]any{
			"name":        p.Name,
			"description": p.Description,
			"price":       catalog.NormalizePrice(p.Price),
			"updated_at":  time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return catalog.ErrNotFound
	}
	fresh, err := s.Get(ctx, p.ID)
	if err != nil {
		return err
	}
	*p = *fresh
	return nil
}

// Delete removes the product and any cart lines holding it. Products referenced by an
// order item are kept.
func (s catalogStore) Delete(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var refs int64
		if err := tx.Model(&orderItemRow{}).Where("product_id = ?", id).Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 {
			return catalog.ErrInUse
		}
		if err := tx.Where("product_id = ?", id).Delete(&cartLineRow{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&productRow{}, id)
		if res.Error != nil {
			if isForeignKeyViolation(res.Error) {
				return catalog.ErrInUse
			}
			return res.Error
		}
		if res.RowsAffected == 0 {
			return catalog.ErrNotFound
		}
		return nil
	})
}

func (s catalogStore) exists(ctx context.Context, id int64) error {
	var n int64
	if err := s.db.WithContext(ctx).Model(&productRow{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return catalog.ErrNotFound
	}
	return nil
}
