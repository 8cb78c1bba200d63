package gormstore

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SivanLevi100/storefront/internal/domain/cart"
	"github.com/SivanLevi100/storefront/internal/domain/catalog"
)

type cartStore struct{ db *gorm.DB }

func (s cartStore) Lines(ctx context.Context, userID int64) ([]cart.Line, error) {
	var rows []cartLineRow
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("product_id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]cart.Line, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s cartStore) Add(ctx context.Context, userID, productID int64, quantity int) (cart.Line, error) {
	if quantity <= 0 {
		return cart.Line{}, cart.ErrInvalidQuantity
	}
	db := s.db.WithContext(ctx)

	var n int64
	if err := db.Model(&productRow{}).Where("id = ?", productID).Count(&n).Error; err != nil {
		return cart.Line{}, err
	}
	if n == 0 {
		return cart.Line{}, catalog.ErrNotFound
	}

	now := time.Now().UTC()
	row := cartLineRow{UserID: userID, ProductID: productID, Quantity: quantity, UpdatedAt: now}
	err := db.Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"quantity":   gorm.Expr("cart_lines.quantity + ?", quantity),
			"updated_at": now,
		}),
	}).Create(&row).Error
	if err != nil {
		if isForeignKeyViolation(err) {
			return cart.Line{}, catalog.ErrNotFound
		}
		return cart.Line{}, err
	}
	return s.line(ctx, userID, productID)
}

func (s cartStore) SetQuantity(ctx context.Context, userID, productID int64, quantity int) (cart.Line, error) {
	if quantity <= 0 {
		return cart.Line{}, cart.ErrInvalidQuantity
	}
	res := s.db.WithContext(ctx).Model(&cartLineRow{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Updates(map[string]any{"quantity": quantity, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return cart.Line{}, res.Error
	}
	if res.RowsAffected == 0 {
		return cart.Line{}, cart.ErrLineNotFound
	}
	return s.line(ctx, userID, productID)
}

func (s cartStore) Remove(ctx context.Context, userID, productID int64) error {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&cartLineRow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return cart.ErrLineNotFound
	}
	return nil
}

func (s cartStore) Clear(ctx context.Context, userID int64) error {
	return s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&cartLineRow{}).Error
}

func (s cartStore) line(ctx context.Context, userID, productID int64) (cart.Line, error) {
	var row cartLineRow
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return cart.Line{}, cart.ErrLineNotFound
	}
	if err != nil {
		return cart.Line{}, err
	}
	return row.toDomain(), nil
}
