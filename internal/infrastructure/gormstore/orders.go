package gormstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SivanLevi100/storefront/internal/domain/catalog"
	"github.com/SivanLevi100/storefront/internal/domain/order"
)

type orderStore struct{ db *gorm.DB }

func (s orderStore) Insert(ctx context.Context, o *order.Order) error {
	row := orderRowFrom(o)
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&row).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("%w: %s", order.ErrDuplicateNumber, o.Number)
		}
		return err
	}
	o.ID = row.ID
	return nil
}

func (s orderStore) InsertItem(ctx context.Context, item *order.Item) error {
	row := orderItemRow{
		OrderID:   item.OrderID,
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
		UnitPrice: item.UnitPrice,
	}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&row).Error; err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: order %d product %d", catalog.ErrNotFound, item.OrderID, item.ProductID)
		}
		return err
	}
	item.ID = row.ID
	return nil
}

func (s orderStore) Get(ctx context.Context, id int64) (*order.Order, error) {
	var row orderRow
	if err := s.db.WithContext(ctx).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, order.ErrNotFound
		}
		return nil, err
	}
	o := row.toDomain()
	items, err := s.Items(ctx, id)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return &o, nil
}

func (s orderStore) Items(ctx context.Context, orderID int64) ([]order.Item, error) {
	var rows []orderItemRow
	if err := s.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]order.Item, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s orderStore) List(ctx context.Context, f order.Filter) ([]order.Order, error) {
	q := s.db.WithContext(ctx).Order("order_date DESC").Order("id DESC")
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", string(f.Status))
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	var rows []orderRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]order.Order, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s orderStore) UpdateStatus(ctx context.Context, id int64, from, to order.Status) error {
	res := s.db.WithContext(ctx).Model(&orderRow{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(map[string]any{"status": string(to), "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var row orderRow
		if err := s.db.WithContext(ctx).Select("id", "status").First(&row, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return order.ErrNotFound
			}
			return err
		}
		return fmt.Errorf("%w: stored status is %s", order.ErrInvalidStateTransition, row.Status)
	}
	return nil
}

func (s orderStore) UpdateTotals(ctx context.Context, id int64, t order.Totals) error {
	res := s.db.WithContext(ctx).Model(&orderRow{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"total_amount": t.Amount,
			"total_items":  t.Items,
			"updated_at":   time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return order.ErrNotFound
	}
	return nil
}

func (s orderStore) DeleteItems(ctx context.Context, orderID int64) error {
	return s.db.WithContext(ctx).Where("order_id = ?", orderID).Delete(&orderItemRow{}).Error
}

// Delete removes the order together with any remaining items.
func (s orderStore) Delete(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&orderItemRow{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&orderRow{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return order.ErrNotFound
		}
		return nil
	})
}
