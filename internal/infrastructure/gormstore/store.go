package gormstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/SivanLevi100/storefront/internal/application"
	"github.com/SivanLevi100/storefront/internal/domain/cart"
	"github.com/SivanLevi100/storefront/internal/domain/catalog"
	"github.com/SivanLevi100/storefront/internal/domain/order"
)

// Store is the relational implementation of every persistence port plus the unit of work.
type Store struct {
	db        *gorm.DB
	txTimeout time.Duration
}

func New(db *gorm.DB, txTimeout time.Duration) *Store {
	return &Store{db: db, txTimeout: txTimeout}
}

var _ application.UnitOfWork = (*Store)(nil)

// WithinTx runs fn in one database transaction bounded by the configured timeout.
// Stores handed to fn take row locks on reads that feed writes.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx application.Stores) error) error {
	if s.txTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.txTimeout)
		defer cancel()
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, stores{db: tx, locking: true})
	})
	if err != nil && ctx.Err() != nil && !errors.Is(err, ctx.Err()) {
		return errors.Join(ctx.Err(), err)
	}
	return err
}

func (s *Store) Orders() order.Store    { return orderStore{s.db} }
func (s *Store) Carts() cart.Store      { return cartStore{s.db} }
func (s *Store) Catalog() catalog.Store { return catalogStore{db: s.db} }

type stores struct {
	db      *gorm.DB
	locking bool
}

func (s stores) Orders() order.Store    { return orderStore{s.db} }
func (s stores) Carts() cart.Store      { return cartStore{s.db} }
func (s stores) Catalog() catalog.Store { return catalogStore{db: s.db, locking: s.locking} }

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate")
}

func isForeignKeyViolation(err error) bool {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "foreign key")
}
