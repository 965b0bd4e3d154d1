package coupons

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bazaarly/checkout-backend/pkg/db/models"
	pkgerrors "github.com/bazaarly/checkout-backend/pkg/errors"
)

// Resolver looks up a coupon code for a shop and rejects inactive or
// expired codes. The totals calculator is responsible for clamping the
// discount to the shop's subtotal.
type Resolver interface {
	Resolve(ctx context.Context, shopID uuid.UUID, code string) (*models.Coupon, error)
}

type repository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewRepository builds a coupon resolver bound to the provided DB.
func NewRepository(db *gorm.DB) Resolver {
	return &repository{db: db, now: time.Now}
}

func (r *repository) Resolve(ctx context.Context, shopID uuid.UUID, code string) (*models.Coupon, error) {
	code = strings.TrimSpace(strings.ToUpper(code))
	if shopID == uuid.Nil || code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shop id and coupon code required")
	}

	var coupon models.Coupon
	err := r.db.WithContext(ctx).
		Where("shop_id = ? AND code = ?", shopID, code).
		First(&coupon).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}

	if !coupon.Active {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon is no longer active")
	}
	if coupon.ExpiresAt != nil && coupon.ExpiresAt.Before(r.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon has expired")
	}
	if coupon.DiscountPaise < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon discount is invalid")
	}
	return &coupon, nil
}
