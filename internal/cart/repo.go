package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bazaarly/checkout-backend/pkg/db/models"
	pkgerrors "github.com/bazaarly/checkout-backend/pkg/errors"
)

// Reader provides read-only access to a shopper's cart. Checkout never
// writes cart rows; the cart service owns mutation.
type Reader interface {
	Snapshot(ctx context.Context, userID uuid.UUID) (*Snapshot, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a cart reader bound to the provided DB.
func NewRepository(db *gorm.DB) Reader {
	return &repository{db: db}
}

func (r *repository) Snapshot(ctx context.Context, userID uuid.UUID) (*Snapshot, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	var rows []models.CartItem
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart items")
	}

	snapshot := &Snapshot{UserID: userID, Items: make([]Item, 0, len(rows))}
	for _, row := range rows {
		if row.Quantity <= 0 || row.UnitPricePaise < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart contains an invalid line")
		}
		snapshot.Items = append(snapshot.Items, Item{
			ProductID:      row.ProductID,
			ProductName:    row.ProductName,
			ShopID:         row.ShopID,
			ShopName:       row.ShopName,
			UnitPricePaise: row.UnitPricePaise,
			Quantity:       row.Quantity,
			LineTotalPaise: row.LineTotalPaise,
		})
	}
	return snapshot, nil
}
