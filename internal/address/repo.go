package address

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bazaarly/checkout-backend/pkg/db/models"
	pkgerrors "github.com/bazaarly/checkout-backend/pkg/errors"
)

// Provider resolves address-book entries for checkout. Selection only
// requires that the entry exists and belongs to the shopper.
type Provider interface {
	Get(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error)
	List(ctx context.Context, userID uuid.UUID) ([]models.Address, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an address provider bound to the provided DB.
func NewRepository(db *gorm.DB) Provider {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error) {
	if userID == uuid.Nil || addressID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id and address id required")
	}

	var addr models.Address
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", addressID, userID).
		First(&addr).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
	}
	return &addr, nil
}

func (r *repository) List(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	var rows []models.Address
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list addresses")
	}
	return rows, nil
}
