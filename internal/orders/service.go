package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/bazaarly/checkout-backend/pkg/db/models"
	"github.com/bazaarly/checkout-backend/pkg/enums"
	pkgerrors "github.com/bazaarly/checkout-backend/pkg/errors"
	"github.com/bazaarly/checkout-backend/pkg/logger"
	"github.com/bazaarly/checkout-backend/pkg/outbox"
	"github.com/bazaarly/checkout-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type gatewayOrderCreator interface {
	Available() bool
	CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string) (string, error)
}

// Service persists placements and moves orders through the payment
// lifecycle.
type Service interface {
	Place(ctx context.Context, input PlaceInput) (*PlaceResult, error)
	MarkPaid(ctx context.Context, input MarkPaidInput) error
	MarkPaymentFailed(ctx context.Context, userID uuid.UUID, gatewayOrderID, reason string) error
	ExpirePendingBefore(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	outbox  outboxPublisher
	gateway gatewayOrderCreator
	logg    *logger.Logger
}

// NewService builds the orders service. gateway may be nil when the
// payment gateway is not configured; gateway placements then fail with
// a gateway-unavailable error.
func NewService(repo Repository, tx txRunner, publisher outboxPublisher, gateway gatewayOrderCreator, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		outbox:  publisher,
		gateway: gateway,
		logg:    logg,
	}, nil
}

// Place writes one order per shop inside a single transaction. Every
// row shares a placement group id; the checkout-level shipping fee and
// tax land on the first order. For gateway placements a gateway order
// is created up front so its id rides along on every row.
func (s *service) Place(ctx context.Context, input PlaceInput) (*PlaceResult, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if input.ShippingAddressID == uuid.Nil || input.BillingAddressID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping and billing address ids required")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method must be gateway or cod")
	}
	if len(input.Shops) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "placement requires at least one shop order")
	}
	if input.TotalPaise <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payable amount must be positive")
	}

	groupID := uuid.New()
	currency := input.Currency
	if currency == "" {
		currency = enums.CurrencyINR
	}

	var gatewayOrderID *string
	if input.PaymentMethod == enums.PaymentMethodGateway {
		if s.gateway == nil || !s.gateway.Available() {
			return nil, pkgerrors.New(pkgerrors.CodeGatewayUnavailable, "payment gateway is not configured, use cash on delivery")
		}
		id, err := s.gateway.CreateOrder(ctx, input.TotalPaise, currency.String(), groupID.String())
		if err != nil {
			return nil, err
		}
		gatewayOrderID = &id
	}

	status := enums.OrderStatusConfirmed
	if input.PaymentMethod == enums.PaymentMethodGateway {
		status = enums.OrderStatusPendingPayment
	}

	result := &PlaceResult{
		PlacementGroupID: groupID,
		AmountPaise:      input.TotalPaise,
		GatewayOrderID:   gatewayOrderID,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		createdAt := time.Now().UTC()

		for i, shop := range input.Shops {
			total := shop.SubtotalPaise - shop.DiscountPaise
			if total < 0 {
				return pkgerrors.New(pkgerrors.CodeValidation, "shop discount exceeds subtotal")
			}

			order := models.Order{
				ID:                uuid.New(),
				PlacementGroupID:  groupID,
				UserID:            input.UserID,
				ShopID:            shop.ShopID,
				ShopName:          shop.ShopName,
				ShippingAddressID: input.ShippingAddressID,
				BillingAddressID:  input.BillingAddressID,
				PaymentMethod:     input.PaymentMethod,
				Status:            status,
				Currency:          currency,
				CouponCode:        shop.CouponCode,
				SubtotalPaise:     shop.SubtotalPaise,
				DiscountPaise:     shop.DiscountPaise,
				TotalPaise:        total,
				Notes:             input.Notes,
				GatewayOrderID:    gatewayOrderID,
				// staggered so created_at ordering matches shop order
				CreatedAt: createdAt.Add(time.Duration(i) * time.Microsecond),
			}
			if i == 0 {
				order.ShippingPaise = input.ShippingPaise
				order.TaxPaise = input.TaxPaise
				order.TotalPaise += input.ShippingPaise + input.TaxPaise
			}

			if err := repo.CreateOrder(ctx, &order); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
			}

			items := make([]models.OrderItem, 0, len(shop.Items))
			for _, line := range shop.Items {
				items = append(items, models.OrderItem{
					ID:             uuid.New(),
					OrderID:        order.ID,
					ProductID:      line.ProductID,
					ProductName:    line.ProductName,
					UnitPricePaise: line.UnitPricePaise,
					Quantity:       line.Quantity,
					LineTotalPaise: line.LineTotalPaise,
				})
			}
			if err := repo.CreateOrderItems(ctx, items); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
			}
			result.OrderIDs = append(result.OrderIDs, order.ID)
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderPlaced,
			AggregateType: enums.AggregatePlacementGroup,
			AggregateID:   groupID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.UserID},
			Data: payloads.OrderPlacedEvent{
				PlacementGroupID: groupID,
				OrderIDs:         result.OrderIDs,
				PaymentMethod:    input.PaymentMethod.String(),
				AmountPaise:      input.TotalPaise,
			},
		}
		return s.outbox.Emit(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"placement_group_id": groupID.String(),
		"order_count":        len(result.OrderIDs),
		"payment_method":     input.PaymentMethod.String(),
		"amount_paise":       input.TotalPaise,
	})
	s.logg.Info(logCtx, "placement persisted")
	return result, nil
}

// MarkPaid settles a verified gateway payment: every order in the
// input must belong to the shopper, carry the verified gateway order
// id, and still be pending payment.
func (s *service) MarkPaid(ctx context.Context, input MarkPaidInput) error {
	if input.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if len(input.OrderIDs) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order ids required")
	}
	if input.GatewayOrderID == "" || input.GatewayPaymentID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "gateway order and payment ids required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		rows, err := repo.FindByIDsForUser(ctx, input.UserID, input.OrderIDs)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load orders")
		}
		if len(rows) != len(input.OrderIDs) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		var groupID uuid.UUID
		for _, row := range rows {
			if row.GatewayOrderID == nil || *row.GatewayOrderID != input.GatewayOrderID {
				return pkgerrors.New(pkgerrors.CodeConflict, "order does not match gateway order")
			}
			if row.Status == enums.OrderStatusPaid {
				continue
			}
			if row.Status != enums.OrderStatusPendingPayment {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not awaiting payment")
			}
			groupID = row.PlacementGroupID
		}
		if groupID == uuid.Nil {
			// every row already paid, nothing to do
			return nil
		}

		now := time.Now().UTC()
		updates := map[string]any{
			"status":             enums.OrderStatusPaid,
			"gateway_payment_id": input.GatewayPaymentID,
			"paid_at":            now,
		}
		if err := repo.UpdateOrders(ctx, input.OrderIDs, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark orders paid")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderPaid,
			AggregateType: enums.AggregatePlacementGroup,
			AggregateID:   groupID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.UserID},
			Data: payloads.OrderPaidEvent{
				PlacementGroupID: groupID,
				OrderIDs:         input.OrderIDs,
				GatewayOrderID:   input.GatewayOrderID,
				GatewayPaymentID: input.GatewayPaymentID,
			},
		}
		return s.outbox.Emit(ctx, tx, event)
	})
}

// MarkPaymentFailed records a gateway failure. Orders stay pending so
// the shopper can retry or switch to cash on delivery; the expiry job
// reaps them if no payment ever lands.
func (s *service) MarkPaymentFailed(ctx context.Context, userID uuid.UUID, gatewayOrderID, reason string) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if gatewayOrderID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "gateway order id required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		rows, err := repo.FindByGatewayOrderID(ctx, userID, gatewayOrderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load orders")
		}
		if len(rows) == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "no orders for gateway order")
		}

		ids := make([]uuid.UUID, 0, len(rows))
		for _, row := range rows {
			if row.Status != enums.OrderStatusPendingPayment {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not awaiting payment")
			}
			ids = append(ids, row.ID)
		}

		if err := repo.UpdateOrders(ctx, ids, map[string]any{"payment_failure_reason": reason}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payment failure")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderPaymentFailed,
			AggregateType: enums.AggregatePlacementGroup,
			AggregateID:   rows[0].PlacementGroupID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: userID},
			Data: payloads.OrderPaymentFailedEvent{
				PlacementGroupID: rows[0].PlacementGroupID,
				OrderIDs:         ids,
				Reason:           reason,
			},
		}
		return s.outbox.Emit(ctx, tx, event)
	})
}

// ExpirePendingBefore reaps pending-payment orders created before the
// cutoff. Failures on individual orders accumulate; the rest of the
// batch still runs.
func (s *service) ExpirePendingBefore(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	stale, err := s.repo.ListPendingBefore(ctx, cutoff, limit)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending orders")
	}

	expired := 0
	var errs error
	for _, row := range stale {
		row := row
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			now := time.Now().UTC()
			updates := map[string]any{
				"status":     enums.OrderStatusExpired,
				"expired_at": now,
			}
			if err := repo.UpdateOrders(ctx, []uuid.UUID{row.ID}, updates); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire order")
			}
			event := outbox.DomainEvent{
				EventType:     enums.EventOrderExpired,
				AggregateType: enums.AggregateOrder,
				AggregateID:   row.ID,
				Version:       1,
				Data: payloads.OrderExpiredEvent{
					OrderID:          row.ID,
					PlacementGroupID: row.PlacementGroupID,
				},
			}
			return s.outbox.Emit(ctx, tx, event)
		})
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("order %s: %w", row.ID, err))
			continue
		}
		s.logg.Info(s.logg.WithOrderID(ctx, row.ID.String()), "pending payment expired")
		expired++
	}
	return expired, errs
}
