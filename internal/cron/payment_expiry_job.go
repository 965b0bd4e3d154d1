package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/bazaarly/checkout-backend/pkg/logger"
)

const expiryBatchSize = 200

// PaymentExpiryJobParams configure the pending-payment reaper.
type PaymentExpiryJobParams struct {
	Logger  *logger.Logger
	Orders  pendingOrderExpirer
	TTL     time.Duration
	MaxRows int
}

type pendingOrderExpirer interface {
	ExpirePendingBefore(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

// NewPaymentExpiryJob builds the cron job that expires orders stuck in
// pending_payment longer than the configured TTL. Expired orders keep
// their rows; only the status flips, so support can still look them up.
func NewPaymentExpiryJob(params PaymentExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders expirer required")
	}
	if params.TTL <= 0 {
		return nil, fmt.Errorf("pending payment ttl must be positive")
	}
	maxRows := params.MaxRows
	if maxRows <= 0 {
		maxRows = expiryBatchSize
	}
	return &paymentExpiryJob{
		logg:    params.Logger,
		orders:  params.Orders,
		ttl:     params.TTL,
		maxRows: maxRows,
		now:     time.Now,
	}, nil
}

type paymentExpiryJob struct {
	logg    *logger.Logger
	orders  pendingOrderExpirer
	ttl     time.Duration
	maxRows int
	now     func() time.Time
}

func (j *paymentExpiryJob) Name() string { return "payment-expiry" }

func (j *paymentExpiryJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	expired, err := j.orders.ExpirePendingBefore(ctx, cutoff, j.maxRows)
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":  cutoff,
		"expired": expired,
	})
	if err != nil {
		// partial progress still counts; the error carries the rows that failed
		j.logg.Error(logCtx, "payment expiry loop finished with errors", err)
		return fmt.Errorf("expire pending payments: %w", err)
	}
	j.logg.Info(logCtx, "payment expiry loop complete")
	return nil
}
