package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bazaarly/checkout-backend/pkg/logger"
)

type stubExpirer struct {
	cutoff  time.Time
	limit   int
	expired int
	err     error
	calls   int
}

func (s *stubExpirer) ExpirePendingBefore(_ context.Context, cutoff time.Time, limit int) (int, error) {
	s.calls++
	s.cutoff = cutoff
	s.limit = limit
	return s.expired, s.err
}

func TestPaymentExpiryJobUsesConfiguredTTL(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "cron-test"})
	expirer := &stubExpirer{expired: 3}
	job, err := NewPaymentExpiryJob(PaymentExpiryJobParams{
		Logger: logg,
		Orders: expirer,
		TTL:    24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if job.Name() != "payment-expiry" {
		t.Fatalf("unexpected job name %q", job.Name())
	}

	frozen := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	job.(*paymentExpiryJob).now = func() time.Time { return frozen }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if expirer.calls != 1 {
		t.Fatalf("expected one expirer call, got %d", expirer.calls)
	}
	want := frozen.Add(-24 * time.Hour)
	if !expirer.cutoff.Equal(want) {
		t.Fatalf("expected cutoff %v, got %v", want, expirer.cutoff)
	}
	if expirer.limit != expiryBatchSize {
		t.Fatalf("expected default batch size %d, got %d", expiryBatchSize, expirer.limit)
	}
}

func TestPaymentExpiryJobPropagatesErrors(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "cron-test"})
	expirer := &stubExpirer{expired: 1, err: errors.New("row locked")}
	job, err := NewPaymentExpiryJob(PaymentExpiryJobParams{
		Logger:  logg,
		Orders:  expirer,
		TTL:     time.Hour,
		MaxRows: 50,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatalf("expected error to propagate")
	}
	if expirer.limit != 50 {
		t.Fatalf("expected configured batch size 50, got %d", expirer.limit)
	}
}

func TestNewPaymentExpiryJobValidation(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "cron-test"})
	if _, err := NewPaymentExpiryJob(PaymentExpiryJobParams{Orders: &stubExpirer{}, TTL: time.Hour}); err == nil {
		t.Fatalf("expected error for missing logger")
	}
	if _, err := NewPaymentExpiryJob(PaymentExpiryJobParams{Logger: logg, TTL: time.Hour}); err == nil {
		t.Fatalf("expected error for missing expirer")
	}
	if _, err := NewPaymentExpiryJob(PaymentExpiryJobParams{Logger: logg, Orders: &stubExpirer{}}); err == nil {
		t.Fatalf("expected error for zero ttl")
	}
}
