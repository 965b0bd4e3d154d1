package cron

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/bazaarly/checkout-backend/pkg/db/models"
	"github.com/bazaarly/checkout-backend/pkg/logger"
	"github.com/bazaarly/checkout-backend/pkg/outbox"
)

const relayBatchSize = 100

// OutboxRelayJobParams configure the outbox drain.
type OutboxRelayJobParams struct {
	Logger    *logger.Logger
	Outbox    outboxSource
	Publisher outbox.Publisher
	BatchSize int
}

type outboxSource interface {
	FetchUnpublished(limit int) ([]models.OutboxEvent, error)
	MarkPublished(id uuid.UUID) error
	MarkFailed(id uuid.UUID, err error) error
}

// NewOutboxRelayJob builds the cron job that delivers queued outbox
// events. Delivery is at-least-once: publish then mark, so a crash in
// between re-delivers on the next cycle.
func NewOutboxRelayJob(params OutboxRelayJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	if params.Publisher == nil {
		return nil, fmt.Errorf("publisher required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = relayBatchSize
	}
	return &outboxRelayJob{
		logg:      params.Logger,
		outbox:    params.Outbox,
		publisher: params.Publisher,
		batch:     batch,
	}, nil
}

type outboxRelayJob struct {
	logg      *logger.Logger
	outbox    outboxSource
	publisher outbox.Publisher
	batch     int
}

func (j *outboxRelayJob) Name() string { return "outbox-relay" }

func (j *outboxRelayJob) Run(ctx context.Context) error {
	events, err := j.outbox.FetchUnpublished(j.batch)
	if err != nil {
		return fmt.Errorf("fetch unpublished events: %w", err)
	}

	published := 0
	var errs error
	for _, event := range events {
		if err := j.publisher.Publish(ctx, event); err != nil {
			if markErr := j.outbox.MarkFailed(event.ID, err); markErr != nil {
				errs = multierr.Append(errs, fmt.Errorf("mark event %s failed: %w", event.ID, markErr))
			}
			errs = multierr.Append(errs, fmt.Errorf("publish event %s: %w", event.ID, err))
			continue
		}
		if err := j.outbox.MarkPublished(event.ID); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("mark event %s published: %w", event.ID, err))
			continue
		}
		published++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"fetched":   len(events),
		"published": published,
	})
	if errs != nil {
		j.logg.Error(logCtx, "outbox relay loop finished with errors", errs)
		return errs
	}
	j.logg.Info(logCtx, "outbox relay loop complete")
	return nil
}
