package outbox

import (
	"context"
	"errors"

	"github.com/bazaarly/checkout-backend/pkg/db/models"
	"github.com/bazaarly/checkout-backend/pkg/logger"
)

// Publisher delivers a stored outbox event to the outside world. The
// relay marks the row published only after Publish returns nil.
type Publisher interface {
	Publish(ctx context.Context, event models.OutboxEvent) error
}

// LogPublisher writes events to the structured log. It stands in where
// no broker is deployed; swapping in a real Publisher needs no schema
// or relay changes.
type LogPublisher struct {
	logg *logger.Logger
}

func NewLogPublisher(logg *logger.Logger) (*LogPublisher, error) {
	if logg == nil {
		return nil, errors.New("logger required")
	}
	return &LogPublisher{logg: logg}, nil
}

func (p *LogPublisher) Publish(ctx context.Context, event models.OutboxEvent) error {
	logCtx := p.logg.WithFields(ctx, map[string]any{
		"event_id":       event.ID.String(),
		"event_type":     event.EventType,
		"aggregate_id":   event.AggregateID.String(),
		"aggregate_type": event.AggregateType,
	})
	p.logg.Info(logCtx, "outbox event published")
	return nil
}
