// Package worker runs the background rate-update consumer.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"kopilka/internal/amqp"
	"kopilka/internal/core"
)

// RateSaver is the subset of the rate store the worker writes through.
type RateSaver interface {
	Save(ctx context.Context, date string, table core.RateTable) error
}

// RatesWorker consumes rate-update messages and upserts each table into
// the rate store. Saving is idempotent, so redelivered messages are safe.
type RatesWorker struct {
	client *amqp.Client
	saver  RateSaver
}

func NewRatesWorker(client *amqp.Client, saver RateSaver) *RatesWorker {
	return &RatesWorker{client: client, saver: saver}
}

// Run blocks consuming messages until ctx is cancelled.
func (w *RatesWorker) Run(ctx context.Context) error {
	return w.client.ConsumeRateUpdates(ctx, func(msg *amqp.RateUpdateMessage) error {
		return w.HandleRateUpdate(ctx, msg)
	})
}

// HandleRateUpdate validates and stores one message's rate table.
func (w *RatesWorker) HandleRateUpdate(ctx context.Context, msg *amqp.RateUpdateMessage) error {
	if msg.Date == "" || len(msg.Rates) == 0 {
		return fmt.Errorf("%w: date=%q rates=%d", amqp.ErrMalformedMessage, msg.Date, len(msg.Rates))
	}

	for code, rate := range msg.Rates {
		if rate <= 0 {
			return fmt.Errorf("%w: non-positive rate %v for %s on %s", amqp.ErrMalformedMessage, rate, code, msg.Date)
		}
	}

	if err := w.saver.Save(ctx, msg.Date, msg.Rates); err != nil {
		return fmt.Errorf("save rates: %w", err)
	}

	slog.InfoContext(ctx, "Rate table stored",
		"date", msg.Date,
		"currencies", len(msg.Rates))
	return nil
}
