package worker

import (
	"context"
	"errors"
	"testing"

	"kopilka/internal/amqp"
	"kopilka/internal/core"
)

type fakeSaver struct {
	saved map[string]core.RateTable
	err   error
}

func (f *fakeSaver) Save(ctx context.Context, date string, table core.RateTable) error {
	if f.err != nil {
		return f.err
	}
	if f.saved == nil {
		f.saved = make(map[string]core.RateTable)
	}
	f.saved[date] = table
	return nil
}

func TestHandleRateUpdate(t *testing.T) {
	saver := &fakeSaver{}
	w := NewRatesWorker(nil, saver)

	msg := &amqp.RateUpdateMessage{
		Date:  "2025-05-01",
		Rates: core.RateTable{"RUB": 95.5},
	}
	if err := w.HandleRateUpdate(context.Background(), msg); err != nil {
		t.Fatalf("HandleRateUpdate() = %v", err)
	}
	if saver.saved["2025-05-01"]["RUB"] != 95.5 {
		t.Errorf("saved = %v", saver.saved)
	}
}

func TestHandleRateUpdateRejectsMalformed(t *testing.T) {
	w := NewRatesWorker(nil, &fakeSaver{})
	ctx := context.Background()

	tests := []struct {
		name string
		msg  *amqp.RateUpdateMessage
	}{
		{name: "empty date", msg: &amqp.RateUpdateMessage{Rates: core.RateTable{"RUB": 95.5}}},
		{name: "empty rates", msg: &amqp.RateUpdateMessage{Date: "2025-05-01"}},
		{name: "non-positive rate", msg: &amqp.RateUpdateMessage{Date: "2025-05-01", Rates: core.RateTable{"RUB": -1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := w.HandleRateUpdate(ctx, tt.msg)
			if err == nil {
				t.Fatal("expected a validation error")
			}
			// The consumer drops malformed deliveries instead of
			// requeueing them, so the marker must survive wrapping.
			if !errors.Is(err, amqp.ErrMalformedMessage) {
				t.Errorf("error %v does not mark the message as malformed", err)
			}
		})
	}
}

func TestHandleRateUpdateSaveFailure(t *testing.T) {
	saver := &fakeSaver{err: errors.New("disk full")}
	w := NewRatesWorker(nil, saver)

	msg := &amqp.RateUpdateMessage{Date: "2025-05-01", Rates: core.RateTable{"RUB": 95.5}}
	err := w.HandleRateUpdate(context.Background(), msg)
	if err == nil {
		t.Fatal("expected the save error to propagate")
	}
	// Save failures are transient and stay eligible for redelivery.
	if errors.Is(err, amqp.ErrMalformedMessage) {
		t.Errorf("save error %v must not be marked malformed", err)
	}
}
