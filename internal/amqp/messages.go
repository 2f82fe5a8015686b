package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"kopilka/internal/core"
)

// ErrMalformedMessage marks a message that can never succeed. Handlers wrap
// validation failures with it so the consumer drops the delivery instead of
// requeueing it forever.
var ErrMalformedMessage = errors.New("malformed message")

// RateUpdateMessage carries a full rate table for one date. Consumers
// upsert the whole table; replays are harmless because the save is
// idempotent.
type RateUpdateMessage struct {
	Date      string         `json:"date"`
	Rates     core.RateTable `json:"rates"`
	Timestamp time.Time      `json:"timestamp"`
}

func NewRateUpdateMessage(date string, rates core.RateTable) *RateUpdateMessage {
	return &RateUpdateMessage{
		Date:      date,
		Rates:     rates,
		Timestamp: time.Now(),
	}
}

func (m *RateUpdateMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func RateUpdateMessageFromJSON(data []byte) (*RateUpdateMessage, error) {
	var msg RateUpdateMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
