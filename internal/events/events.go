// Package events publishes ledger changes for downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Type names an event. It doubles as the AMQP routing key.
type Type string

const (
	ExpenseAdded       Type = "expense.added"
	ExpenseUpdated     Type = "expense.updated"
	SettlementRecorded Type = "settlement.recorded"
)

// Event is the JSON body of a published message.
type Event struct {
	Type       Type            `json:"type"`
	GroupID    string          `json:"group_id"`
	ExpenseID  string          `json:"expense_id,omitempty"`
	MemberID   string          `json:"member_id"`
	Amount     decimal.Decimal `json:"amount"`
	Settlement string          `json:"settlement_id,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// ToJSON encodes the event.
func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// FromJSON decodes an event body.
func FromJSON(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Publisher delivers events after the change that caused them committed.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }
