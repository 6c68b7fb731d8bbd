package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types published after a ledger change has been committed.
const (
	EventTransactionCreated = "transaction.created"
	EventTransactionUpdated = "transaction.updated"
	EventTransactionDeleted = "transaction.deleted"
	EventBalancesUpdated    = "balances.updated"
	EventLimitsChanged      = "limits.changed"
)

// LedgerEvent is a lightweight notification. Consumers fetch the current
// state from the store rather than trusting a payload copy.
type LedgerEvent struct {
	Type          string    `json:"type"`
	UserID        string    `json:"user_id"`
	TransactionID string    `json:"transaction_id,omitempty"`
	Month         string    `json:"month,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewLedgerEvent creates an event stamped with the current time.
func NewLedgerEvent(eventType, userID, transactionID string) *LedgerEvent {
	return &LedgerEvent{
		Type:          eventType,
		UserID:        userID,
		TransactionID: transactionID,
		Timestamp:     time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventFromJSON decodes and sanity-checks an event.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var msg LedgerEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Type == "" || msg.UserID == "" {
		return nil, fmt.Errorf("event missing type or user")
	}
	return &msg, nil
}
