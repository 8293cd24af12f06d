package amqp

import (
	"encoding/json"
	"time"
)

// ExpenseCreatedMessage announces a committed expense to the mirror pipeline.
// It carries only the id and owner; the worker reads the authoritative rows
// back from storage so the message can never disagree with the ledger.
type ExpenseCreatedMessage struct {
	ID        int64     `json:"id"`
	Owner     string    `json:"owner"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExpenseCreatedMessage(id int64, owner string) *ExpenseCreatedMessage {
	return &ExpenseCreatedMessage{
		ID:        id,
		Owner:     owner,
		Timestamp: time.Now(),
	}
}

func (m *ExpenseCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExpenseCreatedMessageFromJSON(data []byte) (*ExpenseCreatedMessage, error) {
	var msg ExpenseCreatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
