package amqp

import (
	"encoding/json"
	"time"
)

// Reasons a ledger was saved.
const (
	ReasonRegister = "register"
	ReasonEdit     = "edit"
	ReasonImport   = "import"
)

// LedgerSavedMessage announces that the primary ledger was rewritten.
// It carries no rows: consumers reload the whole ledger, so redelivery and
// reordering are harmless.
type LedgerSavedMessage struct {
	Rows      int       `json:"rows"`
	Actor     string    `json:"actor"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerSavedMessage(rows int, actor, reason string) *LedgerSavedMessage {
	return &LedgerSavedMessage{
		Rows:      rows,
		Actor:     actor,
		Reason:    reason,
		Timestamp: time.Now().UTC(),
	}
}

func (m *LedgerSavedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerSavedMessageFromJSON(data []byte) (*LedgerSavedMessage, error) {
	var msg LedgerSavedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
