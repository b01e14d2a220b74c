package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"dicipfinance/internal/core"
)

// Operations carried by a LedgerChangeMessage.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// LedgerChangeMessage announces that one of the ledger lists changed. It
// carries no record data; consumers read the current list from the source.
type LedgerChangeMessage struct {
	ID        string        `json:"id"`
	Entity    core.Entity   `json:"entity"`
	Op        string        `json:"op"`
	RecordID  string        `json:"recordId,omitempty"`
	Mode      core.DataMode `json:"mode"`
	Source    string        `json:"source"`
	Timestamp time.Time     `json:"timestamp"`
}

func NewLedgerChangeMessage(entity core.Entity, op, recordID string, mode core.DataMode, source string) *LedgerChangeMessage {
	return &LedgerChangeMessage{
		ID:        uuid.NewString(),
		Entity:    entity,
		Op:        op,
		RecordID:  recordID,
		Mode:      mode,
		Source:    source,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerChangeMessageFromJSON decodes and checks a message body.
func LedgerChangeMessageFromJSON(data []byte) (*LedgerChangeMessage, error) {
	var msg LedgerChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Entity {
	case core.EntityCategory, core.EntityTransaction, core.EntityBudgetGoal:
	default:
		return nil, errors.New("unknown entity " + string(msg.Entity))
	}
	return &msg, nil
}
