package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Entity names the kind of record a change touched.
type Entity string

const (
	EntityAccount     Entity = "account"
	EntityCategory    Entity = "category"
	EntityTransaction Entity = "transaction"
	EntitySettings    Entity = "settings"
)

type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// ChangeMessage announces a committed ledger mutation. It carries ids only;
// consumers read current state from the store.
type ChangeMessage struct {
	ID        string    `json:"id"`
	Entity    Entity    `json:"entity"`
	Action    Action    `json:"action"`
	EntityID  int64     `json:"entity_id"`
	AccountID *int64    `json:"account_id,omitempty"`
	Years     []int     `json:"years,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewChangeMessage(entity Entity, action Action, entityID int64) *ChangeMessage {
	return &ChangeMessage{
		ID:        uuid.NewString(),
		Entity:    entity,
		Action:    action,
		EntityID:  entityID,
		Timestamp: time.Now().UTC(),
	}
}

// ForAccount scopes the change to one account.
func (m *ChangeMessage) ForAccount(id int64) *ChangeMessage {
	m.AccountID = &id
	return m
}

// InYears records the calendar years whose reports the change affects.
func (m *ChangeMessage) InYears(years ...int) *ChangeMessage {
	for _, y := range years {
		if !containsYear(m.Years, y) {
			m.Years = append(m.Years, y)
		}
	}
	return m
}

func containsYear(ys []int, y int) bool {
	for _, v := range ys {
		if v == y {
			return true
		}
	}
	return false
}

func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Entity == "" || msg.Action == "" {
		return nil, fmt.Errorf("change message %q: missing entity or action", msg.ID)
	}
	return &msg, nil
}
