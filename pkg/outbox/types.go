package outbox

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Message is the unit stored in <module>_outbox.
type Message struct {
	TenantID uuid.UUID
	Topic    string
	EventID  uuid.UUID
	Payload  json.RawMessage
}

// NewMessage marshals payload and assigns a fresh event id.
func NewMessage(tenantID uuid.UUID, topic string, payload any) (Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("outbox: marshal %s payload: %w", topic, err)
	}
	return Message{
		TenantID: tenantID,
		Topic:    topic,
		EventID:  uuid.New(),
		Payload:  raw,
	}, nil
}
