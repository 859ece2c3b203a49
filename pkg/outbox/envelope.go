package outbox

import (
	"encoding/json"
	"time"
)

// ActorRef identifies the employee whose action produced the event.
type ActorRef struct {
	EmployeeID int64  `json:"employeeId"`
	Role       string `json:"role,omitempty"`
}

// PayloadEnvelope is the stable payload structure stored in outbox_events.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}
