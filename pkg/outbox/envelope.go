package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ActorRef records which user caused the event, when one did.
type ActorRef struct {
	UserID uuid.UUID `json:"userId"`
	Role   string    `json:"role,omitempty"`
}

// PayloadEnvelope is the versioned wrapper stored in outbox_events.payload and
// published verbatim to Pub/Sub. Consumers key their idempotency off EventID.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}
