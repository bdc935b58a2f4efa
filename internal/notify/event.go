package notify

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType names a notification
type EventType string

const (
	EventSnapshotSaved     EventType = "snapshot.saved"
	EventPatternsDetected  EventType = "patterns.detected"
	EventHolidaysRefreshed EventType = "holidays.refreshed"
)

// Event is one user-scoped notification (empty UserID = broadcast)
type Event struct {
	ID      string          `json:"id"`
	Type    EventType       `json:"type"`
	UserID  string          `json:"userId,omitempty"`
	At      time.Time       `json:"at"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEvent stamps an id and time and encodes the payload
func NewEvent(eventType EventType, userID string, payload interface{}) (Event, error) {
	ev := Event{
		ID:     uuid.NewString(),
		Type:   eventType,
		UserID: userID,
		At:     time.Now().UTC(),
	}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return Event{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
		}
		ev.Payload = data
	}
	return ev, nil
}

// envelope tags relayed events with the publishing hub
type envelope struct {
	Origin string `json:"origin"`
	Event  Event  `json:"event"`
}
