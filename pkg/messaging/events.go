package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types, also used as routing keys on the hcdash.events exchange
const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"

	EventCompanyCreated = "company.created"
	EventCompanyUpdated = "company.updated"
	EventCompanyDeleted = "company.deleted"

	EventStatUpserted         = "stats.record.upserted"
	EventStatDeleted          = "stats.record.deleted"
	EventStatsCarriedOver     = "stats.carryover.completed"
	EventStatsImportCompleted = "stats.import.completed"
)

// Event is the envelope every message is published in
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            uuid.New().String(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// UserEvent is published for user.created, user.updated and user.deleted
type UserEvent struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CompanyID string `json:"company_id"`
	ActorID   string `json:"actor_id"`
}

// CompanyEvent is published for company lifecycle changes
type CompanyEvent struct {
	CompanyID string `json:"company_id"`
	Name      string `json:"name"`
	ActorID   string `json:"actor_id"`
}

// StatEvent is published when a single stat row is written or deleted
type StatEvent struct {
	Metric    string `json:"metric"`
	RecordID  string `json:"record_id"`
	CompanyID string `json:"company_id"`
	Year      int    `json:"year"`
	Month     int    `json:"month,omitempty"`
	Quarter   int    `json:"quarter,omitempty"`
	ActorID   string `json:"actor_id"`
}

// CarryOverEvent is published when a division period was filled from the previous month
type CarryOverEvent struct {
	Metric    string `json:"metric"`
	CompanyID string `json:"company_id"`
	Year      int    `json:"year"`
	Month     int    `json:"month"`
	Copied    int64  `json:"copied"`
}

// ImportCompletedEvent is published after a spreadsheet import
type ImportCompletedEvent struct {
	Metric    string   `json:"metric"`
	FileName  string   `json:"file_name"`
	Imported  int      `json:"imported"`
	Skipped   int      `json:"skipped"`
	Companies []string `json:"companies"`
	UserID    string   `json:"user_id"`
}
