package models

import (
	"encoding/json"
	"time"
)

// Destination сущность с разделами контента, как ее отдает REST-бэкенд
type Destination struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Fields   map[string]string `json:"fields,omitempty"`
	Sections []Section         `json:"sections"`
}

// ---------------------------- KAFKA MODELS ----------------------------

// ContentEvent событие об отправке контента в бэкенд
type ContentEvent struct {
	EventID    string    `json:"event_id"`
	EventType  string    `json:"event_type"` // "destination_created", "destination_updated"
	Resource   string    `json:"resource"`
	EntityID   string    `json:"entity_id"`
	DraftID    string    `json:"draft_id"`
	ChangedBy  string    `json:"changed_by"`
	Sections   []Section `json:"sections"`
	OccurredAt time.Time `json:"occurred_at"`
}

// SubmissionRecord запись журнала отправок контента
type SubmissionRecord struct {
	ID          string          `db:"id" json:"id"`
	EventID     string          `db:"event_id" json:"event_id"`
	EventType   string          `db:"event_type" json:"event_type"`
	Resource    string          `db:"resource" json:"resource"`
	EntityID    string          `db:"entity_id" json:"entity_id"`
	ChangedBy   string          `db:"changed_by" json:"changed_by"`
	Sections    json.RawMessage `db:"sections" json:"sections"`
	SubmittedAt time.Time       `db:"submitted_at" json:"submitted_at"`
	RecordedAt  time.Time       `db:"recorded_at" json:"recorded_at"`
}
