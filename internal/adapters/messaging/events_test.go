package messaging

import (
	"testing"
	"time"

	"github.com/athebyme/travel-admin/internal/domain/models"
)

func TestContentEventCodec(t *testing.T) {
	event := models.ContentEvent{
		EventID:    "e1",
		EventType:  DestinationUpdatedEvent,
		Resource:   "destinations",
		EntityID:   "42",
		ChangedBy:  "u1",
		OccurredAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	data, err := EncodeContentEvent(event)
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeContentEvent(data)
	if err != nil {
		t.Fatalf("DecodeContentEvent: %v", err)
	}
	if got.EntityID != "42" || !got.OccurredAt.Equal(event.OccurredAt) {
		t.Errorf("decoded = %+v", got)
	}
}

func TestDecodeContentEventRejects(t *testing.T) {
	tests := map[string]string{
		"malformed":    `{`,
		"no id":        `{"event_type":"destination_created"}`,
		"unknown type": `{"event_id":"e1","event_type":"product_created"}`,
	}
	for name, payload := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := DecodeContentEvent([]byte(payload)); err == nil {
				t.Error("expected error")
			}
		})
	}
}
