package messaging

import (
	"encoding/json"
	"fmt"

	"github.com/athebyme/travel-admin/internal/domain/models"
)

type KafkaEvent = string

// ContentEventsTopic топик событий об отправке контента
const ContentEventsTopic = "content-events"

const (
	DestinationCreatedEvent KafkaEvent = "destination_created"
	DestinationUpdatedEvent KafkaEvent = "destination_updated"
)

// EncodeContentEvent сериализует событие для публикации
func EncodeContentEvent(event models.ContentEvent) ([]byte, error) {
	return json.Marshal(event)
}

// DecodeContentEvent разбирает событие и проверяет обязательные поля
func DecodeContentEvent(data []byte) (*models.ContentEvent, error) {
	var event models.ContentEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("ошибка разбора события: %w", err)
	}
	if event.EventID == "" {
		return nil, fmt.Errorf("событие без event_id")
	}
	switch event.EventType {
	case DestinationCreatedEvent, DestinationUpdatedEvent:
	default:
		return nil, fmt.Errorf("неизвестный тип события: %q", event.EventType)
	}
	return &event, nil
}
