package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/athebyme/travel-admin/internal/adapters/messaging"
	"github.com/athebyme/travel-admin/internal/domain/models"
	"github.com/athebyme/travel-admin/internal/infrastructure/postgres"
	"github.com/athebyme/travel-admin/pkg/interfaces"
	"github.com/athebyme/travel-admin/pkg/tx"
	"github.com/athebyme/travel-admin/pkg/utils"
)

// AuditService журнал отправок контента
type AuditService struct {
	repository postgres.Repository
	txManager  tx.TxManager
	logger     interfaces.LoggerPort
}

func NewAuditService(repository postgres.Repository, txManager tx.TxManager, logger interfaces.LoggerPort) *AuditService {
	return &AuditService{
		repository: repository,
		txManager:  txManager,
		logger:     logger.WithField("component", "audit"),
	}
}

// ListSubmissions страница журнала; pagination получает общее количество записей
func (s *AuditService) ListSubmissions(ctx context.Context, filter postgres.SubmissionFilter, pagination *utils.Pagination) ([]*models.SubmissionRecord, error) {
	records, total, err := s.repository.ListSubmissions(ctx, filter, pagination.Limit(), pagination.Offset())
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	pagination.SetTotal(total)
	return records, nil
}

func (s *AuditService) GetSubmission(ctx context.Context, id string) (*models.SubmissionRecord, error) {
	return s.repository.GetSubmission(ctx, id)
}

// HandleContentEvent записывает событие в журнал в одной транзакции
// с отметкой об обработке; повторная доставка пропускается
func (s *AuditService) HandleContentEvent(ctx context.Context, msg *interfaces.Message) error {
	event, err := messaging.DecodeContentEvent(msg.Value)
	if err != nil {
		auditEvents.WithLabelValues("invalid").Inc()
		s.logger.Warn("Пропущено некорректное событие",
			interfaces.LogField{Key: "message_id", Value: msg.ID},
			interfaces.LogField{Key: "error", Value: err.Error()})
		return nil
	}

	if event.Sections == nil {
		event.Sections = []models.Section{}
	}
	sectionsJSON, err := json.Marshal(event.Sections)
	if err != nil {
		return fmt.Errorf("failed to encode sections: %w", err)
	}

	duplicate := false
	err = s.txManager.Do(ctx, func(ctx context.Context) error {
		first, err := s.repository.MarkEventProcessed(ctx, event.EventID)
		if err != nil {
			return err
		}
		if !first {
			duplicate = true
			return nil
		}

		return s.repository.SaveSubmission(ctx, &models.SubmissionRecord{
			EventID:     event.EventID,
			EventType:   event.EventType,
			Resource:    event.Resource,
			EntityID:    event.EntityID,
			ChangedBy:   event.ChangedBy,
			Sections:    sectionsJSON,
			SubmittedAt: event.OccurredAt,
		})
	})
	if err != nil {
		auditEvents.WithLabelValues("failed").Inc()
		return fmt.Errorf("failed to record event %s: %w", event.EventID, err)
	}

	if duplicate {
		auditEvents.WithLabelValues("duplicate").Inc()
		s.logger.Debug("Событие уже обработано", interfaces.LogField{Key: "event_id", Value: event.EventID})
		return nil
	}

	auditEvents.WithLabelValues("recorded").Inc()
	s.logger.Info("Событие записано в журнал",
		interfaces.LogField{Key: "event_id", Value: event.EventID},
		interfaces.LogField{Key: "event_type", Value: event.EventType},
		interfaces.LogField{Key: "entity_id", Value: event.EntityID})
	return nil
}
