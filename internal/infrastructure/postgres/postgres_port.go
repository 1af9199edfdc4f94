package postgres

import (
	"context"
	"errors"

	"github.com/athebyme/travel-admin/internal/domain/models"
)

var ErrSubmissionNotFound = errors.New("submission not found")

// SubmissionFilter условия выборки журнала отправок; пустые поля не фильтруют
type SubmissionFilter struct {
	Resource string
	EntityID string
}

// Repository журнал отправок контента
type Repository interface {
	// SaveSubmission сохраняет запись; повтор с тем же event_id игнорируется
	SaveSubmission(ctx context.Context, record *models.SubmissionRecord) error

	// GetSubmission возвращает ErrSubmissionNotFound, если записи нет
	GetSubmission(ctx context.Context, id string) (*models.SubmissionRecord, error)

	ListSubmissions(ctx context.Context, filter SubmissionFilter, limit, offset int) ([]*models.SubmissionRecord, int64, error)

	// MarkEventProcessed возвращает false, если событие уже обработано
	MarkEventProcessed(ctx context.Context, eventID string) (bool, error)
}

type Port interface {
	Repository

	Ping(ctx context.Context) error

	Close() error
}
