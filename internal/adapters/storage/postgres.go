package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/athebyme/travel-admin/internal/domain/models"
	infra "github.com/athebyme/travel-admin/internal/infrastructure/postgres"
	"github.com/athebyme/travel-admin/pkg/tx"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ infra.Port = (*SubmissionStorage)(nil)

// SubmissionStorage журнал отправок контента в PostgreSQL
type SubmissionStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresStorage создает пул соединений и хранилище поверх него
func NewPostgresStorage(ctx context.Context, connectionString string) (*SubmissionStorage, error) {
	pool, err := pgxpool.New(ctx, connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	storage, err := NewPostgresStorageWithPool(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return storage, nil
}

func NewPostgresStorageWithPool(ctx context.Context, pool *pgxpool.Pool) (*SubmissionStorage, error) {
	if pool == nil {
		return nil, errors.New("pool is nil")
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return &SubmissionStorage{pool: pool}, nil
}

// Pool пул соединений для менеджера транзакций и миграций
func (r *SubmissionStorage) Pool() *pgxpool.Pool {
	return r.pool
}

func (r *SubmissionStorage) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close закрывает соединение с БД
func (r *SubmissionStorage) Close() error {
	r.pool.Close()
	return nil
}

type executor interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// getExecutor возвращает транзакцию из контекста или пул
func (r *SubmissionStorage) getExecutor(ctx context.Context) executor {
	if t, ok := tx.GetTxFromContext(ctx); ok {
		return t
	}
	return r.pool
}

// SaveSubmission сохраняет запись журнала
func (r *SubmissionStorage) SaveSubmission(ctx context.Context, record *models.SubmissionRecord) error {
	query := `
		INSERT INTO content.submissions
			(id, event_id, event_type, resource, entity_id, changed_by, sections, submitted_at, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (event_id) DO NOTHING
	`

	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.RecordedAt.IsZero() {
		record.RecordedAt = time.Now().UTC()
	}
	sections := []byte(record.Sections)
	if len(sections) == 0 {
		sections = []byte("[]")
	}

	_, err := r.getExecutor(ctx).Exec(ctx, query,
		record.ID, record.EventID, record.EventType, record.Resource, record.EntityID,
		record.ChangedBy, sections, record.SubmittedAt, record.RecordedAt)
	if err != nil {
		return fmt.Errorf("failed to save submission: %w", err)
	}
	return nil
}

const submissionColumns = `id, event_id, event_type, resource, entity_id, changed_by, sections, submitted_at, recorded_at`

func scanSubmission(row pgx.Row) (*models.SubmissionRecord, error) {
	var rec models.SubmissionRecord
	err := row.Scan(&rec.ID, &rec.EventID, &rec.EventType, &rec.Resource, &rec.EntityID,
		&rec.ChangedBy, &rec.Sections, &rec.SubmittedAt, &rec.RecordedAt)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *SubmissionStorage) GetSubmission(ctx context.Context, id string) (*models.SubmissionRecord, error) {
	query := `SELECT ` + submissionColumns + ` FROM content.submissions WHERE id = $1`

	rec, err := scanSubmission(r.getExecutor(ctx).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return rec, nil
}

// ListSubmissions возвращает страницу журнала, новые записи первыми
func (r *SubmissionStorage) ListSubmissions(ctx context.Context, filter infra.SubmissionFilter, limit, offset int) ([]*models.SubmissionRecord, int64, error) {
	where, args := filterConditions(filter)
	exec := r.getExecutor(ctx)

	var total int64
	if err := exec.QueryRow(ctx, "SELECT COUNT(*) FROM content.submissions"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count submissions: %w", err)
	}
	if total == 0 {
		return []*models.SubmissionRecord{}, 0, nil
	}

	argPos := len(args) + 1
	args = append(args, limit, offset)
	dataQuery := `SELECT ` + submissionColumns + ` FROM content.submissions` + where + `
		ORDER BY submitted_at DESC
		LIMIT $` + strconv.Itoa(argPos) + ` OFFSET $` + strconv.Itoa(argPos+1)

	rows, err := exec.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer rows.Close()

	records := make([]*models.SubmissionRecord, 0, limit)
	for rows.Next() {
		rec, err := scanSubmission(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan submission row: %w", err)
		}
		records = append(records, rec)
	}
	if rows.Err() != nil {
		return nil, 0, fmt.Errorf("error while iterating submission rows: %w", rows.Err())
	}

	return records, total, nil
}

// MarkEventProcessed регистрирует событие; false означает повторную доставку
func (r *SubmissionStorage) MarkEventProcessed(ctx context.Context, eventID string) (bool, error) {
	tag, err := r.getExecutor(ctx).Exec(ctx,
		`INSERT INTO content.processed_events (event_id) VALUES ($1) ON CONFLICT DO NOTHING`, eventID)
	if err != nil {
		return false, fmt.Errorf("failed to mark event processed: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// filterConditions собирает WHERE из непустых полей фильтра
func filterConditions(filter infra.SubmissionFilter) (string, []interface{}) {
	var (
		conditions []string
		args       []interface{}
	)
	if filter.Resource != "" {
		args = append(args, filter.Resource)
		conditions = append(conditions, "resource = $"+strconv.Itoa(len(args)))
	}
	if filter.EntityID != "" {
		args = append(args, filter.EntityID)
		conditions = append(conditions, "entity_id = $"+strconv.Itoa(len(args)))
	}
	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}
