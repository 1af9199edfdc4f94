package services

import (
	"context"
	"sync"

	"github.com/athebyme/travel-admin/internal/adapters/backend"
	"github.com/athebyme/travel-admin/internal/domain/models"
	"github.com/athebyme/travel-admin/internal/infrastructure/postgres"
	"github.com/athebyme/travel-admin/pkg/interfaces"
)

type fakeBackend struct {
	mu       sync.Mutex
	entity   *models.Destination
	media    []models.Media
	fetchErr error
	sendErr  error
	created  []backend.Form
	updated  []backend.Form
}

func (f *fakeBackend) GetEntity(_ context.Context, _, _ string) (*models.Destination, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.entity, nil
}

func (f *fakeBackend) ListMedia(_ context.Context, _, _ string) ([]models.Media, error) {
	return f.media, nil
}

func (f *fakeBackend) Create(_ context.Context, _ string, form backend.Form) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return "", f.sendErr
	}
	f.created = append(f.created, form)
	return "new-id", nil
}

func (f *fakeBackend) Update(_ context.Context, _, _ string, form backend.Form) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.updated = append(f.updated, form)
	return nil
}

type published struct {
	topic string
	key   string
	value []byte
}

type fakeMessaging struct {
	mu   sync.Mutex
	sent []published
}

func (f *fakeMessaging) Publish(ctx context.Context, topic string, message []byte) error {
	return f.PublishWithKey(ctx, topic, "", message)
}

func (f *fakeMessaging) PublishWithKey(_ context.Context, topic, key string, message []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, published{topic: topic, key: key, value: message})
	return nil
}

func (f *fakeMessaging) Subscribe(context.Context, string, interfaces.MessageHandler) (func() error, error) {
	return func() error { return nil }, nil
}

func (f *fakeMessaging) Close() error { return nil }

type fakeRepository struct {
	processed map[string]bool
	records   []*models.SubmissionRecord
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{processed: map[string]bool{}}
}

func (f *fakeRepository) SaveSubmission(_ context.Context, r *models.SubmissionRecord) error {
	f.records = append(f.records, r)
	return nil
}

func (f *fakeRepository) GetSubmission(_ context.Context, id string) (*models.SubmissionRecord, error) {
	for _, r := range f.records {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, postgres.ErrSubmissionNotFound
}

func (f *fakeRepository) ListSubmissions(_ context.Context, _ postgres.SubmissionFilter, limit, offset int) ([]*models.SubmissionRecord, int64, error) {
	total := int64(len(f.records))
	if offset >= len(f.records) {
		return []*models.SubmissionRecord{}, total, nil
	}
	end := offset + limit
	if end > len(f.records) {
		end = len(f.records)
	}
	return f.records[offset:end], total, nil
}

func (f *fakeRepository) MarkEventProcessed(_ context.Context, eventID string) (bool, error) {
	if f.processed[eventID] {
		return false, nil
	}
	f.processed[eventID] = true
	return true, nil
}

type fakeTxManager struct {
	calls int
}

func (f *fakeTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	return fn(ctx)
}
