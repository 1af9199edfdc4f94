// Package drafts хранит незавершенные формы разделов между запросами.
package drafts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/athebyme/travel-admin/internal/domain/sections"
	apperrors "github.com/athebyme/travel-admin/pkg/errors"
	"github.com/athebyme/travel-admin/pkg/interfaces"
)

var ErrDraftNotFound = errors.New("draft not found")

// Draft форма создания или редактирования сущности.
// Пустой EntityID означает создание новой сущности.
type Draft struct {
	ID        string            `json:"id"`
	Resource  string            `json:"resource"`
	EntityID  string            `json:"entity_id,omitempty"`
	OwnerID   string            `json:"owner_id"`
	Fields    map[string]string `json:"fields"`
	Builder   *sections.Builder `json:"builder"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// IsEdit true, если черновик редактирует существующую сущность
func (d *Draft) IsEdit() bool {
	return d.EntityID != ""
}

type Store interface {
	Save(ctx context.Context, d *Draft) error
	Get(ctx context.Context, id string) (*Draft, error)
	Delete(ctx context.Context, id string) error
}

// CacheStore хранит черновики в кэше; каждое сохранение продлевает срок жизни
type CacheStore struct {
	cache interfaces.CachePort
	ttl   time.Duration
}

func NewCacheStore(cache interfaces.CachePort, ttl time.Duration) *CacheStore {
	return &CacheStore{cache: cache, ttl: ttl}
}

func draftKey(id string) string {
	return "draft:" + id
}

func (s *CacheStore) Save(ctx context.Context, d *Draft) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal draft: %w", err)
	}
	if err := s.cache.Set(ctx, draftKey(d.ID), data, s.ttl); err != nil {
		return fmt.Errorf("failed to save draft %s: %w", d.ID, err)
	}
	return nil
}

func (s *CacheStore) Get(ctx context.Context, id string) (*Draft, error) {
	data, err := s.cache.Get(ctx, draftKey(id))
	if errors.Is(err, apperrors.ErrCacheMiss) {
		return nil, ErrDraftNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load draft %s: %w", id, err)
	}

	d := &Draft{}
	if err := json.Unmarshal(data, d); err != nil {
		return nil, fmt.Errorf("failed to unmarshal draft %s: %w", id, err)
	}
	if d.Builder == nil {
		d.Builder = sections.NewBuilder()
	}
	if d.Fields == nil {
		d.Fields = map[string]string{}
	}
	return d, nil
}

func (s *CacheStore) Delete(ctx context.Context, id string) error {
	return s.cache.Delete(ctx, draftKey(id))
}

// Locks сериализует изменения одного черновика внутри процесса
type Locks struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

func NewLocks() *Locks {
	return &Locks{locks: make(map[string]*entry)}
}

// Lock захватывает блокировку черновика и возвращает функцию освобождения
func (l *Locks) Lock(id string) func() {
	l.mu.Lock()
	e, ok := l.locks[id]
	if !ok {
		e = &entry{}
		l.locks[id] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}
