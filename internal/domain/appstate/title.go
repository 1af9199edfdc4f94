// Package appstate содержит явное состояние приложения, которое раньше жило
// в глобальных хранилищах клиента: текущий заголовок страницы пользователя.
package appstate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	apperrors "github.com/athebyme/travel-admin/pkg/errors"
	"github.com/athebyme/travel-admin/pkg/interfaces"
)

// TitleStore хранит текущий заголовок страницы; последняя запись побеждает
type TitleStore interface {
	SetTitle(ctx context.Context, userID, title string) error
	// Title возвращает пустую строку, если заголовок еще не установлен
	Title(ctx context.Context, userID string) (string, error)
}

// MemoryTitleStore хранит заголовки в памяти процесса
type MemoryTitleStore struct {
	mu     sync.RWMutex
	titles map[string]string
}

func NewMemoryTitleStore() *MemoryTitleStore {
	return &MemoryTitleStore{titles: make(map[string]string)}
}

func (s *MemoryTitleStore) SetTitle(_ context.Context, userID, title string) error {
	s.mu.Lock()
	s.titles[userID] = title
	s.mu.Unlock()
	return nil
}

func (s *MemoryTitleStore) Title(_ context.Context, userID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.titles[userID], nil
}

// CacheTitleStore хранит заголовки в кэше с ограниченным сроком жизни
type CacheTitleStore struct {
	cache interfaces.CachePort
	ttl   time.Duration
}

func NewCacheTitleStore(cache interfaces.CachePort, ttl time.Duration) *CacheTitleStore {
	return &CacheTitleStore{cache: cache, ttl: ttl}
}

func titleKey(userID string) string {
	return "title:" + userID
}

func (s *CacheTitleStore) SetTitle(ctx context.Context, userID, title string) error {
	if err := s.cache.Set(ctx, titleKey(userID), []byte(title), s.ttl); err != nil {
		return fmt.Errorf("ошибка сохранения заголовка: %w", err)
	}
	return nil
}

func (s *CacheTitleStore) Title(ctx context.Context, userID string) (string, error) {
	val, err := s.cache.Get(ctx, titleKey(userID))
	if err != nil {
		if errors.Is(err, apperrors.ErrCacheMiss) {
			return "", nil
		}
		return "", fmt.Errorf("ошибка чтения заголовка: %w", err)
	}
	return string(val), nil
}
