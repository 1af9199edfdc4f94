package backend

import (
	"context"
	"fmt"
	"net/url"

	"github.com/athebyme/travel-admin/internal/domain/models"
)

// ContentAPI операции бэкенда над сущностями с разделами контента
type ContentAPI struct {
	client *Client
}

func NewContentAPI(client *Client) *ContentAPI {
	return &ContentAPI{client: client}
}

func entityPath(resource, id string) string {
	return "/" + url.PathEscape(resource) + "/" + url.PathEscape(id)
}

// GetEntity загружает сущность вместе с сохраненными разделами
func (a *ContentAPI) GetEntity(ctx context.Context, resource, id string) (*models.Destination, error) {
	var out models.Destination
	if err := a.client.GetJSON(ctx, entityPath(resource, id), &out); err != nil {
		return nil, fmt.Errorf("get %s %s: %w", resource, id, err)
	}
	return &out, nil
}

// ListMedia загружает имена и URL файлов сущности
func (a *ContentAPI) ListMedia(ctx context.Context, resource, id string) ([]models.Media, error) {
	var out []models.Media
	if err := a.client.GetJSON(ctx, entityPath(resource, id)+"/media", &out); err != nil {
		return nil, fmt.Errorf("list media of %s %s: %w", resource, id, err)
	}
	return out, nil
}

type createdResponse struct {
	ID string `json:"id"`
}

// Create создает сущность и возвращает ее ID
func (a *ContentAPI) Create(ctx context.Context, resource string, form Form) (string, error) {
	var out createdResponse
	if err := a.client.PostMultipart(ctx, "/"+url.PathEscape(resource), form, &out); err != nil {
		return "", fmt.Errorf("create %s: %w", resource, err)
	}
	return out.ID, nil
}

// Update обновляет существующую сущность
func (a *ContentAPI) Update(ctx context.Context, resource, id string, form Form) error {
	if err := a.client.PutMultipart(ctx, entityPath(resource, id), form, nil); err != nil {
		return fmt.Errorf("update %s %s: %w", resource, id, err)
	}
	return nil
}
