package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/athebyme/travel-admin/internal/adapters/backend"
	"github.com/athebyme/travel-admin/internal/adapters/messaging"
	"github.com/athebyme/travel-admin/internal/domain/drafts"
	"github.com/athebyme/travel-admin/internal/domain/models"
	"github.com/athebyme/travel-admin/internal/domain/sections"
	"github.com/athebyme/travel-admin/pkg/interfaces"
	pkgmodels "github.com/athebyme/travel-admin/pkg/models"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// requiredFields поля верхнего уровня, без которых отправка невозможна
var requiredFields = []string{"name"}

// sectionsField часть формы с JSON-массивом разделов
const sectionsField = "sections"

// ContentBackend операции REST-бэкенда, нужные сервису контента
type ContentBackend interface {
	GetEntity(ctx context.Context, resource, id string) (*models.Destination, error)
	ListMedia(ctx context.Context, resource, id string) ([]models.Media, error)
	Create(ctx context.Context, resource string, form backend.Form) (string, error)
	Update(ctx context.Context, resource, id string, form backend.Form) error
}

// ContentOptions настройки сервиса контента
type ContentOptions struct {
	Policy    sections.Policy
	Resources []string
}

// ContentService ведет черновики форм разделов и отправляет их в бэкенд
type ContentService struct {
	drafts    drafts.Store
	locks     *drafts.Locks
	backend   ContentBackend
	messaging interfaces.MessagingPort
	policy    sections.Policy
	resources map[string]struct{}
	logger    interfaces.LoggerPort
	now       func() time.Time
}

// NewContentService создает сервис. messaging может быть nil, тогда события не публикуются.
func NewContentService(
	store drafts.Store,
	api ContentBackend,
	messagingPort interfaces.MessagingPort,
	opts ContentOptions,
	logger interfaces.LoggerPort,
) *ContentService {
	resources := make(map[string]struct{}, len(opts.Resources))
	for _, r := range opts.Resources {
		resources[r] = struct{}{}
	}
	if len(resources) == 0 {
		resources["destinations"] = struct{}{}
	}

	return &ContentService{
		drafts:    store,
		locks:     drafts.NewLocks(),
		backend:   api,
		messaging: messagingPort,
		policy:    opts.Policy,
		resources: resources,
		logger:    logger.WithField("component", "content"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// StartDraft открывает черновик. Без entityID форма пустая (создание),
// иначе сущность и ее файлы загружаются из бэкенда параллельно.
func (s *ContentService) StartDraft(ctx context.Context, p *pkgmodels.Principal, resource, entityID string) (*drafts.Draft, error) {
	if _, ok := s.resources[resource]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownResource, resource)
	}

	now := s.now()
	d := &drafts.Draft{
		ID:        uuid.New().String(),
		Resource:  resource,
		EntityID:  entityID,
		OwnerID:   p.UserID,
		Fields:    map[string]string{},
		Builder:   sections.NewBuilder(),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if entityID != "" {
		var (
			entity *models.Destination
			media  []models.Media
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			entity, err = s.backend.GetEntity(gctx, resource, entityID)
			return err
		})
		g.Go(func() error {
			var err error
			media, err = s.backend.ListMedia(gctx, resource, entityID)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}

		b, err := sections.Load(entity.Sections, media)
		if err != nil {
			return nil, fmt.Errorf("failed to load sections of %s %s: %w", resource, entityID, err)
		}
		d.Builder = b
		for k, v := range entity.Fields {
			if k == sectionsField {
				continue
			}
			d.Fields[k] = v
		}
		if entity.Name != "" {
			d.Fields["name"] = entity.Name
		}
	}

	if err := s.drafts.Save(ctx, d); err != nil {
		return nil, err
	}

	s.logger.InfoWithContext(ctx, "Черновик создан",
		interfaces.LogField{Key: "draft_id", Value: d.ID},
		interfaces.LogField{Key: "resource", Value: resource},
		interfaces.LogField{Key: "entity_id", Value: entityID})
	draftOperations.WithLabelValues("start").Inc()
	return d, nil
}

// GetDraft возвращает черновик владельца
func (s *ContentService) GetDraft(ctx context.Context, p *pkgmodels.Principal, id string) (*drafts.Draft, error) {
	return s.load(ctx, p, id)
}

// DiscardDraft удаляет черновик без отправки
func (s *ContentService) DiscardDraft(ctx context.Context, p *pkgmodels.Principal, id string) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	if _, err := s.load(ctx, p, id); err != nil {
		return err
	}
	draftOperations.WithLabelValues("discard").Inc()
	return s.drafts.Delete(ctx, id)
}

// Edit применяет изменение к черновику и сохраняет его.
// Если fn вернула ошибку, черновик не сохраняется.
func (s *ContentService) Edit(ctx context.Context, p *pkgmodels.Principal, id string, fn func(d *drafts.Draft) error) (*drafts.Draft, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	d, err := s.load(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if err := fn(d); err != nil {
		return nil, err
	}

	d.UpdatedAt = s.now()
	if err := s.drafts.Save(ctx, d); err != nil {
		return nil, err
	}
	draftOperations.WithLabelValues("edit").Inc()
	return d, nil
}

// UpdateFields сливает поля верхнего уровня; пустое значение удаляет поле
func (s *ContentService) UpdateFields(ctx context.Context, p *pkgmodels.Principal, id string, fields map[string]string) (*drafts.Draft, error) {
	return s.Edit(ctx, p, id, func(d *drafts.Draft) error {
		if _, ok := fields[sectionsField]; ok {
			return ErrReservedField
		}
		for k, v := range fields {
			if v == "" {
				delete(d.Fields, k)
				continue
			}
			d.Fields[k] = v
		}
		return nil
	})
}

// Payload сериализует черновик без отправки
func (s *ContentService) Payload(ctx context.Context, p *pkgmodels.Principal, id string) (*sections.Payload, error) {
	d, err := s.load(ctx, p, id)
	if err != nil {
		return nil, err
	}
	return d.Builder.Serialize(s.policy)
}

// SubmitResult итог отправки черновика
type SubmitResult struct {
	EntityID string           `json:"entity_id"`
	Created  bool             `json:"created"`
	Sections []models.Section `json:"sections"`
}

// Submit отправляет черновик в бэкенд multipart-формой.
// При ошибке черновик сохраняется, чтобы оператор мог повторить отправку.
func (s *ContentService) Submit(ctx context.Context, p *pkgmodels.Principal, id string) (*SubmitResult, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	d, err := s.load(ctx, p, id)
	if err != nil {
		return nil, err
	}

	for _, field := range requiredFields {
		if strings.TrimSpace(d.Fields[field]) == "" {
			return nil, &RequiredFieldError{Field: field}
		}
	}

	payload, err := d.Builder.Serialize(s.policy)
	if err != nil {
		return nil, err
	}
	form, err := buildForm(d, payload)
	if err != nil {
		return nil, err
	}

	result := &SubmitResult{EntityID: d.EntityID, Sections: payload.Sections}
	if d.IsEdit() {
		err = s.backend.Update(ctx, d.Resource, d.EntityID, form)
	} else {
		result.EntityID, err = s.backend.Create(ctx, d.Resource, form)
		result.Created = true
	}
	if err != nil {
		submissions.WithLabelValues(d.Resource, "failed").Inc()
		s.logger.WarnWithContext(ctx, "Отправка черновика не удалась",
			interfaces.LogField{Key: "draft_id", Value: d.ID},
			interfaces.LogField{Key: "error", Value: err.Error()})
		return nil, err
	}
	submissions.WithLabelValues(d.Resource, "ok").Inc()

	s.publish(ctx, p, d, result)

	if err := s.drafts.Delete(ctx, d.ID); err != nil {
		s.logger.WarnWithContext(ctx, "Не удалось удалить отправленный черновик",
			interfaces.LogField{Key: "draft_id", Value: d.ID},
			interfaces.LogField{Key: "error", Value: err.Error()})
	}

	s.logger.InfoWithContext(ctx, "Черновик отправлен",
		interfaces.LogField{Key: "draft_id", Value: d.ID},
		interfaces.LogField{Key: "entity_id", Value: result.EntityID},
		interfaces.LogField{Key: "sections", Value: len(payload.Sections)},
		interfaces.LogField{Key: "attachments", Value: len(payload.Attachments)})
	return result, nil
}

// publish отправляет событие в журнал. Сбой публикации не отменяет
// уже выполненную отправку в бэкенд.
func (s *ContentService) publish(ctx context.Context, p *pkgmodels.Principal, d *drafts.Draft, result *SubmitResult) {
	if s.messaging == nil {
		return
	}

	eventType := messaging.DestinationUpdatedEvent
	if result.Created {
		eventType = messaging.DestinationCreatedEvent
	}
	event := models.ContentEvent{
		EventID:    uuid.New().String(),
		EventType:  eventType,
		Resource:   d.Resource,
		EntityID:   result.EntityID,
		DraftID:    d.ID,
		ChangedBy:  p.UserID,
		Sections:   result.Sections,
		OccurredAt: s.now(),
	}

	data, err := messaging.EncodeContentEvent(event)
	if err == nil {
		err = s.messaging.PublishWithKey(ctx, messaging.ContentEventsTopic, result.EntityID, data)
	}
	if err != nil {
		s.logger.ErrorWithContext(ctx, "Не удалось опубликовать событие контента",
			interfaces.LogField{Key: "event_type", Value: eventType},
			interfaces.LogField{Key: "entity_id", Value: result.EntityID},
			interfaces.LogField{Key: "error", Value: err.Error()})
	}
}

func (s *ContentService) load(ctx context.Context, p *pkgmodels.Principal, id string) (*drafts.Draft, error) {
	d, err := s.drafts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.OwnerID != p.UserID {
		return nil, ErrForbidden
	}
	return d, nil
}

// buildForm собирает multipart-форму: поля верхнего уровня, JSON разделов и файлы
func buildForm(d *drafts.Draft, payload *sections.Payload) (backend.Form, error) {
	sectionsJSON, err := payload.SectionsJSON()
	if err != nil {
		return backend.Form{}, fmt.Errorf("failed to encode sections: %w", err)
	}

	fields := make(map[string]string, len(d.Fields)+1)
	for k, v := range d.Fields {
		fields[k] = v
	}
	if _, ok := fields[sectionsField]; ok {
		return backend.Form{}, ErrReservedField
	}
	fields[sectionsField] = string(sectionsJSON)

	files := make([]backend.File, 0, len(payload.Attachments))
	for _, a := range payload.Attachments {
		files = append(files, backend.File{
			Field:       a.Field,
			FileName:    a.FileName,
			ContentType: a.ContentType,
			Data:        a.Data,
		})
	}

	return backend.Form{Fields: fields, Files: files}, nil
}
