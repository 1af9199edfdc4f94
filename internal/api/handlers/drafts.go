package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/athebyme/travel-admin/internal/domain/drafts"
	"github.com/athebyme/travel-admin/internal/domain/markdown"
	"github.com/athebyme/travel-admin/internal/domain/models"
	"github.com/athebyme/travel-admin/internal/domain/sections"
	"github.com/athebyme/travel-admin/internal/domain/services"
	"github.com/athebyme/travel-admin/pkg/interfaces"
	"github.com/go-chi/chi/v5"
)

// DefaultMaxUploadBytes предел размера multipart-запроса с изображениями
const DefaultMaxUploadBytes int64 = 32 << 20

var errNotImage = errors.New("file is not an image")

// DraftHandler обработчик черновиков формы разделов
type DraftHandler struct {
	content        *services.ContentService
	logger         interfaces.LoggerPort
	maxUploadBytes int64
}

func NewDraftHandler(content *services.ContentService, logger interfaces.LoggerPort, maxUploadBytes int64) *DraftHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &DraftHandler{content: content, logger: logger, maxUploadBytes: maxUploadBytes}
}

type startDraftRequest struct {
	Resource string `json:"resource"`
	EntityID string `json:"entity_id"`
}

type introRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type contentRequest struct {
	Content string `json:"content"`
}

type delicaciesRequest struct {
	Intro string `json:"intro"`
}

type highlightRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type dishRequest struct {
	Name string `json:"name"`
}

type previewRequest struct {
	Markdown string `json:"markdown"`
}

type draftResponse struct {
	ID        string            `json:"id"`
	Resource  string            `json:"resource"`
	EntityID  string            `json:"entity_id,omitempty"`
	Mode      string            `json:"mode"`
	Fields    map[string]string `json:"fields"`
	Sections  sections.View     `json:"sections"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

type indexResponse struct {
	Index int           `json:"index"`
	Draft draftResponse `json:"draft"`
}

type attachmentInfo struct {
	Field       string `json:"field"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Size        int    `json:"size"`
}

type payloadResponse struct {
	Sections    []models.Section `json:"sections"`
	Attachments []attachmentInfo `json:"attachments"`
}

func toDraftResponse(d *drafts.Draft) draftResponse {
	mode := "create"
	if d.IsEdit() {
		mode = "edit"
	}
	return draftResponse{
		ID:        d.ID,
		Resource:  d.Resource,
		EntityID:  d.EntityID,
		Mode:      mode,
		Fields:    d.Fields,
		Sections:  d.Builder.View(),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// StartDraft godoc
// @Summary Открыть черновик создания или редактирования
// @Tags drafts
// @Accept json
// @Produce json
// @Success 201 {object} response
// @Failure 400 {object} errorResponse
// @Router /drafts [post]
func (h *DraftHandler) StartDraft(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req startDraftRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Resource == "" {
		req.Resource = "destinations"
	}

	d, err := h.content.StartDraft(r.Context(), p, req.Resource, req.EntityID)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	respond(w, r, http.StatusCreated, toDraftResponse(d))
}

// GetDraft godoc
// @Summary Получить черновик
// @Tags drafts
// @Produce json
// @Param id path string true "ID черновика"
// @Success 200 {object} response
// @Failure 404 {object} errorResponse
// @Router /drafts/{id} [get]
func (h *DraftHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	d, err := h.content.GetDraft(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	respond(w, r, http.StatusOK, toDraftResponse(d))
}

// DiscardDraft godoc
// @Summary Удалить черновик без отправки
// @Tags drafts
// @Param id path string true "ID черновика"
// @Success 204
// @Router /drafts/{id} [delete]
func (h *DraftHandler) DiscardDraft(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	if err := h.content.DiscardDraft(r.Context(), p, chi.URLParam(r, "id")); err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateFields godoc
// @Summary Изменить поля верхнего уровня; пустое значение удаляет поле
// @Tags drafts
// @Accept json
// @Produce json
// @Param id path string true "ID черновика"
// @Success 200 {object} response
// @Router /drafts/{id}/fields [put]
func (h *DraftHandler) UpdateFields(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var fields map[string]string
	if !decode(w, r, &fields) {
		return
	}

	d, err := h.content.UpdateFields(r.Context(), p, chi.URLParam(r, "id"), fields)
	h.draft(w, r, d, err)
}

// SetIntro godoc
// @Summary Изменить вступление
// @Tags drafts
// @Accept json
// @Param id path string true "ID черновика"
// @Success 200 {object} response
// @Router /drafts/{id}/intro [put]
func (h *DraftHandler) SetIntro(w http.ResponseWriter, r *http.Request) {
	var req introRequest
	if !decode(w, r, &req) {
		return
	}
	h.edit(w, r, func(d *drafts.Draft) error {
		d.Builder.SetIntro(req.Title, req.Content)
		return nil
	})
}

// SetExperience godoc
// @Summary Изменить раздел впечатлений
// @Tags drafts
// @Accept json
// @Param id path string true "ID черновика"
// @Success 200 {object} response
// @Router /drafts/{id}/experience [put]
func (h *DraftHandler) SetExperience(w http.ResponseWriter, r *http.Request) {
	var req contentRequest
	if !decode(w, r, &req) {
		return
	}
	h.edit(w, r, func(d *drafts.Draft) error {
		d.Builder.SetExperience(req.Content)
		return nil
	})
}

// SetDelicaciesIntro godoc
// @Summary Изменить вступление раздела местной кухни
// @Tags drafts
// @Accept json
// @Param id path string true "ID черновика"
// @Success 200 {object} response
// @Router /drafts/{id}/delicacies [put]
func (h *DraftHandler) SetDelicaciesIntro(w http.ResponseWriter, r *http.Request) {
	var req delicaciesRequest
	if !decode(w, r, &req) {
		return
	}
	h.edit(w, r, func(d *drafts.Draft) error {
		d.Builder.SetDelicaciesIntro(req.Intro)
		return nil
	})
}

// AddHighlight godoc
// @Summary Добавить элемент в раздел достопримечательностей
// @Tags drafts
// @Accept json
// @Param id path string true "ID черновика"
// @Success 201 {object} response
// @Router /drafts/{id}/highlights [post]
func (h *DraftHandler) AddHighlight(w http.ResponseWriter, r *http.Request) {
	var req highlightRequest
	if !decodeOptional(w, r, &req) {
		return
	}
	h.add(w, r, func(d *drafts.Draft) (int, error) {
		i := d.Builder.AddHighlight()
		return i, d.Builder.SetHighlight(i, req.Title, req.Description)
	})
}

// SetHighlight godoc
// @Summary Изменить элемент достопримечательностей
// @Tags drafts
// @Accept json
// @Param id path string true "ID черновика"
// @Param index path int true "Индекс элемента"
// @Success 200 {object} response
// @Failure 404 {object} errorResponse
// @Router /drafts/{id}/highlights/{index} [put]
func (h *DraftHandler) SetHighlight(w http.ResponseWriter, r *http.Request) {
	index, ok := indexParam(w, r)
	if !ok {
		return
	}
	var req highlightRequest
	if !decode(w, r, &req) {
		return
	}
	h.edit(w, r, func(d *drafts.Draft) error {
		return d.Builder.SetHighlight(index, req.Title, req.Description)
	})
}

// RemoveHighlight godoc
// @Summary Удалить элемент достопримечательностей
// @Tags drafts
// @Param id path string true "ID черновика"
// @Param index path int true "Индекс элемента"
// @Success 200 {object} response
// @Router /drafts/{id}/highlights/{index} [delete]
func (h *DraftHandler) RemoveHighlight(w http.ResponseWriter, r *http.Request) {
	index, ok := indexParam(w, r)
	if !ok {
		return
	}
	h.edit(w, r, func(d *drafts.Draft) error {
		return d.Builder.RemoveHighlight(index)
	})
}

// AddDish godoc
// @Summary Добавить блюдо
// @Tags drafts
// @Accept json
// @Param id path string true "ID черновика"
// @Success 201 {object} response
// @Router /drafts/{id}/dishes [post]
func (h *DraftHandler) AddDish(w http.ResponseWriter, r *http.Request) {
	var req dishRequest
	if !decodeOptional(w, r, &req) {
		return
	}
	h.add(w, r, func(d *drafts.Draft) (int, error) {
		i := d.Builder.AddDish()
		return i, d.Builder.SetDish(i, req.Name)
	})
}

// SetDish godoc
// @Summary Переименовать блюдо
// @Tags drafts
// @Accept json
// @Param id path string true "ID черновика"
// @Param index path int true "Индекс блюда"
// @Success 200 {object} response
// @Router /drafts/{id}/dishes/{index} [put]
func (h *DraftHandler) SetDish(w http.ResponseWriter, r *http.Request) {
	index, ok := indexParam(w, r)
	if !ok {
		return
	}
	var req dishRequest
	if !decode(w, r, &req) {
		return
	}
	h.edit(w, r, func(d *drafts.Draft) error {
		return d.Builder.SetDish(index, req.Name)
	})
}

// RemoveDish godoc
// @Summary Удалить блюдо вместе с изображением
// @Tags drafts
// @Param id path string true "ID черновика"
// @Param index path int true "Индекс блюда"
// @Success 200 {object} response
// @Router /drafts/{id}/dishes/{index} [delete]
func (h *DraftHandler) RemoveDish(w http.ResponseWriter, r *http.Request) {
	index, ok := indexParam(w, r)
	if !ok {
		return
	}
	h.edit(w, r, func(d *drafts.Draft) error {
		return d.Builder.RemoveDish(index)
	})
}

// SetDishImage godoc
// @Summary Загрузить изображение блюда
// @Tags drafts
// @Accept mpfd
// @Param id path string true "ID черновика"
// @Param index path int true "Индекс блюда"
// @Param file formData file true "Изображение"
// @Success 200 {object} response
// @Router /drafts/{id}/dishes/{index}/image [put]
func (h *DraftHandler) SetDishImage(w http.ResponseWriter, r *http.Request) {
	index, ok := indexParam(w, r)
	if !ok {
		return
	}
	images, ok := h.readImages(w, r)
	if !ok {
		return
	}
	h.edit(w, r, func(d *drafts.Draft) error {
		return d.Builder.SetDishImage(index, images[0])
	})
}

// ClearDishImage godoc
// @Summary Убрать изображение блюда
// @Tags drafts
// @Param id path string true "ID черновика"
// @Param index path int true "Индекс блюда"
// @Success 200 {object} response
// @Router /drafts/{id}/dishes/{index}/image [delete]
func (h *DraftHandler) ClearDishImage(w http.ResponseWriter, r *http.Request) {
	index, ok := indexParam(w, r)
	if !ok {
		return
	}
	h.edit(w, r, func(d *drafts.Draft) error {
		return d.Builder.ClearDishImage(index)
	})
}

// AddGalleryImages godoc
// @Summary Добавить изображения в галерею
// @Tags drafts
// @Accept mpfd
// @Param id path string true "ID черновика"
// @Param file formData file true "Изображения"
// @Success 200 {object} response
// @Router /drafts/{id}/gallery [post]
func (h *DraftHandler) AddGalleryImages(w http.ResponseWriter, r *http.Request) {
	images, ok := h.readImages(w, r)
	if !ok {
		return
	}
	h.edit(w, r, func(d *drafts.Draft) error {
		for _, img := range images {
			if _, err := d.Builder.AddGalleryImage(img); err != nil {
				return err
			}
		}
		return nil
	})
}

// RemoveGalleryImage godoc
// @Summary Удалить изображение галереи
// @Tags drafts
// @Param id path string true "ID черновика"
// @Param index path int true "Индекс изображения"
// @Success 200 {object} response
// @Router /drafts/{id}/gallery/{index} [delete]
func (h *DraftHandler) RemoveGalleryImage(w http.ResponseWriter, r *http.Request) {
	index, ok := indexParam(w, r)
	if !ok {
		return
	}
	h.edit(w, r, func(d *drafts.Draft) error {
		return d.Builder.RemoveGalleryImage(index)
	})
}

// SetLastImage godoc
// @Summary Загрузить завершающее изображение
// @Tags drafts
// @Accept mpfd
// @Param id path string true "ID черновика"
// @Param file formData file true "Изображение"
// @Success 200 {object} response
// @Router /drafts/{id}/last-image [put]
func (h *DraftHandler) SetLastImage(w http.ResponseWriter, r *http.Request) {
	images, ok := h.readImages(w, r)
	if !ok {
		return
	}
	h.edit(w, r, func(d *drafts.Draft) error {
		return d.Builder.SetLastImage(images[0])
	})
}

// ClearLastImage godoc
// @Summary Убрать завершающее изображение
// @Tags drafts
// @Param id path string true "ID черновика"
// @Success 200 {object} response
// @Router /drafts/{id}/last-image [delete]
func (h *DraftHandler) ClearLastImage(w http.ResponseWriter, r *http.Request) {
	h.edit(w, r, func(d *drafts.Draft) error {
		d.Builder.ClearLastImage()
		return nil
	})
}

// Payload godoc
// @Summary Разделы в том виде, в котором они будут отправлены
// @Tags drafts
// @Produce json
// @Param id path string true "ID черновика"
// @Success 200 {object} response
// @Failure 422 {object} errorResponse
// @Router /drafts/{id}/payload [get]
func (h *DraftHandler) Payload(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	payload, err := h.content.Payload(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	resp := payloadResponse{Sections: payload.Sections, Attachments: make([]attachmentInfo, 0, len(payload.Attachments))}
	if payload.Sections == nil {
		resp.Sections = []models.Section{}
	}
	for _, a := range payload.Attachments {
		resp.Attachments = append(resp.Attachments, attachmentInfo{
			Field:       a.Field,
			FileName:    a.FileName,
			ContentType: a.ContentType,
			Size:        len(a.Data),
		})
	}
	respond(w, r, http.StatusOK, resp)
}

// Submit godoc
// @Summary Отправить черновик в бэкенд
// @Tags drafts
// @Produce json
// @Param id path string true "ID черновика"
// @Success 200 {object} response
// @Success 201 {object} response
// @Failure 422 {object} errorResponse
// @Failure 502 {object} errorResponse
// @Router /drafts/{id}/submit [post]
func (h *DraftHandler) Submit(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	result, err := h.content.Submit(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	respond(w, r, status, result)
}

// Preview godoc
// @Summary Предпросмотр markdown
// @Tags content
// @Accept json
// @Produce json
// @Success 200 {object} response
// @Router /content/preview [post]
func (h *DraftHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if !decode(w, r, &req) {
		return
	}

	preview, err := markdown.Render(req.Markdown)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	respond(w, r, http.StatusOK, preview)
}

// edit применяет изменение и отвечает обновленным черновиком
func (h *DraftHandler) edit(w http.ResponseWriter, r *http.Request, fn func(d *drafts.Draft) error) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	d, err := h.content.Edit(r.Context(), p, chi.URLParam(r, "id"), fn)
	h.draft(w, r, d, err)
}

// add добавляет элемент и отвечает его индексом
func (h *DraftHandler) add(w http.ResponseWriter, r *http.Request, fn func(d *drafts.Draft) (int, error)) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var index int
	d, err := h.content.Edit(r.Context(), p, chi.URLParam(r, "id"), func(d *drafts.Draft) error {
		var err error
		index, err = fn(d)
		return err
	})
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	respond(w, r, http.StatusCreated, indexResponse{Index: index, Draft: toDraftResponse(d)})
}

func (h *DraftHandler) draft(w http.ResponseWriter, r *http.Request, d *drafts.Draft, err error) {
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	respond(w, r, http.StatusOK, toDraftResponse(d))
}

// readImages читает файлы из части "file" multipart-формы
func (h *DraftHandler) readImages(w http.ResponseWriter, r *http.Request) ([]sections.ImageRef, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, r, http.StatusRequestEntityTooLarge, "too_large", "Файл слишком большой")
			return nil, false
		}
		respondError(w, r, http.StatusBadRequest, "bad_request", "Ожидается multipart/form-data")
		return nil, false
	}

	headers := r.MultipartForm.File["file"]
	if len(headers) == 0 {
		respondError(w, r, http.StatusBadRequest, "bad_request", `Не передан файл в части "file"`)
		return nil, false
	}

	images := make([]sections.ImageRef, 0, len(headers))
	for _, fh := range headers {
		img, err := readImage(fh)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, "bad_request", err.Error())
			return nil, false
		}
		images = append(images, img)
	}
	return images, true
}

func readImage(fh *multipart.FileHeader) (sections.ImageRef, error) {
	f, err := fh.Open()
	if err != nil {
		return sections.ImageRef{}, fmt.Errorf("failed to open %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return sections.ImageRef{}, fmt.Errorf("failed to read %s: %w", fh.Filename, err)
	}

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return sections.ImageRef{}, fmt.Errorf("%s: %w", fh.Filename, errNotImage)
	}
	return sections.LocalImage(fh.Filename, contentType, data), nil
}

// decodeOptional как decode, но пустое тело допустимо
func decodeOptional(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true
	}
	return decode(w, r, v)
}
