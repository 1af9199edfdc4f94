package handlers

import (
	"net/http"

	"github.com/athebyme/travel-admin/internal/domain/services"
	"github.com/athebyme/travel-admin/internal/infrastructure/postgres"
	"github.com/athebyme/travel-admin/pkg/interfaces"
	"github.com/athebyme/travel-admin/pkg/utils"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// SubmissionHandler обработчик журнала отправок
type SubmissionHandler struct {
	audit  *services.AuditService
	logger interfaces.LoggerPort
}

func NewSubmissionHandler(audit *services.AuditService, logger interfaces.LoggerPort) *SubmissionHandler {
	return &SubmissionHandler{audit: audit, logger: logger}
}

// ListSubmissions godoc
// @Summary Журнал отправок контента
// @Tags submissions
// @Produce json
// @Param page query int false "Номер страницы"
// @Param page_size query int false "Размер страницы"
// @Param resource query string false "Ресурс"
// @Param entity_id query string false "ID сущности"
// @Success 200 {object} response
// @Router /submissions [get]
func (h *SubmissionHandler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pagination := utils.PaginationFromQuery(q)
	filter := postgres.SubmissionFilter{
		Resource: q.Get("resource"),
		EntityID: q.Get("entity_id"),
	}

	records, err := h.audit.ListSubmissions(r.Context(), filter, pagination)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, response{
		Success: true,
		Data:    records,
		Meta: map[string]interface{}{
			"pagination": pagination,
		},
	})
}

// GetSubmission godoc
// @Summary Запись журнала
// @Tags submissions
// @Produce json
// @Param id path string true "ID записи"
// @Success 200 {object} response
// @Failure 404 {object} errorResponse
// @Router /submissions/{id} [get]
func (h *SubmissionHandler) GetSubmission(w http.ResponseWriter, r *http.Request) {
	record, err := h.audit.GetSubmission(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	respond(w, r, http.StatusOK, record)
}
