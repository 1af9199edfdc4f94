package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/athebyme/travel-admin/internal/adapters/backend"
	"github.com/athebyme/travel-admin/internal/domain/drafts"
	"github.com/athebyme/travel-admin/internal/domain/sections"
	"github.com/athebyme/travel-admin/internal/domain/services"
	"github.com/athebyme/travel-admin/internal/infrastructure/postgres"
	"github.com/athebyme/travel-admin/pkg/interfaces"
	pkgmodels "github.com/athebyme/travel-admin/pkg/models"
	"github.com/athebyme/travel-admin/pkg/reqctx"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// errorResponse представляет структуру ответа с ошибкой
type errorResponse struct {
	Error   string   `json:"error"`
	Code    int      `json:"code"`
	Message string   `json:"message,omitempty"`
	Fields  []string `json:"fields,omitempty"`
}

// response представляет структуру успешного ответа
type response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

func respond(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	render.Status(r, status)
	render.JSON(w, r, response{Success: true, Data: data})
}

func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	render.Status(r, status)
	render.JSON(w, r, errorResponse{Error: code, Code: status, Message: message})
}

// handleError переводит доменную ошибку в HTTP-ответ.
// Сообщения бэкенда передаются оператору без изменений.
func handleError(w http.ResponseWriter, r *http.Request, logger interfaces.LoggerPort, err error) {
	var (
		apiErr   *backend.APIError
		validErr *sections.ValidationError
		reqErr   *services.RequiredFieldError
	)

	switch {
	case errors.As(err, &apiErr):
		status := apiErr.Status
		code := "backend_error"
		if status < 400 || status >= 500 {
			status = http.StatusBadGateway
		}
		logger.WarnWithContext(r.Context(), "Бэкенд отклонил запрос",
			interfaces.LogField{Key: "status", Value: apiErr.Status},
			interfaces.LogField{Key: "message", Value: apiErr.Message})
		respondError(w, r, status, code, apiErr.Message)

	case errors.As(err, &validErr):
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, errorResponse{
			Error:   "validation_error",
			Code:    http.StatusUnprocessableEntity,
			Message: "Разделы заполнены частично",
			Fields:  validErr.Fields,
		})

	case errors.As(err, &reqErr):
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, errorResponse{
			Error:   "validation_error",
			Code:    http.StatusUnprocessableEntity,
			Message: "Не заполнено обязательное поле",
			Fields:  []string{reqErr.Field},
		})

	case errors.Is(err, drafts.ErrDraftNotFound):
		respondError(w, r, http.StatusNotFound, "not_found", "Черновик не найден")
	case errors.Is(err, postgres.ErrSubmissionNotFound):
		respondError(w, r, http.StatusNotFound, "not_found", "Запись журнала не найдена")
	case errors.Is(err, services.ErrUnknownRoute):
		respondError(w, r, http.StatusNotFound, "not_found", "Страница недоступна")
	case errors.Is(err, sections.ErrIndexOutOfRange):
		respondError(w, r, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, services.ErrForbidden):
		respondError(w, r, http.StatusForbidden, "forbidden", "Черновик принадлежит другому пользователю")
	case errors.Is(err, services.ErrUnknownResource),
		errors.Is(err, services.ErrReservedField),
		errors.Is(err, sections.ErrEmptyImageName):
		respondError(w, r, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, r, http.StatusGatewayTimeout, "timeout", "Бэкенд не ответил вовремя")

	default:
		logger.ErrorWithContext(r.Context(), "Внутренняя ошибка",
			interfaces.LogField{Key: "path", Value: r.URL.Path},
			interfaces.LogField{Key: "error", Value: err.Error()})
		respondError(w, r, http.StatusInternalServerError, "internal_error", "Внутренняя ошибка сервера")
	}
}

// principal пользователь запроса; при его отсутствии пишет 401
func principal(w http.ResponseWriter, r *http.Request) (*pkgmodels.Principal, bool) {
	p, ok := reqctx.PrincipalFrom(r.Context())
	if !ok {
		respondError(w, r, http.StatusUnauthorized, "unauthorized", "Требуется аутентификация")
	}
	return p, ok
}

// indexParam читает индекс элемента из пути
func indexParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		respondError(w, r, http.StatusBadRequest, "bad_request", "Некорректный индекс")
		return 0, false
	}
	return index, true
}

// MaxJSONBodyBytes ограничивает размер JSON-тела запроса
const MaxJSONBodyBytes int64 = 1 << 20

// decode разбирает JSON-тело запроса
func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxJSONBodyBytes)
	if err := render.DecodeJSON(r.Body, v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, r, http.StatusRequestEntityTooLarge, "too_large", "Тело запроса слишком большое")
			return false
		}
		respondError(w, r, http.StatusBadRequest, "bad_request", "Некорректный формат данных")
		return false
	}
	return true
}
