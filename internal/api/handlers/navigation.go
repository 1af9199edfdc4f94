package handlers

import (
	"net/http"

	"github.com/athebyme/travel-admin/internal/domain/services"
	"github.com/athebyme/travel-admin/pkg/interfaces"
)

// NavigationHandler обработчик меню и заголовка текущей страницы
type NavigationHandler struct {
	navigation *services.NavigationService
	logger     interfaces.LoggerPort
}

func NewNavigationHandler(navigation *services.NavigationService, logger interfaces.LoggerPort) *NavigationHandler {
	return &NavigationHandler{navigation: navigation, logger: logger}
}

type titleResponse struct {
	Path  string `json:"path,omitempty"`
	Title string `json:"title"`
}

type selectPageRequest struct {
	Path string `json:"path"`
}

// Menu godoc
// @Summary Меню для роли пользователя
// @Tags navigation
// @Produce json
// @Success 200 {object} response
// @Router /navigation [get]
func (h *NavigationHandler) Menu(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	respond(w, r, http.StatusOK, h.navigation.Menu(p))
}

// Title godoc
// @Summary Заголовок страницы по пути
// @Tags navigation
// @Param path query string true "Путь страницы"
// @Produce json
// @Success 200 {object} response
// @Failure 404 {object} errorResponse
// @Router /navigation/title [get]
func (h *NavigationHandler) Title(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	path := r.URL.Query().Get("path")
	if path == "" {
		respondError(w, r, http.StatusBadRequest, "bad_request", "Не указан путь")
		return
	}

	title, found := h.navigation.ResolveTitle(p, path)
	if !found {
		respondError(w, r, http.StatusNotFound, "not_found", "Страница недоступна")
		return
	}
	respond(w, r, http.StatusOK, titleResponse{Path: path, Title: title})
}

// SelectPage godoc
// @Summary Выбор пункта меню
// @Tags navigation
// @Accept json
// @Produce json
// @Success 200 {object} response
// @Failure 404 {object} errorResponse
// @Router /navigation/current [put]
func (h *NavigationHandler) SelectPage(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req selectPageRequest
	if !decode(w, r, &req) {
		return
	}

	title, err := h.navigation.SelectPage(r.Context(), p, req.Path)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	respond(w, r, http.StatusOK, titleResponse{Path: req.Path, Title: title})
}

// CurrentTitle godoc
// @Summary Заголовок текущей страницы
// @Tags navigation
// @Produce json
// @Success 200 {object} response
// @Router /navigation/current [get]
func (h *NavigationHandler) CurrentTitle(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	title, err := h.navigation.CurrentTitle(r.Context(), p)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	respond(w, r, http.StatusOK, titleResponse{Title: title})
}

// Permissions godoc
// @Summary Действия, доступные роли
// @Tags navigation
// @Produce json
// @Success 200 {object} response
// @Router /permissions [get]
func (h *NavigationHandler) Permissions(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	respond(w, r, http.StatusOK, map[string]interface{}{
		"role":    p.Role,
		"actions": h.navigation.Permissions(p),
	})
}
