package utils

import (
	"net/url"
	"strconv"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Pagination описывает страницу результата
type Pagination struct {
	Page       int   `json:"page"`        // Номер страницы (начиная с 1)
	PageSize   int   `json:"page_size"`   // Размер страницы
	TotalItems int64 `json:"total_items"` // Общее количество элементов
	TotalPages int   `json:"total_pages"` // Общее количество страниц
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// NewPagination создает пагинацию, нормализуя некорректные значения
func NewPagination(page, pageSize int) *Pagination {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	return &Pagination{
		Page:     page,
		PageSize: pageSize,
	}
}

// PaginationFromQuery читает page и page_size из параметров запроса
func PaginationFromQuery(q url.Values) *Pagination {
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))
	return NewPagination(page, pageSize)
}

// SetTotal устанавливает общее количество элементов и пересчитывает зависимые поля
func (p *Pagination) SetTotal(totalItems int64) {
	p.TotalItems = totalItems
	p.TotalPages = int((totalItems + int64(p.PageSize) - 1) / int64(p.PageSize))
	p.HasNext = p.Page < p.TotalPages
	p.HasPrev = p.Page > 1
}

// Offset возвращает смещение для SQL запроса
func (p *Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Limit возвращает лимит для SQL запроса
func (p *Pagination) Limit() int {
	return p.PageSize
}
