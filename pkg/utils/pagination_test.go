package utils

import (
	"net/url"
	"testing"
)

func TestNewPaginationNormalizes(t *testing.T) {
	tests := []struct {
		page, size         int
		wantPage, wantSize int
	}{
		{0, 0, 1, defaultPageSize},
		{-3, 10, 1, 10},
		{2, 500, 2, maxPageSize},
		{4, 25, 4, 25},
	}

	for _, tt := range tests {
		p := NewPagination(tt.page, tt.size)
		if p.Page != tt.wantPage || p.PageSize != tt.wantSize {
			t.Errorf("NewPagination(%d, %d) = page %d size %d, want page %d size %d",
				tt.page, tt.size, p.Page, p.PageSize, tt.wantPage, tt.wantSize)
		}
	}
}

func TestSetTotal(t *testing.T) {
	p := NewPagination(2, 10)
	p.SetTotal(25)

	if p.TotalPages != 3 {
		t.Errorf("TotalPages = %d, want 3", p.TotalPages)
	}
	if !p.HasNext || !p.HasPrev {
		t.Errorf("HasNext=%v HasPrev=%v, want both true", p.HasNext, p.HasPrev)
	}
	if p.Offset() != 10 || p.Limit() != 10 {
		t.Errorf("Offset=%d Limit=%d, want 10 10", p.Offset(), p.Limit())
	}
}

func TestPaginationFromQuery(t *testing.T) {
	q := url.Values{"page": {"3"}, "page_size": {"abc"}}
	p := PaginationFromQuery(q)

	if p.Page != 3 || p.PageSize != defaultPageSize {
		t.Errorf("got page %d size %d, want 3 %d", p.Page, p.PageSize, defaultPageSize)
	}
}
