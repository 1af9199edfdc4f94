package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/athebyme/travel-admin/internal/adapters/logger"
	"github.com/athebyme/travel-admin/internal/domain/permissions"
	"github.com/athebyme/travel-admin/pkg/models"
	"github.com/athebyme/travel-admin/pkg/reqctx"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRequirePermission(t *testing.T) {
	table := permissions.DefaultTable()
	tests := []struct {
		name      string
		principal *models.Principal
		action    permissions.Action
		want      int
	}{
		{"anonymous", nil, permissions.DestinationWrite, http.StatusUnauthorized},
		{"staff allowed", &models.Principal{Role: models.RoleStaff}, permissions.DestinationWrite, http.StatusOK},
		{"staff denied", &models.Principal{Role: models.RoleStaff}, permissions.AuditRead, http.StatusForbidden},
		{"admin wildcard", &models.Principal{Role: models.RoleAdmin}, permissions.AuditRead, http.StatusOK},
		{"customer denied", &models.Principal{Role: models.RoleCustomer}, permissions.DashboardRead, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.principal != nil {
				req = req.WithContext(reqctx.WithPrincipal(req.Context(), tt.principal))
			}
			rec := httptest.NewRecorder()
			RequirePermission(table, tt.action)(ok).ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestRequestIDPropagates(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = reqctx.RequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if seen != "abc" || rec.Header().Get("X-Request-ID") != "abc" {
		t.Errorf("request id = %q, header = %q", seen, rec.Header().Get("X-Request-ID"))
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == "" || seen == "abc" {
		t.Errorf("generated request id = %q", seen)
	}
}

func TestRateLimiter(t *testing.T) {
	h := RateLimiter(2, time.Hour)(ok)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v", codes)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("other client status = %d", rec.Code)
	}
}

func TestRateLimiterEvictsIdleClients(t *testing.T) {
	limiters := newClientLimiters(2, time.Hour, 30*time.Millisecond, 10*time.Millisecond)
	h := rateLimiter(limiters, time.Hour)(ok)

	for _, addr := range []string{"10.0.0.1:1", "10.0.0.2:1", "10.0.0.3:1"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		h.ServeHTTP(httptest.NewRecorder(), req)
	}
	if n := limiters.len(); n != 3 {
		t.Fatalf("limiters = %d, want 3", n)
	}

	deadline := time.Now().Add(2 * time.Second)
	for limiters.len() > 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if n := limiters.len(); n != 0 {
		t.Errorf("idle limiters left = %d", n)
	}
}

func TestRateLimiterKeepsActiveClient(t *testing.T) {
	limiters := newClientLimiters(1, time.Hour, 80*time.Millisecond, 10*time.Millisecond)

	first := limiters.get("10.0.0.1")
	for i := 0; i < 4; i++ {
		time.Sleep(30 * time.Millisecond)
		if l := limiters.get("10.0.0.1"); l != first {
			t.Fatal("bucket of an active client was replaced")
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	h := CORS([]string{"https://admin.example.com"})(ok)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/drafts", nil)
	req.Header.Set("Origin", "https://admin.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "https://admin.example.com" {
		t.Errorf("allow origin = %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("foreign origin allowed")
	}
}

func TestRecovererRendersError(t *testing.T) {
	h := Recoverer(logger.NewNopLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", rec.Code)
	}
}
