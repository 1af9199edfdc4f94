package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/athebyme/travel-admin/pkg/interfaces"
	"github.com/athebyme/travel-admin/pkg/models"
	"github.com/athebyme/travel-admin/pkg/reqctx"
)

func TestKeycloakRolesMergeRealmAndClient(t *testing.T) {
	k := &KeycloakClient{clientID: "travel-admin"}

	var claims KeycloakClaims
	claims.RealmAccess.Roles = []string{"offline_access", "staff"}
	claims.ResourceAccess = map[string]struct {
		Roles []string `json:"roles"`
	}{
		"travel-admin": {Roles: []string{"admin"}},
		"other-app":    {Roles: []string{"customer"}},
	}

	roles := k.roles(&claims)
	if want := []string{"offline_access", "staff", "admin"}; !reflect.DeepEqual(roles, want) {
		t.Errorf("roles = %v, want %v", roles, want)
	}
	if got := models.HighestRole(roles); got != models.RoleAdmin {
		t.Errorf("HighestRole = %q", got)
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "", false},
		{"Bearer", "", false},
		{"Bearer ", "", false},
		{"Basic dXNlcg==", "", false},
	}

	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", tt.header)
		got, ok := BearerToken(r)
		if got != tt.want || ok != tt.ok {
			t.Errorf("BearerToken(%q) = %q, %v", tt.header, got, ok)
		}
	}
}

type stubValidator map[string]*models.Principal

func (s stubValidator) ValidateToken(_ context.Context, token string) (*models.Principal, error) {
	if p, ok := s[token]; ok {
		return p, nil
	}
	return nil, errors.New("unknown token")
}

type nopLogger struct{ interfaces.LoggerPort }

func (nopLogger) WarnWithContext(context.Context, string, ...interface{}) {}

func TestAuthMiddlewareChain(t *testing.T) {
	validator := stubValidator{
		"staff":    {UserID: "u1", Role: models.RoleStaff},
		"customer": {UserID: "u2", Role: models.RoleCustomer},
	}

	var seen *models.Principal
	handler := AuthMiddleware(validator, nopLogger{})(
		RequireAnyRole(models.RoleAdmin, models.RoleStaff)(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen, _ = reqctx.PrincipalFrom(r.Context())
				if tok := reqctx.Token(r.Context()); tok != "staff" {
					t.Errorf("token in context = %q", tok)
				}
			})))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"malformed", "Token staff", http.StatusUnauthorized},
		{"invalid", "Bearer nope", http.StatusUnauthorized},
		{"wrong role", "Bearer customer", http.StatusForbidden},
		{"staff", "Bearer staff", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, r)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusOK && (seen == nil || seen.UserID != "u1") {
				t.Errorf("principal = %+v", seen)
			}
		})
	}
}
