package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/athebyme/travel-admin/internal/adapters/backend"
	"github.com/athebyme/travel-admin/internal/adapters/cache"
	"github.com/athebyme/travel-admin/internal/adapters/logger"
	"github.com/athebyme/travel-admin/internal/domain/appstate"
	"github.com/athebyme/travel-admin/internal/domain/drafts"
	"github.com/athebyme/travel-admin/internal/domain/models"
	"github.com/athebyme/travel-admin/internal/domain/navigation"
	"github.com/athebyme/travel-admin/internal/domain/permissions"
	"github.com/athebyme/travel-admin/internal/domain/sections"
	"github.com/athebyme/travel-admin/internal/domain/services"
	"github.com/athebyme/travel-admin/internal/infrastructure/postgres"
	"github.com/athebyme/travel-admin/internal/security"
	"github.com/athebyme/travel-admin/pkg/interfaces"
	pkgmodels "github.com/athebyme/travel-admin/pkg/models"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

// fakeBackendServer REST-бэкенд, запоминающий принятые формы
type fakeBackendServer struct {
	mu      sync.Mutex
	fields  map[string]string
	files   map[string]string // часть -> имя файла
	fail    bool
	authHdr string
}

func (f *fakeBackendServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.authHdr = r.Header.Get("Authorization")
	if f.fail {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"name taken"}`))
		return
	}
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	f.fields = map[string]string{}
	for k, v := range r.MultipartForm.Value {
		f.fields[k] = v[0]
	}
	f.files = map[string]string{}
	for k, v := range r.MultipartForm.File {
		f.files[k] = v[0].Filename
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"id":"d-1"}`))
}

type emptyRepository struct{}

func (emptyRepository) SaveSubmission(context.Context, *models.SubmissionRecord) error { return nil }
func (emptyRepository) GetSubmission(context.Context, string) (*models.SubmissionRecord, error) {
	return nil, postgres.ErrSubmissionNotFound
}
func (emptyRepository) ListSubmissions(context.Context, postgres.SubmissionFilter, int, int) ([]*models.SubmissionRecord, int64, error) {
	return []*models.SubmissionRecord{}, 0, nil
}
func (emptyRepository) MarkEventProcessed(context.Context, string) (bool, error) { return true, nil }

type directTx struct{}

func (directTx) Do(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }

type testEnv struct {
	server  *httptest.Server
	backend *fakeBackendServer
	jwt     *security.JWTManager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := logger.NewNopLogger()

	fb := &fakeBackendServer{}
	backendSrv := httptest.NewServer(fb)
	t.Cleanup(backendSrv.Close)

	client, err := backend.NewClient(backend.Options{BaseURL: backendSrv.URL, MethodOverride: true}, log)
	if err != nil {
		t.Fatal(err)
	}

	tree, err := navigation.DefaultTree()
	if err != nil {
		t.Fatal(err)
	}
	table := permissions.DefaultTable()

	jwtManager, err := security.NewJWTManager("test-secret", time.Hour, "travel-admin")
	if err != nil {
		t.Fatal(err)
	}

	router := SetupRouter(Dependencies{
		Navigation: services.NewNavigationService(tree, navigation.DefaultRules(),
			appstate.NewMemoryTitleStore(), table, log),
		Content: services.NewContentService(drafts.NewCacheStore(cache.NewMemoryCache(), time.Hour),
			backend.NewContentAPI(client), nil, services.ContentOptions{Policy: sections.PolicyLenient}, log),
		Audit:       services.NewAuditService(emptyRepository{}, directTx{}, log),
		Permissions: table,
		Validator:   jwtManager,
		Logger:      log,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testEnv{server: srv, backend: fb, jwt: jwtManager}
}

func (e *testEnv) token(t *testing.T, role pkgmodels.Role) string {
	t.Helper()
	tok, err := e.jwt.Generate(pkgmodels.Principal{UserID: "user-" + string(role), Role: role})
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
	Fields  []string        `json:"fields"`
}

func (e *testEnv) do(t *testing.T, token, method, path string, body io.Reader, contentType string) (int, envelope) {
	t.Helper()
	req, err := http.NewRequest(method, e.server.URL+path, body)
	if err != nil {
		t.Fatal(err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var env envelope
	raw, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(raw, &env)
	return resp.StatusCode, env
}

func (e *testEnv) json(t *testing.T, token, method, path, body string) (int, envelope) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	return e.do(t, token, method, path, r, "application/json")
}

func (e *testEnv) upload(t *testing.T, token, method, path, fileName string, data []byte) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		t.Fatal(err)
	}
	part.Write(data)
	mw.Close()
	return e.do(t, token, method, path, &buf, mw.FormDataContentType())
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	resp, err := http.Get(env.server.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

type pingStub struct{ err error }

func (p pingStub) Ping(context.Context) error { return p.err }
func (p pingStub) Close() error               { return nil }

func TestReadiness(t *testing.T) {
	tests := []struct {
		name   string
		checks map[string]interfaces.StoragePort
		want   int
	}{
		{"no checks", nil, http.StatusOK},
		{"all up", map[string]interfaces.StoragePort{"cache": cache.NewMemoryCache(), "postgres": pingStub{}}, http.StatusOK},
		{"postgres down", map[string]interfaces.StoragePort{"cache": cache.NewMemoryCache(), "postgres": pingStub{err: errors.New("refused")}}, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			readiness(tt.checks, logger.NewNopLogger())(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestAuthentication(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{"no token", "", http.StatusUnauthorized},
		{"garbage token", "not-a-jwt", http.StatusUnauthorized},
		{"customer", env.token(t, pkgmodels.RoleCustomer), http.StatusForbidden},
		{"staff", env.token(t, pkgmodels.RoleStaff), http.StatusOK},
		{"admin", env.token(t, pkgmodels.RoleAdmin), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if status, _ := env.json(t, tt.token, http.MethodGet, "/api/v1/navigation", ""); status != tt.want {
				t.Errorf("status = %d, want %d", status, tt.want)
			}
		})
	}
}

func TestNavigationForStaff(t *testing.T) {
	env := newTestEnv(t)
	staff := env.token(t, pkgmodels.RoleStaff)

	status, resp := env.json(t, staff, http.MethodGet, "/api/v1/navigation", "")
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if bytes.Contains(resp.Data, []byte(navigation.KeyEmployeeList)) {
		t.Error("staff menu contains employee list")
	}
	if !bytes.Contains(resp.Data, []byte(navigation.KeyCustomerList)) {
		t.Error("staff menu lacks customer list")
	}

	if status, _ := env.json(t, staff, http.MethodPut, "/api/v1/navigation/current",
		`{"path":"`+navigation.KeyEmployeeList+`"}`); status != http.StatusNotFound {
		t.Errorf("hidden route selection status = %d", status)
	}

	status, resp = env.json(t, staff, http.MethodPut, "/api/v1/navigation/current", `{"path":"/dashboard"}`)
	if status != http.StatusOK || !bytes.Contains(resp.Data, []byte(`"title":"Dashboard"`)) {
		t.Fatalf("select status = %d, data = %s", status, resp.Data)
	}

	_, resp = env.json(t, staff, http.MethodGet, "/api/v1/navigation/current", "")
	if !bytes.Contains(resp.Data, []byte(`"title":"Dashboard"`)) {
		t.Errorf("current title = %s", resp.Data)
	}

	if status, _ := env.json(t, staff, http.MethodGet, "/api/v1/navigation/title?path=/nowhere", ""); status != http.StatusNotFound {
		t.Errorf("unknown path status = %d", status)
	}
}

func TestSubmissionsRequireAuditRead(t *testing.T) {
	env := newTestEnv(t)

	if status, _ := env.json(t, env.token(t, pkgmodels.RoleStaff), http.MethodGet, "/api/v1/submissions", ""); status != http.StatusForbidden {
		t.Errorf("staff status = %d, want 403", status)
	}
	status, resp := env.json(t, env.token(t, pkgmodels.RoleAdmin), http.MethodGet, "/api/v1/submissions?page=1", "")
	if status != http.StatusOK || !resp.Success {
		t.Errorf("admin status = %d", status)
	}
}

func startDraft(t *testing.T, env *testEnv, token string) string {
	t.Helper()
	status, resp := env.json(t, token, http.MethodPost, "/api/v1/drafts", `{}`)
	if status != http.StatusCreated {
		t.Fatalf("start draft status = %d (%s)", status, resp.Message)
	}
	var d struct {
		ID   string `json:"id"`
		Mode string `json:"mode"`
	}
	if err := json.Unmarshal(resp.Data, &d); err != nil {
		t.Fatal(err)
	}
	if d.Mode != "create" {
		t.Errorf("mode = %q", d.Mode)
	}
	return d.ID
}

func TestDraftSubmitFlow(t *testing.T) {
	env := newTestEnv(t)
	staff := env.token(t, pkgmodels.RoleStaff)
	id := startDraft(t, env, staff)
	base := "/api/v1/drafts/" + id

	steps := []struct {
		method, path, body string
		want               int
	}{
		{http.MethodPut, base + "/fields", `{"name":"Samarkand"}`, http.StatusOK},
		{http.MethodPut, base + "/intro", `{"title":"Welcome","content":"**Hi**"}`, http.StatusOK},
		{http.MethodPost, base + "/highlights", `{"title":"Registan","description":"Square"}`, http.StatusCreated},
		{http.MethodPost, base + "/highlights", ``, http.StatusCreated},
		{http.MethodPost, base + "/dishes", `{"name":"Plov"}`, http.StatusCreated},
	}
	for _, s := range steps {
		if status, resp := env.json(t, staff, s.method, s.path, s.body); status != s.want {
			t.Fatalf("%s %s: status = %d (%s)", s.method, s.path, status, resp.Message)
		}
	}

	if status, resp := env.upload(t, staff, http.MethodPut, base+"/dishes/0/image", "plov.png", pngBytes); status != http.StatusOK {
		t.Fatalf("dish image status = %d (%s)", status, resp.Message)
	}

	status, resp := env.json(t, staff, http.MethodGet, base+"/payload", "")
	if status != http.StatusOK {
		t.Fatalf("payload status = %d", status)
	}
	var payload struct {
		Sections    []models.Section `json:"sections"`
		Attachments []struct {
			Field    string `json:"field"`
			FileName string `json:"file_name"`
		} `json:"attachments"`
	}
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatal(err)
	}
	if len(payload.Sections) != 3 {
		t.Errorf("sections = %d, want 3", len(payload.Sections))
	}
	if len(payload.Attachments) != 1 || payload.Attachments[0].Field != sections.PartDelicacies {
		t.Errorf("attachments = %+v", payload.Attachments)
	}

	status, resp = env.json(t, staff, http.MethodPost, base+"/submit", "")
	if status != http.StatusCreated {
		t.Fatalf("submit status = %d (%s)", status, resp.Message)
	}
	if !bytes.Contains(resp.Data, []byte(`"entity_id":"d-1"`)) {
		t.Errorf("submit data = %s", resp.Data)
	}

	env.backend.mu.Lock()
	defer env.backend.mu.Unlock()
	want := `[{"type":"intro","title":"Welcome","content":"**Hi**"},` +
		`{"type":"highlight","content":[{"title":"Registan","description":"Square"}]},` +
		`{"type":"regionalDelicacies","content":{"intro":"","dishes":[{"name":"Plov","image":"plov.png"}]}}]`
	if env.backend.fields["sections"] != want {
		t.Errorf("sections = %s\nwant %s", env.backend.fields["sections"], want)
	}
	if env.backend.fields["name"] != "Samarkand" {
		t.Errorf("name = %q", env.backend.fields["name"])
	}
	if env.backend.files[sections.PartDelicacies] != "plov.png" {
		t.Errorf("files = %v", env.backend.files)
	}
	if env.backend.authHdr != "Bearer "+staff {
		t.Errorf("backend Authorization = %q", env.backend.authHdr)
	}
}

func TestDraftGoneAfterSubmit(t *testing.T) {
	env := newTestEnv(t)
	staff := env.token(t, pkgmodels.RoleStaff)
	id := startDraft(t, env, staff)

	env.json(t, staff, http.MethodPut, "/api/v1/drafts/"+id+"/fields", `{"name":"Bukhara"}`)
	if status, _ := env.json(t, staff, http.MethodPost, "/api/v1/drafts/"+id+"/submit", ""); status != http.StatusCreated {
		t.Fatalf("submit status = %d", status)
	}
	if status, _ := env.json(t, staff, http.MethodGet, "/api/v1/drafts/"+id, ""); status != http.StatusNotFound {
		t.Errorf("draft after submit status = %d, want 404", status)
	}
}

func TestSubmitErrors(t *testing.T) {
	env := newTestEnv(t)
	staff := env.token(t, pkgmodels.RoleStaff)
	id := startDraft(t, env, staff)
	base := "/api/v1/drafts/" + id

	status, resp := env.json(t, staff, http.MethodPost, base+"/submit", "")
	if status != http.StatusUnprocessableEntity || len(resp.Fields) != 1 || resp.Fields[0] != "name" {
		t.Errorf("missing name: status = %d, fields = %v", status, resp.Fields)
	}

	env.json(t, staff, http.MethodPut, base+"/fields", `{"name":"Khiva"}`)
	env.backend.mu.Lock()
	env.backend.fail = true
	env.backend.mu.Unlock()

	status, resp = env.json(t, staff, http.MethodPost, base+"/submit", "")
	if status != http.StatusUnprocessableEntity || resp.Message != "name taken" {
		t.Errorf("backend failure: status = %d, message = %q", status, resp.Message)
	}
	if status, _ := env.json(t, staff, http.MethodGet, base, ""); status != http.StatusOK {
		t.Errorf("draft lost after failed submit: status = %d", status)
	}
}

func TestDraftRequestValidation(t *testing.T) {
	env := newTestEnv(t)
	staff := env.token(t, pkgmodels.RoleStaff)
	id := startDraft(t, env, staff)
	base := "/api/v1/drafts/" + id

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"index out of range", http.MethodPut, base + "/highlights/5", `{"title":"x"}`, http.StatusNotFound},
		{"bad index", http.MethodDelete, base + "/highlights/abc", "", http.StatusBadRequest},
		{"reserved field", http.MethodPut, base + "/fields", `{"sections":"[]"}`, http.StatusBadRequest},
		{"malformed json", http.MethodPut, base + "/intro", `{`, http.StatusBadRequest},
		{"unknown draft", http.MethodGet, "/api/v1/drafts/missing", "", http.StatusNotFound},
		{"unknown resource", http.MethodPost, "/api/v1/drafts", `{"resource":"bookings"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if status, _ := env.json(t, staff, tt.method, tt.path, tt.body); status != tt.want {
				t.Errorf("status = %d, want %d", status, tt.want)
			}
		})
	}

	if status, _ := env.upload(t, staff, http.MethodPut, base+"/last-image", "notes.txt", []byte("plain text")); status != http.StatusBadRequest {
		t.Errorf("non-image upload status = %d", status)
	}
}

func TestDraftOwnership(t *testing.T) {
	env := newTestEnv(t)
	id := startDraft(t, env, env.token(t, pkgmodels.RoleStaff))

	if status, _ := env.json(t, env.token(t, pkgmodels.RoleAdmin), http.MethodGet, "/api/v1/drafts/"+id, ""); status != http.StatusForbidden {
		t.Errorf("foreign draft status = %d, want 403", status)
	}
}

func TestPreview(t *testing.T) {
	env := newTestEnv(t)
	status, resp := env.json(t, env.token(t, pkgmodels.RoleStaff), http.MethodPost, "/api/v1/content/preview", `{"markdown":"# Samarkand"}`)
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	var preview struct {
		HTML     string   `json:"html"`
		Headings []string `json:"headings"`
	}
	if err := json.Unmarshal(resp.Data, &preview); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(preview.HTML, "<h1") || len(preview.Headings) != 1 || preview.Headings[0] != "Samarkand" {
		t.Errorf("preview = %+v", preview)
	}
}
