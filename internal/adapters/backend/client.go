// Package backend клиент REST-бэкенда туристической платформы.
// Токен оператора из контекста запроса пробрасывается в каждый вызов.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/athebyme/travel-admin/pkg/interfaces"
	"github.com/athebyme/travel-admin/pkg/reqctx"
)

const maxErrorBody = 4 << 10

// APIError ответ бэкенда с кодом ошибки; Message передается оператору как есть
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend responded %d: %s", e.Status, e.Message)
}

// IsNotFound true для ответа 404
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Options настройки клиента
type Options struct {
	BaseURL string
	Timeout time.Duration
	// MethodOverride передает обновления как POST ...?_method=PUT
	MethodOverride bool
}

type Client struct {
	baseURL        *url.URL
	httpClient     *http.Client
	methodOverride bool
	logger         interfaces.LoggerPort
}

func NewClient(opts Options, logger interfaces.LoggerPort) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("backend base URL is empty")
	}
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid backend base URL: %w", err)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	return &Client{
		baseURL:        base,
		httpClient:     &http.Client{Timeout: opts.Timeout},
		methodOverride: opts.MethodOverride,
		logger:         logger,
	}, nil
}

// File бинарная часть multipart-формы
type File struct {
	Field       string
	FileName    string
	ContentType string
	Data        []byte
}

// Form multipart-форма: текстовые поля и файлы
type Form struct {
	Fields map[string]string
	Files  []File
}

// GetJSON выполняет GET и декодирует тело ответа в out
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

// PostMultipart создает сущность
func (c *Client) PostMultipart(ctx context.Context, path string, form Form, out any) error {
	return c.sendMultipart(ctx, http.MethodPost, path, nil, form, out)
}

// PutMultipart обновляет сущность. Если бэкенд принимает multipart только
// в POST, запрос туннелируется как POST path?_method=PUT.
func (c *Client) PutMultipart(ctx context.Context, path string, form Form, out any) error {
	if c.methodOverride {
		return c.sendMultipart(ctx, http.MethodPost, path, url.Values{"_method": {"PUT"}}, form, out)
	}
	return c.sendMultipart(ctx, http.MethodPut, path, nil, form, out)
}

func (c *Client) sendMultipart(ctx context.Context, method, path string, query url.Values, form Form, out any) error {
	body, contentType, err := encodeForm(form)
	if err != nil {
		return fmt.Errorf("failed to encode form: %w", err)
	}

	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	u := *c.baseURL
	u.Path = c.baseURL.Path + "/" + strings.TrimLeft(path, "/")
	if query != nil {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if token := reqctx.Token(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if id := reqctx.RequestID(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	c.logger.DebugWithContext(req.Context(), "Запрос к бэкенду",
		interfaces.LogField{Key: "method", Value: req.Method},
		interfaces.LogField{Key: "path", Value: req.URL.Path},
		interfaces.LogField{Key: "status", Value: resp.StatusCode},
		interfaces.LogField{Key: "duration_ms", Value: time.Since(start).Milliseconds()},
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Message: errorMessage(resp.Body)}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to decode %s %s response: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

// errorMessage достает текст ошибки из JSON {"message"} или {"error"},
// иначе возвращает тело целиком
func errorMessage(body io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(body, maxErrorBody))
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &payload) == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return strings.TrimSpace(string(raw))
}

func encodeForm(form Form) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(form.Fields))
	for k := range form.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := w.WriteField(k, form.Fields[k]); err != nil {
			return nil, "", err
		}
	}

	for _, f := range form.Files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			escapeQuotes(f.Field), escapeQuotes(f.FileName)))
		ct := f.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)

		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
