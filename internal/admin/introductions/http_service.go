package introductions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/mkshin96/portfolio/internal/admin/observability"
)

const collectionPath = "/api/introductions"

var tracer = otel.Tracer("github.com/mkshin96/portfolio/internal/admin/introductions")

// HTTPClient matches the subset of http.Client used by HTTPService.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// HTTPService implements Service against the portfolio backend REST API.
type HTTPService struct {
	base   *url.URL
	client HTTPClient
}

// NewHTTPService constructs a Service that talks to {baseURL}/api/introductions.
func NewHTTPService(baseURL string, client HTTPClient) (*HTTPService, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("introductions: base URL is required")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("introductions: parse base URL: %w", err)
	}
	if !strings.HasSuffix(parsed.Path, "/") {
		parsed.Path += "/"
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPService{
		base:   parsed,
		client: client,
	}, nil
}

// List fetches a page of entries. The backend pages are 0-based.
func (s *HTTPService) List(ctx context.Context, token string, query ListQuery) (result ListResult, err error) {
	ctx, span := startSpan(ctx, "list")
	defer func() { endSpan(span, err) }()

	query = query.Normalize()
	params := url.Values{}
	params.Set("page", strconv.Itoa(query.Page-1))
	params.Set("size", strconv.Itoa(query.PageSize))

	req, err := s.newRequest(ctx, http.MethodGet, collectionPath+"?"+params.Encode(), nil, token)
	if err != nil {
		return ListResult{}, err
	}
	resp, err := s.do(req)
	if err != nil {
		return ListResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ListResult{}, s.errorFromResponse(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ListResult{}, fmt.Errorf("introductions: read list: %w", err)
	}
	result, err = decodeList(body, query)
	if err != nil {
		return ListResult{}, err
	}
	span.SetAttributes(attribute.Int("introductions.count", len(result.Entries)))
	return result, nil
}

// Get fetches one entry.
func (s *HTTPService) Get(ctx context.Context, token string, id ID) (entry Entry, err error) {
	ctx, span := startSpan(ctx, "get", attribute.String("introductions.id", id.String()))
	defer func() { endSpan(span, err) }()

	if err := id.Validate(); err != nil {
		return Entry{}, err
	}
	req, err := s.newRequest(ctx, http.MethodGet, entryPath(id), nil, token)
	if err != nil {
		return Entry{}, err
	}
	resp, err := s.do(req)
	if err != nil {
		return Entry{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Entry{}, s.errorFromResponse(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(&entry); err != nil {
		return Entry{}, fmt.Errorf("introductions: decode entry: %w", err)
	}
	if entry.ID.IsZero() {
		entry.ID = id
	}
	return entry, nil
}

// Create posts a new entry and returns it with the backend-assigned identifier.
func (s *HTTPService) Create(ctx context.Context, token string, entry Entry) (created Entry, err error) {
	ctx, span := startSpan(ctx, "create")
	defer func() { endSpan(span, err) }()

	entry.ID = ""
	req, err := s.newJSONRequest(ctx, http.MethodPost, collectionPath, entry, token)
	if err != nil {
		return Entry{}, err
	}
	resp, err := s.do(req)
	if err != nil {
		return Entry{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Entry{}, s.errorFromResponse(resp)
	}

	created, ok := entryFromBody(ctx, resp.Body, "create")
	if !ok {
		created = entry
	}
	if created.ID.IsZero() {
		created.ID = idFromLocation(resp.Header.Get("Location"))
	}
	return created, nil
}

// Update replaces the whole record addressed by entry.ID.
func (s *HTTPService) Update(ctx context.Context, token string, entry Entry) (updated Entry, err error) {
	ctx, span := startSpan(ctx, "update", attribute.String("introductions.id", entry.ID.String()))
	defer func() { endSpan(span, err) }()

	if err := entry.ID.Validate(); err != nil {
		return Entry{}, err
	}
	req, err := s.newJSONRequest(ctx, http.MethodPut, entryPath(entry.ID), entry, token)
	if err != nil {
		return Entry{}, err
	}
	resp, err := s.do(req)
	if err != nil {
		return Entry{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Entry{}, s.errorFromResponse(resp)
	}

	// Whole-record replace: the sent entry is the new state unless the backend echoes one.
	updated, ok := entryFromBody(ctx, resp.Body, "update")
	if !ok {
		updated = entry
	}
	updated.ID = entry.ID
	return updated, nil
}

// Delete removes the entry.
func (s *HTTPService) Delete(ctx context.Context, token string, id ID) (err error) {
	ctx, span := startSpan(ctx, "delete", attribute.String("introductions.id", id.String()))
	defer func() { endSpan(span, err) }()

	if err := id.Validate(); err != nil {
		return err
	}
	req, err := s.newRequest(ctx, http.MethodDelete, entryPath(id), nil, token)
	if err != nil {
		return err
	}
	resp, err := s.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return s.errorFromResponse(resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// entryPath addresses one entry. Callers validate id first, so it is never a dot segment.
func entryPath(id ID) string {
	return collectionPath + "/" + url.PathEscape(strings.TrimSpace(id.String()))
}

func idFromLocation(location string) ID {
	location = strings.TrimSpace(location)
	if location == "" {
		return ""
	}
	if u, err := url.Parse(location); err == nil {
		location = u.Path
	}
	return ID(path.Base(strings.TrimRight(location, "/")))
}

// entryFromBody reads a success body and reports whether it carried an entry. Backends may answer
// with plain text, an empty body or a links-only resource; those are logged and ignored.
func entryFromBody(ctx context.Context, r io.Reader, op string) (Entry, bool) {
	logger := observability.FromContext(ctx)
	body, err := io.ReadAll(io.LimitReader(r, 1<<20))
	if err != nil {
		logger.Debug("introductions: read response body", zap.String("op", op), zap.Error(err))
		return Entry{}, false
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return Entry{}, false
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		logger.Debug("introductions: non-entry response body", zap.String("op", op), zap.ByteString("body", truncate(body, 256)))
		return Entry{}, false
	}
	if _, ok := fields["introductionTitle"]; !ok {
		logger.Debug("introductions: response body has no entry fields", zap.String("op", op), zap.ByteString("body", truncate(body, 256)))
		return Entry{}, false
	}
	var entry Entry
	if err := json.Unmarshal(body, &entry); err != nil {
		logger.Debug("introductions: undecodable entry body", zap.String("op", op), zap.Error(err))
		return Entry{}, false
	}
	return entry, true
}

func truncate(b []byte, n int) []byte {
	if len(b) > n {
		return b[:n]
	}
	return b
}

type pageMetadata struct {
	Size          int `json:"size"`
	TotalElements int `json:"totalElements"`
	TotalPages    int `json:"totalPages"`
	Number        int `json:"number"`
}

type pagedPayload struct {
	Embedded map[string][]Entry `json:"_embedded"`
	Content  []Entry            `json:"content"`
	Page     *pageMetadata      `json:"page"`
}

func decodeList(body []byte, query ListQuery) (ListResult, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ListResult{Page: query.Page, PageSize: query.PageSize}, nil
	}

	if body[0] == '[' {
		var entries []Entry
		if err := json.Unmarshal(body, &entries); err != nil {
			return ListResult{}, fmt.Errorf("introductions: decode list: %w", err)
		}
		return ListResult{
			Entries:    entries,
			Page:       query.Page,
			PageSize:   query.PageSize,
			TotalItems: len(entries),
			TotalPages: 1,
		}, nil
	}

	var payload pagedPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return ListResult{}, fmt.Errorf("introductions: decode list: %w", err)
	}

	entries := payload.Content
	for _, items := range payload.Embedded {
		entries = append(entries, items...)
	}

	result := ListResult{
		Entries:    entries,
		Page:       query.Page,
		PageSize:   query.PageSize,
		TotalItems: len(entries),
		TotalPages: 1,
	}
	if payload.Page != nil {
		result.Page = payload.Page.Number + 1
		if payload.Page.Size > 0 {
			result.PageSize = payload.Page.Size
		}
		result.TotalItems = payload.Page.TotalElements
		result.TotalPages = payload.Page.TotalPages
	}
	return result, nil
}

func (s *HTTPService) do(req *http.Request) (*http.Response, error) {
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("introductions: request failed: %w", err)
	}
	return resp, nil
}

func (s *HTTPService) newRequest(ctx context.Context, method, endpoint string, body io.Reader, token string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, s.resolve(endpoint), body)
	if err != nil {
		return nil, fmt.Errorf("introductions: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func (s *HTTPService) newJSONRequest(ctx context.Context, method, endpoint string, payload any, token string) (*http.Request, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return nil, fmt.Errorf("introductions: encode payload: %w", err)
	}
	req, err := s.newRequest(ctx, method, endpoint, &buf, token)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (s *HTTPService) resolve(endpoint string) string {
	trimmed := strings.TrimPrefix(endpoint, "/")
	ref, err := url.Parse(trimmed)
	if err != nil {
		ref = &url.URL{Path: trimmed}
	}
	return s.base.ResolveReference(ref).String()
}

func (s *HTTPService) errorFromResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	_ = resp.Body.Close()

	type errorPayload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	be := &BackendError{Status: resp.StatusCode}
	if len(body) > 0 {
		var payload errorPayload
		if err := json.Unmarshal(body, &payload); err == nil && (payload.Message != "" || payload.Error != "") {
			be.Code = strings.TrimSpace(payload.Code)
			be.Message = payload.Message
			if be.Message == "" {
				be.Message = payload.Error
			}
			return be
		}
		be.Message = strings.TrimSpace(string(body))
	}
	return be
}

func startSpan(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, "introductions.http."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
