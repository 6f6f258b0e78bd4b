package testutil

import (
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

// Client drives the admin server like an English-language browser running htmx: it keeps cookies,
// follows no redirects, and echoes the CSRF token from the page shell.
type Client struct {
	t     testing.TB
	srv   *httptest.Server
	http  *http.Client
	token string
	csrf  string
}

// Response is a completed request with its body read.
type Response struct {
	*http.Response
	Body []byte
}

// NewClient returns a client authenticating with token.
func NewClient(t testing.TB, srv *httptest.Server, token string) *Client {
	t.Helper()

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &Client{
		t:   t,
		srv: srv,
		http: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		token: token,
	}
}

// Bootstrap loads a full page and remembers the CSRF token it carries.
func (c *Client) Bootstrap(path string) *Response {
	c.t.Helper()

	resp := c.Get(path, false)
	if resp.StatusCode != http.StatusOK {
		c.t.Fatalf("bootstrap %s: status %d", path, resp.StatusCode)
	}
	doc := ParseHTML(c.t, resp.Body)
	c.csrf = doc.Find(`meta[name="csrf-token"]`).AttrOr("content", "")
	if c.csrf == "" {
		c.t.Fatalf("bootstrap %s: no csrf token", path)
	}
	return resp
}

// CSRF returns the remembered token.
func (c *Client) CSRF() string { return c.csrf }

// Get issues a GET, optionally as an htmx request.
func (c *Client) Get(path string, htmx bool) *Response {
	c.t.Helper()
	return c.Do(http.MethodGet, path, nil, htmx)
}

// Do issues a request. form is sent url-encoded for methods with a body.
func (c *Client) Do(method, path string, form url.Values, htmx bool) *Response {
	c.t.Helper()

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequest(method, c.srv.URL+path, body)
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("Accept-Language", "en")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	if c.csrf != "" {
		req.Header.Set("X-CSRF-Token", c.csrf)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		c.t.Fatalf("read body: %v", err)
	}
	return &Response{Response: resp, Body: payload}
}
