package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

const (
	DefaultBaseURL = "http://localhost:8080/api/v1"
	DefaultTimeout = 30 * time.Second

	maxResponseBody = 10 << 20
)

// SessionHolder is the view of the session the HTTP envelope needs
type SessionHolder interface {
	Token() string
	Logout(ctx context.Context)
}

// Request describes a call to the backend
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	// Anonymous requests carry no bearer token and a 401 means the
	// credentials were rejected, not that the session ended.
	Anonymous bool
}

// errorBody is the backend error payload
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Client sends JSON requests to the backend, attaching the session token
// and reacting to failures on behalf of every caller.
type Client struct {
	baseURL       string
	http          *http.Client
	session       SessionHolder
	navigator     Navigator
	notifier      Notifier
	loginPath     string
	redirectParam string
	logger        Logger
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithNavigator sets the navigator used to send the user to login
func WithNavigator(nav Navigator) ClientOption {
	return func(c *Client) {
		c.navigator = nav
	}
}

// WithNotifier sets where user facing notices go
func WithNotifier(n Notifier) ClientOption {
	return func(c *Client) {
		if n != nil {
			c.notifier = n
		}
	}
}

// WithClientLogger sets the client logger
func WithClientLogger(logger Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClientLoggerProvider takes the client logger from provider
func WithClientLoggerProvider(provider LoggerProvider) ClientOption {
	return func(c *Client) {
		_, c.logger = ResolveLogger(LoggerNameClient, provider, c.logger)
	}
}

// NewClient creates a client for the backend described by cfg. A nil cfg
// uses the defaults.
func NewClient(cfg Config, session SessionHolder, opts ...ClientOption) (*Client, error) {
	baseURL := DefaultBaseURL
	timeout := DefaultTimeout
	loginPath := DefaultLoginPath
	redirectParam := DefaultRedirectParam

	if cfg != nil {
		if v := cfg.GetBaseURL(); v != "" {
			baseURL = v
		}
		if v := cfg.GetTimeout(); v > 0 {
			timeout = v
		}
		if v := cfg.GetLoginPath(); v != "" {
			loginPath = cleanPath(v)
		}
		if v := cfg.GetRedirectParam(); v != "" {
			redirectParam = v
		}
	}

	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", baseURL)
	}

	c := &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		http:          &http.Client{Timeout: timeout},
		session:       session,
		notifier:      nopNotifier{},
		loginPath:     loginPath,
		redirectParam: redirectParam,
		logger:        defLogger{},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// BaseURL returns the API root
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get sends a GET request and decodes the response into out
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Send(ctx, Request{Method: http.MethodGet, Path: path}, out)
}

// Post sends body as JSON and decodes the response into out
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Send(ctx, Request{Method: http.MethodPost, Path: path, Body: body}, out)
}

// Put sends body as JSON and decodes the response into out
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Send(ctx, Request{Method: http.MethodPut, Path: path, Body: body}, out)
}

// Delete sends a DELETE request
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Send(ctx, Request{Method: http.MethodDelete, Path: path}, nil)
}

// Send performs req. Failures are reported to the user and, for a rejected
// token, end the session; the error is always returned to the caller too.
func (c *Client) Send(ctx context.Context, req Request, out any) error {
	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		err = goerrors.Wrap(err, goerrors.CategoryBadInput, "request setup").
			WithTextCode(TextCodeRequestSetup).
			WithMetadata(map[string]any{"method": req.Method, "path": req.Path})
		c.logger.Error("Request setup error", "method", req.Method, "path", req.Path, "error", err)
		c.notify(Notice{Kind: NoticeRequestSetup, Message: MessageRequestSetup})
		return err
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err = goerrors.Wrap(err, goerrors.CategoryExternal, req.Method+" "+req.Path).
			WithTextCode(TextCodeNetworkError)
		c.logger.Error("Network error", "method", req.Method, "path", req.Path, "error", err)
		c.notify(Notice{Kind: NoticeNetwork, Message: MessageNetwork})
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		err = goerrors.Wrap(err, goerrors.CategoryExternal, "read "+req.Method+" "+req.Path+" response").
			WithTextCode(TextCodeNetworkError)
		c.notify(Notice{Kind: NoticeNetwork, Message: MessageNetwork})
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload := parseErrorBody(body)
		c.handleFailure(ctx, req, resp.StatusCode, payload)
		return newResponseError(req.Method, req.Path, resp.StatusCode, payload.Code, payload.Message)
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	if err := json.Unmarshal(body, out); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryExternal, "decode "+req.Method+" "+req.Path+" response")
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, req Request) (*http.Request, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	if req.Path != "" && req.Path[0] != '/' {
		return nil, fmt.Errorf("path %q must start with /", req.Path)
	}

	target, err := url.Parse(c.baseURL + req.Path)
	if err != nil {
		return nil, fmt.Errorf("build url: %w", err)
	}
	if len(req.Query) > 0 {
		q := target.Query()
		for k, vs := range req.Query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		target.RawQuery = q.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		raw, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	if !req.Anonymous && c.session != nil {
		if token := c.session.Token(); token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}

	return httpReq, nil
}

func (c *Client) handleFailure(ctx context.Context, req Request, status int, payload errorBody) {
	c.logger.Info("Request failed",
		"method", req.Method,
		"path", req.Path,
		"status", status,
		"code", payload.Code,
	)

	switch status {
	case http.StatusUnauthorized:
		if req.Anonymous {
			c.notify(Notice{
				Kind:    NoticeInvalidCredentials,
				Message: orDefault(payload.Message, MessageInvalidCredentials),
				Status:  status,
			})
			return
		}
		c.handleUnauthorized(ctx, status)
	case http.StatusForbidden:
		c.notify(Notice{Kind: NoticeForbidden, Message: MessageForbidden, Status: status})
	case http.StatusNotFound:
		c.notify(Notice{Kind: NoticeNotFound, Message: MessageNotFound, Status: status})
	case http.StatusUnprocessableEntity:
		c.notify(Notice{
			Kind:    NoticeValidation,
			Message: orDefault(payload.Message, MessageValidation),
			Status:  status,
		})
	case http.StatusInternalServerError:
		c.notify(Notice{Kind: NoticeServerError, Message: MessageServerError, Status: status})
	default:
		c.notify(Notice{
			Kind:    NoticeRequestFailed,
			Message: orDefault(payload.Message, MessageRequestFailed),
			Status:  status,
		})
	}
}

// handleUnauthorized ends the session and sends the user to login, keeping
// the current location as the resume target.
func (c *Client) handleUnauthorized(ctx context.Context, status int) {
	if c.session != nil {
		c.session.Logout(ctx)
	}

	c.notify(Notice{Kind: NoticeSessionExpired, Message: MessageSessionExpired, Status: status})

	if c.navigator == nil {
		return
	}

	current := c.navigator.CurrentPath()
	loc, err := ParseLocation(current)
	if err == nil && cleanPath(loc.Path) == c.loginPath {
		return
	}

	to := withQuery(c.loginPath, c.redirectParam, current)
	if err := c.navigator.Push(ctx, to); err != nil {
		c.logger.Error("Redirect to login failed", "to", to.FullPath(), "error", err)
	}
}

func (c *Client) notify(n Notice) {
	c.notifier.Notify(n)
}

func parseErrorBody(body []byte) errorBody {
	var payload errorBody
	if len(body) > 0 && json.Unmarshal(body, &payload) != nil {
		return errorBody{}
	}
	return payload
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
