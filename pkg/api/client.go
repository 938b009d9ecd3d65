package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	booterrors "github.com/starrain-dev/botctl/internal/errors"
)

const (
	// DefaultTimeout bounds every general control call.
	DefaultTimeout = 15 * time.Second

	// LoginTimeout bounds the login exchange. Login is latency-sensitive:
	// the dashboard blocks on it, so it fails fast.
	LoginTimeout = 5 * time.Second

	// maxResponseBody caps how much of a response we will read. Control
	// responses are small; anything bigger is misbehavior.
	maxResponseBody = 4 << 20
)

// Client issues authenticated request/response exchanges against the
// controller. It holds at most one bearer credential at a time; the
// credential is cleared automatically when the controller rejects it.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
	tracer  trace.Tracer

	timeout      time.Duration
	loginTimeout time.Duration

	mu         sync.RWMutex
	credential string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTracer enables OpenTelemetry spans around every call.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Client) {
		c.tracer = tracer
	}
}

// WithTimeout overrides the general call deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLoginTimeout overrides the login call deadline.
func WithLoginTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.loginTimeout = d
	}
}

// New creates a Client for the controller at baseURL (e.g.
// "http://127.0.0.1:8080"). The credential starts empty; call SetCredential
// after Login, or restore a cached one.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		http:         &http.Client{},
		logger:       slog.Default(),
		timeout:      DefaultTimeout,
		loginTimeout: LoginTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the controller base URL the client was created with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetCredential stores a bearer credential for subsequent calls.
func (c *Client) SetCredential(token string) {
	c.mu.Lock()
	c.credential = token
	c.mu.Unlock()
}

// Credential returns the currently held bearer credential, or "" if none.
func (c *Client) Credential() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.credential
}

// ClearCredential drops the held credential. Called automatically on an
// unauthorized response; callers must log in again to resume.
func (c *Client) ClearCredential() {
	c.mu.Lock()
	c.credential = ""
	c.mu.Unlock()
}

// apiEnvelope is the controller's common response wrapper.
type apiEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// call performs one bounded request/response exchange. The response body is
// decoded into out when the call succeeds; a malformed or empty body leaves
// out at its zero value rather than failing the call, so callers that only
// check specific fields degrade gracefully.
func (c *Client) call(ctx context.Context, method, path string, body, out any, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if c.tracer != nil {
		var span trace.Span
		ctx, span = c.tracer.Start(ctx, "api.call",
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				attribute.String("botctl.endpoint", path),
				attribute.String("botctl.method", method),
			),
		)
		defer span.End()
		err := c.doCall(ctx, method, path, body, out)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		return err
	}

	return c.doCall(ctx, method, path, body, out)
}

func (c *Client) doCall(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return booterrors.New(booterrors.CodeNetwork).WithCause(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Credential(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			c.logger.Warn("request timed out", "method", method, "path", path)
			return booterrors.New(booterrors.CodeTimeout).WithCause(err)
		}
		c.logger.Warn("request failed", "method", method, "path", path, "error", err)
		return booterrors.New(booterrors.CodeNetwork).WithCause(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return booterrors.New(booterrors.CodeTimeout).WithCause(err)
		}
		return booterrors.New(booterrors.CodeNetwork).WithCause(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.classifyFailure(resp.StatusCode, raw, method, path)
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			// Tolerated: callers see the zero value and check the fields
			// they need.
			c.logger.Debug("response body not decodable", "path", path, "error", err)
		}
	}
	return nil
}

// classifyFailure maps a non-success HTTP status to the error vocabulary.
// 401 carries the credential-invalidation side effect.
func (c *Client) classifyFailure(status int, raw []byte, method, path string) error {
	var env apiEnvelope
	_ = json.Unmarshal(raw, &env)
	detail := env.Error
	if detail == "" {
		detail = env.Message
	}

	switch status {
	case http.StatusUnauthorized:
		c.ClearCredential()
		c.logger.Info("credential rejected by controller", "path", path)
		return booterrors.New(booterrors.CodeUnauthorized).WithDetail(detail)
	case http.StatusTooManyRequests:
		return booterrors.New(booterrors.CodeRateLimited).WithDetail(detail)
	default:
		c.logger.Warn("controller error", "method", method, "path", path, "status", status, "error", detail)
		return booterrors.New(booterrors.CodeServer).WithDetail(detail)
	}
}

// IsTimeout reports whether err is a deadline failure.
func IsTimeout(err error) bool { return booterrors.Is(err, booterrors.CodeTimeout) }

// IsUnauthorized reports whether err is an authorization failure.
func IsUnauthorized(err error) bool { return booterrors.Is(err, booterrors.CodeUnauthorized) }

// IsRateLimited reports whether err is a rate-limit failure.
func IsRateLimited(err error) bool { return booterrors.Is(err, booterrors.CodeRateLimited) }

// IsNetwork reports whether err is a transport-level failure.
func IsNetwork(err error) bool { return booterrors.Is(err, booterrors.CodeNetwork) }

// IsServerError reports whether err is a controller-reported failure.
func IsServerError(err error) bool { return booterrors.Is(err, booterrors.CodeServer) }
