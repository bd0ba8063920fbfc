package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"

	"frontdesk/internal/auth"
	"frontdesk/internal/domain/checkin"
	"frontdesk/internal/idempotency"
)

const maxErrorBody = 1 << 20

// RequestEditorFn is applied to every outgoing request after the default headers are set.
type RequestEditorFn func(ctx context.Context, req *http.Request) error

type BackendClient struct {
	baseURL    *url.URL
	httpClient *http.Client
	auth       auth.Context
	editors    []RequestEditorFn
}

type Option func(*BackendClient)

func WithHTTPClient(c *http.Client) Option {
	return func(b *BackendClient) {
		b.httpClient = c
	}
}

func WithRequestEditor(fn RequestEditorFn) Option {
	return func(b *BackendClient) {
		b.editors = append(b.editors, fn)
	}
}

func NewBackendClient(baseURL string, authCtx auth.Context, timeout time.Duration, opts ...Option) (*BackendClient, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing backend url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("backend url %q must be absolute", baseURL)
	}

	c := &BackendClient{
		baseURL:    u,
		httpClient: &http.Client{Timeout: timeout},
		auth:       authCtx,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// WithAuth returns a copy of the client that sends another bearer token.
func (c *BackendClient) WithAuth(authCtx auth.Context) *BackendClient {
	cp := *c
	cp.auth = authCtx
	return &cp
}

func (c *BackendClient) endpoint(segments ...string) string {
	escaped := make([]string, 0, len(segments))
	for _, s := range segments {
		escaped = append(escaped, url.PathEscape(s))
	}

	return c.baseURL.String() + "/" + strings.Join(escaped, "/")
}

// sameOrigin guards pagination links so the token is never sent to another host.
func (c *BackendClient) sameOrigin(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parsing page url: %w", err)
	}
	if u.Scheme != c.baseURL.Scheme || u.Host != c.baseURL.Host {
		return fmt.Errorf("page url %s is outside %s", raw, c.baseURL.Host)
	}

	return nil
}

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (c *BackendClient) do(ctx context.Context, op, method, rawURL string, mutating bool) (*envelope, error) {
	if c.auth.IsZero() {
		return nil, &APIError{Op: op, Err: checkin.ErrUnauthenticated, Message: "missing bearer token"}
	}

	var body io.Reader
	if mutating {
		body = strings.NewReader("{}")
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("%s: building request: %w", op, err)
	}
	if mutating {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Idempotency-Key", idempotency.GetKey(ctx))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", c.auth.Bearer())
	req.Header.Set("Correlation-ID", log.CorrelationIDFromContext(ctx))

	for _, edit := range c.editors {
		if err := edit(ctx, req); err != nil {
			return nil, fmt.Errorf("%s: editing request: %w", op, err)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%s: %w", op, ctxErr)
		}
		return nil, &APIError{Op: op, Err: checkin.ErrNetwork, Message: err.Error(), cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, newAPIError(op, resp)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil && !errors.Is(err, io.EOF) {
		return nil, &APIError{Op: op, StatusCode: resp.StatusCode, Err: checkin.ErrServer, Message: "malformed response body", cause: err}
	}

	log.FromContext(ctx).
		WithField("op", op).
		WithField("status", resp.StatusCode).
		Debug("Backend call finished")

	return &env, nil
}

func decodeData(op string, env *envelope, out any) error {
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return &APIError{Op: op, StatusCode: http.StatusOK, Err: checkin.ErrNotFound, Message: env.Message}
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &APIError{Op: op, StatusCode: http.StatusOK, Err: checkin.ErrServer, Message: "malformed record", cause: err}
	}

	return nil
}
