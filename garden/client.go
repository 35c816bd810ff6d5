package garden

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	garderrors "github.com/jrsteele09/cactus-garden/internal/errors"
	"github.com/jrsteele09/cactus-garden/internal/utils"
	"github.com/jrsteele09/cactus-garden/retry"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Doer sends a request. *session.Manager satisfies it for staff calls and a plain
// *http.Client for the public mirrors.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Scope selects the staff resources or their public read-only mirrors.
type Scope string

const (
	Staff  Scope = "/api/staff"
	Public Scope = "/api/public"
)

// Client talks to one scope of the garden API.
type Client struct {
	baseURL string
	scope   Scope
	doer    Doer
	policy  retry.Policy
	log     zerolog.Logger
}

// ClientOption defines a function type to modify the Client instance.
type ClientOption func(*Client)

// WithRetryPolicy sets the policy applied to idempotent requests.
func WithRetryPolicy(p retry.Policy) ClientOption {
	return func(c *Client) {
		c.policy = p
	}
}

// WithLogger sets the logger used for retried requests.
func WithLogger(log zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// NewClient creates a Client for scope on the API rooted at baseURL, sending
// requests through doer.
func NewClient(baseURL string, scope Scope, doer Doer, options ...ClientOption) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("[garden NewClient] baseURL is required")
	}
	if doer == nil {
		return nil, errors.New("[garden NewClient] doer is required")
	}
	if scope != Staff && scope != Public {
		return nil, errors.Errorf("[garden NewClient] unknown scope %q", scope)
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		scope:   scope,
		doer:    doer,
		policy:  retry.None(),
		log:     zerolog.Nop(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

func (c *Client) Scope() Scope {
	return c.scope
}

func (c *Client) requireStaff(op string) error {
	if c.scope != Staff {
		return errors.Wrapf(garderrors.ErrUnsupported, "[%s] public scope is read-only", op)
	}
	return nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.baseURL + string(c.scope) + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// do performs one API call. Idempotent methods go through the retry policy; POST is
// sent once so a transport failure never duplicates a create.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body []byte
	if in != nil {
		var err error
		if body, err = json.Marshal(in); err != nil {
			return errors.Wrapf(err, "[garden] encode %s %s", method, path)
		}
	}

	policy := c.policy
	if method == http.MethodPost {
		policy = retry.None()
	}

	attempt := 0
	err := policy.Do(ctx, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			c.log.Debug().Str("method", method).Str("path", path).Int("attempt", attempt).Msg("retrying garden call")
		}
		return c.roundTrip(ctx, method, path, query, body, out)
	})
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, query url.Values, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		// bytes.Reader lets the session manager replay the body after a refresh
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), reader)
	if err != nil {
		return errors.Wrapf(err, "[garden] build %s %s", method, path)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.doer.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return garderrors.FromResponse(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read %s %s: %w", garderrors.ErrDecode, method, path, err)
	}
	if len(bytes.TrimSpace(payload)) == 0 {
		// an empty 2xx body carries no payload
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("%w: decode %s %s: %w", garderrors.ErrDecode, method, path, err)
	}
	return nil
}

// list decodes either a bare array or an envelope such as {"items": [...]}.
func list[T any](ctx context.Context, c *Client, path string, query url.Values, envelopeKeys ...string) ([]T, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, path, query, nil, &raw); err != nil {
		return nil, err
	}

	items := json.RawMessage(bytes.TrimSpace(raw))
	if len(items) == 0 {
		return []T{}, nil
	}
	if !bytes.HasPrefix(items, []byte("[")) {
		m, err := fields(items)
		if err != nil {
			return nil, errors.Wrapf(err, "[garden] decode list %s", path)
		}
		keys := append([]string{"items", "results", "data"}, envelopeKeys...)
		if items = utils.FirstRaw(m, keys...); items == nil {
			return []T{}, nil
		}
	}

	out := []T{}
	if err := json.Unmarshal(items, &out); err != nil {
		return nil, errors.Wrapf(err, "[garden] decode list %s", path)
	}
	return out, nil
}

func resourcePath(collection, id string) string {
	return collection + "/" + url.PathEscape(id)
}
