package cris

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"research2crossref/internal/record"
	"research2crossref/internal/services"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	errorBodyLimit     = 512
	updatedLayout      = "2006-01-02T15:04:05Z"
)

// Config captures the endpoint and reconciliation settings.
type Config struct {
	APIURL string
	Token  string
	// Timeout bounds every request; zero uses the 30s default.
	Timeout time.Duration
	// UpdatedBy is written to UpdatedBy and CreatedBy on reconciliation.
	UpdatedBy string
	// DOIIdentifierTypeID is the CRIS identifier type id for DOIs.
	DOIIdentifierTypeID string
}

// Client talks to the CRIS publication API.
type Client struct {
	cfg        Config
	baseURL    string
	httpClient *http.Client
	now        func() time.Time
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithClock overrides the timestamp source used for reconciliation.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// NewClient constructs a CRIS client.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	base := strings.TrimSpace(cfg.APIURL)
	if base != "" && !strings.HasSuffix(base, "/") {
		base += "/"
	}
	client := &Client{
		cfg: Config{
			APIURL:              strings.TrimSpace(cfg.APIURL),
			Token:               strings.TrimSpace(cfg.Token),
			Timeout:             timeout,
			UpdatedBy:           strings.TrimSpace(cfg.UpdatedBy),
			DOIIdentifierTypeID: strings.TrimSpace(cfg.DOIIdentifierTypeID),
		},
		baseURL:    base,
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Query returns the publications matching f in the order the CRIS reports
// them.
func (c *Client) Query(ctx context.Context, f Filter) ([]record.Publication, error) {
	resp, err := c.search(ctx, f.Query(), maxParam(f.Max), selectedFields)
	if err != nil {
		return nil, services.Wrap(services.ErrFetch, "cris", "query", "search failed", err)
	}
	out := make([]record.Publication, 0, len(resp.Publications))
	for _, p := range resp.Publications {
		out = append(out, p.toRecord())
	}
	return out, nil
}

// Get fetches a single publication by id.
func (c *Client) Get(ctx context.Context, id string) (record.Publication, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return record.Publication{}, services.Wrap(services.ErrFetch, "cris", "get", "publication id is required", nil)
	}
	resp, err := c.search(ctx, idQuery(id), "1", selectedFields)
	if err != nil {
		return record.Publication{}, services.Wrap(services.ErrFetch, "cris", "get", "lookup failed", err)
	}
	if len(resp.Publications) == 0 {
		return record.Publication{}, services.Wrap(services.ErrFetch, "cris", "get", fmt.Sprintf("publication %s not found", id), nil)
	}
	return resp.Publications[0].toRecord(), nil
}

// ResolveDOI returns the first DOI of the referenced publication, or "" when
// the publication is unknown or has none.
func (c *Client) ResolveDOI(ctx context.Context, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", nil
	}
	resp, err := c.search(ctx, idQuery(id), "", []string{"Id", "IdentifierDoi"})
	if err != nil {
		return "", services.Wrap(services.ErrResolution, "cris", "resolve doi", id, err)
	}
	if len(resp.Publications) == 0 {
		return "", nil
	}
	return first(resp.Publications[0].IdentifierDoi), nil
}

func (c *Client) search(ctx context.Context, query, max string, fields []string) (*searchResponse, error) {
	if c.baseURL == "" {
		return nil, errors.New("cris api url is not configured")
	}
	params := url.Values{}
	params.Set("query", query)
	if max != "" {
		params.Set("max", max)
	}
	if len(fields) > 0 {
		params.Set("selectedFields", strings.Join(fields, ","))
	}
	body, err := c.do(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return &resp, nil
}

// statusError reports a non-2xx response.
type statusError struct {
	Method     string
	StatusCode int
	Body       string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("cris %s: http %d: %s", strings.ToLower(e.Method), e.StatusCode, strings.TrimSpace(e.Body))
}

func (c *Client) do(ctx context.Context, method, target string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransport, "cris", strings.ToLower(method), "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrTransport, "cris", strings.ToLower(method), "read response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := body
		if len(snippet) > errorBodyLimit {
			snippet = snippet[:errorBodyLimit]
		}
		return nil, services.Wrap(services.ErrTransport, "cris", strings.ToLower(method), "unexpected status",
			&statusError{Method: method, StatusCode: resp.StatusCode, Body: string(snippet)})
	}
	return body, nil
}
