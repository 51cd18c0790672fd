package crossref

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"research2crossref/internal/services"
)

const (
	// DefaultDepositURL is the production deposit servlet.
	DefaultDepositURL = "https://doi.crossref.org/servlet/deposit"

	defaultHTTPTimeout       = 30 * time.Second
	defaultRequestsPerSecond = 0.5
	responseBodyLimit        = 4096
)

// Config captures the deposit endpoint and credentials.
type Config struct {
	DepositURL        string
	Username          string
	Password          string
	Timeout           time.Duration
	RequestsPerSecond float64
}

// Receipt is the registration agency's acknowledgement of a deposit. Crossref
// processes deposits asynchronously; a receipt means the upload was accepted.
type Receipt struct {
	StatusCode int
	Body       string
}

// Client uploads deposit documents to Crossref.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
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

// WithLimiter replaces the request pacing limiter. A nil limiter disables
// pacing.
func WithLimiter(limiter *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = limiter
	}
}

// NewClient constructs a deposit client.
func NewClient(cfg Config, opts ...Option) *Client {
	cfg.DepositURL = strings.TrimSpace(cfg.DepositURL)
	if cfg.DepositURL == "" {
		cfg.DepositURL = DefaultDepositURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultHTTPTimeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = defaultRequestsPerSecond
	}
	client := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Deposit uploads body under fileName. A 401 or 403 response carries
// services.ErrAuth; every other failure carries services.ErrTransport.
func (c *Client) Deposit(ctx context.Context, fileName string, body []byte) (*Receipt, error) {
	if strings.TrimSpace(c.cfg.Username) == "" || c.cfg.Password == "" {
		return nil, services.Wrap(services.ErrAuth, "deposit", "upload", "crossref credentials are not configured", nil)
	}
	if len(body) == 0 {
		return nil, services.Wrap(services.ErrTransport, "deposit", "upload", "empty document", nil)
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, services.Wrap(services.ErrTransport, "deposit", "pace", "rate limiter wait", err)
		}
	}

	payload, contentType, err := encodeUpload(c.cfg.Username, c.cfg.Password, fileName, body)
	if err != nil {
		return nil, services.Wrap(services.ErrTransport, "deposit", "encode", "build multipart body", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.DepositURL, payload)
	if err != nil {
		return nil, services.Wrap(services.ErrTransport, "deposit", "upload", "build request", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransport, "deposit", "upload", "request failed", err)
	}
	defer resp.Body.Close()
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyLimit))
	receipt := &Receipt{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return receipt, services.Wrap(services.ErrAuth, "deposit", "upload",
			fmt.Sprintf("credentials rejected (http %d)", resp.StatusCode), nil)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return receipt, services.Wrap(services.ErrTransport, "deposit", "upload",
			fmt.Sprintf("unexpected status %d", resp.StatusCode), errors.New(receipt.Body))
	}
	return receipt, nil
}

func encodeUpload(username, password, fileName string, body []byte) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	fields := [][2]string{
		{"operation", "doQueryUpload"},
		{"login_id", username},
		{"login_passwd", password},
	}
	for _, field := range fields {
		if err := writer.WriteField(field[0], field[1]); err != nil {
			return nil, "", err
		}
	}
	if strings.TrimSpace(fileName) == "" {
		fileName = "deposit.xml"
	}
	part, err := writer.CreateFormFile("fname", fileName)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(body); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return &buf, writer.FormDataContentType(), nil
}
