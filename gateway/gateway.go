// Package gateway is the single path from the client to the review API. It
// attaches the stored credential, normalizes failures into typed errors and
// clears the session when the server answers 401.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"code-review-client/config"
	"code-review-client/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// SessionStore is the part of the session store the gateway needs.
type SessionStore interface {
	Read() (models.Session, bool)
	Clear() error
}

// Config holds gateway construction parameters.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Sessions   SessionStore
	Logger     *logrus.Logger
	Metrics    *Metrics
}

// Multipart is a pre-encoded body. Its content type (with boundary) is sent
// unchanged.
type Multipart struct {
	ContentType string
	Body        io.Reader
}

// Response is a successful reply. Structured is false when the body was not
// JSON; callers of text-safe endpoints read Text() then.
type Response struct {
	StatusCode int
	Raw        []byte
	Structured bool
}

// Decode unmarshals a structured body into v.
func (r *Response) Decode(v any) error {
	if !r.Structured {
		return fmt.Errorf("response is not structured data: %q", truncate(r.Text(), 80))
	}
	return json.Unmarshal(r.Raw, v)
}

func (r *Response) Text() string { return string(r.Raw) }

type Gateway struct {
	baseURL  string
	client   *http.Client
	sessions SessionStore
	log      *logrus.Entry
	metrics  *Metrics
}

func New(cfg Config) (*Gateway, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("gateway: base URL is required")
	}
	if cfg.Sessions == nil {
		return nil, errors.New("gateway: session store is required")
	}

	// No client timeout: a call fails only when the transport or the server says so.
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = config.DiscardLogger()
	}

	return &Gateway{
		baseURL:  strings.TrimSuffix(strings.TrimSpace(cfg.BaseURL), "/"),
		client:   httpClient,
		sessions: cfg.Sessions,
		log:      logger.WithField("component", "gateway"),
		metrics:  cfg.Metrics,
	}, nil
}

// Call sends one request. body may be nil, a *Multipart, raw JSON bytes, or
// any value that encodes to JSON.
func (g *Gateway) Call(ctx context.Context, method, endpoint string, body any) (*Response, error) {
	reader, contentType, err := encodeBody(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("gateway: build request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if sess, ok := g.sessions.Read(); ok {
		req.Header.Set("Authorization", "Bearer "+sess.Credential)
	}

	entry := g.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"method":     method,
		"path":       endpoint,
	})

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		g.metrics.observe(method, 0, time.Since(start))
		entry.WithError(err).Debug("api call failed")
		return nil, &RequestError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	elapsed := time.Since(start)
	g.metrics.observe(method, resp.StatusCode, elapsed)
	if err != nil {
		return nil, &RequestError{Status: resp.StatusCode, Message: err.Error(), Err: err}
	}
	entry = entry.WithFields(logrus.Fields{"status": resp.StatusCode, "duration": elapsed})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := errorMessage(raw, http.StatusText(resp.StatusCode))
		if resp.StatusCode == http.StatusUnauthorized {
			if clearErr := g.sessions.Clear(); clearErr != nil {
				entry.WithError(clearErr).Error("failed to clear session after 401")
			}
			entry.Warn("credential rejected, session cleared")
			return nil, &AuthError{Status: resp.StatusCode, Message: msg}
		}
		entry.WithField("error", msg).Debug("api call rejected")
		return nil, &RequestError{Status: resp.StatusCode, Message: msg}
	}

	entry.Debug("api call")
	return &Response{
		StatusCode: resp.StatusCode,
		Raw:        raw,
		Structured: len(bytes.TrimSpace(raw)) > 0 && gjson.ValidBytes(raw),
	}, nil
}

// CallJSON calls and decodes the structured reply into out (if non-nil).
func (g *Gateway) CallJSON(ctx context.Context, method, endpoint string, body, out any) error {
	resp, err := g.Call(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := resp.Decode(out); err != nil {
		return fmt.Errorf("gateway: decode %s %s: %w", method, endpoint, err)
	}
	return nil
}

func encodeBody(body any) (io.Reader, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case *Multipart:
		return b.Body, b.ContentType, nil
	case Multipart:
		return b.Body, b.ContentType, nil
	case json.RawMessage:
		return bytes.NewReader(b), "application/json", nil
	case []byte:
		return bytes.NewReader(b), "application/json", nil
	default:
		data, err := json.Marshal(body)
		if err != nil {
			return nil, "", fmt.Errorf("gateway: encode body: %w", err)
		}
		return bytes.NewReader(data), "application/json", nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
