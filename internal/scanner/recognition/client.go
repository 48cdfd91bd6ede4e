package recognition

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
	"time"

	"github.com/biznesyordam/scanner-service/internal/models"
	"github.com/biznesyordam/scanner-service/internal/scanner/pipeline"
)

var (
	// ErrMissingImage is returned before any network call when the caller
	// supplied no image data.
	ErrMissingImage = errors.New("image_base64 is required")

	// ErrUpstreamUnavailable covers every failure of the AI backend:
	// transport errors, non-2xx responses and unparseable bodies.
	ErrUpstreamUnavailable = errors.New("AI xizmati vaqtincha ishlamayapti")
)

const (
	analyzePath      = "/api/v1/scanner/analyze"
	generateCardPath = "/api/v1/scanner/generate-card"
)

// Client talks to the Python AI backend. It is the single place where the
// backend's loosely-typed payloads are allowed to exist; everything it
// returns is normalized.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a backend client. Calls are bounded by timeout so an
// unresponsive backend cannot hold a request open past it.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger: logger.With("component", "recognition_client"),
	}
}

// AnalyzeBase64 sends an image to the recognition service and returns both
// the backend's raw envelope (for verbatim proxying) and the normalized
// product. Failures are surfaced, never masked: callers must not synthesize
// a fake product from a failed recognition.
func (c *Client) AnalyzeBase64(ctx context.Context, imageBase64, language string) (json.RawMessage, *models.RecognizedProduct, error) {
	if strings.TrimSpace(imageBase64) == "" {
		return nil, nil, ErrMissingImage
	}
	if language == "" {
		language = "uz"
	}

	raw, err := c.post(ctx, analyzePath, map[string]any{
		"image_base64": imageBase64,
		"language":     language,
	})
	if err != nil {
		return nil, nil, err
	}

	var envelope map[string]any
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, nil, fmt.Errorf("%w: unparseable response: %v", ErrUpstreamUnavailable, err)
	}

	if success, _ := envelope["success"].(bool); !success {
		reason, _ := envelope["error"].(string)
		if reason == "" {
			reason = "recognition rejected the image"
		}
		return nil, nil, fmt.Errorf("%w: %s", ErrUpstreamUnavailable, reason)
	}

	return raw, NormalizeProduct(envelope), nil
}

// Recognize implements pipeline.Recognizer.
func (c *Client) Recognize(ctx context.Context, imageBase64, language string) (*models.RecognizedProduct, error) {
	_, product, err := c.AnalyzeBase64(ctx, imageBase64, language)
	return product, err
}

// GenerateCard implements pipeline.CardWriter. Errors are returned to the
// generator, which falls back to its template; they never reach the caller.
func (c *Client) GenerateCard(ctx context.Context, req pipeline.CardRequest) (*models.CardPatch, error) {
	raw, err := c.post(ctx, generateCardPath, req)
	if err != nil {
		return nil, err
	}

	var envelope map[string]any
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("%w: unparseable response: %v", ErrUpstreamUnavailable, err)
	}

	if success, _ := envelope["success"].(bool); !success {
		return nil, fmt.Errorf("%w: card generation rejected", ErrUpstreamUnavailable)
	}

	return NormalizeCardPatch(envelope), nil
}

// post issues one JSON request to the backend and returns the response body.
func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", ErrUpstreamUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("backend returned error status",
			"path", path, "status", resp.StatusCode)
		return nil, fmt.Errorf("%w: status %d", ErrUpstreamUnavailable, resp.StatusCode)
	}

	return data, nil
}
