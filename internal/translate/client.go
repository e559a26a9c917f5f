// Package translate provides a client for LibreTranslate-compatible
// translation APIs and a cached directory of supported languages.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"pdf-translator/internal/logger"
)

const (
	// DefaultTimeout is the per-request timeout for API calls
	DefaultTimeout = 30 * time.Second
	// MaxChunkSize is the maximum text length sent in a single translate call
	MaxChunkSize = 4000
	// MaxRetries is the number of retries after a transport failure
	MaxRetries = 1
	// BaseRetryDelay is the delay before the first retry
	BaseRetryDelay = 500 * time.Millisecond
)

// Language is one entry of the remote language listing
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Translator is the remote translation capability used by the pipeline.
// Implementations must be safe for concurrent use.
type Translator interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
	Detect(ctx context.Context, text string) (string, error)
}

// Client talks to a LibreTranslate-compatible HTTP API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Client for the API at baseURL
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
}

// NewClientWithHTTPClient creates a Client with a caller-supplied http.Client.
// Useful for testing.
func NewClientWithHTTPClient(baseURL string, hc *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: hc,
	}
}

// Languages fetches the list of supported languages from the remote API
func (c *Client) Languages(ctx context.Context) ([]Language, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/languages", nil)
	if err != nil {
		return nil, NewAPIError(ErrServiceUnavailable, "failed to build languages request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, NewAPIError(ErrServiceUnavailable, "language listing unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, NewAPIErrorWithDetails(ErrServiceUnavailable, "language listing failed",
			fmt.Sprintf("status %d", resp.StatusCode), nil)
	}

	var langs []Language
	if err := json.NewDecoder(resp.Body).Decode(&langs); err != nil {
		return nil, NewAPIError(ErrServiceUnavailable, "invalid language listing response", err)
	}

	return langs, nil
}

// Detect identifies the language of text via the remote detection endpoint.
// The highest-confidence candidate wins.
func (c *Client) Detect(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", NewAPIError(ErrDetectionFailed, "cannot detect language of empty text", nil)
	}

	body, err := c.post(ctx, "/detect", map[string]string{"q": text})
	if err != nil {
		return "", err
	}

	var candidates []struct {
		Confidence float64 `json:"confidence"`
		Language   string  `json:"language"`
	}
	if err := json.Unmarshal(body, &candidates); err != nil {
		return "", NewAPIError(ErrDetectionFailed, "invalid detection response", err)
	}
	if len(candidates) == 0 {
		return "", NewAPIError(ErrDetectionFailed, "no detection candidates returned", nil)
	}

	best := candidates[0]
	for _, cand := range candidates[1:] {
		if cand.Confidence > best.Confidence {
			best = cand
		}
	}
	if best.Language == "" {
		return "", NewAPIError(ErrDetectionFailed, "detection returned empty language code", nil)
	}

	logger.Debug("language detected",
		logger.String("language", best.Language),
		logger.Float64("confidence", best.Confidence))
	return best.Language, nil
}

// Translate translates text from source to target. Text longer than
// MaxChunkSize is split on sentence boundaries and translated chunk by
// chunk, so no single request exceeds the API's practical limit.
func (c *Client) Translate(ctx context.Context, text, source, target string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	chunks := SplitChunks(text, MaxChunkSize)
	if len(chunks) == 1 {
		return c.translateChunk(ctx, chunks[0], source, target)
	}

	translated := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		out, err := c.translateChunk(ctx, chunk, source, target)
		if err != nil {
			return "", err
		}
		translated = append(translated, out)
	}
	return strings.Join(translated, " "), nil
}

// translateChunk performs one translate call with a single retry on
// transport-level failure
func (c *Client) translateChunk(ctx context.Context, text, source, target string) (string, error) {
	payload := map[string]string{
		"q":      text,
		"source": source,
		"target": target,
		"format": "text",
	}

	var lastErr error
	for attempt := 0; attempt <= MaxRetries; attempt++ {
		if attempt > 0 {
			delay := BaseRetryDelay * time.Duration(1<<(attempt-1))
			logger.Warn("retrying translation request",
				logger.Int("attempt", attempt),
				logger.Duration("delay", delay))
			select {
			case <-ctx.Done():
				return "", NewAPIError(ErrServiceUnavailable, "translation canceled", ctx.Err())
			case <-time.After(delay):
			}
		}

		body, err := c.post(ctx, "/translate", payload)
		if err != nil {
			if IsCode(err, ErrServiceUnavailable) && ctx.Err() == nil {
				lastErr = err
				continue
			}
			return "", err
		}

		var result struct {
			TranslatedText string `json:"translatedText"`
		}
		if err := json.Unmarshal(body, &result); err != nil {
			return "", NewAPIError(ErrTranslationFailed, "invalid translation response", err)
		}
		return result.TranslatedText, nil
	}

	return "", lastErr
}

// post sends a JSON POST and returns the raw response body. API-level errors
// are mapped onto the error taxonomy.
func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, NewAPIError(ErrTranslationFailed, "failed to encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, NewAPIError(ErrServiceUnavailable, "failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, NewAPIError(ErrServiceUnavailable, "translation service unreachable", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewAPIError(ErrServiceUnavailable, "failed to read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.apiError(resp.StatusCode, body)
	}

	return body, nil
}

// apiError maps a non-2xx response to a typed error
func (c *Client) apiError(status int, body []byte) error {
	var apiBody struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(body, &apiBody)
	msg := apiBody.Error
	if msg == "" {
		msg = fmt.Sprintf("status %d", status)
	}

	switch {
	case status == http.StatusBadRequest && strings.Contains(strings.ToLower(msg), "language"):
		return NewAPIErrorWithDetails(ErrUnsupportedLanguage, "language not supported by the API", msg, nil)
	case status >= 500 || status == http.StatusTooManyRequests:
		return NewAPIErrorWithDetails(ErrServiceUnavailable, "translation service error", msg, nil)
	default:
		return NewAPIErrorWithDetails(ErrTranslationFailed, "translation request rejected", msg, nil)
	}
}

// SplitChunks splits text into pieces no longer than limit bytes, preferring
// sentence boundaries, then word boundaries, then a hard cut.
func SplitChunks(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var chunks []string
	remaining := text
	for len(remaining) > limit {
		cut := boundaryBefore(remaining, limit)
		chunks = append(chunks, strings.TrimSpace(remaining[:cut]))
		remaining = strings.TrimSpace(remaining[cut:])
	}
	if remaining != "" {
		chunks = append(chunks, remaining)
	}
	return chunks
}

// boundaryBefore finds the best split position at or before limit bytes
func boundaryBefore(s string, limit int) int {
	window := s[:limit]

	// Prefer the last sentence terminator in the window
	best := -1
	for _, sep := range []string{". ", "! ", "? ", "。", "！", "？"} {
		if idx := strings.LastIndex(window, sep); idx >= 0 && idx+len(sep) > best {
			best = idx + len(sep)
		}
	}
	if best > 0 {
		return best
	}

	// Fall back to the last space
	if idx := strings.LastIndex(window, " "); idx > 0 {
		return idx + 1
	}

	// Hard cut, but never inside a UTF-8 sequence
	cut := limit
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	if cut == 0 {
		cut = limit
	}
	return cut
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
