// Package genai wraps the external reasoning engine behind a narrow
// generate-text contract. Calls are bounded by a configured timeout and are
// never retried here; retry policy belongs to callers.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Client is the reasoning-engine contract the rest of the system consumes.
// GenerateText returns the raw text answer for a prompt; GenerateJSON
// constrains the engine to a JSON response body and returns it undecoded so
// callers own schema validation.
type Client interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
	GenerateJSON(ctx context.Context, prompt string) ([]byte, error)
}

// HTTPError carries a non-2xx engine response.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("reasoning engine http %d: %s", e.StatusCode, e.Body)
}

type httpClient struct {
	log        zerolog.Logger
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// Config holds the settings for the HTTP reasoning-engine client.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

func NewHTTPClient(cfg Config, logger zerolog.Logger) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("missing reasoning engine api key")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-flash-latest"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	return &httpClient{
		log:        logger.With().Str("component", "genai").Logger(),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type generateRequest struct {
	Contents []content `json:"contents"`
	// GenerationConfig is omitted for plain-text calls.
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMIMEType string  `json:"responseMimeType,omitempty"`
	Temperature      float64 `json:"temperature,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

func (c *httpClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, prompt, nil)
}

func (c *httpClient) GenerateJSON(ctx context.Context, prompt string) ([]byte, error) {
	text, err := c.generate(ctx, prompt, &generationConfig{
		ResponseMIMEType: "application/json",
		Temperature:      0.2,
	})
	if err != nil {
		return nil, err
	}
	return []byte(stripCodeFence(text)), nil
}

func (c *httpClient) generate(ctx context.Context, prompt string, gc *generationConfig) (string, error) {
	reqBody := generateRequest{
		Contents:         []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: gc,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(reqBody); err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("reasoning engine unreachable: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var out generateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode engine response: %w", err)
	}

	var text strings.Builder
	for _, cand := range out.Candidates {
		for _, p := range cand.Content.Parts {
			text.WriteString(p.Text)
		}
		break // only the first candidate is used
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("empty engine response")
	}

	c.log.Debug().
		Str("model", c.model).
		Dur("latency", time.Since(start)).
		Msg("engine call completed")

	return text.String(), nil
}

// stripCodeFence removes a surrounding markdown code fence some models emit
// even when asked for a bare JSON body. The content itself is never altered.
func stripCodeFence(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	t = strings.TrimPrefix(t, "```json")
	t = strings.TrimPrefix(t, "```")
	t = strings.TrimSuffix(strings.TrimSpace(t), "```")
	return strings.TrimSpace(t)
}
