package captioner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/makkenzo/alttext-service-api/internal/config"
	"github.com/makkenzo/alttext-service-api/internal/domain/caption"
	"github.com/makkenzo/alttext-service-api/internal/ierr"
	"github.com/makkenzo/alttext-service-api/internal/metrics"
	"go.uber.org/zap"
)

const maxErrorBody = 512

// Client calls an OpenAI-compatible chat completions endpoint with one
// text+image message per caption. It never retries or streams.
type Client struct {
	baseURL   string
	apiKey    string
	model     string
	maxTokens int
	http      *http.Client
	logger    *zap.Logger
}

func NewClient(cfg config.CaptionerConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		http: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger: logger.Named("Captioner"),
	}
}

type chatRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens,omitempty"`
	Messages  []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageRef `json:"image_url,omitempty"`
}

type imageRef struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Generate returns a sanitized caption for the image at imageURL. Failures
// are reported as *ierr.UpstreamError.
func (c *Client) Generate(ctx context.Context, imageURL string, variant caption.Variant) (string, error) {
	start := time.Now()
	text, err := c.generate(ctx, imageURL, variant)

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.GenerationDuration.WithLabelValues(string(variant), outcome).Observe(time.Since(start).Seconds())

	return text, err
}

func (c *Client) generate(ctx context.Context, imageURL string, variant caption.Variant) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []chatMessage{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: Prompt(variant)},
				{Type: "image_url", ImageURL: &imageRef{URL: imageURL}},
			},
		}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal caption request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create caption request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Error("Caption request failed", zap.String("variant", string(variant)), zap.Error(err))
		return "", &ierr.UpstreamError{Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &ierr.UpstreamError{StatusCode: resp.StatusCode, Message: "failed to read response: " + err.Error()}
	}

	var parsed chatResponse
	jsonErr := json.Unmarshal(respBody, &parsed)

	if resp.StatusCode != http.StatusOK {
		msg := http.StatusText(resp.StatusCode)
		if jsonErr == nil && parsed.Error != nil && parsed.Error.Message != "" {
			msg = parsed.Error.Message
		} else if len(respBody) > 0 {
			msg = truncate(string(respBody), maxErrorBody)
		}
		c.logger.Warn("Caption backend returned an error",
			zap.Int("status", resp.StatusCode),
			zap.String("message", msg),
		)
		return "", &ierr.UpstreamError{StatusCode: resp.StatusCode, Message: msg}
	}
	if jsonErr != nil {
		return "", &ierr.UpstreamError{StatusCode: resp.StatusCode, Message: "malformed response: " + jsonErr.Error()}
	}
	if len(parsed.Choices) == 0 {
		return "", &ierr.UpstreamError{StatusCode: resp.StatusCode, Message: "response contained no choices"}
	}

	text := Sanitize(parsed.Choices[0].Message.Content)
	if text == "" {
		return "", &ierr.UpstreamError{StatusCode: resp.StatusCode, Message: "model returned an empty caption"}
	}

	c.logger.Debug("Caption generated", zap.String("variant", string(variant)), zap.Int("length", len(text)))
	return text, nil
}

// truncate keeps at most n runes of s and replaces invalid UTF-8.
func truncate(s string, n int) string {
	r := []rune(strings.ToValidUTF8(s, "\uFFFD"))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n])
}
