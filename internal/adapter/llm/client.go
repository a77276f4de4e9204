package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"
)

const (
	anthropicVersion = "2023-06-01"

	// NoCredentialPlaceholder is returned when no API key is configured.
	NoCredentialPlaceholder = "[generation backend not configured; set ANTHROPIC_API_KEY]"
	// RateLimitPlaceholder is returned on a 429 response.
	RateLimitPlaceholder = "[generation requests too frequent, retry later]"
)

// Client talks to an Anthropic-style messages API. A single pooled transport
// is shared across calls; the engine issues four concurrent requests per
// round for a session's whole lifetime.
type Client struct {
	baseURL      string
	apiKey       string
	model        string
	httpClient   *http.Client
	maxRetries   int
	initialDelay time.Duration
}

// NewClient creates a new generation client.
func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				MaxConnsPerHost:     8,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		maxRetries:   3,
		initialDelay: 500 * time.Millisecond,
	}
}

type messagesRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	System    string        `json:"system,omitempty"`
	Messages  []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Chat sends a chat request and returns the generated text. Transient
// transport failures are retried with exponential backoff; non-2xx responses
// are not retried and surface as marked strings.
func (c *Client) Chat(ctx context.Context, messages []ChatMessage, maxTokens int) (string, error) {
	if c.apiKey == "" {
		return NoCredentialPlaceholder, nil
	}

	// The first system entry becomes the top-level system field.
	var system string
	apiMessages := make([]chatMessage, 0, len(messages))
	for _, m := range messages {
		if m.Role == "system" {
			if system == "" {
				system = m.Content
			}
			continue
		}
		apiMessages = append(apiMessages, chatMessage{Role: m.Role, Content: m.Content})
	}

	body, err := json.Marshal(messagesRequest{
		Model:     c.model,
		MaxTokens: maxTokens,
		System:    system,
		Messages:  apiMessages,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.initialDelay * (1 << (attempt - 1))
			log.Printf("WARN: generation request failed, retrying in %v (attempt %d/%d): %v", delay, attempt, c.maxRetries, lastErr)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
		}

		text, retry, err := c.doRequest(ctx, body)
		if err != nil {
			return "", err
		}
		if !retry {
			return text, nil
		}
		lastErr = errors.New(text)
	}

	return fmt.Sprintf("[generation request failed after %d retries: %v]", c.maxRetries, lastErr), nil
}

// doRequest performs a single attempt. retry=true means the failure was
// transient and the attempt should be repeated.
func (c *Client) doRequest(ctx context.Context, body []byte) (text string, retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", false, ctx.Err()
		}
		if isTransient(err) {
			return err.Error(), true, nil
		}
		return fmt.Sprintf("[generation request failed: %v]", err), false, nil
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTransient(err) {
			return err.Error(), true, nil
		}
		return fmt.Sprintf("[generation response unreadable: %v]", err), false, nil
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return RateLimitPlaceholder, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Sprintf("[generation error %d] %s", resp.StatusCode, snippet(respBody, 200)), false, nil
	}

	var result messagesResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return fmt.Sprintf("[generation returned malformed payload: %v]", err), false, nil
	}
	var parts []string
	for _, block := range result.Content {
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	return strings.Join(parts, ""), false, nil
}

// isTransient classifies timeouts, refused connections and resets as
// retryable; everything else is surfaced immediately.
func isTransient(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF)
}

func snippet(b []byte, maxLen int) string {
	s := string(b)
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
