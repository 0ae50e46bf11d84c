package completion

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

	"github.com/meshilogapp/meshilog-backend/pkg/config"
	pkgerrors "github.com/meshilogapp/meshilog-backend/pkg/errors"
	"github.com/meshilogapp/meshilog-backend/pkg/metrics"
	pkgretry "github.com/meshilogapp/meshilog-backend/pkg/retry"
)

const (
	defaultBaseURL             = "https://api.openai.com/v1"
	errorBodyReadLimit   int64 = 4096
	defaultClientTimeout       = 30 * time.Second
)

var errAPIKeyRequired = errors.New("completion api key is required")

// Client wraps the external chat-completion endpoint used for dinner
// recommendations, weekly reports and dish-photo analysis. Every request is
// executed under the shared retry policy; failures are reported as coded
// dependency errors and never contain response bodies beyond a short snippet.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	model       string
	visionModel string
	policy      pkgretry.Policy
	metrics     *metrics.CompletionMetrics
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured completion base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithMetrics attaches completion metrics to the client.
func WithMetrics(m *metrics.CompletionMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient builds a completion client from configuration.
func NewClient(cfg config.CompletionConfig, policy pkgretry.Policy, opts ...Option) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultClientTimeout
	}

	client := &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     defaultBaseURL,
		apiKey:      apiKey,
		model:       cfg.Model,
		visionModel: cfg.VisionModel,
		policy:      policy,
	}
	if trimmed := strings.TrimSpace(cfg.BaseURL); trimmed != "" {
		client.baseURL = trimmed
	}
	if client.visionModel == "" {
		client.visionModel = client.model
	}

	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Message is one role-tagged chat message.
type Message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// ContentPart is a single piece of a multimodal message.
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageRef `json:"image_url,omitempty"`
}

// ImageRef carries an image either by URL or data URI.
type ImageRef struct {
	URL string `json:"url"`
}

// TextMessage builds a plain text message.
func TextMessage(role, text string) Message {
	return Message{Role: role, Content: text}
}

// VisionMessage builds a message carrying prompt text plus one image.
func VisionMessage(role, text, imageURL string) Message {
	return Message{
		Role: role,
		Content: []ContentPart{
			{Type: "text", Text: text},
			{Type: "image_url", ImageURL: &ImageRef{URL: imageURL}},
		},
	}
}

// JSONSchema names a strict response schema the model must satisfy.
type JSONSchema struct {
	Name   string
	Schema json.RawMessage
}

// Request describes one completion call.
type Request struct {
	Op       string
	Messages []Message
	// Schema, when set, requests a strict json_schema response contract.
	// Otherwise JSONObject selects the looser json_object contract.
	Schema     *JSONSchema
	JSONObject bool
	Vision     bool
}

type responseFormat struct {
	Type       string            `json:"type"`
	JSONSchema *jsonSchemaFormat `json:"json_schema,omitempty"`
}

type jsonSchemaFormat struct {
	Name   string          `json:"name"`
	Strict bool            `json:"strict"`
	Schema json.RawMessage `json:"schema"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete issues the request and returns the raw text content of the first
// choice. A missing or empty content is a failure, not a partial result.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	if c == nil {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "completion client not configured")
	}
	if len(req.Messages) == 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "at least one message is required")
	}

	payload := chatRequest{
		Model:    c.model,
		Messages: req.Messages,
	}
	if req.Vision {
		payload.Model = c.visionModel
	}
	switch {
	case req.Schema != nil:
		payload.ResponseFormat = &responseFormat{
			Type: "json_schema",
			JSONSchema: &jsonSchemaFormat{
				Name:   req.Schema.Name,
				Strict: true,
				Schema: req.Schema.Schema,
			},
		}
	case req.JSONObject:
		payload.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode completion request")
	}

	c.metrics.IncRequest(req.Op)
	start := time.Now()

	var content string
	err = c.policy.Do(ctx, func(ctx context.Context) error {
		value, callErr := c.doOnce(ctx, body)
		if callErr != nil {
			return callErr
		}
		content = value
		return nil
	})

	c.metrics.ObserveDuration(req.Op, time.Since(start))
	if err != nil {
		c.metrics.IncFailure(req.Op)
		return "", err
	}
	return content, nil
}

func (c *Client) doOnce(ctx context.Context, body []byte) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build completion request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", pkgretry.RetryableError(pkgerrors.Wrap(pkgerrors.CodeDependency, err, "call completion service"))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		callErr := pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("completion service returned %d", resp.StatusCode)).
			WithDetails(map[string]any{"body": strings.TrimSpace(string(snippet))})
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			return "", pkgretry.RetryableError(callErr)
		}
		return "", callErr
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode completion response")
	}
	if len(decoded.Choices) == 0 {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "completion response has no choices")
	}
	content := strings.TrimSpace(decoded.Choices[0].Message.Content)
	if content == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "completion response has no content")
	}
	return content, nil
}

// StripFences removes triple-backtick code fences some models wrap around
// JSON payloads despite the response-format contract.
func StripFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}
