package summarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// OpenAIGenerator implements Generator using an OpenAI-compatible chat completions endpoint
// Endpoint: POST https://api.openai.com/v1/chat/completions
// Request: {"model": "...", "messages": [{"role": "system", ...}, {"role": "user", ...}]}
// Response: {"choices": [{"message": {"content": "..."}}]}
type OpenAIGenerator struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewOpenAIGenerator creates a generator for endpoint
func NewOpenAIGenerator(apiKey, model, endpoint string, client *http.Client) *OpenAIGenerator {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	if endpoint == "" {
		endpoint = "https://api.openai.com/v1/chat/completions"
	}
	return &OpenAIGenerator{apiKey: apiKey, model: model, endpoint: endpoint, client: client}
}

func (o *OpenAIGenerator) Name() string { return "openai:" + o.model }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (o *OpenAIGenerator) Generate(ctx context.Context, req Request) (string, error) {
	payload := chatRequest{
		Model:       o.model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	if req.System != "" {
		payload.Messages = append(payload.Messages, chatMessage{Role: "system", Content: req.System})
	}
	payload.Messages = append(payload.Messages, chatMessage{Role: "user", Content: req.Prompt})

	b, err := json.Marshal(payload)
	if err != nil {
		return "", &CallError{Kind: KindBadRequest, Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, bytes.NewReader(b))
	if err != nil {
		return "", &CallError{Kind: KindBadRequest, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", o.apiKey))

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return "", Classify(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		ce := StatusError(resp.StatusCode, fmt.Errorf("openai chat error: %s", bytes.TrimSpace(body)))
		ce.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
		return "", ce
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", Classify(err)
		}
		return "", &CallError{Kind: KindMalformed, StatusCode: resp.StatusCode, Err: err}
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", &CallError{Kind: KindMalformed, StatusCode: resp.StatusCode, Err: errors.New("no choices in response")}
	}
	return parsed.Choices[0].Message.Content, nil
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}
