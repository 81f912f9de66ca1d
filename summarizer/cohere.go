package summarizer

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"time"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
	"github.com/cohere-ai/cohere-go/v2/core"
)

// CohereGenerator implements Generator using the Cohere Chat API
// Docs: https://docs.cohere.com/reference/chat
type CohereGenerator struct {
	client *cohereclient.Client
	model  string
}

// NewCohereGenerator creates a generator. A nil httpClient gets one that
// forces HTTP/1.1 to avoid HTTP/2 protocol errors.
func NewCohereGenerator(apiKey, model string, httpClient *http.Client) *CohereGenerator {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				TLSNextProto:      make(map[string]func(authority string, c *tls.Conn) http.RoundTripper),
				ForceAttemptHTTP2: false,
			},
		}
	}
	client := cohereclient.NewClient(
		cohereclient.WithToken(apiKey),
		cohereclient.WithHTTPClient(httpClient),
	)
	return &CohereGenerator{client: client, model: model}
}

func (g *CohereGenerator) Name() string { return "cohere:" + g.model }

func (g *CohereGenerator) Generate(ctx context.Context, req Request) (string, error) {
	chatReq := &cohere.ChatRequest{
		Message: req.Prompt,
		Model:   &g.model,
	}
	if req.System != "" {
		system := req.System
		chatReq.Preamble = &system
	}
	if req.MaxTokens > 0 {
		maxTokens := req.MaxTokens
		chatReq.MaxTokens = &maxTokens
	}
	temperature := req.Temperature
	chatReq.Temperature = &temperature

	resp, err := g.client.Chat(ctx, chatReq)
	if err != nil {
		var apiErr *core.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode != 0 {
			return "", StatusError(apiErr.StatusCode, err)
		}
		return "", Classify(err)
	}
	if resp == nil || resp.Text == "" {
		return "", &CallError{Kind: KindMalformed, Err: errors.New("cohere chat returned no text")}
	}
	return resp.Text, nil
}
