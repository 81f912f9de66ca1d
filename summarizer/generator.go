// Package summarizer turns selected articles into short summaries through a
// text-generation API, one rate-limited call per article.
package summarizer

import (
	"context"
	"fmt"
)

const systemPrompt = "You are a helpful assistant that creates concise article summaries."

// Request is one summarization call
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Generator produces text for a prompt. Implementations should return a
// *CallError so failures can be classified precisely.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
	Name() string
}

// Prompt builds the summarization prompt for an article's text
func Prompt(text string, sentences int) string {
	return fmt.Sprintf("Summarize the following article in exactly %d sentences:\n\n%s", sentences, text)
}

// GeneratorFunc adapts a function to the Generator interface
type GeneratorFunc func(ctx context.Context, req Request) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, req Request) (string, error) { return f(ctx, req) }

func (f GeneratorFunc) Name() string { return "func" }
