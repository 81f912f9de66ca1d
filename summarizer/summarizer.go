package summarizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"morningbrief/throttle"
	"morningbrief/types"
	"morningbrief/workpool"
)

const (
	maxRetries    = 1
	maxRetryAfter = 10 * time.Second
)

// Options configures a Summarizer. Zero values fall back to defaults.
type Options struct {
	Sentences     int
	MaxInputChars int
	Timeout       time.Duration
	RetryBackoff  time.Duration
	Workers       int
	MaxTokens     int
	Temperature   float64
	Limiter       throttle.Limiter
	Logger        *slog.Logger
}

// Summarizer runs one generation call per article with a shared throttle
type Summarizer struct {
	gen         Generator
	sentences   int
	maxInput    int
	timeout     time.Duration
	backoff     time.Duration
	workers     int
	maxTokens   int
	temperature float64
	limiter     throttle.Limiter
	logger      *slog.Logger
	sleep       func(ctx context.Context, d time.Duration) error
}

// New creates a Summarizer around gen
func New(gen Generator, opts Options) *Summarizer {
	s := &Summarizer{
		gen:         gen,
		sentences:   opts.Sentences,
		maxInput:    opts.MaxInputChars,
		timeout:     opts.Timeout,
		backoff:     opts.RetryBackoff,
		workers:     opts.Workers,
		maxTokens:   opts.MaxTokens,
		temperature: opts.Temperature,
		limiter:     opts.Limiter,
		logger:      opts.Logger,
		sleep:       throttle.Sleep,
	}
	if s.sentences < 1 {
		s.sentences = 3
	}
	if s.maxInput < 1 {
		s.maxInput = 4000
	}
	if s.timeout <= 0 {
		s.timeout = 30 * time.Second
	}
	if s.backoff <= 0 {
		s.backoff = 2 * time.Second
	}
	if s.workers < 1 {
		s.workers = 1
	}
	if s.workers > 2 {
		s.workers = 2
	}
	if s.maxTokens < 1 {
		s.maxTokens = 150
	}
	if s.limiter == nil {
		s.limiter = throttle.NewInterval(time.Second)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// SummarizeAll summarizes every article and returns the results in input
// order. Failures never stop the remaining articles.
func (s *Summarizer) SummarizeAll(ctx context.Context, articles []types.Article) []types.SummarizedArticle {
	return workpool.Run(ctx, s.workers, articles, func(ctx context.Context, _ int, a types.Article) types.SummarizedArticle {
		return s.Summarize(ctx, a)
	})
}

// callState is the lifecycle of one article's generation call
type callState int

const (
	statePending callState = iota
	stateInFlight
	stateRetryScheduled
	stateSucceeded
	stateFailed
	stateSkipped
)

func (s callState) String() string {
	switch s {
	case statePending:
		return "pending"
	case stateInFlight:
		return "in_flight"
	case stateRetryScheduled:
		return "retry_scheduled"
	case stateSucceeded:
		return "succeeded"
	case stateFailed:
		return "failed"
	case stateSkipped:
		return "skipped"
	}
	return "unknown"
}

type call struct {
	state    callState
	attempts int
	summary  string
	err      *CallError
	reason   string
}

// Summarize runs the call state machine for one article:
// pending -> in_flight -> (succeeded | retry_scheduled -> in_flight | failed).
// An article whose call never started because the run ended is skipped.
func (s *Summarizer) Summarize(ctx context.Context, article types.Article) types.SummarizedArticle {
	req := Request{
		System:      systemPrompt,
		Prompt:      Prompt(Truncate(article.Text, s.maxInput), s.sentences),
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	}

	c := &call{state: statePending}
	for {
		switch c.state {
		case statePending:
			if err := ctx.Err(); err != nil {
				c.state, c.reason = stateSkipped, "run deadline reached before call"
				continue
			}
			if strings.TrimSpace(article.Text) == "" {
				c.state, c.reason = stateFailed, "no article text"
				continue
			}
			c.state = stateInFlight

		case stateInFlight:
			if err := s.limiter.Wait(ctx); err != nil {
				if c.attempts == 0 {
					c.state, c.reason = stateSkipped, "run deadline reached before call"
				} else {
					c.state, c.reason = stateFailed, fmt.Sprintf("%s; retry abandoned: %v", c.err, err)
				}
				continue
			}
			c.attempts++
			summary, err := s.attempt(ctx, req)
			if err == nil {
				c.state, c.summary = stateSucceeded, summary
				continue
			}
			c.err = err
			if err.Kind.Retryable() && c.attempts <= maxRetries && ctx.Err() == nil {
				c.state = stateRetryScheduled
				s.logger.Debug("summary retry scheduled", "title", article.Title, "error", err)
				continue
			}
			c.state, c.reason = stateFailed, err.Error()

		case stateRetryScheduled:
			if err := s.sleep(ctx, s.retryDelay(c.err)); err != nil {
				c.state, c.reason = stateFailed, fmt.Sprintf("%s; retry abandoned: %v", c.err, err)
				continue
			}
			c.state = stateInFlight

		case stateSucceeded:
			s.logger.Debug("summarized", "title", article.Title, "attempts", c.attempts)
			return types.SummarizedArticle{Article: article, Summary: c.summary, SummaryOutcome: types.OK(), Attempts: c.attempts}

		case stateFailed:
			s.logger.Warn("summarization failed", "title", article.Title, "url", article.URL, "attempts", c.attempts, "reason", c.reason)
			return types.SummarizedArticle{Article: article, SummaryOutcome: types.Failed(c.reason), Attempts: c.attempts}

		case stateSkipped:
			s.logger.Info("summarization skipped", "title", article.Title, "reason", c.reason)
			return types.SummarizedArticle{Article: article, SummaryOutcome: types.Skipped(c.reason), Attempts: c.attempts}
		}
	}
}

// attempt makes one bounded generation call
func (s *Summarizer) attempt(ctx context.Context, req Request) (string, *CallError) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text, err := s.gen.Generate(callCtx, req)
	if err != nil {
		ce := Classify(err)
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			ce = &CallError{Kind: KindTimeout, Err: fmt.Errorf("call exceeded %s", s.timeout)}
		}
		return "", ce
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", &CallError{Kind: KindMalformed, Err: errors.New("empty summary")}
	}
	return text, nil
}

func (s *Summarizer) retryDelay(err *CallError) time.Duration {
	if err != nil && err.RetryAfter > s.backoff {
		return min(err.RetryAfter, maxRetryAfter)
	}
	return s.backoff
}
