package summarizer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"morningbrief/throttle"
	"morningbrief/types"
)

// scriptedGenerator returns queued results per article title, then succeeds
type scriptedGenerator struct {
	mu      sync.Mutex
	script  map[string][]error
	calls   map[string]int
	prompts []string
}

func newScripted(script map[string][]error) *scriptedGenerator {
	return &scriptedGenerator{script: script, calls: map[string]int{}}
}

func (g *scriptedGenerator) Name() string { return "scripted" }

func (g *scriptedGenerator) Generate(ctx context.Context, req Request) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, req.Prompt)

	key := titleOf(req.Prompt)
	n := g.calls[key]
	g.calls[key]++
	if errs := g.script[key]; n < len(errs) && errs[n] != nil {
		return "", errs[n]
	}
	return "First point. Second point. Third point.", nil
}

// titleOf pulls the article marker out of the prompt
func titleOf(prompt string) string {
	i := strings.Index(prompt, "ARTICLE-")
	if i < 0 {
		return ""
	}
	return strings.Fields(prompt[i:])[0]
}

func testArticle(n int) types.Article {
	return types.Article{
		Title:      fmt.Sprintf("Story %d", n),
		URL:        fmt.Sprintf("https://example.com/%d", n),
		Text:       fmt.Sprintf("ARTICLE-%d happened today. Officials confirmed the details.", n),
		Extraction: types.OK(),
	}
}

func newTestSummarizer(gen Generator) (*Summarizer, *[]time.Duration) {
	s := New(gen, Options{
		Sentences:    3,
		Timeout:      time.Second,
		RetryBackoff: 5 * time.Millisecond,
		Limiter:      throttle.NewInterval(0),
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	var delays []time.Duration
	s.sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return ctx.Err()
	}
	return s, &delays
}

func TestSummarize_StateMachine(t *testing.T) {
	rate := &CallError{Kind: KindRateLimit, StatusCode: 429, Err: errors.New("slow down")}
	auth := &CallError{Kind: KindAuth, StatusCode: 401, Err: errors.New("bad key")}

	tests := []struct {
		name         string
		script       []error
		wantStatus   types.Status
		wantAttempts int
		wantReason   string
	}{
		{"first try", nil, types.StatusOK, 1, ""},
		{"retry then success", []error{rate}, types.StatusOK, 2, ""},
		{"retry exhausted", []error{rate, rate}, types.StatusFailed, 2, "rate_limit"},
		{"non retryable", []error{auth}, types.StatusFailed, 1, "auth"},
		{"plain error is transient", []error{errors.New("connection reset"), nil}, types.StatusOK, 2, ""},
		{"malformed then auth", []error{&CallError{Kind: KindMalformed, Err: errors.New("bad json")}, auth}, types.StatusFailed, 2, "auth"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := newScripted(map[string][]error{"ARTICLE-1": tt.script})
			s, _ := newTestSummarizer(gen)

			got := s.Summarize(context.Background(), testArticle(1))
			if got.SummaryOutcome.Status != tt.wantStatus {
				t.Fatalf("status = %s; want %s", got.SummaryOutcome, tt.wantStatus)
			}
			if got.Attempts != tt.wantAttempts {
				t.Errorf("attempts = %d; want %d", got.Attempts, tt.wantAttempts)
			}
			if !strings.Contains(got.SummaryOutcome.Reason, tt.wantReason) {
				t.Errorf("reason = %q; want it to mention %q", got.SummaryOutcome.Reason, tt.wantReason)
			}
			if tt.wantStatus == types.StatusOK && !got.HasSummary() {
				t.Error("expected a summary")
			}
			if tt.wantStatus == types.StatusFailed && got.Summary != "" {
				t.Error("failed article should carry no summary")
			}
		})
	}
}

func TestSummarize_RetryDelay(t *testing.T) {
	gen := newScripted(map[string][]error{
		"ARTICLE-1": {&CallError{Kind: KindRateLimit, RetryAfter: 3 * time.Second, Err: errors.New("429")}},
		"ARTICLE-2": {&CallError{Kind: KindRateLimit, RetryAfter: time.Hour, Err: errors.New("429")}},
		"ARTICLE-3": {&CallError{Kind: KindTransient, Err: errors.New("503")}},
	})
	s, delays := newTestSummarizer(gen)

	for i := 1; i <= 3; i++ {
		s.Summarize(context.Background(), testArticle(i))
	}
	want := []time.Duration{3 * time.Second, maxRetryAfter, 5 * time.Millisecond}
	if fmt.Sprint(*delays) != fmt.Sprint(want) {
		t.Errorf("delays = %v; want %v", *delays, want)
	}
}

func TestSummarize_PerCallTimeout(t *testing.T) {
	var calls int
	gen := GeneratorFunc(func(ctx context.Context, req Request) (string, error) {
		calls++
		<-ctx.Done()
		return "", ctx.Err()
	})
	s, _ := newTestSummarizer(gen)
	s.timeout = 10 * time.Millisecond

	got := s.Summarize(context.Background(), testArticle(1))
	if !got.SummaryOutcome.Failed() || !strings.Contains(got.SummaryOutcome.Reason, string(KindTimeout)) {
		t.Fatalf("outcome = %s", got.SummaryOutcome)
	}
	if calls != 2 {
		t.Errorf("calls = %d; want 2 (one retry)", calls)
	}
}

func TestSummarize_SkippedAfterDeadline(t *testing.T) {
	gen := newScripted(nil)
	s, _ := newTestSummarizer(gen)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := s.Summarize(ctx, testArticle(1))
	if !got.SummaryOutcome.Skipped() || got.Attempts != 0 {
		t.Fatalf("outcome = %s attempts = %d", got.SummaryOutcome, got.Attempts)
	}
	if len(gen.prompts) != 0 {
		t.Error("generator should not be called after the deadline")
	}
}

func TestSummarize_EmptyText(t *testing.T) {
	s, _ := newTestSummarizer(newScripted(nil))
	a := testArticle(1)
	a.Text = "   "

	if got := s.Summarize(context.Background(), a); !got.SummaryOutcome.Failed() {
		t.Fatalf("outcome = %s", got.SummaryOutcome)
	}
}

func TestSummarize_EmptyResponseIsMalformed(t *testing.T) {
	gen := GeneratorFunc(func(ctx context.Context, req Request) (string, error) { return "  \n", nil })
	s, _ := newTestSummarizer(gen)

	got := s.Summarize(context.Background(), testArticle(1))
	if !got.SummaryOutcome.Failed() || !strings.Contains(got.SummaryOutcome.Reason, string(KindMalformed)) {
		t.Fatalf("outcome = %s", got.SummaryOutcome)
	}
	if got.Attempts != 2 {
		t.Errorf("attempts = %d; want 2", got.Attempts)
	}
}

func TestSummarizeAll_IsolatesFailures(t *testing.T) {
	auth := &CallError{Kind: KindAuth, Err: errors.New("denied")}
	gen := newScripted(map[string][]error{"ARTICLE-2": {auth}})
	s, _ := newTestSummarizer(gen)
	s.workers = 2

	articles := []types.Article{testArticle(0), testArticle(1), testArticle(2), testArticle(3)}
	got := s.SummarizeAll(context.Background(), articles)

	if len(got) != len(articles) {
		t.Fatalf("got %d results; want %d", len(got), len(articles))
	}
	for i, sa := range got {
		if sa.URL != articles[i].URL {
			t.Errorf("result %d out of order: %s", i, sa.URL)
		}
		wantOK := i != 2
		if sa.SummaryOutcome.OK() != wantOK {
			t.Errorf("result %d: outcome %s", i, sa.SummaryOutcome)
		}
	}
}

func TestSummarize_TruncatesLongArticle(t *testing.T) {
	sentence := "The committee reviewed the annual budget and approved new funding for local schools. "
	var b strings.Builder
	b.WriteString("ARTICLE-9 opens the report. ")
	for utf8.RuneCountInString(b.String()) < 12000 {
		b.WriteString(sentence)
	}
	a := testArticle(9)
	a.Text = b.String()

	gen := newScripted(nil)
	s, _ := newTestSummarizer(gen)
	s.maxInput = 4000

	got := s.Summarize(context.Background(), a)
	if !got.SummaryOutcome.OK() {
		t.Fatalf("outcome = %s", got.SummaryOutcome)
	}
	if n := strings.Count(got.Summary, "."); n != 3 {
		t.Errorf("summary has %d sentences; want 3", n)
	}

	prompt := gen.prompts[0]
	if !strings.HasPrefix(prompt, "Summarize the following article in exactly 3 sentences:\n\n") {
		t.Fatalf("unexpected prompt prefix: %q", prompt[:60])
	}
	submitted := strings.TrimPrefix(prompt, Prompt("", 3))
	if n := utf8.RuneCountInString(submitted); n > 4000 {
		t.Errorf("submitted %d chars; want <= 4000", n)
	}
	if !strings.HasSuffix(submitted, "schools.") {
		t.Errorf("submission does not end at a sentence boundary: ...%q", submitted[len(submitted)-30:])
	}
}

func TestSummarize_UsesLimiter(t *testing.T) {
	gen := newScripted(nil)
	s, _ := newTestSummarizer(gen)
	s.limiter = throttle.NewInterval(20 * time.Millisecond)

	start := time.Now()
	s.SummarizeAll(context.Background(), []types.Article{testArticle(1), testArticle(2), testArticle(3)})
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("three calls finished in %s; want >= 40ms with a 20ms interval", elapsed)
	}
}
