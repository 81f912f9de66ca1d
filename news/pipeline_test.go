package news

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"morningbrief/rssfeeds"
	"morningbrief/summarizer"
	"morningbrief/throttle"
	"morningbrief/types"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

type fakeFetcher struct {
	results map[string]rssfeeds.FetchResult
}

func (f fakeFetcher) FetchAll(ctx context.Context, sources []types.FeedSource) []rssfeeds.FetchResult {
	out := make([]rssfeeds.FetchResult, len(sources))
	for i, s := range sources {
		r := f.results[s.Key]
		r.Source, r.Index = s, i
		for j := range r.Items {
			r.Items[j].SourceIndex = i
		}
		out[i] = r
	}
	return out
}

type fakeExtractor struct {
	fail map[string]bool
}

func (f fakeExtractor) ExtractAll(ctx context.Context, items []types.FeedItem) []types.Article {
	out := make([]types.Article, len(items))
	for i, it := range items {
		a := types.ArticleFromItem(it)
		if f.fail[it.Link] {
			a.Extraction = types.Failed("too_short")
		} else {
			a.Text = "Body of " + it.Title + "."
			a.Extraction = types.OK()
		}
		out[i] = a
	}
	return out
}

type fakeSummarizer struct {
	fail  map[string]bool
	calls int
}

func (f *fakeSummarizer) SummarizeAll(ctx context.Context, articles []types.Article) []types.SummarizedArticle {
	f.calls++
	out := make([]types.SummarizedArticle, len(articles))
	for i, a := range articles {
		if f.fail[a.URL] {
			out[i] = types.SummarizedArticle{Article: a, SummaryOutcome: types.Failed("rate_limit"), Attempts: 2}
			continue
		}
		out[i] = types.SummarizedArticle{Article: a, Summary: "S.", SummaryOutcome: types.OK(), Attempts: 1}
	}
	return out
}

func feedItems(host string, n int, shared int) []types.FeedItem {
	items := make([]types.FeedItem, n)
	for i := 0; i < n; i++ {
		link := fmt.Sprintf("https://%s/story-%d", host, i)
		if i < shared {
			link = fmt.Sprintf("https://shared.com/story-%d?utm_source=%s", i, host)
		}
		items[i] = types.FeedItem{
			Title:       fmt.Sprintf("%s %d", host, i),
			Link:        link,
			Position:    i,
			PublishedAt: time.Date(2024, 5, 1, 10-i, 0, 0, 0, time.UTC),
		}
	}
	return items
}

var threeSources = []types.FeedSource{
	{Key: "slow", Name: "Slow Feed", URL: "https://slow.example.com/rss"},
	{Key: "one", Name: "One", URL: "https://one.example.com/rss"},
	{Key: "two", Name: "Two", URL: "https://two.example.com/rss"},
}

func TestRun_ThreeSourceScenario(t *testing.T) {
	fetcher := fakeFetcher{results: map[string]rssfeeds.FetchResult{
		"slow": {Err: &rssfeeds.FetchError{Reason: rssfeeds.ReasonTimeout, Err: context.DeadlineExceeded}},
		"one":  {Items: feedItems("one.com", 5, 2)},
		"two":  {Items: feedItems("two.com", 5, 2)},
	}}
	sum := &fakeSummarizer{}
	p := NewPipeline(fetcher, fakeExtractor{}, sum, threeSources, 5, quiet())

	res := p.Run(context.Background())
	d := res.Diagnostics

	require.Len(t, res.Articles, 5)
	seen := map[string]bool{}
	for _, a := range res.Articles {
		assert.False(t, seen[a.CanonicalURL], "duplicate %s", a.CanonicalURL)
		seen[a.CanonicalURL] = true
	}
	assert.Equal(t, 1, d.CountKind(types.SourceUnavailable))
	assert.Equal(t, 1, d.SourcesFailed)
	assert.Equal(t, 10, d.ItemsFetched)
	assert.Equal(t, 10, d.Extracted)
	assert.Equal(t, 2, d.DuplicatesDropped)
	assert.Equal(t, 5, d.Selected)
	assert.Equal(t, 5, d.Summarized)
	assert.Empty(t, d.Fatal)
	assert.NoError(t, res.Err())
	assert.Equal(t, "Slow Feed", d.SourceFailures[0].Source)
	assert.Contains(t, d.SourceFailures[0].Reason, "timeout")
}

func TestRun_AllSourcesFail(t *testing.T) {
	fail := rssfeeds.FetchResult{Err: &rssfeeds.FetchError{Reason: rssfeeds.ReasonNetwork, Err: errors.New("refused")}}
	fetcher := fakeFetcher{results: map[string]rssfeeds.FetchResult{"slow": fail, "one": fail, "two": fail}}
	sum := &fakeSummarizer{}

	res := NewPipeline(fetcher, fakeExtractor{}, sum, threeSources, 5, quiet()).Run(context.Background())

	assert.Empty(t, res.Articles)
	assert.Equal(t, types.AllSourcesFailed, res.Diagnostics.Fatal)
	assert.Equal(t, 3, res.Diagnostics.CountKind(types.SourceUnavailable))
	assert.ErrorIs(t, res.Err(), types.ErrAllSourcesFailed)
	assert.Zero(t, sum.calls, "later stages must not run")
}

func TestRun_NoArticlesSelected(t *testing.T) {
	items := feedItems("one.com", 3, 0)
	fail := map[string]bool{}
	for _, it := range items {
		fail[it.Link] = true
	}
	fetcher := fakeFetcher{results: map[string]rssfeeds.FetchResult{"one": {Items: items}}}
	sum := &fakeSummarizer{}

	res := NewPipeline(fetcher, fakeExtractor{fail: fail}, sum, threeSources[1:2], 5, quiet()).Run(context.Background())

	assert.Empty(t, res.Articles)
	assert.Equal(t, types.NoArticlesSelected, res.Diagnostics.Fatal)
	assert.Len(t, res.Diagnostics.ExtractionFailures, 3)
	assert.Zero(t, sum.calls)
}

func TestRun_SummaryFailureKeepsArticle(t *testing.T) {
	items := feedItems("one.com", 4, 0)
	fetcher := fakeFetcher{results: map[string]rssfeeds.FetchResult{"one": {Items: items}}}
	sum := &fakeSummarizer{fail: map[string]bool{items[1].Link: true}}

	res := NewPipeline(fetcher, fakeExtractor{fail: map[string]bool{items[3].Link: true}}, sum, threeSources[1:2], 10, quiet()).
		Run(context.Background())

	require.Len(t, res.Articles, 3)
	assert.True(t, res.Articles[1].SummaryOutcome.Failed())
	assert.Equal(t, items[1].Link, res.Articles[1].URL)
	assert.Equal(t, 2, res.Diagnostics.Summarized)
	assert.Equal(t, 1, res.Diagnostics.CountKind(types.SummarizationFailed))
	assert.Equal(t, 1, res.Diagnostics.CountKind(types.ExtractionFailed))
	assert.Empty(t, res.Diagnostics.Fatal)
}

// End to end over real HTTP with the real fetcher, extractor and summarizer.
func TestRun_EndToEnd(t *testing.T) {
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/feed/", func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/feed/")
		fmt.Fprint(w, `<?xml version="1.0"?><rss version="2.0"><channel><title>`+name+`</title>`)
		for i := 0; i < 3; i++ {
			link := fmt.Sprintf("%s/page/%s-%d", srv.URL, name, i)
			if i == 0 {
				link = srv.URL + "/page/common?utm_campaign=" + name
			}
			fmt.Fprintf(w, `<item><title>%s %d</title><link>%s</link></item>`, name, i, link)
		}
		fmt.Fprint(w, `</channel></rss>`)
	})
	mux.HandleFunc("/page/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><article>`)
		for i := 0; i < 6; i++ {
			fmt.Fprintf(w, `<p>Paragraph %d of %s describes the news in enough detail to pass the length check easily.</p>`, i, r.URL.Path)
		}
		fmt.Fprint(w, `</article></body></html>`)
	})
	mux.HandleFunc("/down", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	sources := []types.FeedSource{
		{Key: "a", URL: srv.URL + "/feed/a"},
		{Key: "down", URL: srv.URL + "/down"},
		{Key: "b", URL: srv.URL + "/feed/b"},
	}
	gen := summarizer.GeneratorFunc(func(ctx context.Context, req summarizer.Request) (string, error) {
		if strings.Contains(req.Prompt, "/page/b-2") {
			return "", &summarizer.CallError{Kind: summarizer.KindAuth, Err: errors.New("denied")}
		}
		return "Summary one. Summary two. Summary three.", nil
	})

	p := NewPipeline(
		rssfeeds.NewFetcher(rssfeeds.FetcherOptions{Timeout: time.Second, Logger: quiet()}),
		rssfeeds.NewExtractor(rssfeeds.ExtractorOptions{Timeout: time.Second, MinChars: 200, Logger: quiet()}),
		summarizer.New(gen, summarizer.Options{Limiter: throttle.NewInterval(0), Logger: quiet()}),
		sources, 10, quiet(),
	)

	res := p.Run(context.Background())
	d := res.Diagnostics

	assert.Equal(t, 1, d.SourcesFailed)
	assert.Equal(t, 6, d.ItemsFetched)
	assert.Equal(t, 6, d.Extracted)
	assert.Equal(t, 1, d.DuplicatesDropped)
	require.Len(t, res.Articles, 5)
	assert.Equal(t, 4, d.Summarized)
	assert.Len(t, d.SummaryFailures, 1)

	last := res.Articles[len(res.Articles)-1]
	assert.Contains(t, last.URL, "/page/b-2")
	assert.True(t, last.SummaryOutcome.Failed())
}

func TestRun_DeadlineDegrades(t *testing.T) {
	fetcher := fakeFetcher{results: map[string]rssfeeds.FetchResult{"one": {Items: feedItems("one.com", 3, 0)}}}
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	sum := summarizer.New(summarizer.GeneratorFunc(func(ctx context.Context, req summarizer.Request) (string, error) {
		return "never", nil
	}), summarizer.Options{Limiter: throttle.NewInterval(0), Logger: quiet()})

	res := NewPipeline(fetcher, fakeExtractor{}, sum, threeSources[1:2], 5, quiet()).Run(ctx)

	require.Len(t, res.Articles, 3)
	assert.True(t, res.Diagnostics.DeadlineExceeded)
	assert.Equal(t, 3, res.Diagnostics.SummarySkipped)
	for _, a := range res.Articles {
		assert.True(t, a.SummaryOutcome.Skipped())
	}
}
