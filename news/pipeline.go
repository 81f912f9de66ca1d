// Package news runs the fetch, extract, select and summarize stages for one
// briefing and records what happened to every source and article.
package news

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"morningbrief/deduplication"
	"morningbrief/rssfeeds"
	"morningbrief/types"
)

// Fetcher retrieves every feed source
type Fetcher interface {
	FetchAll(ctx context.Context, sources []types.FeedSource) []rssfeeds.FetchResult
}

// Extractor turns feed items into articles with text
type Extractor interface {
	ExtractAll(ctx context.Context, items []types.FeedItem) []types.Article
}

// Summarizer summarizes selected articles
type Summarizer interface {
	SummarizeAll(ctx context.Context, articles []types.Article) []types.SummarizedArticle
}

// Result is the output of one pipeline run
type Result struct {
	Articles    []types.SummarizedArticle
	Diagnostics types.Diagnostics
}

// Err returns the sentinel for a fatal outcome, or nil
func (r Result) Err() error { return r.Diagnostics.Fatal.Err() }

// Pipeline wires the news stages together
type Pipeline struct {
	fetcher     Fetcher
	extractor   Extractor
	summarizer  Summarizer
	sources     []types.FeedSource
	maxArticles int
	logger      *slog.Logger
}

// NewPipeline creates a pipeline over sources
func NewPipeline(f Fetcher, e Extractor, s Summarizer, sources []types.FeedSource, maxArticles int, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		fetcher:     f,
		extractor:   e,
		summarizer:  s,
		sources:     append([]types.FeedSource(nil), sources...),
		maxArticles: maxArticles,
		logger:      logger.With("component", "news"),
	}
}

// Run executes one pass. It never returns an error: per-item failures and
// fatal conditions are reported through the result's diagnostics, and a
// fatal condition yields an empty article list.
func (p *Pipeline) Run(ctx context.Context) (res Result) {
	diag := &res.Diagnostics
	diag.SourcesConfigured = len(p.sources)
	start := time.Now()

	defer func() {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			diag.DeadlineExceeded = true
		}
		p.logger.Info("news pipeline finished",
			"articles", len(res.Articles),
			"summarized", diag.Summarized,
			"fatal", string(diag.Fatal),
			"deadline_exceeded", diag.DeadlineExceeded,
			"took", time.Since(start).Round(time.Millisecond))
	}()

	// Fetch
	items := p.fetch(ctx, diag)
	if diag.SourcesFailed == diag.SourcesConfigured {
		diag.Fatal = types.AllSourcesFailed
		p.logger.Error("all feed sources failed", "sources", diag.SourcesConfigured)
		return res
	}

	// Extract
	articles := p.extractor.ExtractAll(ctx, items)
	for _, a := range articles {
		if a.Extraction.OK() {
			diag.Extracted++
			continue
		}
		diag.ExtractionFailures = append(diag.ExtractionFailures, types.ItemFailure{
			URL: a.URL, Title: a.Title, Kind: types.ExtractionFailed, Reason: a.Extraction.Reason,
		})
	}
	p.logger.Info("stage complete", "stage", "extract", "in", len(items), "out", diag.Extracted,
		"failed", len(diag.ExtractionFailures))

	// Select
	sel := deduplication.Select(articles, p.maxArticles)
	diag.DuplicatesDropped = sel.Duplicates
	diag.Selected = len(sel.Articles)
	p.logger.Info("stage complete", "stage", "select", "in", diag.Extracted, "out", diag.Selected,
		"duplicates", sel.Duplicates, "truncated", sel.Truncated)
	if diag.Selected == 0 {
		diag.Fatal = types.NoArticlesSelected
		p.logger.Error("no articles selected", "fetched", diag.ItemsFetched, "extracted", diag.Extracted)
		return res
	}

	// Summarize
	res.Articles = p.summarizer.SummarizeAll(ctx, sel.Articles)
	for _, sa := range res.Articles {
		switch sa.SummaryOutcome.Status {
		case types.StatusOK:
			diag.Summarized++
		case types.StatusSkipped:
			diag.SummarySkipped++
		default:
			diag.SummaryFailures = append(diag.SummaryFailures, types.ItemFailure{
				URL: sa.URL, Title: sa.Title, Kind: types.SummarizationFailed, Reason: sa.SummaryOutcome.Reason,
			})
		}
	}
	p.logger.Info("stage complete", "stage", "summarize", "in", diag.Selected, "out", diag.Summarized,
		"failed", len(diag.SummaryFailures), "skipped", diag.SummarySkipped)

	return res
}

func (p *Pipeline) fetch(ctx context.Context, diag *types.Diagnostics) []types.FeedItem {
	results := p.fetcher.FetchAll(ctx, p.sources)

	var items []types.FeedItem
	for _, r := range results {
		if !r.OK() {
			diag.SourcesFailed++
			diag.SourceFailures = append(diag.SourceFailures, types.SourceFailure{
				Source: r.Source.DisplayName(),
				URL:    r.Source.URL,
				Kind:   types.SourceUnavailable,
				Reason: r.Err.Error(),
			})
			continue
		}
		items = append(items, r.Items...)
	}
	diag.ItemsFetched = len(items)

	p.logger.Info("stage complete", "stage", "fetch", "in", len(p.sources), "out", diag.ItemsFetched,
		"failed_sources", diag.SourcesFailed)
	return items
}
