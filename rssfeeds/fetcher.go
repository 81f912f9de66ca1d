package rssfeeds

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"morningbrief/types"
	"morningbrief/workpool"
)

// Failure reasons reported for a feed source
const (
	ReasonTimeout    = "timeout"
	ReasonNetwork    = "network"
	ReasonHTTPStatus = "http_status"
	ReasonParse      = "parse"
	ReasonEmpty      = "empty"
)

// FetchError is a classified feed failure
type FetchError struct {
	Reason string
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return e.Reason
	}
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// FetchResult is the outcome for one source. Exactly one of Items or Err is meaningful.
type FetchResult struct {
	Source types.FeedSource
	Index  int
	Items  []types.FeedItem
	Err    error
}

// OK reports whether the source produced items
func (r FetchResult) OK() bool { return r.Err == nil }

// Reason returns the classified failure reason, or "" on success
func (r FetchResult) Reason() string {
	var fe *FetchError
	if errors.As(r.Err, &fe) {
		return fe.Reason
	}
	if r.Err != nil {
		return ReasonNetwork
	}
	return ""
}

// FetcherOptions configures a Fetcher. Zero values fall back to defaults.
type FetcherOptions struct {
	Client     *http.Client
	UserAgent  string
	Timeout    time.Duration
	Workers    int
	MaxPerFeed int
	Logger     *slog.Logger
}

// Fetcher retrieves feeds with a bounded worker pool
type Fetcher struct {
	client     *http.Client
	userAgent  string
	timeout    time.Duration
	workers    int
	maxPerFeed int
	logger     *slog.Logger
	now        func() time.Time
}

// NewFetcher creates a Fetcher
func NewFetcher(opts FetcherOptions) *Fetcher {
	f := &Fetcher{
		client:     opts.Client,
		userAgent:  opts.UserAgent,
		timeout:    opts.Timeout,
		workers:    opts.Workers,
		maxPerFeed: opts.MaxPerFeed,
		logger:     opts.Logger,
		now:        time.Now,
	}
	if f.client == nil {
		f.client = &http.Client{}
	}
	if f.userAgent == "" {
		f.userAgent = "Gofeed/1.0"
	}
	if f.timeout <= 0 {
		f.timeout = 15 * time.Second
	}
	if f.workers < 1 {
		f.workers = 4
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	return f
}

// FetchAll fetches every source and returns one result per source in declared order
func (f *Fetcher) FetchAll(ctx context.Context, sources []types.FeedSource) []FetchResult {
	return workpool.Run(ctx, f.workers, sources, f.Fetch)
}

// Fetch retrieves and parses a single feed within the per-feed timeout
func (f *Fetcher) Fetch(ctx context.Context, idx int, src types.FeedSource) FetchResult {
	result := FetchResult{Source: src, Index: idx}

	if err := ctx.Err(); err != nil {
		result.Err = &FetchError{Reason: ReasonTimeout, Err: err}
		return result
	}

	fetchCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	parser := gofeed.NewParser()
	parser.Client = f.client
	parser.UserAgent = f.userAgent

	start := f.now()
	feed, err := parser.ParseURLWithContext(src.URL, fetchCtx)
	if err != nil {
		result.Err = classifyFetchError(err)
		f.logger.Warn("feed fetch failed", "source", src.DisplayName(), "url", src.URL, "error", result.Err)
		return result
	}
	if len(feed.Items) == 0 {
		result.Err = &FetchError{Reason: ReasonEmpty, Err: errors.New("feed has no items")}
		f.logger.Warn("feed fetch failed", "source", src.DisplayName(), "url", src.URL, "error", result.Err)
		return result
	}

	items := f.toItems(idx, src, feed)
	if len(items) == 0 {
		result.Err = &FetchError{Reason: ReasonEmpty, Err: errors.New("feed has no items with links")}
		f.logger.Warn("feed fetch failed", "source", src.DisplayName(), "url", src.URL, "error", result.Err)
		return result
	}
	result.Items = items
	f.logger.Debug("feed fetched", "source", src.DisplayName(), "items", len(result.Items), "took", f.now().Sub(start))
	return result
}

func (f *Fetcher) toItems(idx int, src types.FeedSource, feed *gofeed.Feed) []types.FeedItem {
	count := len(feed.Items)
	if f.maxPerFeed > 0 && count > f.maxPerFeed {
		count = f.maxPerFeed
	}

	items := make([]types.FeedItem, 0, count)
	for i := 0; i < count; i++ {
		item := feed.Items[i]
		if item == nil || strings.TrimSpace(item.Link) == "" {
			continue
		}
		link := strings.TrimSpace(item.Link)

		// Use GUID if available, otherwise generate from URL
		id := item.GUID
		if id == "" {
			id = types.GenerateID(link)
		}

		var publishedAt time.Time
		if item.PublishedParsed != nil {
			publishedAt = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			publishedAt = *item.UpdatedParsed
		}

		author := ""
		if item.Author != nil {
			author = item.Author.Name
		}

		description := item.Description
		if description == "" {
			description = item.Content
		}

		fi := types.FeedItem{
			ID:          id,
			Source:      src.DisplayName(),
			SourceIndex: idx,
			Position:    i,
			Title:       strings.TrimSpace(item.Title),
			Link:        link,
			PublishedAt: publishedAt,
			Description: description,
			Author:      author,
			Categories:  append([]string(nil), item.Categories...),
		}
		if item.Image != nil {
			fi.ImageURL = item.Image.URL
		}
		items = append(items, fi)
	}
	return items
}

func classifyFetchError(err error) error {
	var httpErr gofeed.HTTPError
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return &FetchError{Reason: ReasonTimeout, Err: err}
	case errors.As(err, &httpErr):
		return &FetchError{Reason: ReasonHTTPStatus, Err: err}
	case errors.As(err, &netErr):
		if netErr.Timeout() {
			return &FetchError{Reason: ReasonTimeout, Err: err}
		}
		return &FetchError{Reason: ReasonNetwork, Err: err}
	default:
		return &FetchError{Reason: ReasonParse, Err: err}
	}
}
