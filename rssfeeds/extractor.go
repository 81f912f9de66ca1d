package rssfeeds

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"morningbrief/types"
	"morningbrief/workpool"
)

// Extraction failure reasons
const (
	ReasonInvalidURL = "invalid_url"
	ReasonFetch      = "fetch_error"
	ReasonNonHTML    = "non_html"
	ReasonTooShort   = "too_short"
)

const (
	WorkerCount      = 5
	extractorTimeout = 20 * time.Second
	maxBodyBytes     = 5 << 20
)

// boilerplate is removed before the fallback extraction
const boilerplate = "script, style, noscript, iframe, nav, header, footer, aside, form, figure, svg, " +
	"[role=navigation], [role=banner], [role=contentinfo], .advertisement, .ad, .ads, .social, .share, .related, .newsletter"

// blockSelector picks the elements whose text forms paragraphs
const blockSelector = "p, h1, h2, h3, h4, h5, h6, li, blockquote, pre"

// ExtractorOptions configures an Extractor. Zero values fall back to defaults.
type ExtractorOptions struct {
	Client    *http.Client
	UserAgent string
	Timeout   time.Duration
	Workers   int
	MinChars  int
	MaxChars  int
	Logger    *slog.Logger
}

// Extractor fetches article pages and isolates their readable text
type Extractor struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
	workers   int
	minChars  int
	maxChars  int
	logger    *slog.Logger
	now       func() time.Time
}

// NewExtractor creates an Extractor
func NewExtractor(opts ExtractorOptions) *Extractor {
	e := &Extractor{
		client:    opts.Client,
		userAgent: opts.UserAgent,
		timeout:   opts.Timeout,
		workers:   opts.Workers,
		minChars:  opts.MinChars,
		maxChars:  opts.MaxChars,
		logger:    opts.Logger,
		now:       time.Now,
	}
	if e.client == nil {
		e.client = &http.Client{}
	}
	if e.timeout <= 0 {
		e.timeout = extractorTimeout
	}
	if e.workers < 1 {
		e.workers = WorkerCount
	}
	if e.minChars < 1 {
		e.minChars = 1
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// ExtractAll extracts every item using the worker pool. The returned slice is
// in the same order as items, whatever order the pages finished in.
func (e *Extractor) ExtractAll(ctx context.Context, items []types.FeedItem) []types.Article {
	return workpool.Run(ctx, e.workers, items, func(ctx context.Context, _ int, item types.FeedItem) types.Article {
		return e.Extract(ctx, item)
	})
}

// Extract fetches a single item's page. It never panics and never returns an
// error; failures are recorded in the article's extraction outcome.
func (e *Extractor) Extract(ctx context.Context, item types.FeedItem) types.Article {
	article := types.ArticleFromItem(item)
	article.FetchedAt = e.now()

	text, excerpt, err := e.extract(ctx, item.Link, &article)
	if err != nil {
		article.Extraction = types.Failed(err.Error())
		e.logger.Warn("extraction failed", "url", item.Link, "title", item.Title, "error", err)
		return article
	}

	article.Text = text
	if article.Excerpt == "" {
		article.Excerpt = excerpt
	}
	article.Extraction = types.OK()
	e.logger.Debug("extracted", "title", item.Title, "chars", utf8.RuneCountInString(text))
	return article
}

func (e *Extractor) extract(ctx context.Context, rawURL string, article *types.Article) (string, string, error) {
	pageURL, err := url.Parse(rawURL)
	if err != nil || pageURL.Host == "" || (pageURL.Scheme != "http" && pageURL.Scheme != "https") {
		return "", "", fmt.Errorf("%s: %q", ReasonInvalidURL, rawURL)
	}

	body, err := e.fetchPage(ctx, rawURL)
	if err != nil {
		return "", "", err
	}

	text, excerpt := e.readable(body, pageURL, article)
	if utf8.RuneCountInString(text) < e.minChars {
		if fallback := fallbackText(body); utf8.RuneCountInString(fallback) > utf8.RuneCountInString(text) {
			text = fallback
		}
	}

	n := utf8.RuneCountInString(text)
	if n == 0 {
		return "", "", fmt.Errorf("%s: no readable text", ReasonTooShort)
	}
	if n < e.minChars {
		return "", "", fmt.Errorf("%s: %d chars, need %d", ReasonTooShort, n, e.minChars)
	}
	if e.maxChars > 0 {
		text = capText(text, e.maxChars)
	}
	return text, excerpt, nil
}

func (e *Extractor) fetchPage(ctx context.Context, rawURL string) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ReasonInvalidURL, err)
	}
	if e.userAgent != "" {
		req.Header.Set("User-Agent", e.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.5")

	resp, err := e.client.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			return nil, fmt.Errorf("%s: %w", ReasonTimeout, err)
		}
		return nil, fmt.Errorf("%s: %w", ReasonFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s: %s", ReasonHTTPStatus, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%s: %w", ReasonTimeout, err)
		}
		return nil, fmt.Errorf("%s: %w", ReasonFetch, err)
	}

	if !isHTML(resp.Header.Get("Content-Type"), body) {
		return nil, fmt.Errorf("%s: %s", ReasonNonHTML, contentType(resp.Header.Get("Content-Type"), body))
	}
	return body, nil
}

// readable runs the content-density extractor. Any panic inside the parser
// degrades to empty text so the fallback can take over.
func (e *Extractor) readable(body []byte, pageURL *url.URL, article *types.Article) (text, excerpt string) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("readability panicked", "url", pageURL.String(), "panic", r)
			text, excerpt = "", ""
		}
	}()

	parsed, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err != nil {
		e.logger.Debug("readability failed", "url", pageURL.String(), "error", err)
		return "", ""
	}

	if article.ImageURL == "" {
		article.ImageURL = parsed.Image
	}
	if article.Author == "" {
		article.Author = parsed.Byline
	}
	if article.Title == "" {
		article.Title = parsed.Title
	}

	text = htmlParagraphs(parsed.Content)
	if text == "" {
		text = NormalizeText(parsed.TextContent)
	}
	return text, strings.TrimSpace(parsed.Excerpt)
}

// htmlParagraphs flattens an HTML fragment into paragraphs separated by blank lines
func htmlParagraphs(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return ""
	}
	return blocksText(doc.Selection)
}

// fallbackText extracts text from the main content container of a full page
func fallbackText(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	doc.Find(boilerplate).Remove()

	for _, sel := range []string{"article", "main", "[role=main]", "body"} {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		if text := blocksText(node); text != "" {
			return text
		}
		if text := NormalizeText(node.Text()); text != "" {
			return text
		}
	}
	return ""
}

func blocksText(sel *goquery.Selection) string {
	var paragraphs []string
	sel.Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
		// Nested blocks are visited on their own
		if s.Find(blockSelector).Length() > 0 {
			return
		}
		if p := collapseSpaces(s.Text()); p != "" {
			paragraphs = append(paragraphs, p)
		}
	})
	return strings.Join(paragraphs, "\n\n")
}

// NormalizeText collapses whitespace inside lines and keeps blank-line paragraph breaks
func NormalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	var paragraphs []string
	for _, block := range strings.Split(s, "\n\n") {
		var lines []string
		for _, line := range strings.Split(block, "\n") {
			if line = collapseSpaces(line); line != "" {
				lines = append(lines, line)
			}
		}
		if len(lines) > 0 {
			paragraphs = append(paragraphs, strings.Join(lines, " "))
		}
	}
	return strings.Join(paragraphs, "\n\n")
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// capText shortens text to at most limit runes, cutting at whitespace
func capText(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	cut := string(runes[:limit])
	if i := strings.LastIndexAny(cut, " \n\t"); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut)
}

func isHTML(header string, body []byte) bool {
	ct := contentType(header, body)
	return strings.Contains(ct, "html")
}

func contentType(header string, body []byte) string {
	if header != "" {
		return strings.ToLower(header)
	}
	return strings.ToLower(http.DetectContentType(body))
}
