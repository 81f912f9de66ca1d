package types

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// FeedSource is a configured feed. Sources are read-only inputs to the fetcher.
type FeedSource struct {
	Key  string `json:"key" yaml:"key"`
	Name string `json:"name,omitempty" yaml:"title,omitempty"`
	URL  string `json:"url" yaml:"url"`
}

// DisplayName returns the source's name, falling back to key then URL
func (s FeedSource) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	if s.Key != "" {
		return s.Key
	}
	return s.URL
}

// FeedItem is one entry of a parsed feed
type FeedItem struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"`
	SourceIndex int       `json:"source_index"`
	Position    int       `json:"position"`
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	PublishedAt time.Time `json:"published_at,omitempty"`
	Description string    `json:"description,omitempty"`
	Author      string    `json:"author,omitempty"`
	Categories  []string  `json:"categories,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
}

// Article represents a single article with metadata and extracted content
type Article struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	URL          string    `json:"url"`
	CanonicalURL string    `json:"canonical_url,omitempty"`
	Source       string    `json:"source"`
	SourceIndex  int       `json:"source_index"`
	Position     int       `json:"position"`
	PublishedAt  time.Time `json:"published_at,omitempty"`
	FetchedAt    time.Time `json:"fetched_at"`
	Description  string    `json:"description,omitempty"`
	Author       string    `json:"author,omitempty"`
	Categories   []string  `json:"categories,omitempty"`
	Text         string    `json:"text,omitempty"`
	Excerpt      string    `json:"excerpt,omitempty"`
	ImageURL     string    `json:"image_url,omitempty"`
	Extraction   Outcome   `json:"extraction"`
}

// ArticleFromItem seeds an Article with a feed item's metadata. Extraction status is left pending.
func ArticleFromItem(item FeedItem) Article {
	return Article{
		ID:          item.ID,
		Title:       item.Title,
		URL:         item.Link,
		Source:      item.Source,
		SourceIndex: item.SourceIndex,
		Position:    item.Position,
		PublishedAt: item.PublishedAt,
		Description: item.Description,
		Author:      item.Author,
		Categories:  item.Categories,
		ImageURL:    item.ImageURL,
	}
}

// SummarizedArticle is an Article plus the outcome of its summarization
type SummarizedArticle struct {
	Article
	Summary        string  `json:"summary,omitempty"`
	SummaryOutcome Outcome `json:"summary_outcome"`
	Attempts       int     `json:"attempts"`
}

// HasSummary reports whether a summary is available for display
func (s SummarizedArticle) HasSummary() bool {
	return s.SummaryOutcome.OK() && s.Summary != ""
}

// GenerateID creates a unique ID from URL
func GenerateID(url string) string {
	hash := sha256.Sum256([]byte(url))
	return hex.EncodeToString(hash[:])[:16]
}
