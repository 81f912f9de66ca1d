package config

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"morningbrief/types"
)

// FeedPresets maps friendly keys to well-known feeds
var FeedPresets = map[string]types.FeedSource{
	"cna": {Key: "cna", Name: "Channel News Asia", URL: "https://www.channelnewsasia.com/api/v1/rss-outbound-feed?_format=xml"},
	"st":  {Key: "st", Name: "Straits Times", URL: "https://www.straitstimes.com/news/singapore/rss.xml"},
	"hn":  {Key: "hn", Name: "Hacker News", URL: "https://hnrss.org/frontpage"},
	"tr":  {Key: "tr", Name: "Technology Review", URL: "https://www.technologyreview.com/feed/"},
	"bbc": {Key: "bbc", Name: "BBC News", URL: "https://feeds.bbci.co.uk/news/rss.xml"},
	"npr": {Key: "npr", Name: "NPR News", URL: "https://feeds.npr.org/1001/rss.xml"},
	"ars": {Key: "ars", Name: "Ars Technica", URL: "https://feeds.arstechnica.com/arstechnica/index"},
}

// PresetKeys returns the preset keys in sorted order
func PresetKeys() []string {
	keys := make([]string, 0, len(FeedPresets))
	for k := range FeedPresets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ResolveFeed accepts a preset key or a raw URL
func ResolveFeed(keyOrURL string) (types.FeedSource, error) {
	if preset, ok := FeedPresets[strings.ToLower(keyOrURL)]; ok {
		return preset, nil
	}
	if strings.HasPrefix(keyOrURL, "http://") || strings.HasPrefix(keyOrURL, "https://") {
		return types.FeedSource{URL: keyOrURL}, nil
	}
	return types.FeedSource{}, fmt.Errorf("unknown feed preset %q", keyOrURL)
}

// FeedList is the ordered feed configuration. It decodes either the mapping form
//
//	rss_feeds:
//	  techcrunch: {title: TechCrunch, url: https://techcrunch.com/feed/}
//
// or a sequence of {key, title, url} entries or preset keys. Mapping order is kept.
type FeedList []types.FeedSource

// UnmarshalYAML implements yaml.Unmarshaler
func (l *FeedList) UnmarshalYAML(node *yaml.Node) error {
	var out FeedList
	switch node.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i].Value
			src, err := decodeFeed(key, node.Content[i+1])
			if err != nil {
				return err
			}
			out = append(out, src)
		}
	case yaml.SequenceNode:
		for _, n := range node.Content {
			src, err := decodeFeed("", n)
			if err != nil {
				return err
			}
			out = append(out, src)
		}
	default:
		return fmt.Errorf("line %d: news.rss_feeds must be a mapping or a list", node.Line)
	}
	*l = out
	return nil
}

func decodeFeed(key string, node *yaml.Node) (types.FeedSource, error) {
	if node.Kind == yaml.ScalarNode {
		src, err := ResolveFeed(node.Value)
		if err != nil {
			return types.FeedSource{}, fmt.Errorf("line %d: %w", node.Line, err)
		}
		if key != "" {
			src.Key = key
		}
		return src, nil
	}
	if node.Kind != yaml.MappingNode {
		return types.FeedSource{}, fmt.Errorf("line %d: news.rss_feeds.%s must be a mapping", node.Line, key)
	}
	var src types.FeedSource
	if err := node.Decode(&src); err != nil {
		return types.FeedSource{}, fmt.Errorf("news.rss_feeds.%s: %w", key, err)
	}
	if key != "" {
		src.Key = key
	}
	return src, nil
}

// Sources returns a copy of the configured feeds
func (l FeedList) Sources() []types.FeedSource {
	return append([]types.FeedSource(nil), l...)
}
