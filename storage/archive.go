package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"morningbrief/types"
)

// Archive stores each briefing as JSON plus its rendered HTML under
// <prefix>YYYY/MM/DD/<run id>.{json,html}.
type Archive struct {
	store  *S3
	prefix string
}

// NewArchive returns an archive writing under prefix
func NewArchive(store *S3, prefix string) *Archive {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Archive{store: store, prefix: prefix}
}

// Key returns the object key (without extension) for a briefing
func (a *Archive) Key(b *types.Briefing) string {
	return a.prefix + path.Join(b.GeneratedAt.UTC().Format("2006/01/02"), b.RunID)
}

// Save writes the briefing JSON and, when non-empty, its HTML.
func (a *Archive) Save(ctx context.Context, b *types.Briefing, html []byte) (string, error) {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode briefing: %w", err)
	}

	key := a.Key(b)
	if err := a.store.Put(ctx, key+".json", bytes.NewReader(data), "application/json"); err != nil {
		return "", fmt.Errorf("failed to upload %s.json: %w", key, err)
	}
	if len(html) > 0 {
		if err := a.store.Put(ctx, key+".html", bytes.NewReader(html), "text/html; charset=utf-8"); err != nil {
			return "", fmt.Errorf("failed to upload %s.html: %w", key, err)
		}
	}
	return key, nil
}

// Load reads a briefing back by key (without extension).
func (a *Archive) Load(ctx context.Context, key string) (*types.Briefing, error) {
	body, err := a.store.Get(ctx, key+".json")
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	var b types.Briefing
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to decode %s.json: %w", key, err)
	}
	return &b, nil
}

// Latest returns the most recently archived briefing, or ErrNotFound.
func (a *Archive) Latest(ctx context.Context) (*types.Briefing, error) {
	keys, err := a.store.Keys(ctx, a.prefix)
	if err != nil {
		return nil, err
	}

	var jsonKeys []string
	for _, k := range keys {
		if strings.HasSuffix(k, ".json") {
			jsonKeys = append(jsonKeys, strings.TrimSuffix(k, ".json"))
		}
	}
	if len(jsonKeys) == 0 {
		return nil, ErrNotFound
	}

	// Date-partitioned keys sort chronologically by day; within a day pick the newest by content
	sort.Strings(jsonKeys)
	lastDay := path.Dir(jsonKeys[len(jsonKeys)-1])

	var latest *types.Briefing
	for i := len(jsonKeys) - 1; i >= 0 && path.Dir(jsonKeys[i]) == lastDay; i-- {
		b, err := a.Load(ctx, jsonKeys[i])
		if err != nil {
			return nil, err
		}
		if latest == nil || b.GeneratedAt.After(latest.GeneratedAt) {
			latest = b
		}
	}
	return latest, nil
}
