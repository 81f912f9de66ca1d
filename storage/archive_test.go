package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"morningbrief/types"
)

// memS3 is an in-memory objectAPI with a tiny page size to exercise pagination.
type memS3 struct {
	mu       sync.Mutex
	objects      map[string][]byte
	contentTypes map[string]string
	pageSize     int
	putErr       error
}

func newMemS3() *memS3 {
	return &memS3{objects: map[string][]byte{}, contentTypes: map[string]string{}, pageSize: 2}
}

func (m *memS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[aws.ToString(in.Key)] = data
	m.contentTypes[aws.ToString(in.Key)] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (m *memS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (m *memS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var keys []string
	for k := range m.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	start := 0
	if in.ContinuationToken != nil {
		for i, k := range keys {
			if k == *in.ContinuationToken {
				start = i
				break
			}
		}
	}
	end := min(start+m.pageSize, len(keys))

	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(end < len(keys))}
	for _, k := range keys[start:end] {
		out.Contents = append(out.Contents, s3types.Object{Key: aws.String(k)})
	}
	if end < len(keys) {
		out.NextContinuationToken = aws.String(keys[end])
	}
	return out, nil
}

func newTestArchive() (*Archive, *memS3) {
	mem := newMemS3()
	return NewArchive(&S3{client: mem, bucket: "briefings"}, "archive"), mem
}

func briefingAt(id string, at time.Time) *types.Briefing {
	return &types.Briefing{
		RunID:       id,
		GeneratedAt: at,
		Articles: []types.SummarizedArticle{{
			Article:        types.Article{Title: "Headline " + id, URL: "https://news.example/" + id},
			Summary:        "Summary.",
			SummaryOutcome: types.OK(),
		}},
		Diagnostics: types.Diagnostics{Selected: 1, Summarized: 1},
	}
}

func TestArchive_SaveLoad(t *testing.T) {
	ctx := context.Background()
	a, mem := newTestArchive()

	b := briefingAt("run-1", time.Date(2024, 5, 1, 6, 30, 0, 0, time.UTC))
	key, err := a.Save(ctx, b, []byte("<html></html>"))
	require.NoError(t, err)
	assert.Equal(t, "archive/2024/05/01/run-1", key)

	assert.Equal(t, "application/json", mem.contentTypes[key+".json"])
	assert.Equal(t, "text/html; charset=utf-8", mem.contentTypes[key+".html"])

	got, err := a.Load(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, b.RunID, got.RunID)
	assert.True(t, b.GeneratedAt.Equal(got.GeneratedAt))
	require.Len(t, got.Articles, 1)
	assert.True(t, got.Articles[0].HasSummary())
	assert.Equal(t, []byte("<html></html>"), mem.objects[key+".html"])
}

func TestArchive_SaveWithoutHTML(t *testing.T) {
	a, mem := newTestArchive()
	key, err := a.Save(context.Background(), briefingAt("run-2", time.Now()), nil)
	require.NoError(t, err)

	_, hasHTML := mem.objects[key+".html"]
	assert.False(t, hasHTML)
}

func TestArchive_PutError(t *testing.T) {
	a, mem := newTestArchive()
	mem.putErr = errors.New("access denied")

	_, err := a.Save(context.Background(), briefingAt("run-3", time.Now()), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}

func TestArchive_Latest(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestArchive()

	_, err := a.Latest(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for _, b := range []*types.Briefing{
		briefingAt("zzz-early", day.Add(6*time.Hour)),
		briefingAt("aaa-late", day.Add(18*time.Hour)),
		briefingAt("yesterday", day.Add(-2*time.Hour)),
	} {
		_, err := a.Save(ctx, b, []byte("<p>x</p>"))
		require.NoError(t, err)
	}

	got, err := a.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "aaa-late", got.RunID)
}

func TestS3_MissingObjects(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestArchive()

	_, err := a.Load(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}
