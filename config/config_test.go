package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
apis:
  openweather_key: weather-key
  cohere_key: cohere-key
location:
  city: Boston
  country_code: US
email:
  recipient: me@example.com
  from_address: brief@example.com
  subject: Morning
news:
  max_articles: 5
  summary_sentences: 2
  feed_timeout: 7s
  rss_feeds:
    techcrunch:
      title: TechCrunch
      url: https://techcrunch.com/feed/
    verge:
      title: The Verge
      url: https://www.theverge.com/rss/index.xml
    hn: hn
`

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"COHERE_API_KEY", "OPENAI_API_KEY", "SUMMARIZER_PROVIDER", "KAFKA_BROKERS", "LOG_LEVEL", "BRIEFING_CONFIG"} {
		t.Setenv(k, "")
	}
}

func TestParse_FeedOrderAndDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	require.Len(t, cfg.News.RSSFeeds, 3)
	assert.Equal(t, "techcrunch", cfg.News.RSSFeeds[0].Key)
	assert.Equal(t, "TechCrunch", cfg.News.RSSFeeds[0].Name)
	assert.Equal(t, "verge", cfg.News.RSSFeeds[1].Key)
	assert.Equal(t, "hn", cfg.News.RSSFeeds[2].Key)
	assert.Equal(t, FeedPresets["hn"].URL, cfg.News.RSSFeeds[2].URL)

	assert.Equal(t, 5, cfg.News.MaxArticles)
	assert.Equal(t, 2, cfg.News.SummarySentences)
	assert.Equal(t, 7*time.Second, cfg.News.FeedTimeout)
	assert.Equal(t, DefaultPageTimeout, cfg.News.PageTimeout)
	assert.Equal(t, "cohere", cfg.Summarizer.Provider)
	assert.Equal(t, DefaultCohereModel, cfg.Summarizer.Model)
	assert.Equal(t, DefaultSummaryInputChars, cfg.Summarizer.MaxInputChars)
	assert.Equal(t, DeliveryFile, cfg.Delivery.Mode)
	assert.Equal(t, DefaultSchedule, cfg.Server.Schedule)
	assert.True(t, cfg.WeatherEnabled())
	require.NoError(t, cfg.Validate())
}

func TestParse_SequenceFeeds(t *testing.T) {
	clearEnv(t)

	cfg, err := Parse([]byte(`
apis: {openai_key: k}
news:
  rss_feeds:
    - {key: a, title: A, url: "https://a.example.com/rss"}
    - bbc
    - https://b.example.com/feed
`))
	require.NoError(t, err)
	require.Len(t, cfg.News.RSSFeeds, 3)
	assert.Equal(t, "a", cfg.News.RSSFeeds[0].Key)
	assert.Equal(t, "BBC News", cfg.News.RSSFeeds[1].Name)
	assert.Equal(t, "https://b.example.com/feed", cfg.News.RSSFeeds[2].URL)
	assert.Equal(t, "openai", cfg.Summarizer.Provider)
	assert.Equal(t, DefaultOpenAIEndpoint, cfg.Summarizer.Endpoint)
}

func TestParse_UnknownPreset(t *testing.T) {
	clearEnv(t)

	_, err := Parse([]byte("news:\n  rss_feeds:\n    - nope\n"))
	require.Error(t, err)
}

func TestParse_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("COHERE_API_KEY", "from-env")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.APIs.CohereKey)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Kafka.Enabled())
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"no feeds", func(c *Config) { c.News.RSSFeeds = nil }, "at least one feed"},
		{"bad url", func(c *Config) { c.News.RSSFeeds[0].URL = "ftp://x" }, "invalid url"},
		{"missing key", func(c *Config) { c.APIs.CohereKey = "" }, "apis.cohere_key"},
		{"unknown provider", func(c *Config) { c.Summarizer.Provider = "llama" }, "unknown summarizer.provider"},
		{"email needs smtp", func(c *Config) { c.Delivery.Mode = DeliveryEmail }, "email.smtp_host"},
		{"archive needs bucket", func(c *Config) { c.Delivery.Archive = true }, "s3.bucket"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(sampleYAML))
			require.NoError(t, err)
			tt.mutate(cfg)

			err = cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Boston", cfg.Location.City)
}

func TestResolveFeed(t *testing.T) {
	src, err := ResolveFeed("CNA")
	require.NoError(t, err)
	assert.Equal(t, "Channel News Asia", src.Name)

	src, err = ResolveFeed("https://example.com/rss")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/rss", src.URL)

	_, err = ResolveFeed("unknown")
	require.Error(t, err)

	assert.Contains(t, PresetKeys(), "hn")
}
