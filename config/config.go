package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	configPathEnv = "BRIEFING_CONFIG"
	defaultPath   = "config.yaml"
)

// Config holds every setting of a briefing run and of service mode.
type Config struct {
	APIs       APIsConfig       `yaml:"apis"`
	Location   LocationConfig   `yaml:"location"`
	Email      EmailConfig      `yaml:"email"`
	News       NewsConfig       `yaml:"news"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	Calendar   CalendarConfig   `yaml:"calendar"`
	Delivery   DeliveryConfig   `yaml:"delivery"`
	S3         S3Config         `yaml:"s3"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Redis      RedisConfig      `yaml:"redis"`
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// APIsConfig holds third-party credentials.
type APIsConfig struct {
	OpenWeatherKey string `yaml:"openweather_key"`
	OpenAIKey      string `yaml:"openai_key"`
	CohereKey      string `yaml:"cohere_key"`
}

// LocationConfig is the weather location.
type LocationConfig struct {
	City        string `yaml:"city"`
	CountryCode string `yaml:"country_code"`
	Units       string `yaml:"units"`
}

// EmailConfig configures SMTP delivery.
type EmailConfig struct {
	Recipient   string `yaml:"recipient"`
	FromAddress string `yaml:"from_address"`
	Subject     string `yaml:"subject"`
	SMTPHost    string `yaml:"smtp_host"`
	SMTPPort    int    `yaml:"smtp_port"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	MaxRetries  int    `yaml:"max_retries"`
}

// NewsConfig configures the fetch, extract and select stages.
type NewsConfig struct {
	RSSFeeds         FeedList      `yaml:"rss_feeds"`
	MaxArticles      int           `yaml:"max_articles"`
	MaxPerFeed       int           `yaml:"articles_per_feed"`
	SummarySentences int           `yaml:"summary_sentences"`
	MinArticleChars  int           `yaml:"min_article_chars"`
	MaxArticleChars  int           `yaml:"max_article_chars"`
	FetchWorkers     int           `yaml:"fetch_workers"`
	ExtractWorkers   int           `yaml:"extract_workers"`
	FeedTimeout      time.Duration `yaml:"feed_timeout"`
	PageTimeout      time.Duration `yaml:"page_timeout"`
	UserAgent        string        `yaml:"user_agent"`
}

// SummarizerConfig configures the text-generation stage.
type SummarizerConfig struct {
	Provider      string        `yaml:"provider"`
	Model         string        `yaml:"model"`
	Endpoint      string        `yaml:"endpoint"`
	MaxInputChars int           `yaml:"max_input_chars"`
	Timeout       time.Duration `yaml:"timeout"`
	MinInterval   time.Duration `yaml:"min_interval"`
	RetryBackoff  time.Duration `yaml:"retry_backoff"`
	Workers       int           `yaml:"workers"`
	MaxTokens     int           `yaml:"max_tokens"`
	Temperature   float64       `yaml:"temperature"`
}

// CalendarConfig configures the Google Calendar collaborator.
type CalendarConfig struct {
	Enabled         bool   `yaml:"enabled"`
	CredentialsFile string `yaml:"credentials_file"`
	TokenFile       string `yaml:"token_file"`
	CalendarID      string `yaml:"calendar_id"`
	Timezone        string `yaml:"timezone"`
}

// DeliveryConfig selects where the finished briefing goes.
type DeliveryConfig struct {
	Mode      string `yaml:"mode"`
	OutputDir string `yaml:"output_dir"`
	Archive   bool   `yaml:"archive"`
}

// S3Config configures the briefing archive.
type S3Config struct {
	Bucket       string `yaml:"bucket"`
	Region       string `yaml:"region"`
	Profile      string `yaml:"profile"`
	Prefix       string `yaml:"prefix"`
	UsePathStyle bool   `yaml:"use_path_style"`
}

// KafkaConfig configures run events and run requests.
type KafkaConfig struct {
	Brokers       []string `yaml:"brokers"`
	RunsTopic     string   `yaml:"runs_topic"`
	RequestsTopic string   `yaml:"requests_topic"`
	GroupID       string   `yaml:"group_id"`
}

// Enabled reports whether brokers are configured
func (k KafkaConfig) Enabled() bool { return len(k.Brokers) > 0 }

// RedisConfig configures the shared summarizer throttle.
type RedisConfig struct {
	Addr        string `yaml:"addr"`
	Password    string `yaml:"password"`
	DB          int    `yaml:"db"`
	ThrottleKey string `yaml:"throttle_key"`
}

// ServerConfig configures service mode.
type ServerConfig struct {
	Addr        string        `yaml:"addr"`
	Schedule    string        `yaml:"schedule"`
	RunDeadline time.Duration `yaml:"run_deadline"`
}

// LoggingConfig configures the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Dir    string `yaml:"dir"`
}

// Load reads .env, the YAML file at path (or $BRIEFING_CONFIG, or config.yaml),
// applies environment overrides and defaults, and validates the result.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path == "" {
		path = defaultPath
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config file not found: %w", err)
	}

	cfg, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML, applies environment overrides and fills defaults. It does not validate.
func Parse(raw []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	cfg.applyEnvOverrides()
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyEnvOverrides() {
	setString(&c.APIs.OpenWeatherKey, "OPENWEATHER_API_KEY")
	setString(&c.APIs.OpenAIKey, "OPENAI_API_KEY")
	setString(&c.APIs.CohereKey, "COHERE_API_KEY")
	setString(&c.Summarizer.Provider, "SUMMARIZER_PROVIDER")
	setString(&c.Email.SMTPHost, "SMTP_HOST")
	setString(&c.Email.Username, "SMTP_USERNAME")
	setString(&c.Email.Password, "SMTP_PASSWORD")
	setString(&c.Email.Recipient, "BRIEFING_RECIPIENT")
	setString(&c.S3.Bucket, "S3_BUCKET")
	setString(&c.S3.Region, "AWS_REGION")
	setString(&c.S3.Profile, "AWS_PROFILE")
	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	setString(&c.Server.Addr, "SERVER_ADDR")
	setString(&c.Logging.Level, "LOG_LEVEL")

	if v := os.Getenv("SMTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Email.SMTPPort = port
		}
	}
	if v := os.Getenv("S3_USE_PATH_STYLE"); v != "" {
		c.S3.UsePathStyle = v == "true" || v == "1"
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
	}
}

func (c *Config) applyDefaults() {
	setDefault(&c.Location.Units, DefaultUnits)

	setDefault(&c.Email.Subject, DefaultSubject)
	setDefaultInt(&c.Email.SMTPPort, DefaultSMTPPort)
	setDefaultInt(&c.Email.MaxRetries, DefaultEmailRetries)
	if c.Email.FromAddress == "" {
		c.Email.FromAddress = c.Email.Username
	}

	setDefaultInt(&c.News.MaxArticles, DefaultMaxArticles)
	setDefaultInt(&c.News.MaxPerFeed, DefaultMaxPerFeed)
	setDefaultInt(&c.News.SummarySentences, DefaultSummarySentences)
	setDefaultInt(&c.News.MinArticleChars, DefaultMinArticleChars)
	setDefaultInt(&c.News.MaxArticleChars, DefaultMaxArticleChars)
	setDefaultInt(&c.News.FetchWorkers, DefaultFetchWorkers)
	setDefaultInt(&c.News.ExtractWorkers, DefaultExtractWorkers)
	setDefaultDuration(&c.News.FeedTimeout, DefaultFeedTimeout)
	setDefaultDuration(&c.News.PageTimeout, DefaultPageTimeout)
	setDefault(&c.News.UserAgent, DefaultUserAgent)

	if c.Summarizer.Provider == "" {
		// Fall back to whichever key is present
		switch {
		case c.APIs.CohereKey != "":
			c.Summarizer.Provider = "cohere"
		case c.APIs.OpenAIKey != "":
			c.Summarizer.Provider = "openai"
		default:
			c.Summarizer.Provider = DefaultProvider
		}
	}
	c.Summarizer.Provider = strings.ToLower(c.Summarizer.Provider)
	if c.Summarizer.Model == "" {
		if c.Summarizer.Provider == "openai" {
			c.Summarizer.Model = DefaultOpenAIModel
		} else {
			c.Summarizer.Model = DefaultCohereModel
		}
	}
	if c.Summarizer.Provider == "openai" {
		setDefault(&c.Summarizer.Endpoint, DefaultOpenAIEndpoint)
	}
	setDefaultInt(&c.Summarizer.MaxInputChars, DefaultSummaryInputChars)
	setDefaultDuration(&c.Summarizer.Timeout, DefaultSummaryTimeout)
	setDefaultDuration(&c.Summarizer.MinInterval, DefaultRateInterval)
	setDefaultDuration(&c.Summarizer.RetryBackoff, DefaultRetryBackoff)
	setDefaultInt(&c.Summarizer.Workers, DefaultSummaryWorkers)
	if c.Summarizer.Workers > MaxSummaryWorkers {
		c.Summarizer.Workers = MaxSummaryWorkers
	}
	setDefaultInt(&c.Summarizer.MaxTokens, DefaultSummaryMaxTokens)
	if c.Summarizer.Temperature == 0 {
		c.Summarizer.Temperature = DefaultTemperature
	}

	setDefault(&c.Calendar.CredentialsFile, DefaultCredentialsFile)
	setDefault(&c.Calendar.TokenFile, DefaultTokenFile)
	setDefault(&c.Calendar.CalendarID, DefaultCalendarID)

	setDefault(&c.Delivery.Mode, DefaultDeliveryMode)
	setDefault(&c.Delivery.OutputDir, OutputDir)

	setDefault(&c.S3.Prefix, DefaultS3Prefix)

	setDefault(&c.Kafka.RunsTopic, DefaultRunsTopic)
	setDefault(&c.Kafka.RequestsTopic, DefaultRequestsTopic)
	setDefault(&c.Kafka.GroupID, DefaultConsumerGroup)

	setDefault(&c.Redis.ThrottleKey, DefaultThrottleKey)

	setDefault(&c.Server.Addr, DefaultServerAddr)
	setDefault(&c.Server.Schedule, DefaultSchedule)
	setDefaultDuration(&c.Server.RunDeadline, DefaultRunDeadline)

	setDefault(&c.Logging.Level, "info")
	setDefault(&c.Logging.Format, "text")
	setDefault(&c.Logging.Dir, LogsDir)
}

// Validate checks the settings a run cannot proceed without. Weather and
// calendar settings are optional; a missing key only drops that section.
func (c *Config) Validate() error {
	var errs []error

	if len(c.News.RSSFeeds) == 0 {
		errs = append(errs, errors.New("news.rss_feeds must have at least one feed"))
	}
	for i, f := range c.News.RSSFeeds {
		name := f.Key
		if name == "" {
			name = strconv.Itoa(i)
		}
		if f.URL == "" {
			errs = append(errs, fmt.Errorf("news.rss_feeds.%s missing 'url'", name))
			continue
		}
		if u, err := url.Parse(f.URL); err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			errs = append(errs, fmt.Errorf("news.rss_feeds.%s has invalid url %q", name, f.URL))
		}
	}
	if c.News.MaxArticles < 1 {
		errs = append(errs, errors.New("news.max_articles must be positive"))
	}
	if c.News.SummarySentences < 1 {
		errs = append(errs, errors.New("news.summary_sentences must be positive"))
	}

	switch c.Summarizer.Provider {
	case "cohere":
		if c.APIs.CohereKey == "" {
			errs = append(errs, errors.New("missing required configuration: apis.cohere_key"))
		}
	case "openai":
		if c.APIs.OpenAIKey == "" {
			errs = append(errs, errors.New("missing required configuration: apis.openai_key"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown summarizer.provider %q", c.Summarizer.Provider))
	}

	switch c.Delivery.Mode {
	case DeliveryFile:
	case DeliveryEmail:
		for field, v := range map[string]string{
			"email.recipient":    c.Email.Recipient,
			"email.from_address": c.Email.FromAddress,
			"email.smtp_host":    c.Email.SMTPHost,
		} {
			if v == "" {
				errs = append(errs, fmt.Errorf("missing required configuration: %s", field))
			}
		}
	default:
		errs = append(errs, fmt.Errorf("unknown delivery.mode %q", c.Delivery.Mode))
	}

	if c.Delivery.Archive && c.S3.Bucket == "" {
		errs = append(errs, errors.New("delivery.archive requires s3.bucket"))
	}

	return errors.Join(errs...)
}

// WeatherEnabled reports whether the weather section can be fetched
func (c *Config) WeatherEnabled() bool {
	return c.APIs.OpenWeatherKey != "" && c.Location.City != ""
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

func setDefault(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}

func setDefaultInt(dst *int, v int) {
	if *dst == 0 {
		*dst = v
	}
}

func setDefaultDuration(dst *time.Duration, v time.Duration) {
	if *dst == 0 {
		*dst = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
