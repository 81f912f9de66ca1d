package config

import "time"

// News Pipeline Constants
const (
	// DefaultMaxArticles caps the selection handed to the summarizer
	DefaultMaxArticles = 10

	// DefaultMaxPerFeed caps items taken from a single feed
	DefaultMaxPerFeed = 10

	// DefaultMinArticleChars is the shortest extracted text accepted as an article
	DefaultMinArticleChars = 400

	// DefaultMaxArticleChars caps stored extracted text
	DefaultMaxArticleChars = 20000

	// DefaultFetchWorkers is the number of concurrent feed fetches
	DefaultFetchWorkers = 4

	// DefaultExtractWorkers is the number of concurrent page extractions
	DefaultExtractWorkers = 5

	// DefaultFeedTimeout bounds a single feed fetch
	DefaultFeedTimeout = 15 * time.Second

	// DefaultPageTimeout bounds a single article page fetch
	DefaultPageTimeout = 20 * time.Second

	// DefaultUserAgent is sent with every feed and page request
	DefaultUserAgent = "Mozilla/5.0 (compatible; MorningBrief/1.0; +https://github.com/morningbrief)"
)

// Summarizer Constants
const (
	DefaultProvider         = "cohere"
	DefaultCohereModel      = "command-r"
	DefaultOpenAIModel      = "gpt-3.5-turbo"
	DefaultOpenAIEndpoint   = "https://api.openai.com/v1/chat/completions"
	DefaultSummarySentences = 3

	// DefaultSummaryInputChars is the submission limit for article text
	DefaultSummaryInputChars = 4000

	DefaultSummaryTimeout   = 30 * time.Second
	DefaultRateInterval     = time.Second
	DefaultRetryBackoff     = 2 * time.Second
	DefaultSummaryWorkers   = 1
	MaxSummaryWorkers       = 2
	DefaultSummaryMaxTokens = 150
	DefaultTemperature      = 0.3
)

// Run Constants
const (
	// DefaultRunDeadline bounds one whole briefing run
	DefaultRunDeadline = 5 * time.Minute

	// DefaultSchedule is the cron expression for service mode (06:30 every day)
	DefaultSchedule = "30 6 * * *"
)

// Directory Constants
const (
	// OutputDir is where dry-run briefings are written
	OutputDir = "output"

	// LogsDir is where daily log files are written
	LogsDir = "logs"
)

// Collaborator Constants
const (
	DefaultUnits           = "imperial"
	DefaultCalendarID      = "primary"
	DefaultCredentialsFile = "credentials.json"
	DefaultTokenFile       = "token.json"
	DefaultSMTPPort        = 587
	DefaultEmailRetries    = 3
	DefaultSubject         = "Your Morning Briefing"
	DefaultServerAddr      = ":8080"
	DefaultRunsTopic       = "briefing.runs"
	DefaultRequestsTopic   = "briefing.requests"
	DefaultConsumerGroup   = "morningbrief"
	DefaultThrottleKey     = "morningbrief:summarizer:throttle"
	DefaultS3Prefix        = "briefings/"
	DefaultDeliveryMode    = DeliveryFile
	DeliveryFile           = "file"
	DeliveryEmail          = "email"
)
