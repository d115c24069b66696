package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/osvaldoandrade/hyperdemos/internal/backoff"
	"github.com/osvaldoandrade/hyperdemos/internal/tracing"
	"github.com/osvaldoandrade/hyperdemos/pkg/domain"

	"gopkg.in/yaml.v3"
)

type RateLimitBucketConfig struct {
	RequestsPerMinute int `yaml:"requestsPerMinute"`
	BurstSize         int `yaml:"burstSize"`
}

type RateLimitConfig struct {
	// HTTP limits inbound API calls per client IP.
	HTTP RateLimitBucketConfig `yaml:"http"`
	// Geocode throttles outbound Nominatim lookups (their policy is 1 req/s).
	Geocode RateLimitBucketConfig `yaml:"geocode"`
}

type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	ServiceName  string  `yaml:"serviceName"`
	OTLPEndpoint string  `yaml:"otlpEndpoint"`
	OTLPInsecure bool    `yaml:"otlpInsecure"`
	SampleRatio  float64 `yaml:"sampleRatio"`
}

type Config struct {
	Port      int    `yaml:"port"`
	Env       string `yaml:"env"`
	LogLevel  string `yaml:"logLevel"`
	LogFormat string `yaml:"logFormat"`

	RedisAddr       string `yaml:"redisAddr"`
	RedisPassword   string `yaml:"redisPassword"`
	RedisDB         int    `yaml:"redisDb"`
	CacheTTLSeconds int    `yaml:"cacheTtlSeconds"`

	HyperbrowserAPIKey  string `yaml:"hyperbrowserApiKey"`
	HyperbrowserBaseURL string `yaml:"hyperbrowserBaseUrl"`
	OpenAIAPIKey        string `yaml:"openaiApiKey"`
	OpenAIBaseURL       string `yaml:"openaiBaseUrl"`
	ElevenLabsAPIKey    string `yaml:"elevenlabsApiKey"`
	ElevenLabsBaseURL   string `yaml:"elevenlabsBaseUrl"`
	NominatimURL        string `yaml:"nominatimUrl"`
	NominatimUserAgent  string `yaml:"nominatimUserAgent"`

	HTTPTimeoutSeconds  int    `yaml:"httpTimeoutSeconds"`
	PollIntervalSeconds int    `yaml:"pollIntervalSeconds"`
	PollTimeoutSeconds  int    `yaml:"pollTimeoutSeconds"`
	RetryMaxAttempts    int    `yaml:"retryMaxAttempts"`
	RetryBaseSeconds    int    `yaml:"retryBaseSeconds"`
	RetryMaxSeconds     int    `yaml:"retryMaxSeconds"`
	BackoffPolicy       string `yaml:"backoffPolicy"`

	JournalPath     string `yaml:"journalPath"`
	OutputDir       string `yaml:"outputDir"`
	StateSecret     string `yaml:"stateSecret"`
	StateTTLSeconds int    `yaml:"stateTtlSeconds"`

	RateLimit RateLimitConfig `yaml:"rateLimit"`
	Tracing   TracingConfig   `yaml:"tracing"`
}

// LoadConfig reads filePath, applies environment overrides and fills defaults.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	c.applyEnv()
	c.applyDefaults()
	return &c, nil
}

// LoadConfigOptional is LoadConfig that tolerates a blank or missing path and
// then runs from environment and defaults alone.
func LoadConfigOptional(filePath string) (*Config, error) {
	if strings.TrimSpace(filePath) != "" {
		c, err := LoadConfig(filePath)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		log.Printf("Config file %s not found, using environment and defaults\n", filePath)
	}
	var c Config
	c.applyEnv()
	c.applyDefaults()
	return &c, nil
}

func (c *Config) applyEnv() {
	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(dst *int, key string) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	setInt(&c.Port, "PORT")
	setString(&c.Env, "ENV")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.LogFormat, "LOG_FORMAT")

	setString(&c.RedisAddr, "REDIS_ADDR")
	setString(&c.RedisPassword, "REDIS_PASSWORD")
	setInt(&c.RedisDB, "REDIS_DB")
	setInt(&c.CacheTTLSeconds, "CACHE_TTL_SECONDS")

	setString(&c.HyperbrowserAPIKey, "HYPERBROWSER_API_KEY")
	setString(&c.HyperbrowserBaseURL, "HYPERBROWSER_BASE_URL")
	setString(&c.OpenAIAPIKey, "OPENAI_API_KEY")
	setString(&c.OpenAIBaseURL, "OPENAI_BASE_URL")
	setString(&c.ElevenLabsAPIKey, "ELEVENLABS_API_KEY")
	setString(&c.ElevenLabsBaseURL, "ELEVENLABS_BASE_URL")
	setString(&c.NominatimURL, "NOMINATIM_URL")
	setString(&c.NominatimUserAgent, "NOMINATIM_USER_AGENT")

	setInt(&c.HTTPTimeoutSeconds, "HTTP_TIMEOUT_SECONDS")
	setInt(&c.PollIntervalSeconds, "POLL_INTERVAL_SECONDS")
	setInt(&c.PollTimeoutSeconds, "POLL_TIMEOUT_SECONDS")
	setInt(&c.RetryMaxAttempts, "RETRY_MAX_ATTEMPTS")
	setInt(&c.RetryBaseSeconds, "RETRY_BASE_SECONDS")
	setInt(&c.RetryMaxSeconds, "RETRY_MAX_SECONDS")
	setString(&c.BackoffPolicy, "BACKOFF_POLICY")

	setString(&c.JournalPath, "JOURNAL_PATH")
	setString(&c.OutputDir, "OUTPUT_DIR")
	setString(&c.StateSecret, "STATE_SECRET")
	setInt(&c.StateTTLSeconds, "STATE_TTL_SECONDS")

	setInt(&c.RateLimit.HTTP.RequestsPerMinute, "RATE_LIMIT_HTTP_RPM")
	setInt(&c.RateLimit.HTTP.BurstSize, "RATE_LIMIT_HTTP_BURST")
	setInt(&c.RateLimit.Geocode.RequestsPerMinute, "RATE_LIMIT_GEOCODE_RPM")
	setInt(&c.RateLimit.Geocode.BurstSize, "RATE_LIMIT_GEOCODE_BURST")

	if v := os.Getenv("TRACING_ENABLED"); v != "" {
		c.Tracing.Enabled, _ = strconv.ParseBool(v)
	}
	setString(&c.Tracing.OTLPEndpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setString(&c.Tracing.ServiceName, "OTEL_SERVICE_NAME")
	if v := os.Getenv("OTEL_EXPORTER_OTLP_INSECURE"); v != "" {
		c.Tracing.OTLPInsecure, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("OTEL_TRACES_SAMPLER_ARG"); v != "" {
		c.Tracing.SampleRatio = tracing.ParseSampleRatio(v)
	}
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.Env == "" {
		c.Env = "dev"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "json"
	}
	if c.CacheTTLSeconds <= 0 {
		c.CacheTTLSeconds = 3600
	}
	if c.NominatimUserAgent == "" {
		c.NominatimUserAgent = "hyperdemos-travel-finder/1.0"
	}
	if c.HTTPTimeoutSeconds <= 0 {
		c.HTTPTimeoutSeconds = 60
	}
	if c.PollIntervalSeconds <= 0 {
		c.PollIntervalSeconds = 2
	}
	if c.PollTimeoutSeconds <= 0 {
		c.PollTimeoutSeconds = 300
	}
	if c.RetryMaxAttempts <= 0 {
		c.RetryMaxAttempts = 3
	}
	if c.RetryBaseSeconds <= 0 {
		c.RetryBaseSeconds = 2
	}
	if c.RetryMaxSeconds <= 0 {
		c.RetryMaxSeconds = 10
	}
	if c.BackoffPolicy == "" {
		c.BackoffPolicy = backoff.Exponential
	}
	if c.JournalPath == "" {
		c.JournalPath = "hyperdemos.db"
	}
	if c.OutputDir == "" {
		c.OutputDir = "out"
	}
	if c.StateTTLSeconds <= 0 {
		c.StateTTLSeconds = 3600
	}
	if c.RateLimit.Geocode == (RateLimitBucketConfig{}) {
		c.RateLimit.Geocode = RateLimitBucketConfig{RequestsPerMinute: 60, BurstSize: 1}
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "hyperdemos"
	}
}

func (c *Config) Validate() error {
	var errs []string
	dev := strings.EqualFold(strings.TrimSpace(c.Env), "dev")

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, "port must be between 1 and 65535")
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		errs = append(errs, "logFormat must be json or text")
	}
	switch c.BackoffPolicy {
	case backoff.Fixed, backoff.Linear, backoff.Exponential, backoff.ExpEqualJitter, backoff.ExpFullJitter:
	default:
		errs = append(errs, fmt.Sprintf("backoffPolicy %q is not supported", c.BackoffPolicy))
	}
	if c.RetryBaseSeconds > c.RetryMaxSeconds {
		errs = append(errs, "retryBaseSeconds must not exceed retryMaxSeconds")
	}
	for name, raw := range map[string]string{
		"hyperbrowserBaseUrl": c.HyperbrowserBaseURL,
		"openaiBaseUrl":       c.OpenAIBaseURL,
		"elevenlabsBaseUrl":   c.ElevenLabsBaseURL,
		"nominatimUrl":        c.NominatimURL,
	} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, name+" must be a valid http(s) URL")
		}
	}
	if strings.TrimSpace(c.StateSecret) == "" && !dev {
		errs = append(errs, "stateSecret is required in non-dev")
	}
	for name, b := range map[string]RateLimitBucketConfig{"http": c.RateLimit.HTTP, "geocode": c.RateLimit.Geocode} {
		if b.RequestsPerMinute < 0 || b.BurstSize < 0 {
			errs = append(errs, "rateLimit."+name+" must not be negative")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// RetryPolicy is the outbound retry policy; only transient errors are retried.
func (c *Config) RetryPolicy() backoff.Policy {
	return backoff.Policy{
		MaxAttempts: c.RetryMaxAttempts,
		BaseDelay:   time.Duration(c.RetryBaseSeconds) * time.Second,
		MaxDelay:    time.Duration(c.RetryMaxSeconds) * time.Second,
		Strategy:    c.BackoffPolicy,
		Retryable:   domain.IsTransient,
	}
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

func (c *Config) StateTTL() time.Duration {
	return time.Duration(c.StateTTLSeconds) * time.Second
}
