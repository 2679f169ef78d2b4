package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Assistant AssistantConfig
	Search    SearchConfig
	Guard     GuardConfig
	Auth      AuthConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	KnowledgeBaseFile  string // optional YAML override of the embedded corpus
	FactsFile          string // optional YAML override of the embedded verified facts
	OtelEnabled        bool
	OtelEndpoint       string
}

// AssistantConfig holds the orchestrator deadlines and confidence cutoffs.
// The cutoffs are empirical; they are kept configurable rather than derived.
type AssistantConfig struct {
	RequestTimeout   time.Duration
	WebSearchTimeout time.Duration
	MaxMessageLength int
	ContextWindow    int

	WeakMatchThreshold     float64
	LowConfidenceThreshold float64
	IdentityConfidence     float64
	ContactConfidenceFloor float64
	CriticalConfidence     float64
	RiskConfidence         float64
	RelevanceThreshold     float64
	RelevanceCap           float64
	RelevanceMinWords      int
	MaxTeamSize            int
}

type SearchConfig struct {
	APIKey          string
	EngineID        string
	BaseURL         string
	EndpointTimeout time.Duration
	MaxQueryLength  int
	ResultCount     int
	DirectScore     float64
	CacheTTL        time.Duration
	CacheSize       int
}

type GuardConfig struct {
	RateLimitBackend        string // "memory" | "redis"
	RateLimitPerMinute      int
	DailySearchQuota        int
	BreakerErrorThreshold   int
	BreakerTimeoutThreshold int
	BreakerCooldown         time.Duration
	BreakerSweepInterval    time.Duration
}

type AuthConfig struct {
	JwtSecret string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	cfg := &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/assistant.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			KnowledgeBaseFile:  getEnv("KB_FILE", ""),
			FactsFile:          getEnv("FACTS_FILE", ""),
			OtelEnabled:        getEnvAsBool("OTEL_ENABLED", false),
			OtelEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
		Assistant: AssistantConfig{
			RequestTimeout:   getEnvAsDuration("ASSISTANT_REQUEST_TIMEOUT", 5*time.Second),
			WebSearchTimeout: getEnvAsDuration("ASSISTANT_WEB_SEARCH_TIMEOUT", 4500*time.Millisecond),
			MaxMessageLength: getEnvAsInt("ASSISTANT_MAX_MESSAGE_LENGTH", 500),
			ContextWindow:    getEnvAsInt("ASSISTANT_CONTEXT_WINDOW", 5),

			WeakMatchThreshold:     getEnvAsFloat("ASSISTANT_WEAK_MATCH_THRESHOLD", 0.4),
			LowConfidenceThreshold: getEnvAsFloat("ASSISTANT_LOW_CONFIDENCE_THRESHOLD", 0.3),
			IdentityConfidence:     getEnvAsFloat("ASSISTANT_IDENTITY_CONFIDENCE", 0.7),
			ContactConfidenceFloor: getEnvAsFloat("ASSISTANT_CONTACT_CONFIDENCE_FLOOR", 0.8),
			CriticalConfidence:     getEnvAsFloat("ASSISTANT_CRITICAL_CONFIDENCE", 0.9),
			RiskConfidence:         getEnvAsFloat("ASSISTANT_RISK_CONFIDENCE", 0.5),
			RelevanceThreshold:     getEnvAsFloat("ASSISTANT_RELEVANCE_THRESHOLD", 0.3),
			RelevanceCap:           getEnvAsFloat("ASSISTANT_RELEVANCE_CAP", 0.5),
			RelevanceMinWords:      getEnvAsInt("ASSISTANT_RELEVANCE_MIN_WORDS", 3),
			MaxTeamSize:            getEnvAsInt("ASSISTANT_MAX_TEAM_SIZE", 500),
		},
		Search: SearchConfig{
			APIKey:          getEnv("GOOGLE_SEARCH_API_KEY", ""),
			EngineID:        getEnv("GOOGLE_SEARCH_ENGINE_ID", ""),
			BaseURL:         getEnv("GOOGLE_SEARCH_BASE_URL", "https://www.googleapis.com/customsearch/v1"),
			EndpointTimeout: getEnvAsDuration("SEARCH_ENDPOINT_TIMEOUT", 7*time.Second),
			MaxQueryLength:  getEnvAsInt("SEARCH_MAX_QUERY_LENGTH", 100),
			ResultCount:     getEnvAsInt("SEARCH_RESULT_COUNT", 5),
			DirectScore:     getEnvAsFloat("SEARCH_DIRECT_ANSWER_SCORE", 0.8),
			CacheTTL:        getEnvAsDuration("SEARCH_CACHE_TTL", 3*time.Minute),
			CacheSize:       getEnvAsInt("SEARCH_CACHE_SIZE", 256),
		},
		Guard: GuardConfig{
			RateLimitBackend:        strings.ToLower(getEnv("RATE_LIMIT_BACKEND", "memory")),
			RateLimitPerMinute:      getEnvAsInt("RATE_LIMIT_PER_MINUTE", 10),
			DailySearchQuota:        getEnvAsInt("DAILY_SEARCH_QUOTA", 90),
			BreakerErrorThreshold:   getEnvAsInt("BREAKER_ERROR_THRESHOLD", 50),
			BreakerTimeoutThreshold: getEnvAsInt("BREAKER_TIMEOUT_THRESHOLD", 5),
			BreakerCooldown:         getEnvAsDuration("BREAKER_COOLDOWN", 5*time.Minute),
			BreakerSweepInterval:    getEnvAsDuration("BREAKER_SWEEP_INTERVAL", time.Hour),
		},
		Auth: AuthConfig{
			JwtSecret: getEnv("JWT_SECRET", ""),
		},
	}

	cfg.normalize()
	return cfg
}

// normalize keeps the nested web-search deadline inside the request deadline,
// otherwise the outer race could never return the degraded answer in time.
func (c *Config) normalize() {
	if c.Assistant.WebSearchTimeout >= c.Assistant.RequestTimeout {
		adjusted := c.Assistant.RequestTimeout * 9 / 10
		log.Printf("[WARN] web search timeout %s >= request timeout %s, using %s",
			c.Assistant.WebSearchTimeout, c.Assistant.RequestTimeout, adjusted)
		c.Assistant.WebSearchTimeout = adjusted
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}
