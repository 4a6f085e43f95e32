package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Storage  StorageConfig
	Ai       AIConfig
	Tools    ToolsConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string // empty disables cross-instance index events
	RedisURL           string // empty disables the shared search cache
	UploadMaxBytes     int
	RebuildTopic       string
}

type DatabaseConfig struct {
	Connection string // empty keeps the document catalog in memory
}

type StorageConfig struct {
	DocsPath         string
	IndexPath        string
	ChunkSize        int
	ChunkOverlap     int
	RetrievalK       int
	EmbedConcurrency int
	WatchDocs        bool
}

type AIConfig struct {
	EmbeddingProvider   string // "ollama", "openai", "huggingface" or "hash"
	EmbeddingModel      string
	EmbeddingBaseURL    string
	EmbeddingAPIKey     string
	EmbeddingDimensions int // only used by the hash provider
	EmbeddingTimeout    time.Duration

	OllamaBaseURL string

	LLMProvider    string // "groq", "openai", "huggingface" or "ollama"
	LLMModel       string
	LLMBaseURL     string
	LLMAPIKey      string
	LLMTemperature float64
	LLMTimeout     time.Duration
}

type ToolsConfig struct {
	OpenWeatherAPIKey string
	WeatherBaseURL    string
	WeatherTimeout    time.Duration
	WeatherCacheTTL   time.Duration
	DefaultLocation   string
	SearchBaseURL     string
	SearchMaxResults  int
	SearchTimeout     time.Duration
	SearchRatePerSec  float64
	SearchCacheTTL    time.Duration
	RouterRulesPath   string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "8000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			UploadMaxBytes:     getEnvAsInt("UPLOAD_MAX_BYTES", 20*1024*1024),
			RebuildTopic:       getEnv("INDEX_REBUILD_TOPIC_NAME", "INDEX_REBUILD_REQUESTED"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Storage: StorageConfig{
			DocsPath:         getEnv("DOCS_PATH", "wine_docs"),
			IndexPath:        getEnv("INDEX_PATH", "wine_docs_index"),
			ChunkSize:        getEnvAsInt("CHUNK_SIZE", 500),
			ChunkOverlap:     getEnvAsInt("CHUNK_OVERLAP", 50),
			RetrievalK:       getEnvAsInt("RETRIEVAL_K", 4),
			EmbedConcurrency: getEnvAsInt("EMBED_CONCURRENCY", 4),
			WatchDocs:        getEnvAsBool("DOCS_WATCH_ENABLED", false),
		},
		Ai: AIConfig{
			EmbeddingProvider:   getEnv("EMBEDDING_PROVIDER", "ollama"),
			EmbeddingModel:      getEnv("EMBEDDING_MODEL", "nomic-embed-text"),
			EmbeddingBaseURL:    getEnv("EMBEDDING_BASE_URL", ""),
			EmbeddingAPIKey:     getEnv("EMBEDDING_API_KEY", ""),
			EmbeddingDimensions: getEnvAsInt("EMBEDDING_DIMENSIONS", 384),
			EmbeddingTimeout:    getEnvAsDuration("EMBEDDING_TIMEOUT", 30*time.Second),
			OllamaBaseURL:       getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			LLMProvider:         getEnv("LLM_PROVIDER", "groq"),
			LLMModel:            getEnv("LLM_MODEL", "llama-3.3-70b-versatile"),
			LLMBaseURL:          getEnv("LLM_BASE_URL", ""),
			LLMAPIKey:           getEnv("GROQ_API_KEY", getEnv("LLM_API_KEY", "")),
			LLMTemperature:      getEnvAsFloat("LLM_TEMPERATURE", 0.3),
			LLMTimeout:          getEnvAsDuration("LLM_TIMEOUT", 60*time.Second),
		},
		Tools: ToolsConfig{
			OpenWeatherAPIKey: getEnv("OPENWEATHERMAP_API_KEY", ""),
			WeatherBaseURL:    getEnv("OPENWEATHERMAP_BASE_URL", "http://api.openweathermap.org"),
			WeatherTimeout:    getEnvAsDuration("WEATHER_TIMEOUT", 8*time.Second),
			WeatherCacheTTL:   getEnvAsDuration("WEATHER_CACHE_TTL", 10*time.Minute),
			DefaultLocation:   getEnv("DEFAULT_LOCATION", "Napa Valley"),
			SearchBaseURL:     getEnv("SEARCH_BASE_URL", "https://html.duckduckgo.com"),
			SearchMaxResults:  getEnvAsInt("SEARCH_MAX_RESULTS", 3),
			SearchTimeout:     getEnvAsDuration("SEARCH_TIMEOUT", 10*time.Second),
			SearchRatePerSec:  getEnvAsFloat("SEARCH_RATE_PER_SEC", 1),
			SearchCacheTTL:    getEnvAsDuration("SEARCH_CACHE_TTL", 30*time.Minute),
			RouterRulesPath:   getEnv("ROUTER_RULES_PATH", ""),
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
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

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go duration strings ("8s") or plain seconds ("8").
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	if seconds, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return fallback
}
