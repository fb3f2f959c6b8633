package config

import (
	"os"
	"strconv"
	"strings"
)

// Config carries all environment-driven settings for the service.
type Config struct {
	Env  string
	Port string

	// Source site
	SourceBaseURL      string
	CrawlIntervalHours int
	CrawlMaxArticles   int
	ConcurrentRequests int
	RequestsPerSecond  float64
	RequestTimeout     int

	// URL cache
	CacheBackend string // "file" or "redis"
	CacheFile    string
	RedisURL     string
	RedisSetKey  string

	// Vector store
	VectorBackend  string // "pgvector" or "chromem"
	CollectionName string
	ChromemPath    string
	DBHost         string
	DBPort         string
	DBUser         string
	DBPassword     string
	DBName         string

	// Embeddings
	EmbedderBackend string // "ollama" or "openai"
	EmbedderURL     string
	EmbeddingModel  string
	EmbedderTimeout int

	// Generative backend
	LLMBackend  string // "openai" (gateway-capable) or "ollama"
	GatewayURL  string
	APIKey      string
	ModelName   string
	Temperature float64
	MaxTokens   int
	LLMTimeout  int

	// Answering
	MaxContextDocuments int
	SourceThreshold     float64
}

// Load reads configuration from the environment with sensible defaults.
func Load() *Config {
	return &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "8000"),

		SourceBaseURL:      getEnv("SOURCE_BASE_URL", "https://www.blizzspirit.com"),
		CrawlIntervalHours: getEnvInt("CRAWL_INTERVAL_HOURS", 24),
		CrawlMaxArticles:   getEnvInt("CRAWL_MAX_ARTICLES", 20),
		ConcurrentRequests: getEnvInt("CONCURRENT_REQUESTS", 3),
		RequestsPerSecond:  getEnvFloat("REQUESTS_PER_SECOND", 1.0),
		RequestTimeout:     getEnvInt("REQUEST_TIMEOUT", 30),

		CacheBackend: getEnv("CACHE_BACKEND", "file"),
		CacheFile:    getEnv("CACHE_FILE", "cache/processed_urls.json"),
		RedisURL:     getEnv("REDIS_URL", "redis://localhost:6379"),
		RedisSetKey:  getEnv("REDIS_SET_KEY", "crawler:processed_urls"),

		VectorBackend:  getEnv("VECTOR_BACKEND", "pgvector"),
		CollectionName: getEnv("COLLECTION_NAME", "game_articles"),
		ChromemPath:    getEnv("CHROMEM_PATH", "data/chromem"),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBUser:         getEnv("DB_USER", "rag_user"),
		DBPassword:     getSecret("DB_PASSWORD", "DB_PASSWORD_FILE", "rag_password"),
		DBName:         getEnv("DB_NAME", "rag_db"),

		EmbedderBackend: getEnv("EMBEDDER_BACKEND", "ollama"),
		EmbedderURL:     getEnv("EMBEDDER_URL", "http://localhost:11434"),
		EmbeddingModel:  getEnv("EMBEDDING_MODEL", "nomic-embed-text"),
		EmbedderTimeout: getEnvInt("EMBEDDER_TIMEOUT", 30),

		LLMBackend:  getEnv("LLM_BACKEND", "openai"),
		GatewayURL:  getEnv("LLM_GATEWAY_URL", ""),
		APIKey:      getSecret("LLM_API_KEY", "LLM_API_KEY_FILE", ""),
		ModelName:   getEnv("LLM_MODEL", "gemini-2.0-flash-exp"),
		Temperature: getEnvFloat("LLM_TEMPERATURE", 0.7),
		MaxTokens:   getEnvInt("LLM_MAX_TOKENS", 1000),
		LLMTimeout:  getEnvInt("LLM_TIMEOUT", 30),

		MaxContextDocuments: getEnvInt("MAX_CONTEXT_DOCUMENTS", 5),
		SourceThreshold:     getEnvFloat("SOURCE_SIMILARITY_THRESHOLD", 0.7),
	}
}

// DSN builds the postgres connection string for the pgvector backend.
func (c *Config) DSN() string {
	return "postgres://" + c.DBUser + ":" + c.DBPassword + "@" + c.DBHost + ":" + c.DBPort + "/" + c.DBName + "?sslmode=disable"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getSecret(envKey, fileEnvKey, fallback string) string {
	if value, ok := os.LookupEnv(envKey); ok {
		return value
	}
	if filePath, ok := os.LookupEnv(fileEnvKey); ok {
		if content, err := os.ReadFile(filePath); err == nil {
			return strings.TrimSpace(string(content))
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}
