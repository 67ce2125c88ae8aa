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
	App        AppConfig
	Database   DatabaseConfig
	Keys       APIKeys
	Ai         AIConfig
	Generation GenerationConfig
	Brand      BrandConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	AuditLogFilePath   string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	OtelEnabled        bool
	EmbedTopic         string // watermill topic for async embedding storage
}

type DatabaseConfig struct {
	Connection string
}

type APIKeys struct {
	GoogleGemini string
	HuggingFace  string
	Jina         string
	JwtSecret    string
}

type AIConfig struct {
	LLMProvider       string // "ollama", "gemini", "openai"
	LLMModel          string // e.g. "llama3", "qwen2.5"
	LLMBaseURL        string // OpenAI-compatible endpoint
	LLMTimeout        time.Duration
	EmbeddingProvider string // "ollama", "gemini", "jina", "hash"
	OllamaBaseURL     string
	OllamaModel       string // embedding model
	EmbeddingCacheTTL time.Duration
}

type GenerationConfig struct {
	SessionTTL          time.Duration
	CacheBackend        string // "memory" or "redis"
	PassTimeout         time.Duration
	OptionalPasses      []string // any of research, rag, idea, angle, enhance, scoring
	RAGLimit            int
	RAGThreshold        float64
	SimilarityThreshold float64
	SimilarityLimit     int
	PrefilterFactor     float64
	ResearchProvider    string // "llm", "web" or "none"
	ProductCacheTTL     time.Duration
}

type BrandConfig struct {
	Name            string
	Voice           string
	Language        string
	Hotline         string
	Website         string
	DefaultHashtags string
}

// IsProduction reports whether GO_ENV is production.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			AuditLogFilePath:   getEnv("AUDIT_LOG_FILE_PATH", "logs/generation.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			OtelEnabled:        getEnvAsBool("OTEL_ENABLED", false),
			EmbedTopic:         getEnv("EMBED_CONTENT_TOPIC_NAME", "EMBED_GENERATED_CONTENT"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			HuggingFace:  getEnv("HUGGINGFACE_API_KEY", ""),
			Jina:         getEnv("JINA_API_KEY", ""),
			JwtSecret:    getEnv("JWT_SECRET", ""),
		},
		Ai: AIConfig{
			LLMProvider:       getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:          getEnv("LLM_MODEL", "qwen2.5"),
			LLMBaseURL:        getEnv("LLM_BASE_URL", ""),
			LLMTimeout:        getEnvAsDuration("LLM_TIMEOUT", 120*time.Second),
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "ollama"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			EmbeddingCacheTTL: getEnvAsDuration("EMBEDDING_CACHE_TTL", time.Hour),
		},
		Generation: GenerationConfig{
			SessionTTL:          getEnvAsDuration("SESSION_TTL", 45*time.Minute),
			CacheBackend:        getEnv("SESSION_CACHE_BACKEND", "memory"),
			PassTimeout:         getEnvAsDuration("PASS_TIMEOUT", 90*time.Second),
			OptionalPasses:      getEnvAsList("GENERATION_OPTIONAL_PASSES", nil),
			RAGLimit:            getEnvAsInt("RAG_LIMIT", 3),
			RAGThreshold:        getEnvAsFloat("RAG_THRESHOLD", 0.5),
			SimilarityThreshold: getEnvAsFloat("SIMILARITY_THRESHOLD", 0.8),
			SimilarityLimit:     getEnvAsInt("SIMILARITY_LIMIT", 3),
			PrefilterFactor:     getEnvAsFloat("SIMILARITY_PREFILTER_FACTOR", 0.8),
			ResearchProvider:    getEnv("RESEARCH_PROVIDER", "llm"),
			ProductCacheTTL:     getEnvAsDuration("PRODUCT_CACHE_TTL", 10*time.Minute),
		},
		Brand: BrandConfig{
			Name:            getEnv("BRAND_NAME", "Hải Sản Tươi"),
			Voice:           getEnv("BRAND_VOICE", "warm, trustworthy, proud of freshness"),
			Language:        getEnv("BRAND_LANGUAGE", "Vietnamese"),
			Hotline:         getEnv("BRAND_HOTLINE", ""),
			Website:         getEnv("BRAND_WEBSITE", ""),
			DefaultHashtags: getEnv("BRAND_DEFAULT_HASHTAGS", "#haisan #haisantuoi"),
		},
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
	if value, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

func getEnvAsList(key string, fallback []string) []string {
	raw := getEnv(key, "")
	if strings.TrimSpace(raw) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, strings.ToLower(p))
		}
	}
	return out
}
