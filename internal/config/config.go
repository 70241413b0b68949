package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Neo4j graph store
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string

	// MongoDB metadata store
	MongoURI        string
	MongoDB         string
	MongoCollection string

	// Gemini models
	GeminiAPIKey         string
	EmbeddingsModel      string
	GenerationModel      string
	GeminiTier           string
	VectorDimensions     int

	// Vector index
	VectorIndexName string

	// Chunking
	MaxChunkSize int
	ChunkOverlap int

	// Ingestion
	MaxFilesPerUpload int
	FileStorageDir    string

	// Query
	QueryTopK int

	// Prompt management backend (Langfuse-compatible API)
	PromptServiceURL  string
	PromptPublicKey   string
	PromptSecretKey   string
	PromptName        string

	// External PDF highlight renderer
	RenderServiceURL string

	// Redis answer cache
	RedisURL       string
	RedisPassword  string
	RedisDB        int
	AnswerCacheTTL time.Duration

	// Server
	Port        string
	GinMode     string
	CORSOrigins []string

	// Observability
	OTLPEndpoint string

	// Presentation timezone for summary timestamps. Storage is always UTC.
	DisplayTimezone string
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		Neo4jURI:      getEnv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:     getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword: getEnv("NEO4J_PASSWORD", ""),

		MongoURI:        getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDB:         getEnv("MONGODB_DB", "rag_metadata"),
		MongoCollection: getEnv("MONGODB_COLLECTION", "pdf_uploads"),

		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		EmbeddingsModel:  getEnv("GEMINI_EMBEDDINGS_MODEL", "text-embedding-004"),
		GenerationModel:  getEnv("GEMINI_GENERATION_MODEL", "gemini-2.0-flash"),
		GeminiTier:       getEnv("GEMINI_TIER", "free"),
		VectorDimensions: getEnvInt("VECTOR_DIM", 768),

		VectorIndexName: getEnv("VECTOR_INDEX_NAME", "vector"),

		MaxChunkSize: getEnvInt("MAX_CHUNK_SIZE", 3000),
		ChunkOverlap: getEnvInt("CHUNK_OVERLAP", 1000),

		MaxFilesPerUpload: getEnvInt("MAX_FILES_PER_UPLOAD", 5),
		FileStorageDir:    getEnv("FILE_STORAGE_DIR", "./uploaded_pdfs"),

		QueryTopK: getEnvInt("QUERY_TOP_K", 3),

		PromptServiceURL: getEnv("PROMPT_SERVICE_URL", "http://localhost:3000"),
		PromptPublicKey:  getEnv("PROMPT_SERVICE_PUBLIC_KEY", ""),
		PromptSecretKey:  getEnv("PROMPT_SERVICE_SECRET_KEY", ""),
		PromptName:       getEnv("PROMPT_NAME", "semantic_query_prompt"),

		RenderServiceURL: getEnv("RENDER_SERVICE_URL", "http://localhost:8001"),

		RedisURL:       getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        getEnvInt("REDIS_DB", 0),
		AnswerCacheTTL: time.Duration(getEnvInt("ANSWER_CACHE_TTL", 300)) * time.Second,

		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8080"), ","),

		OTLPEndpoint: getEnv("OTLP_ENDPOINT", "localhost:4317"),

		DisplayTimezone: getEnv("DISPLAY_TIMEZONE", "UTC"),
	}

	// The model clients are the one hard startup requirement: there is no
	// pipeline without working embedding and generation capabilities.
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required - set it in .env file")
	}

	if cfg.ChunkOverlap >= cfg.MaxChunkSize {
		return nil, fmt.Errorf("CHUNK_OVERLAP (%d) must be smaller than MAX_CHUNK_SIZE (%d)", cfg.ChunkOverlap, cfg.MaxChunkSize)
	}

	return cfg, nil
}

// DisplayLocation resolves the configured presentation timezone, falling
// back to UTC when the name is unknown.
func (c *Config) DisplayLocation() *time.Location {
	loc, err := time.LoadLocation(c.DisplayTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
