package config

import (
	"errors"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"selfsight.app/journal/internal/keyring"
)

type Config struct {
	GeminiAPIKey         string
	DatabaseURL          string
	CachePath            string
	HTTPPort             string
	LogLevel             string
	LogDir               string
	JWTSecret            string
	AnalysisModel        string
	RecommendationModel  string
	LLMRequestsPerMinute int
	AnalysisConcurrency  int
}

var AppConfig Config

// LoadConfig fills AppConfig from .env (if present) and the environment.
// The logger is not configured yet when this runs, so it reports through
// the standard library log package.
func LoadConfig() error {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = Config{
		GeminiAPIKey:         getEnv("GEMINI_API_KEY", ""),
		DatabaseURL:          getEnv("DATABASE_URL", "selfsight.db"),
		CachePath:            getEnv("CACHE_PATH", "selfsight_cache.db"),
		HTTPPort:             getEnv("HTTP_PORT", "8080"),
		LogLevel:             getEnv("LOG_LEVEL", "INFO"),
		LogDir:               getEnv("LOG_DIR", "logs"),
		JWTSecret:            getEnv("JWT_SECRET", ""),
		AnalysisModel:        getEnv("ANALYSIS_MODEL", "gemini-1.5-pro"),
		RecommendationModel:  getEnv("RECOMMENDATION_MODEL", "gemini-1.5-pro"),
		LLMRequestsPerMinute: getEnvAsInt("LLM_REQUESTS_PER_MINUTE", 60),
		AnalysisConcurrency:  getEnvAsInt("ANALYSIS_CONCURRENCY", 4),
	}

	if AppConfig.GeminiAPIKey == "" {
		if key, err := keyring.GetAPIKey(); err == nil {
			AppConfig.GeminiAPIKey = key
		} else {
			log.Println("GEMINI_API_KEY not set and no key in keyring; analysis will use the offline heuristic")
		}
	}

	return AppConfig.Validate()
}

func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET environment variable is required")
	}
	if c.LLMRequestsPerMinute <= 0 {
		return errors.New("LLM_REQUESTS_PER_MINUTE must be positive")
	}
	if c.AnalysisConcurrency <= 0 {
		return errors.New("ANALYSIS_CONCURRENCY must be positive")
	}
	return nil
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
