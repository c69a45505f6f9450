package common

import (
	"os"
	"strconv"
	"time"

	"github.com/narratext/narratext/constants"
)

// Config holds all application configuration
type Config struct {
	LLM     LLMConfig
	Extract ExtractConfig
	Batch   BatchConfig
	Store   StoreConfig
}

// LLMConfig holds LLM endpoint configuration
type LLMConfig struct {
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	Timeout     time.Duration
}

// ExtractConfig holds pipeline thresholds and behavior flags
type ExtractConfig struct {
	MinWordsPerParagraph        int
	MinAlphaCharsPerParagraph   int
	ShortParagraphWordThreshold int
	RequireSentenceTerminator   bool

	ChunkBudget     int
	FileConcurrency int
	Retries         int
	BaseDelay       time.Duration

	RepeatMaxLen   int
	RepeatMinPages int
}

// BatchConfig holds ceilings for the asynchronous batch path
type BatchConfig struct {
	MaxRequests int
	MaxBytes    int
}

// StoreConfig holds manifest store configuration
type StoreConfig struct {
	Path string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Model:       getEnv("OPENAI_MODEL", constants.DefaultModel),
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			BaseURL:     getEnv("OPENAI_BASE_URL", constants.DefaultBaseURL),
			Temperature: getEnvAsFloat32("OPENAI_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT", constants.DefaultHTTPTimeout),
		},
		Extract: ExtractConfig{
			MinWordsPerParagraph:        getEnvAsInt("MIN_WORDS_PER_PARAGRAPH", constants.MinWordsPerParagraph),
			MinAlphaCharsPerParagraph:   getEnvAsInt("MIN_ALPHA_CHARS_PER_PARAGRAPH", constants.MinAlphaCharsPerParagraph),
			ShortParagraphWordThreshold: getEnvAsInt("SHORT_PARAGRAPH_WORD_THRESHOLD", constants.ShortParagraphWordThreshold),
			RequireSentenceTerminator:   getEnvAsBool("REQUIRE_SENTENCE_TERMINATOR", true),
			ChunkBudget:                 getEnvAsInt("CHUNK_BUDGET", constants.ChunkBudget),
			FileConcurrency:             getEnvAsInt("FILE_CONCURRENCY", constants.DefaultConcurrency),
			Retries:                     getEnvAsInt("LLM_RETRIES", constants.DefaultRetries),
			BaseDelay:                   getEnvAsDuration("LLM_RETRY_BASE_DELAY", constants.DefaultBaseDelay),
			RepeatMaxLen:                getEnvAsInt("REPEAT_MAX_LEN", constants.RepeatMaxLen),
			RepeatMinPages:              getEnvAsInt("REPEAT_MIN_PAGES", constants.RepeatMinPages),
		},
		Batch: BatchConfig{
			MaxRequests: getEnvAsInt("BATCH_MAX_REQUESTS", constants.BatchMaxRequests),
			MaxBytes:    getEnvAsInt("BATCH_MAX_BYTES", constants.BatchMaxBytes),
		},
		Store: StoreConfig{
			Path: getEnv("MANIFEST_DB_PATH", "narratext.db"),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration. Hard configuration errors
// abort before any work starts.
func (c *Config) Validate() error {
	if c.LLM.Model == "" {
		return NewAppError("CONFIG_ERROR", "OPENAI_MODEL is required", ErrInvalidInput)
	}
	if c.LLM.BaseURL == "" {
		return NewAppError("CONFIG_ERROR", "OPENAI_BASE_URL is required", ErrInvalidInput)
	}
	if c.Extract.ChunkBudget <= 0 {
		return NewAppError("CONFIG_ERROR", "CHUNK_BUDGET must be positive", ErrInvalidInput)
	}
	if c.Extract.FileConcurrency <= 0 {
		return NewAppError("CONFIG_ERROR", "FILE_CONCURRENCY must be positive", ErrInvalidInput)
	}
	if c.Batch.MaxRequests <= 0 || c.Batch.MaxBytes <= 0 {
		return NewAppError("CONFIG_ERROR", "batch ceilings must be positive", ErrInvalidInput)
	}
	return nil
}

// ValidateLive additionally requires credentials for synchronous LLM calls.
func (c *Config) ValidateLive() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required", ErrInvalidInput)
	}
	return nil
}
