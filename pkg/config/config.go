// Package config loads this pipeline's configuration envelope from the
// environment, using a getEnv / isSensitiveKey / maskSensitiveValue pattern
// so secrets never reach logs unredacted.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

// Config is the recognized configuration envelope.
type Config struct {
	// Worker/concurrency knobs.
	OCRWorkers         int
	LLMWorkers         int
	HandoffCapacity    int
	OCRPageConcurrency int

	// Rasterization/extraction knobs.
	TargetWidth     int
	MaxPages        int
	Mode            string // "native" or "ocr"
	TableConfidence float64

	// Fee extraction bounds.
	MinFee     float64
	MaxMiscFee float64

	// Connection strings and credentials.
	PostgresDSN         string
	OpenAIAPIKey        string
	OpenAIBaseURL       string
	OpenAICompletionsModel string
	GeminiAPIKey        string
	GeminiVisionModel   string

	ProcessedDir string
	FailedDir    string

	OCRLang string
}

func getEnv(key, defaultValue string, printEnv bool) string {
	value := os.Getenv(key)
	if printEnv {
		if value == "" {
			log.Infof("ENV: %s = %s (default)", key, defaultValue)
		} else {
			display := value
			if isSensitiveKey(key) {
				display = maskSensitiveValue(value)
			}
			log.Infof("ENV: %s = %s", key, display)
		}
	}
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int, printEnv bool) int {
	raw := getEnv(key, "", printEnv)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvFloat(key string, defaultValue float64, printEnv bool) float64 {
	raw := getEnv(key, "", printEnv)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return defaultValue
	}
	return v
}

// isSensitiveKey determines whether an environment variable contains
// sensitive information purely from its name suffix.
func isSensitiveKey(key string) bool {
	sensitive := []string{"API_KEY", "TOKEN", "PASSWORD", "SECRET", "KEY", "AUTH", "DSN"}
	for _, s := range sensitive {
		if len(key) >= len(s) && key[len(key)-len(s):] == s {
			return true
		}
	}
	return false
}

// maskSensitiveValue masks a secret for logging, revealing only enough
// of it to be recognizable.
func maskSensitiveValue(value string) string {
	l := len(value)
	if l <= 8 {
		return "***masked***"
	}
	if l <= 12 {
		return value[:1] + "***masked***" + value[l-1:]
	}
	return value[:4] + "***masked***" + value[l-4:]
}

// Load reads the environment (after loading an optional .env file) into
// a Config, clamping the worker/concurrency fields to their documented
// bounds.
func Load(printEnv bool) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		OCRWorkers:             clamp(getEnvInt("OCR_WORKERS", 2, printEnv), 1, 20),
		LLMWorkers:             clamp(getEnvInt("LLM_WORKERS", 8, printEnv), 1, 20),
		HandoffCapacity:        clamp(getEnvInt("HANDOFF_CAPACITY", 1, printEnv), 1, 10),
		OCRPageConcurrency:     clamp(getEnvInt("OCR_PAGE_CONCURRENCY", 1, printEnv), 1, 8),
		TargetWidth:            getEnvInt("TARGET_WIDTH", 2000, printEnv),
		MaxPages:               getEnvInt("MAX_PAGES", 30, printEnv),
		Mode:                   getEnv("EXTRACT_MODE", "ocr", printEnv),
		TableConfidence:        getEnvFloat("TABLE_CONFIDENCE", 0.86, printEnv),
		MinFee:                 getEnvFloat("MIN_FEE", 100, printEnv),
		MaxMiscFee:             getEnvFloat("MAX_MISC_FEE", 3000, printEnv),
		PostgresDSN:            getEnv("POSTGRES_DSN", "", printEnv),
		OpenAIAPIKey:           getEnv("OPENAI_API_KEY", "", printEnv),
		OpenAIBaseURL:          getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1", printEnv),
		OpenAICompletionsModel: getEnv("OPENAI_COMPLETIONS_MODEL", "gpt-4.1-mini", printEnv),
		GeminiAPIKey:           getEnv("GEMINI_API_KEY", "", printEnv),
		GeminiVisionModel:      getEnv("GEMINI_VISION_MODEL", "gemini-1.5-flash", printEnv),
		ProcessedDir:           getEnv("PROCESSED_DIR", "./output/processed", printEnv),
		FailedDir:              getEnv("FAILED_DIR", "./output/failed", printEnv),
		OCRLang:                getEnv("OCR_LANG", "eng", printEnv),
	}

	if cfg.PostgresDSN == "" {
		return nil, fmt.Errorf("POSTGRES_DSN must be set")
	}

	return cfg, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func max1(v int) int {
	if v < 1 {
		return 1
	}
	return v
}

// String renders the config with secrets masked, for startup logging.
func (c *Config) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "ocrWorkers=%d llmWorkers=%d handoffCapacity=%d mode=%s postgresDSN=%s openaiKey=%s geminiKey=%s",
		c.OCRWorkers, c.LLMWorkers, c.HandoffCapacity, c.Mode,
		maskSensitiveValue(c.PostgresDSN), maskSensitiveValue(c.OpenAIAPIKey), maskSensitiveValue(c.GeminiAPIKey))
	return b.String()
}
