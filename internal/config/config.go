package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"docchat/internal/logger"
)

const (
	// DefaultMaxFileSize is the upload ceiling when MAX_FILE_SIZE is not set (10MB)
	DefaultMaxFileSize = 10 * 1024 * 1024

	defaultAllowedExtensions = ".pdf,.png,.jpg,.jpeg,.tiff,.bmp"
)

type Config struct {
	// Server Configuration
	Port               int      `yaml:"port"`
	UploadDir          string   `yaml:"upload_dir"`
	MaxFileSize        int64    `yaml:"max_file_size"`
	AllowedExtensions  []string `yaml:"allowed_extensions"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`

	// OCR Configuration
	OCRProvider        string        `yaml:"ocr_provider"`
	OCRURL             string        `yaml:"ocr_url"`
	OCRTask            string        `yaml:"ocr_task"`
	OCRTimeout         time.Duration `yaml:"ocr_timeout"`
	TesseractLanguages []string      `yaml:"tesseract_languages"`

	// Google Cloud Configuration
	GoogleCloudProject    string `yaml:"google_cloud_project"`
	GoogleCloudLocation   string `yaml:"google_cloud_location"`
	DocumentAIProcessorID string `yaml:"document_ai_processor_id"`

	// LLM Configuration
	LLMProvider    string        `yaml:"llm_provider"`
	LLMModel       string        `yaml:"llm_model"`
	LLMAPIKey      string        `yaml:"llm_api_key"`
	LLMBaseURL     string        `yaml:"llm_base_url"`
	LLMTemperature float64       `yaml:"llm_temperature"`
	LLMTimeout     time.Duration `yaml:"llm_timeout"`

	// Document Configuration
	SynthesisMode string `yaml:"synthesis_mode"`
	PDFRenderer   string `yaml:"pdf_renderer"`
	ChromePath    string `yaml:"chrome_path"`

	// Telemetry Configuration
	OTLPEndpoint string `yaml:"otlp_endpoint"`

	// Logging Configuration
	LogLevel      string `yaml:"log_level"`
	LogFormat     string `yaml:"log_format"`
	LogTimeFormat string `yaml:"log_time_format"`
	LogOutput     string `yaml:"log_output"`
}

// Default returns the configuration used when neither a file nor the environment sets a value.
func Default() *Config {
	return &Config{
		Port:                8000,
		UploadDir:           "uploads",
		MaxFileSize:         DefaultMaxFileSize,
		AllowedExtensions:   splitList(defaultAllowedExtensions),
		CORSAllowedOrigins:  []string{"*"},
		OCRProvider:         "remote",
		OCRTask:             "ocr",
		OCRTimeout:          120 * time.Second,
		TesseractLanguages:  []string{"eng"},
		GoogleCloudLocation: "us",
		LLMProvider:         "openai",
		LLMTemperature:      0.2,
		LLMTimeout:          90 * time.Second,
		SynthesisMode:       "escape",
		PDFRenderer:         "chrome",
		LogLevel:            "info",
		LogFormat:           "console",
		LogTimeFormat:       "2006-01-02T15:04:05Z07:00",
		LogOutput:           "stdout",
	}
}

// Load builds the configuration from defaults, an optional YAML file and the environment,
// in that order of precedence (environment wins).
func Load(path string) (*Config, error) {
	config := Default()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		if err := config.loadFile(path); err != nil {
			return nil, err
		}
	}

	config.applyEnv()

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Port = getEnvInt("BACKEND_PORT", c.Port)
	c.UploadDir = getEnv("UPLOAD_DIR", c.UploadDir)
	c.MaxFileSize = getEnvInt64("MAX_FILE_SIZE", c.MaxFileSize)
	c.AllowedExtensions = getEnvList("ALLOWED_EXTENSIONS", c.AllowedExtensions)
	c.CORSAllowedOrigins = getEnvList("CORS_ALLOWED_ORIGINS", c.CORSAllowedOrigins)

	c.OCRProvider = getEnv("OCR_PROVIDER", c.OCRProvider)
	c.OCRURL = getEnv("OCR_URL", getEnv("CHANDRA_OCR_URL", c.OCRURL))
	c.OCRTask = getEnv("OCR_TASK", c.OCRTask)
	c.OCRTimeout = getEnvDuration("OCR_TIMEOUT", c.OCRTimeout)
	c.TesseractLanguages = getEnvList("TESSERACT_LANGUAGES", c.TesseractLanguages)

	c.GoogleCloudProject = getEnv("GOOGLE_CLOUD_PROJECT", c.GoogleCloudProject)
	c.GoogleCloudLocation = getEnv("GOOGLE_CLOUD_LOCATION", c.GoogleCloudLocation)
	c.DocumentAIProcessorID = getEnv("DOCUMENT_AI_PROCESSOR_ID", c.DocumentAIProcessorID)

	c.LLMProvider = getEnv("LLM_PROVIDER", c.LLMProvider)
	c.LLMModel = getEnv("LLM_MODEL", c.LLMModel)
	c.LLMAPIKey = getEnv("LLM_API_KEY", c.LLMAPIKey)
	if c.LLMAPIKey == "" {
		c.LLMAPIKey = providerAPIKey(c.LLMProvider)
	}
	c.LLMBaseURL = getEnv("LLM_BASE_URL", c.LLMBaseURL)
	c.LLMTemperature = getEnvFloat("LLM_TEMPERATURE", c.LLMTemperature)
	c.LLMTimeout = getEnvDuration("LLM_TIMEOUT", c.LLMTimeout)

	c.SynthesisMode = getEnv("SYNTHESIS_MODE", c.SynthesisMode)
	c.PDFRenderer = getEnv("PDF_RENDERER", c.PDFRenderer)
	c.ChromePath = getEnv("CHROME_PATH", c.ChromePath)

	c.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.OTLPEndpoint)

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
	c.LogTimeFormat = getEnv("LOG_TIME_FORMAT", c.LogTimeFormat)
	c.LogOutput = getEnv("LOG_OUTPUT", c.LogOutput)
}

// providerAPIKey falls back to the vendor-specific variable for the selected provider.
func providerAPIKey(provider string) string {
	switch provider {
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	case "anthropic":
		return os.Getenv("ANTHROPIC_API_KEY")
	case "compatible":
		return getEnv("GEMINI_API_KEY", os.Getenv("OPENAI_API_KEY"))
	}
	return ""
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("BACKEND_PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.MaxFileSize <= 0 {
		return errors.New("MAX_FILE_SIZE must be positive")
	}
	if len(c.AllowedExtensions) == 0 {
		return errors.New("ALLOWED_EXTENSIONS must not be empty")
	}

	switch c.OCRProvider {
	case "remote":
		if c.OCRURL == "" {
			return errors.New("OCR_URL (or CHANDRA_OCR_URL) is required for the remote OCR provider")
		}
	case "documentai":
		if c.GoogleCloudProject == "" {
			return errors.New("GOOGLE_CLOUD_PROJECT is required for the documentai OCR provider")
		}
		if c.DocumentAIProcessorID == "" {
			return errors.New("DOCUMENT_AI_PROCESSOR_ID is required for the documentai OCR provider")
		}
	case "vision", "tesseract", "mock":
	default:
		return fmt.Errorf("unknown OCR_PROVIDER %q", c.OCRProvider)
	}

	switch c.LLMProvider {
	case "openai", "anthropic":
		if c.LLMAPIKey == "" {
			return fmt.Errorf("LLM_API_KEY is required for the %s LLM provider", c.LLMProvider)
		}
	case "compatible":
		if c.LLMBaseURL == "" {
			return errors.New("LLM_BASE_URL is required for the compatible LLM provider")
		}
	case "mock":
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider)
	}

	switch c.SynthesisMode {
	case "escape", "markdown", "llm":
	default:
		return fmt.Errorf("unknown SYNTHESIS_MODE %q", c.SynthesisMode)
	}

	switch c.PDFRenderer {
	case "chrome", "fpdf":
	default:
		return fmt.Errorf("unknown PDF_RENDERER %q", c.PDFRenderer)
	}

	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("0.0.0.0:%d", c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return splitList(value)
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
