package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultModel         = "gpt-4o"
	DefaultMinTextTokens = 100
	DefaultDPI           = 150
	DefaultMaxImageWidth = 1600
	DefaultServerAddr    = ":8080"
)

// Config holds all application configuration.
type Config struct {
	UseVisionFallback bool    `yaml:"use_vision_fallback"`
	ExtractTables     bool    `yaml:"extract_tables"`
	ExtractImages     bool    `yaml:"extract_images"`
	SaveImages        bool    `yaml:"save_images"`
	OutputDirectory   string  `yaml:"output_directory"`
	ModelIdentifier   string  `yaml:"model"`
	Provider          string  `yaml:"provider"`
	Temperature       float64 `yaml:"temperature"`
	TablePages        string  `yaml:"table_pages"`
	MinTextTokens     int     `yaml:"min_text_tokens"`
	DPI               float64 `yaml:"dpi"`
	MaxImageWidth     int     `yaml:"max_image_width"`
	Concurrent        bool    `yaml:"concurrent"`
	TablesWorkbook    string  `yaml:"tables_workbook"`

	Credentials CredentialsConfig `yaml:"credentials"`
	Log         LogConfig         `yaml:"log"`
	Server      ServerConfig      `yaml:"server"`
}

// CredentialsConfig holds provider credentials and endpoints.
type CredentialsConfig struct {
	GoogleAPIKey    string `yaml:"google_api_key"`
	OpenAIAPIKey    string `yaml:"openai_api_key"`
	OpenAIBaseURL   string `yaml:"openai_base_url"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	OllamaHost      string `yaml:"ollama_host"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type ServerConfig struct {
	Addr          string `yaml:"addr"`
	MaxUploadMB   int    `yaml:"max_upload_mb"`
	ShutdownGrace int    `yaml:"shutdown_grace_seconds"`
}

// Defaults returns the configuration used when nothing else is set.
func Defaults() Config {
	return Config{
		UseVisionFallback: true,
		ExtractTables:     true,
		ExtractImages:     true,
		ModelIdentifier:   DefaultModel,
		TablePages:        "all",
		MinTextTokens:     DefaultMinTextTokens,
		DPI:               DefaultDPI,
		MaxImageWidth:     DefaultMaxImageWidth,
		Log:               LogConfig{Level: "info", Format: "json"},
		Server:            ServerConfig{Addr: DefaultServerAddr, MaxUploadMB: 64, ShutdownGrace: 30},
	}
}

// Load layers defaults, environment variables and an optional YAML file.
// Values from the file take precedence over the environment.
func Load(path string) (Config, error) {
	cfg := Defaults()
	applyEnv(&cfg)
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.MinTextTokens < 0 {
		return fmt.Errorf("min_text_tokens must not be negative, got %d", c.MinTextTokens)
	}
	if c.DPI < 0 {
		return fmt.Errorf("dpi must not be negative, got %v", c.DPI)
	}
	switch strings.ToLower(c.Provider) {
	case "", "gemini", "openai", "anthropic", "ollama":
	default:
		return fmt.Errorf("unsupported provider %q", c.Provider)
	}
	return nil
}

func applyEnv(c *Config) {
	c.ModelIdentifier = getEnv("PDFX_MODEL", c.ModelIdentifier)
	c.Provider = getEnv("PDFX_PROVIDER", c.Provider)
	c.TablePages = getEnv("PDFX_TABLE_PAGES", c.TablePages)
	c.MinTextTokens = getEnvAsInt("PDFX_MIN_TEXT_TOKENS", c.MinTextTokens)
	c.DPI = getEnvAsFloat("PDFX_DPI", c.DPI)
	c.MaxImageWidth = getEnvAsInt("PDFX_MAX_IMAGE_WIDTH", c.MaxImageWidth)
	c.Temperature = getEnvAsFloat("PDFX_TEMPERATURE", c.Temperature)
	c.UseVisionFallback = getEnvAsBool("PDFX_VISION_FALLBACK", c.UseVisionFallback)
	c.ExtractTables = getEnvAsBool("PDFX_EXTRACT_TABLES", c.ExtractTables)
	c.ExtractImages = getEnvAsBool("PDFX_EXTRACT_IMAGES", c.ExtractImages)
	c.SaveImages = getEnvAsBool("PDFX_SAVE_IMAGES", c.SaveImages)
	c.OutputDirectory = getEnv("PDFX_IMAGE_DIR", c.OutputDirectory)
	c.Concurrent = getEnvAsBool("PDFX_CONCURRENT", c.Concurrent)

	c.Credentials.GoogleAPIKey = getEnv("GOOGLE_API_KEY", c.Credentials.GoogleAPIKey)
	c.Credentials.OpenAIAPIKey = getEnv("OPENAI_API_KEY", c.Credentials.OpenAIAPIKey)
	c.Credentials.OpenAIBaseURL = getEnv("OPENAI_BASE_URL", c.Credentials.OpenAIBaseURL)
	c.Credentials.AnthropicAPIKey = getEnv("ANTHROPIC_API_KEY", c.Credentials.AnthropicAPIKey)
	c.Credentials.OllamaHost = getEnv("OLLAMA_HOST", c.Credentials.OllamaHost)

	c.Log.Level = getEnv("PDFX_LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("PDFX_LOG_FORMAT", c.Log.Format)
	c.Server.Addr = getEnv("PDFX_ADDR", c.Server.Addr)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
