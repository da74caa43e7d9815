package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultGeminiModel  = "gemini-2.0-flash-exp"
	defaultDatabaseURL  = "devcore_assistant.db"
	defaultHTTPPort     = "8000"
	defaultLogLevel     = "INFO"
	defaultStaticDir    = "static"
	defaultSettingsFile = "settings.yaml"
)

var defaultAllowedOrigins = []string{
	"http://localhost:5173",
	"http://127.0.0.1:5173",
}

type Config struct {
	GeminiAPIKey   string
	GeminiModel    string
	DatabaseURL    string
	HTTPPort       string
	LogLevel       string
	StaticDir      string
	AllowedOrigins []string
}

// Settings is the optional YAML overlay. Environment variables take precedence over it.
type Settings struct {
	Gemini struct {
		Model string `yaml:"model"`
	} `yaml:"gemini"`
	Server struct {
		Port      string `yaml:"port"`
		StaticDir string `yaml:"static_dir"`
	} `yaml:"server"`
	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`
	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`
}

// GeminiConfigured reports whether a provider API key is present.
func (c *Config) GeminiConfigured() bool {
	return c.GeminiAPIKey != ""
}

func (c *Config) Debug() bool {
	return strings.EqualFold(c.LogLevel, "DEBUG")
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load() // Load .env file if it exists
	if err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	settings, err := loadSettings(getEnv("SETTINGS_FILE", defaultSettingsFile))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		GeminiModel:    getEnv("GEMINI_MODEL", firstNonEmpty(settings.Gemini.Model, defaultGeminiModel)),
		DatabaseURL:    getEnv("DATABASE_URL", firstNonEmpty(settings.Database.URL, defaultDatabaseURL)),
		HTTPPort:       getEnv("HTTP_PORT", firstNonEmpty(settings.Server.Port, defaultHTTPPort)),
		LogLevel:       getEnv("LOG_LEVEL", defaultLogLevel),
		StaticDir:      getEnv("STATIC_DIR", firstNonEmpty(settings.Server.StaticDir, defaultStaticDir)),
		AllowedOrigins: defaultAllowedOrigins,
	}

	if len(settings.CORS.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = settings.CORS.AllowedOrigins
	}
	if origins := splitList(getEnv("ALLOWED_ORIGINS", "")); len(origins) > 0 {
		cfg.AllowedOrigins = origins
	}

	// A missing key is not fatal: the chat flow answers with its fallback text.
	if !cfg.GeminiConfigured() {
		log.Println("[CONFIG] GEMINI_API_KEY is not set, chat replies will use the fallback response")
	}

	return cfg, nil
}

// loadSettings reads the YAML overlay. A missing file yields zero settings.
func loadSettings(path string) (*Settings, error) {
	var settings Settings
	if path == "" {
		return &settings, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &settings, nil
		}
		return nil, fmt.Errorf("failed to read settings file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings file %s: %w", path, err)
	}
	return &settings, nil
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
