// Package config loads Refgen configuration from the environment with an
// optional YAML file overlay.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LLM provider names.
const (
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config holds all configuration values.
type Config struct {
	// HTTP server
	Port string

	// LLM
	LLMProvider     string
	LLMModel        string
	OllamaHost      string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	GenerateTimeout time.Duration

	// PDF rendering
	BrowserBin    string
	RenderTimeout time.Duration

	// Job lifecycle
	RetentionDelay time.Duration

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// fileConfig mirrors the optional YAML config file. Every field is a
// pointer so absent keys leave the environment values untouched.
type fileConfig struct {
	Port            *string `yaml:"port"`
	LLMProvider     *string `yaml:"llm_provider"`
	LLMModel        *string `yaml:"llm_model"`
	OllamaHost      *string `yaml:"ollama_host"`
	GenerateTimeout *string `yaml:"generate_timeout"`
	BrowserBin      *string `yaml:"browser_bin"`
	RenderTimeout   *string `yaml:"render_timeout"`
	RetentionDelay  *string `yaml:"retention_delay"`
	LogFile         *string `yaml:"log_file"`
	LogLevel        *string `yaml:"log_level"`
}

// Load reads configuration from environment variables.
func Load() Config {
	return Config{
		Port: getEnv("REFGEN_PORT", "8090"),

		LLMProvider:     getEnv("REFGEN_LLM_PROVIDER", ProviderOllama),
		LLMModel:        getEnv("REFGEN_LLM_MODEL", "llama3.1"),
		OllamaHost:      getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		GenerateTimeout: parseDuration(getEnv("REFGEN_GENERATE_TIMEOUT", "5m")),

		BrowserBin:    os.Getenv("REFGEN_BROWSER_BIN"),
		RenderTimeout: parseDuration(getEnv("REFGEN_RENDER_TIMEOUT", "90s")),

		RetentionDelay: parseDuration(getEnv("REFGEN_RETENTION_DELAY", "5m")),

		LogFile:  getEnv("REFGEN_LOG_FILE", ""),
		LogLevel: parseLogLevel(getEnv("REFGEN_LOG_LEVEL", "INFO")),
	}
}

// LoadWithFile loads env configuration and overlays values from a YAML
// file, if the path exists. The file wins over the environment.
func LoadWithFile(path string) (Config, error) {
	cfg := Load()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return cfg, fmt.Errorf("parse config file: %w", err)
	}

	if fc.Port != nil {
		cfg.Port = *fc.Port
	}
	if fc.LLMProvider != nil {
		cfg.LLMProvider = *fc.LLMProvider
	}
	if fc.LLMModel != nil {
		cfg.LLMModel = *fc.LLMModel
	}
	if fc.OllamaHost != nil {
		cfg.OllamaHost = *fc.OllamaHost
	}
	if fc.GenerateTimeout != nil {
		cfg.GenerateTimeout = parseDuration(*fc.GenerateTimeout)
	}
	if fc.BrowserBin != nil {
		cfg.BrowserBin = *fc.BrowserBin
	}
	if fc.RenderTimeout != nil {
		cfg.RenderTimeout = parseDuration(*fc.RenderTimeout)
	}
	if fc.RetentionDelay != nil {
		cfg.RetentionDelay = parseDuration(*fc.RetentionDelay)
	}
	if fc.LogFile != nil {
		cfg.LogFile = *fc.LogFile
	}
	if fc.LogLevel != nil {
		cfg.LogLevel = parseLogLevel(*fc.LogLevel)
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func parseDuration(s string) time.Duration {
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	// Bare numbers are treated as seconds
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second
	}
	return 0
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
