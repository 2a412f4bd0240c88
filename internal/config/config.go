package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

type Config struct {
	Port            int
	LogLevel        string
	DataDir         string
	SchemaPath      string
	DatabaseURL     string
	NatsURL         string
	NatsToken       string
	LLMProvider     string
	OpenAIAPIKey    string
	OpenAIModel     string
	OpenAIBaseURL   string
	AnthropicAPIKey string
	AnthropicModel  string
	MaxTokens       int
	APIToken        string
}

// Load reads configuration from the environment. Variables in a .env file in
// the working directory are applied first without overriding ones already set.
func Load() Config {
	loadDotenv(".env")
	return Config{
		Port:            envInt("PERSONA_PORT", 8760),
		LogLevel:        envStr("LOG_LEVEL", "info"),
		DataDir:         envStr("PERSONA_DATA_DIR", "profiles"),
		SchemaPath:      envStr("PERSONA_SCHEMA_PATH", ""),
		DatabaseURL:     envStr("DATABASE_URL", ""),
		NatsURL:         envStr("NATS_URL", ""),
		NatsToken:       envStr("NATS_TOKEN", ""),
		LLMProvider:     envStr("LLM_PROVIDER", ProviderOpenAI),
		OpenAIAPIKey:    envStr("OPENAI_API_KEY", ""),
		OpenAIModel:     envStr("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:   envStr("OPENAI_BASE_URL", ""),
		AnthropicAPIKey: envStr("ANTHROPIC_API_KEY", ""),
		AnthropicModel:  envStr("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),
		MaxTokens:       envInt("PERSONA_MAX_TOKENS", 4096),
		APIToken:        envStr("PERSONA_API_TOKEN", ""),
	}
}

func loadDotenv(path string) {
	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to read env file", "path", path, "error", err)
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
