package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Spotify   SpotifyConfig
	Genius    GeniusConfig
	Google    GoogleConfig
	OpenAI    OpenAIConfig
	Gemini    GeminiConfig
	Speech    SpeechConfig
	Providers ProvidersConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Port           int
	AllowedOrigins []string
}

type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
}

type GeniusConfig struct {
	APIToken string
}

type GoogleConfig struct {
	TranslateAPIKey string
	CredentialsFile string
}

type OpenAIConfig struct {
	APIKey        string
	ExplainModel  string
	AnalysisModel string
}

type GeminiConfig struct {
	APIKey         string
	Model          string
	EnableFallback bool
}

type SpeechConfig struct {
	EnableOpenAIFallback bool
	OpenAIVoice          string
	OpenAIModel          string
}

type ProvidersConfig struct {
	Timeout time.Duration
}

type LoggingConfig struct {
	Level string
	File  string
}

// Load reads an optional .env file into the process environment and resolves the
// configuration from environment variables, falling back to defaults.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	} else {
		_ = godotenv.Load()
	}

	v := viper.GetViper()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetInt("PORT"),
			AllowedOrigins: parseCommaSeparated(v.GetString("ALLOWED_ORIGINS")),
		},
		Spotify: SpotifyConfig{
			ClientID:     v.GetString("SPOTIFY_CLIENT_ID"),
			ClientSecret: v.GetString("SPOTIFY_CLIENT_SECRET"),
		},
		Genius: GeniusConfig{
			APIToken: v.GetString("GENIUS_API_TOKEN"),
		},
		Google: GoogleConfig{
			TranslateAPIKey: v.GetString("GOOGLE_TRANSLATE_API_KEY"),
			CredentialsFile: v.GetString("GOOGLE_APPLICATION_CREDENTIALS"),
		},
		OpenAI: OpenAIConfig{
			APIKey:        firstNonEmpty(v.GetString("OPENAI_API_KEY"), v.GetString("OPEN_AI_API_KEY")),
			ExplainModel:  v.GetString("OPENAI_EXPLAIN_MODEL"),
			AnalysisModel: v.GetString("OPENAI_ANALYSIS_MODEL"),
		},
		Gemini: GeminiConfig{
			APIKey:         v.GetString("GEMINI_API_KEY"),
			Model:          v.GetString("GEMINI_MODEL"),
			EnableFallback: v.GetBool("GEMINI_ENABLE_FALLBACK"),
		},
		Speech: SpeechConfig{
			EnableOpenAIFallback: v.GetBool("TTS_OPENAI_FALLBACK"),
			OpenAIVoice:          v.GetString("TTS_OPENAI_VOICE"),
			OpenAIModel:          v.GetString("TTS_OPENAI_MODEL"),
		},
		Providers: ProvidersConfig{
			Timeout: time.Duration(v.GetInt("PROVIDER_TIMEOUT_SECONDS")) * time.Second,
		},
		Logging: LoggingConfig{
			Level: v.GetString("LOG_LEVEL"),
			File:  v.GetString("LOG_FILE"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", 8000)
	v.SetDefault("ALLOWED_ORIGINS", "*")
	v.SetDefault("OPENAI_EXPLAIN_MODEL", "gpt-4o-mini")
	v.SetDefault("OPENAI_ANALYSIS_MODEL", "gpt-4-turbo")
	v.SetDefault("GEMINI_MODEL", "gemini-2.5-flash")
	v.SetDefault("GEMINI_ENABLE_FALLBACK", true)
	v.SetDefault("TTS_OPENAI_FALLBACK", true)
	v.SetDefault("TTS_OPENAI_VOICE", "alloy")
	v.SetDefault("TTS_OPENAI_MODEL", "tts-1")
	v.SetDefault("PROVIDER_TIMEOUT_SECONDS", 15)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FILE", "")
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Spotify.ClientID == "" || c.Spotify.ClientSecret == "" {
		return fmt.Errorf("SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET are required")
	}
	if c.Genius.APIToken == "" {
		return fmt.Errorf("GENIUS_API_TOKEN is required")
	}
	if c.Google.TranslateAPIKey == "" && c.Google.CredentialsFile == "" {
		return fmt.Errorf("GOOGLE_TRANSLATE_API_KEY or GOOGLE_APPLICATION_CREDENTIALS is required")
	}
	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	if c.Providers.Timeout <= 0 {
		return fmt.Errorf("PROVIDER_TIMEOUT_SECONDS must be positive")
	}
	return nil
}

func parseCommaSeparated(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
