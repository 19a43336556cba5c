package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port            string   `mapstructure:"PORT"`
	Env             string   `mapstructure:"ENV"`
	DatabaseURL     string   `mapstructure:"DATABASE_URL"`
	DBMaxConns      int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns      int32    `mapstructure:"DB_MIN_CONNS"`
	MongoURL        string   `mapstructure:"MONGO_URL"`
	MongoDatabase   string   `mapstructure:"MONGO_DATABASE"`
	GenAIBaseURL    string   `mapstructure:"GENAI_BASE_URL"`
	GenAIAPIKey     string   `mapstructure:"GENAI_API_KEY"`
	GenAIModel      string   `mapstructure:"GENAI_MODEL"`
	GenAITimeoutSec int      `mapstructure:"GENAI_TIMEOUT_SECONDS"`
	CORSOrigins     []string `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS    float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst  int      `mapstructure:"RATE_LIMIT_BURST"`
	UploadBodyLimit string   `mapstructure:"UPLOAD_BODY_LIMIT"`
	RequestTimeout  int      `mapstructure:"REQUEST_TIMEOUT_SECONDS"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("MONGO_DATABASE", "carepulse")
	v.SetDefault("GENAI_BASE_URL", "https://generativelanguage.googleapis.com")
	v.SetDefault("GENAI_MODEL", "gemini-flash-latest")
	v.SetDefault("GENAI_TIMEOUT_SECONDS", 60)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("UPLOAD_BODY_LIMIT", "10M")
	v.SetDefault("REQUEST_TIMEOUT_SECONDS", 120)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("MONGO_URL")
	v.BindEnv("MONGO_DATABASE")
	v.BindEnv("GENAI_BASE_URL")
	v.BindEnv("GENAI_API_KEY")
	v.BindEnv("GENAI_MODEL")
	v.BindEnv("GENAI_TIMEOUT_SECONDS")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")
	v.BindEnv("UPLOAD_BODY_LIMIT")
	v.BindEnv("REQUEST_TIMEOUT_SECONDS")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.MongoURL == "" {
		return nil, fmt.Errorf("MONGO_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// GenAITimeout returns the reasoning-engine call timeout as a duration.
func (c *Config) GenAITimeout() time.Duration {
	if c.GenAITimeoutSec <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.GenAITimeoutSec) * time.Second
}
