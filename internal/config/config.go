package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Log      LogConfig
	CORS     CORSConfig
	Engine   EngineConfig
	OCR      OCRConfig
	AI       AIConfig
	Stripe   StripeConfig
	WhatsApp WhatsAppConfig
	S3       S3Config
	Email    EmailConfig
	Business BusinessConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// EngineConfig holds provider fallback engine settings.
type EngineConfig struct {
	// TotalBudgetSecs bounds a whole fallback chain, not a single attempt.
	TotalBudgetSecs   int `mapstructure:"total_budget_secs"`
	AttemptTimeoutSecs int `mapstructure:"attempt_timeout_secs"`
	HealthTimeoutSecs  int `mapstructure:"health_timeout_secs"`
}

// OCRConfig holds OCR engine endpoints and credentials.
type OCRConfig struct {
	HunyuanURL   string `mapstructure:"hunyuan_url"`
	PaddleURL    string `mapstructure:"paddle_url"`
	TogetherKey  string `mapstructure:"together_key"`
	HunyuanModel string `mapstructure:"hunyuan_model"`
	LlamaModel   string `mapstructure:"llama_model"`
}

// AIConfig holds text-generation provider credentials.
type AIConfig struct {
	TogetherKey   string `mapstructure:"together_key"`
	GeminiKey     string `mapstructure:"gemini_key"`
	AnthropicKey  string `mapstructure:"anthropic_key"`
	ChatModel     string `mapstructure:"chat_model"`
	FollowupModel string `mapstructure:"followup_model"`
	GeminiModel   string `mapstructure:"gemini_model"`
	ClaudeModel   string `mapstructure:"claude_model"`
}

// StripeConfig holds Stripe Connect settings.
type StripeConfig struct {
	SecretKey         string  `mapstructure:"secret_key"`
	WebhookSecret     string  `mapstructure:"webhook_secret"`
	CommissionPercent float64 `mapstructure:"commission_percent"`
	AppURL            string  `mapstructure:"app_url"`
}

// WhatsAppConfig holds WhatsApp Cloud API settings.
type WhatsAppConfig struct {
	AccessToken   string `mapstructure:"access_token"`
	PhoneNumberID string `mapstructure:"phone_number_id"`
	VerifyToken   string `mapstructure:"verify_token"`
	APIVersion    string `mapstructure:"api_version"`
}

// S3Config holds AWS S3 settings for the scan archive.
type S3Config struct {
	Enabled       bool   `mapstructure:"enabled"`
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// EmailConfig holds follow-up email delivery settings.
type EmailConfig struct {
	Provider    string `mapstructure:"provider"`
	Region      string `mapstructure:"region"`
	FromAddress string `mapstructure:"from_address"`
	FromName    string `mapstructure:"from_name"`
}

// BusinessConfig holds default business identity used in generated copy.
type BusinessConfig struct {
	Name            string `mapstructure:"name"`
	Tone            string `mapstructure:"tone"`
	DefaultCurrency string `mapstructure:"default_currency"`
	DefaultCountry  string `mapstructure:"default_country"`
}

// Load reads configuration from environment variables with the CONICORE_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CONICORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.environment", "development")

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000,http://localhost:5173,http://127.0.0.1:5173")

	// Engine defaults
	v.SetDefault("engine.total_budget_secs", 30)
	v.SetDefault("engine.attempt_timeout_secs", 8)
	v.SetDefault("engine.health_timeout_secs", 3)

	// OCR defaults
	v.SetDefault("ocr.hunyuan_url", "")
	v.SetDefault("ocr.paddle_url", "")
	v.SetDefault("ocr.together_key", "")
	v.SetDefault("ocr.hunyuan_model", "tencent/HunyuanOCR")
	v.SetDefault("ocr.llama_model", "meta-llama/Llama-3.2-11B-Vision-Instruct-Turbo")

	// AI defaults
	v.SetDefault("ai.together_key", "")
	v.SetDefault("ai.gemini_key", "")
	v.SetDefault("ai.anthropic_key", "")
	v.SetDefault("ai.chat_model", "meta-llama/Llama-3.1-70B-Instruct-Turbo")
	v.SetDefault("ai.followup_model", "meta-llama/Llama-3.1-8B-Instruct-Turbo")
	v.SetDefault("ai.gemini_model", "gemini-1.5-flash")
	v.SetDefault("ai.claude_model", "claude-sonnet-4-20250514")

	// Stripe defaults
	v.SetDefault("stripe.secret_key", "")
	v.SetDefault("stripe.webhook_secret", "")
	v.SetDefault("stripe.commission_percent", 0.5)
	v.SetDefault("stripe.app_url", "http://localhost:3000")

	// WhatsApp defaults
	v.SetDefault("whatsapp.access_token", "")
	v.SetDefault("whatsapp.phone_number_id", "")
	v.SetDefault("whatsapp.verify_token", "conicore_whatsapp_2024")
	v.SetDefault("whatsapp.api_version", "v18.0")

	// S3 defaults
	v.SetDefault("s3.enabled", false)
	v.SetDefault("s3.region", "af-south-1")
	v.SetDefault("s3.bucket", "conicore-scans")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.presign_expiry", 3600)

	// Email defaults
	v.SetDefault("email.provider", "noop")
	v.SetDefault("email.region", "af-south-1")
	v.SetDefault("email.from_address", "noreply@conicore.app")
	v.SetDefault("email.from_name", "ConiCore")

	// Business defaults
	v.SetDefault("business.name", "Aweh Be Lekker")
	v.SetDefault("business.tone", "friendly South African surfer vibe")
	v.SetDefault("business.default_currency", "ZAR")
	v.SetDefault("business.default_country", "ZA")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                "CONICORE_SERVER_PORT",
		"server.read_timeout":        "CONICORE_SERVER_READ_TIMEOUT",
		"server.write_timeout":       "CONICORE_SERVER_WRITE_TIMEOUT",
		"server.environment":         "CONICORE_SERVER_ENVIRONMENT",
		"log.level":                  "CONICORE_LOG_LEVEL",
		"log.format":                 "CONICORE_LOG_FORMAT",
		"cors.allowed_origins":       "CONICORE_CORS_ALLOWED_ORIGINS",
		"engine.total_budget_secs":   "CONICORE_ENGINE_TOTAL_BUDGET_SECS",
		"engine.attempt_timeout_secs": "CONICORE_ENGINE_ATTEMPT_TIMEOUT_SECS",
		"engine.health_timeout_secs":  "CONICORE_ENGINE_HEALTH_TIMEOUT_SECS",
		"ocr.hunyuan_url":            "HUNYUAN_OCR_URL",
		"ocr.paddle_url":             "PADDLE_OCR_URL",
		"ocr.together_key":           "TOGETHER_API_KEY",
		"ocr.hunyuan_model":          "CONICORE_OCR_HUNYUAN_MODEL",
		"ocr.llama_model":            "CONICORE_OCR_LLAMA_MODEL",
		"ai.together_key":            "TOGETHER_API_KEY",
		"ai.gemini_key":              "GEMINI_API_KEY",
		"ai.anthropic_key":           "ANTHROPIC_API_KEY",
		"ai.chat_model":              "CONICORE_AI_CHAT_MODEL",
		"ai.followup_model":          "CONICORE_AI_FOLLOWUP_MODEL",
		"ai.gemini_model":            "CONICORE_AI_GEMINI_MODEL",
		"ai.claude_model":            "CONICORE_AI_CLAUDE_MODEL",
		"stripe.secret_key":          "STRIPE_SECRET_KEY",
		"stripe.webhook_secret":      "STRIPE_WEBHOOK_SECRET",
		"stripe.commission_percent":  "CONICORE_STRIPE_COMMISSION_PERCENT",
		"stripe.app_url":             "APP_URL",
		"whatsapp.access_token":      "WHATSAPP_ACCESS_TOKEN",
		"whatsapp.phone_number_id":   "WHATSAPP_PHONE_NUMBER_ID",
		"whatsapp.verify_token":      "WHATSAPP_VERIFY_TOKEN",
		"whatsapp.api_version":       "CONICORE_WHATSAPP_API_VERSION",
		"s3.enabled":                 "CONICORE_S3_ENABLED",
		"s3.region":                  "CONICORE_S3_REGION",
		"s3.bucket":                  "CONICORE_S3_BUCKET",
		"s3.endpoint":                "CONICORE_S3_ENDPOINT",
		"s3.access_key":              "CONICORE_S3_ACCESS_KEY",
		"s3.secret_key":              "CONICORE_S3_SECRET_KEY",
		"s3.presign_expiry":          "CONICORE_S3_PRESIGN_EXPIRY",
		"email.provider":             "CONICORE_EMAIL_PROVIDER",
		"email.region":               "CONICORE_EMAIL_REGION",
		"email.from_address":         "CONICORE_EMAIL_FROM_ADDRESS",
		"email.from_name":            "CONICORE_EMAIL_FROM_NAME",
		"business.name":              "CONICORE_BUSINESS_NAME",
		"business.tone":              "CONICORE_BUSINESS_TONE",
		"business.default_currency":  "CONICORE_BUSINESS_DEFAULT_CURRENCY",
		"business.default_country":   "CONICORE_BUSINESS_DEFAULT_COUNTRY",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if CONICORE_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("CONICORE_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}

	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{AllowedOrigins: corsOrigins}

	cfg.Engine = EngineConfig{
		TotalBudgetSecs:    v.GetInt("engine.total_budget_secs"),
		AttemptTimeoutSecs: v.GetInt("engine.attempt_timeout_secs"),
		HealthTimeoutSecs:  v.GetInt("engine.health_timeout_secs"),
	}
	cfg.OCR = OCRConfig{
		HunyuanURL:   v.GetString("ocr.hunyuan_url"),
		PaddleURL:    v.GetString("ocr.paddle_url"),
		TogetherKey:  v.GetString("ocr.together_key"),
		HunyuanModel: v.GetString("ocr.hunyuan_model"),
		LlamaModel:   v.GetString("ocr.llama_model"),
	}
	cfg.AI = AIConfig{
		TogetherKey:   v.GetString("ai.together_key"),
		GeminiKey:     v.GetString("ai.gemini_key"),
		AnthropicKey:  v.GetString("ai.anthropic_key"),
		ChatModel:     v.GetString("ai.chat_model"),
		FollowupModel: v.GetString("ai.followup_model"),
		GeminiModel:   v.GetString("ai.gemini_model"),
		ClaudeModel:   v.GetString("ai.claude_model"),
	}
	if cfg.AI.GeminiKey == "" {
		// GOOGLE_AI_KEY is the older name for the same credential.
		cfg.AI.GeminiKey = os.Getenv("GOOGLE_AI_KEY")
	}
	cfg.Stripe = StripeConfig{
		SecretKey:         v.GetString("stripe.secret_key"),
		WebhookSecret:     v.GetString("stripe.webhook_secret"),
		CommissionPercent: v.GetFloat64("stripe.commission_percent"),
		AppURL:            v.GetString("stripe.app_url"),
	}
	cfg.WhatsApp = WhatsAppConfig{
		AccessToken:   v.GetString("whatsapp.access_token"),
		PhoneNumberID: v.GetString("whatsapp.phone_number_id"),
		VerifyToken:   v.GetString("whatsapp.verify_token"),
		APIVersion:    v.GetString("whatsapp.api_version"),
	}
	cfg.S3 = S3Config{
		Enabled:       v.GetBool("s3.enabled"),
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		PresignExpiry: v.GetInt64("s3.presign_expiry"),
	}
	cfg.Email = EmailConfig{
		Provider:    v.GetString("email.provider"),
		Region:      v.GetString("email.region"),
		FromAddress: v.GetString("email.from_address"),
		FromName:    v.GetString("email.from_name"),
	}
	cfg.Business = BusinessConfig{
		Name:            v.GetString("business.name"),
		Tone:            v.GetString("business.tone"),
		DefaultCurrency: v.GetString("business.default_currency"),
		DefaultCountry:  v.GetString("business.default_country"),
	}

	if cfg.Engine.TotalBudgetSecs <= 0 {
		return nil, fmt.Errorf("engine.total_budget_secs must be positive")
	}

	return cfg, nil
}
