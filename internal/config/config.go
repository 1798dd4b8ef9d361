package config

import "github.com/caarlos0/env/v10"

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`
	DBMaxConns  int32  `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns  int32  `env:"DB_MIN_CONNS" envDefault:"1"`

	// LLMProvider elige el proveedor: "gemini" u "openai" (cualquier API compatible).
	LLMProvider string `env:"LLM_PROVIDER" envDefault:"gemini"`
	LLMAPIKey   string `env:"LLM_API_KEY"`
	LLMBaseURL  string `env:"LLM_BASE_URL" envDefault:"https://api.openai.com/v1"`
	// LLMModel vacio usa el default del proveedor elegido.
	LLMModel    string `env:"LLM_MODEL"`

	// MarketProvider: "alphavantage", "yahoo" o vacio (precios sinteticos).
	MarketProvider   string `env:"MARKET_PROVIDER"`
	MarketAPIKey     string `env:"MARKET_API_KEY"`
	MarketBaseURL    string `env:"MARKET_BASE_URL" envDefault:"https://www.alphavantage.co"`
	QuoteCacheTTLMin int    `env:"QUOTE_CACHE_TTL_MINUTES" envDefault:"5"`

	VerifyCron     string `env:"VERIFY_CRON"`
	VerifyMinAgeHr int    `env:"VERIFY_MIN_AGE_HOURS" envDefault:"24"`

	ChatRateLimit int `env:"CHAT_RATE_LIMIT" envDefault:"20"`

	JWTSecret            string `env:"JWT_SECRET"`
	JWTAccessTTLMinutes  int    `env:"JWT_ACCESS_TTL_MINUTES" envDefault:"15"`
	JWTRefreshTTLMinutes int    `env:"JWT_REFRESH_TTL_MINUTES" envDefault:"43200"`

	// AdminEmails reciben rol admin al registrarse.
	AdminEmails []string `env:"ADMIN_EMAILS" envSeparator:","`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPass     string `env:"SMTP_PASS"`
	SMTPFrom     string `env:"SMTP_FROM"`
	SMTPFromName string `env:"SMTP_FROM_NAME"`
	SMTPUseTLS   bool   `env:"SMTP_USE_TLS" envDefault:"false"`

	SendGridAPIKey string `env:"SENDGRID_API_KEY"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
