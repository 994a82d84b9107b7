package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

const (
	DefaultConfigPath    = "config.toml"
	DefaultHTTPAddr      = ":8080"
	DefaultJWTExpiresIn  = "24h"
	DefaultPGHost        = "127.0.0.1"
	DefaultPGPort        = 5432
	DefaultPGUser        = "postgres"
	DefaultPGDatabase    = "whatsapp_ai_bot"
	DefaultPGSSLMode     = "disable"
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	DefaultOpenAIModel   = "gpt-3.5-turbo"
	DefaultGraphBaseURL  = "https://graph.facebook.com/v15.0"
)

type Config struct {
	Log      LogConfig      `toml:"log"`
	Server   ServerConfig   `toml:"server"`
	Admin    AdminConfig    `toml:"admin"`
	Auth     AuthConfig     `toml:"auth"`
	Webhook  WebhookConfig  `toml:"webhook"`
	OpenAI   OpenAIConfig   `toml:"openai"`
	WhatsApp WhatsAppConfig `toml:"whatsapp"`
	Postgres PostgresConfig `toml:"postgres"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type AdminConfig struct {
	Email    string `toml:"email"`
	Password string `toml:"password"`
}

type AuthConfig struct {
	JWTSecret    string `toml:"jwt_secret"`
	JWTExpiresIn string `toml:"jwt_expires_in"`
}

type WebhookConfig struct {
	VerifyToken string `toml:"verify_token"`
}

type OpenAIConfig struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type WhatsAppConfig struct {
	// Token is the process-wide fallback used when a project carries no
	// token of its own.
	Token          string `toml:"token"`
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type PostgresConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	SSLMode  string `toml:"sslmode"`
}

// URL renders the pool connection string.
func (c PostgresConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

func Load(path string) (Config, error) {
	cfg := Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: DefaultHTTPAddr,
		},
		Admin: AdminConfig{
			Email:    "admin@example.com",
			Password: "change-your-password-here",
		},
		Auth: AuthConfig{
			JWTExpiresIn: DefaultJWTExpiresIn,
		},
		OpenAI: OpenAIConfig{
			BaseURL:        DefaultOpenAIBaseURL,
			Model:          DefaultOpenAIModel,
			TimeoutSeconds: 30,
		},
		WhatsApp: WhatsAppConfig{
			BaseURL:        DefaultGraphBaseURL,
			TimeoutSeconds: 15,
		},
		Postgres: PostgresConfig{
			Host:     DefaultPGHost,
			Port:     DefaultPGPort,
			User:     DefaultPGUser,
			Database: DefaultPGDatabase,
			SSLMode:  DefaultPGSSLMode,
		},
	}

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			applyEnv(&cfg)
			return cfg, nil
		}
		return cfg, err
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}

	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv lets deployments inject secrets without touching the config file.
// Environment values win over file values.
func applyEnv(cfg *Config) {
	if v := os.Getenv("WHATSAPP_VERIFY_TOKEN"); v != "" {
		cfg.Webhook.VerifyToken = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAI.APIKey = v
	}
	if v := os.Getenv("WHATSAPP_TOKEN"); v != "" {
		cfg.WhatsApp.Token = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
}

// Validate rejects configurations the process cannot start with. A missing
// OpenAI key or fallback WhatsApp token is allowed: the relay then runs in
// the degraded modes where no reply is generated or delivered.
func (c Config) Validate() error {
	if c.Webhook.VerifyToken == "" {
		return fmt.Errorf("webhook verify_token is required (set webhook.verify_token or WHATSAPP_VERIFY_TOKEN)")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth jwt_secret is required (set auth.jwt_secret or JWT_SECRET)")
	}
	return nil
}
