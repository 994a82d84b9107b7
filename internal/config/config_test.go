package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Addr != DefaultHTTPAddr {
		t.Fatalf("unexpected addr: %q", cfg.Server.Addr)
	}
	if cfg.OpenAI.Model != DefaultOpenAIModel {
		t.Fatalf("unexpected model: %q", cfg.OpenAI.Model)
	}
	if cfg.Postgres.Port != DefaultPGPort {
		t.Fatalf("unexpected pg port: %d", cfg.Postgres.Port)
	}
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
[webhook]
verify_token = "from-file"

[openai]
api_key = "file-key"
model = "gpt-4o-mini"
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("WHATSAPP_VERIFY_TOKEN", "from-env")
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Webhook.VerifyToken != "from-env" {
		t.Fatalf("env should win, got %q", cfg.Webhook.VerifyToken)
	}
	if cfg.OpenAI.APIKey != "file-key" {
		t.Fatalf("empty env must not clear file value, got %q", cfg.OpenAI.APIKey)
	}
	if cfg.OpenAI.Model != "gpt-4o-mini" {
		t.Fatalf("unexpected model: %q", cfg.OpenAI.Model)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:   "complete",
			mutate: func(c *Config) { c.Webhook.VerifyToken = "secret"; c.Auth.JWTSecret = "jwt" },
		},
		{
			name:    "missing verify token",
			mutate:  func(c *Config) { c.Auth.JWTSecret = "jwt" },
			wantErr: true,
		},
		{
			name:    "missing jwt secret",
			mutate:  func(c *Config) { c.Webhook.VerifyToken = "secret" },
			wantErr: true,
		},
		{
			name:   "missing openai key degrades instead of failing",
			mutate: func(c *Config) { c.Webhook.VerifyToken = "secret"; c.Auth.JWTSecret = "jwt"; c.OpenAI.APIKey = "" },
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var cfg Config
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr && err == nil {
				t.Fatal("expected error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestPostgresURL(t *testing.T) {
	cfg := PostgresConfig{Host: "db", Port: 5433, User: "bot", Password: "pw", Database: "relay", SSLMode: "disable"}
	want := "postgres://bot:pw@db:5433/relay?sslmode=disable"
	if got := cfg.URL(); got != want {
		t.Fatalf("unexpected url: %q", got)
	}
}
