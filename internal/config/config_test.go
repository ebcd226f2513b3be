package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	return path
}

const minimalYAML = `
telegram:
  bot_token: "123:abc"
jwt:
  secret: "s3cr3t"
`

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeYAML(t, minimalYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Errorf("addr default: %q", cfg.Server.Addr)
	}
	if cfg.Cache.Kind != "memory" {
		t.Errorf("cache kind default: %q", cfg.Cache.Kind)
	}
	if cfg.Telegram.MaxInitDataAge != 24*time.Hour {
		t.Errorf("max_init_data_age default: %v", cfg.Telegram.MaxInitDataAge)
	}
	if cfg.JWT.Issuer != "tgsession" {
		t.Errorf("issuer default: %q", cfg.JWT.Issuer)
	}
	if got := cfg.AccessTTL(); got != 24*time.Hour {
		t.Errorf("access ttl: %v", got)
	}
	if got := cfg.RefreshTTL(); got != 14*24*time.Hour {
		t.Errorf("refresh ttl: %v", got)
	}
	if cfg.Session.AccessCookieName != "at" || cfg.Session.RefreshCookieName != "rt" {
		t.Errorf("cookie names: %q / %q", cfg.Session.AccessCookieName, cfg.Session.RefreshCookieName)
	}
	if cfg.Session.SameSite != "Lax" {
		t.Errorf("samesite default: %q", cfg.Session.SameSite)
	}
	if cfg.Rate.Login.Limit != 10 || cfg.Rate.Login.Window != "1m" {
		t.Errorf("rate defaults: %d / %q", cfg.Rate.Login.Limit, cfg.Rate.Login.Window)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_ADDR", ":9999")
	t.Setenv("JWT_ACCESS_TTL", "15m")
	t.Setenv("TELEGRAM_BOT_TOKEN", "999:env-token")
	t.Setenv("RATE_ENABLED", "true")
	t.Setenv("RATE_LOGIN_LIMIT", "3")
	t.Setenv("SERVER_CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load(writeYAML(t, minimalYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":9999" {
		t.Errorf("addr: %q", cfg.Server.Addr)
	}
	if got := cfg.AccessTTL(); got != 15*time.Minute {
		t.Errorf("access ttl: %v", got)
	}
	if cfg.Telegram.BotToken != "999:env-token" {
		t.Errorf("bot token: %q", cfg.Telegram.BotToken)
	}
	if !cfg.Rate.Enabled || cfg.Rate.Login.Limit != 3 {
		t.Errorf("rate: %+v", cfg.Rate)
	}
	if len(cfg.Server.CORSAllowedOrigins) != 2 || cfg.Server.CORSAllowedOrigins[1] != "https://b.example" {
		t.Errorf("cors: %v", cfg.Server.CORSAllowedOrigins)
	}
}

func TestLoad_ProdForcesSecureCookies(t *testing.T) {
	cfg, err := Load(writeYAML(t, minimalYAML+`
app:
  env: prod
session:
  secure: false
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Session.Secure {
		t.Fatalf("en prod las cookies deben ser Secure")
	}
}

func TestLoad_MissingCredentials(t *testing.T) {
	// Neutralizar credenciales del entorno del runner.
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("JWT_SECRET", "")

	cases := map[string]string{
		"sin bot_token": `
jwt:
  secret: "s3cr3t"
`,
		"sin jwt.secret": `
telegram:
  bot_token: "123:abc"
`,
	}
	for name, body := range cases {
		if _, err := Load(writeYAML(t, body)); err == nil {
			t.Errorf("%s: esperaba error", name)
		}
	}
}

func TestLoad_BadDuration(t *testing.T) {
	_, err := Load(writeYAML(t, minimalYAML+`
rate:
  login:
    window: "cada tanto"
`))
	if err == nil || !strings.Contains(err.Error(), "rate.login.window") {
		t.Fatalf("esperaba error de duración, got %v", err)
	}
}
