package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		env     map[string]string
		wantErr bool
		checkFn func(t *testing.T, cfg *Config)
	}{
		{
			name: "minimal config gets defaults",
			yaml: `
relay:
  shared_secret: s3cret
  webhook_url: https://hooks.slack.com/services/T/B/X
`,
			checkFn: func(t *testing.T, cfg *Config) {
				if cfg.Relay.SharedSecret != "s3cret" {
					t.Error("relay.shared_secret not parsed")
				}
				if cfg.Server.Listen != "127.0.0.1:8080" {
					t.Errorf("server.listen default = %q", cfg.Server.Listen)
				}
				if cfg.Server.Path != "/" {
					t.Errorf("server.path default = %q", cfg.Server.Path)
				}
				if !cfg.Relay.ConnectionReuse {
					t.Error("connection_reuse should default to true")
				}
				if !cfg.Server.Metrics {
					t.Error("metrics should default to true")
				}
				if cfg.Service.LogLevel != "info" {
					t.Errorf("log_level default = %q", cfg.Service.LogLevel)
				}
			},
		},
		{
			name: "env var interpolation",
			yaml: `
relay:
  shared_secret: ${TEST_SECRET}
  webhook_url: ${TEST_URL}
`,
			env: map[string]string{
				"TEST_SECRET": "from-env",
				"TEST_URL":    "https://example.com/hook",
			},
			checkFn: func(t *testing.T, cfg *Config) {
				if cfg.Relay.SharedSecret != "from-env" {
					t.Errorf("shared_secret = %q, want from-env", cfg.Relay.SharedSecret)
				}
				if cfg.Relay.WebhookURL != "https://example.com/hook" {
					t.Errorf("webhook_url = %q", cfg.Relay.WebhookURL)
				}
			},
		},
		{
			name: "unresolved placeholder is dropped",
			yaml: `
relay:
  shared_secret: ${NOT_SET_ANYWHERE}
`,
			env: map[string]string{},
			checkFn: func(t *testing.T, cfg *Config) {
				if cfg.Relay.SharedSecret != "" {
					t.Errorf("shared_secret = %q, want empty", cfg.Relay.SharedSecret)
				}
			},
		},
		{
			name: "env overrides yaml",
			yaml: `
service:
  log_level: debug
server:
  listen: 0.0.0.0:9000
relay:
  shared_secret: from-yaml
  connection_reuse: true
`,
			env: map[string]string{
				"FLOW_SHARED_SECRET":         "from-env",
				"SLACK_WEBHOOK_URL":          "https://hooks.slack.com/x",
				"ORDERHOOK_LISTEN":           ":7000",
				"ORDERHOOK_CONNECTION_REUSE": "false",
				"ORDERHOOK_ERROR_STACK":      "true",
			},
			checkFn: func(t *testing.T, cfg *Config) {
				if cfg.Relay.SharedSecret != "from-env" {
					t.Errorf("shared_secret = %q, want from-env", cfg.Relay.SharedSecret)
				}
				if cfg.Relay.WebhookURL != "https://hooks.slack.com/x" {
					t.Errorf("webhook_url = %q", cfg.Relay.WebhookURL)
				}
				if cfg.Server.Listen != ":7000" {
					t.Errorf("listen = %q, want :7000", cfg.Server.Listen)
				}
				if cfg.Relay.ConnectionReuse {
					t.Error("connection_reuse should be overridden to false")
				}
				if !cfg.Relay.ErrorStack {
					t.Error("error_stack should be true")
				}
				if cfg.Service.LogLevel != "debug" {
					t.Errorf("log_level = %q, want debug", cfg.Service.LogLevel)
				}
			},
		},
		{
			name: "invalid log level",
			yaml: `
service:
  log_level: chatty
`,
			env:     map[string]string{},
			wantErr: true,
		},
		{
			name: "warning is an accepted log level",
			yaml: `
service:
  log_level: WARNING
`,
			env: map[string]string{},
			checkFn: func(t *testing.T, cfg *Config) {
				if cfg.Service.LogLevel != "WARNING" {
					t.Errorf("log_level = %q", cfg.Service.LogLevel)
				}
			},
		},
		{
			name: "webhook url must be absolute",
			yaml: `
relay:
  webhook_url: hooks.slack.com/services/T/B/X
`,
			env:     map[string]string{},
			wantErr: true,
		},
		{
			name: "path must be absolute",
			yaml: `
server:
  path: hooks
`,
			env:     map[string]string{},
			wantErr: true,
		},
		{
			name: "webhook url must be http",
			yaml: `
relay:
  webhook_url: ftp://example.com
`,
			env:     map[string]string{},
			wantErr: true,
		},
		{
			name:    "malformed yaml",
			yaml:    "relay: [",
			env:     map[string]string{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.yaml)
			environ := tt.env
			if environ == nil {
				environ = map[string]string{}
			}

			cfg, err := LoadWithEnv(path, environ)
			if (err != nil) != tt.wantErr {
				t.Fatalf("LoadWithEnv() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.checkFn != nil && cfg != nil {
				tt.checkFn(t, cfg)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "config file not found") {
		t.Errorf("error = %v", err)
	}
}

func TestLoadDirectory(t *testing.T) {
	path := writeConfig(t, "relay:\n  shared_secret: x\n")
	cfg, err := LoadWithEnv(filepath.Dir(path), map[string]string{})
	if err != nil {
		t.Fatalf("LoadWithEnv(dir) error = %v", err)
	}
	if cfg.Relay.SharedSecret != "x" {
		t.Errorf("shared_secret = %q", cfg.Relay.SharedSecret)
	}
}

func TestFromEnvMap(t *testing.T) {
	cfg, err := FromEnvMap(map[string]string{
		"FLOW_SHARED_SECRET":            "abc",
		"SLACK_WEBHOOK_URL":             "https://hooks.slack.com/y",
		"ORDERHOOK_LOG_LEVEL":           "warn",
		"ORDERHOOK_SHARED_SECRET_PARAM": "/orderhook/secret",
	})
	if err != nil {
		t.Fatalf("FromEnvMap() error = %v", err)
	}
	if cfg.Relay.SharedSecret != "abc" {
		t.Errorf("shared_secret = %q", cfg.Relay.SharedSecret)
	}
	if cfg.Service.LogLevel != "warn" {
		t.Errorf("log_level = %q", cfg.Service.LogLevel)
	}
	if cfg.Secrets.SharedSecretParam != "/orderhook/secret" {
		t.Errorf("shared_secret_param = %q", cfg.Secrets.SharedSecretParam)
	}
}

func TestFromEnvMapEmpty(t *testing.T) {
	cfg, err := FromEnvMap(map[string]string{})
	if err != nil {
		t.Fatalf("FromEnvMap() error = %v", err)
	}
	problems := Problems(cfg)
	if len(problems) != 2 {
		t.Fatalf("Problems() = %v, want 2 entries", problems)
	}
}

func TestProblems(t *testing.T) {
	cfg := Defaults()
	cfg.Relay.SharedSecret = "super-secret-value"
	problems := Problems(cfg)
	if len(problems) != 1 || !strings.Contains(problems[0], "webhook_url") {
		t.Fatalf("Problems() = %v", problems)
	}
	for _, p := range problems {
		if strings.Contains(p, "super-secret-value") {
			t.Fatal("secret value leaked into problems")
		}
	}

	cfg.Secrets.WebhookURLParam = "/orderhook/url"
	if got := Problems(cfg); len(got) != 0 {
		t.Errorf("Problems() with SSM param = %v, want none", got)
	}
}

func TestInvalidWebhookURLErrorOmitsValue(t *testing.T) {
	_, err := FromEnvMap(map[string]string{"SLACK_WEBHOOK_URL": "hooks.example.com/T/B/secret-token"})
	if err == nil {
		t.Fatal("expected error for schemeless webhook URL")
	}
	if strings.Contains(err.Error(), "secret-token") {
		t.Fatalf("error leaked the webhook URL: %v", err)
	}
}

func TestLoadLenientKeepsRelayValues(t *testing.T) {
	cfg, warnings, err := LoadLenient("", map[string]string{
		"FLOW_SHARED_SECRET":  "s3cret",
		"SLACK_WEBHOOK_URL":   "https://hooks.slack.com/services/T/B/X",
		"ORDERHOOK_LOG_LEVEL": "verbose",
		"ORDERHOOK_PATH":      "hooks",
	})
	if err != nil {
		t.Fatalf("LoadLenient() error = %v", err)
	}
	if cfg.Relay.SharedSecret != "s3cret" {
		t.Errorf("shared_secret = %q, want s3cret", cfg.Relay.SharedSecret)
	}
	if cfg.Relay.WebhookURL != "https://hooks.slack.com/services/T/B/X" {
		t.Errorf("webhook_url = %q", cfg.Relay.WebhookURL)
	}
	if cfg.Service.LogLevel != "info" {
		t.Errorf("log_level = %q, want info fallback", cfg.Service.LogLevel)
	}
	if cfg.Server.Path != "/" {
		t.Errorf("path = %q, want / fallback", cfg.Server.Path)
	}
	if len(warnings) != 2 {
		t.Fatalf("warnings = %v, want 2", warnings)
	}
	for _, w := range warnings {
		if strings.Contains(w, "s3cret") {
			t.Fatal("secret value leaked into warnings")
		}
	}
}

func TestLoadLenientWarningLevelIsValid(t *testing.T) {
	cfg, warnings, err := LoadLenient("", map[string]string{
		"FLOW_SHARED_SECRET":  "s3cret",
		"ORDERHOOK_LOG_LEVEL": "warning",
	})
	if err != nil {
		t.Fatalf("LoadLenient() error = %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v, want none", warnings)
	}
	if cfg.Service.LogLevel != "warning" {
		t.Errorf("log_level = %q", cfg.Service.LogLevel)
	}
}

func TestLoadLenientBadWebhookURLIsKept(t *testing.T) {
	cfg, warnings, err := LoadLenient("", map[string]string{
		"SLACK_WEBHOOK_URL": "hooks.example.com/T/B/secret-token",
	})
	if err != nil {
		t.Fatalf("LoadLenient() error = %v", err)
	}
	if cfg.Relay.WebhookURL != "hooks.example.com/T/B/secret-token" {
		t.Errorf("webhook_url = %q, want value kept", cfg.Relay.WebhookURL)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "webhook_url") {
		t.Fatalf("warnings = %v", warnings)
	}
	if strings.Contains(warnings[0], "secret-token") {
		t.Fatal("webhook URL leaked into warnings")
	}
}

func TestLoadLenientUnreadableFile(t *testing.T) {
	cfg, _, err := LoadLenient(filepath.Join(t.TempDir(), "nope.yaml"), map[string]string{
		"FLOW_SHARED_SECRET": "s3cret",
	})
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if cfg == nil || cfg.Relay.SharedSecret != "s3cret" {
		t.Fatalf("config should fall back to the environment, got %+v", cfg)
	}
}

func TestLoadLenientFile(t *testing.T) {
	path := writeConfig(t, `
service:
  log_level: loud
relay:
  shared_secret: from-yaml
`)
	cfg, warnings, err := LoadLenient(path, map[string]string{})
	if err != nil {
		t.Fatalf("LoadLenient() error = %v", err)
	}
	if cfg.Relay.SharedSecret != "from-yaml" {
		t.Errorf("shared_secret = %q", cfg.Relay.SharedSecret)
	}
	if cfg.Service.LogLevel != "info" || len(warnings) != 1 {
		t.Errorf("log_level = %q warnings = %v", cfg.Service.LogLevel, warnings)
	}
}
