package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads a YAML config file, then applies environment overrides.
// Missing relay values are not an error here; the handler reports them per request.
func Load(configPath string) (*Config, error) {
	return LoadWithEnv(configPath, nil)
}

// LoadWithEnv is Load with an explicit environment. A nil map means the
// process environment.
func LoadWithEnv(configPath string, environ map[string]string) (*Config, error) {
	cfg, err := readFile(configPath, environ)
	if err != nil {
		return nil, err
	}
	return finish(cfg, environ)
}

// FromEnv builds the configuration from defaults and environment variables only.
// This is the Lambda path, where there is no config file.
func FromEnv() (*Config, error) {
	return FromEnvMap(nil)
}

// FromEnvMap is FromEnv with an explicit environment.
func FromEnvMap(environ map[string]string) (*Config, error) {
	return finish(Defaults(), environ)
}

// LoadLenient loads configuration for a long-running runtime that must keep
// answering requests. Invalid service and server settings fall back to their
// defaults and come back as warnings; relay values are never discarded. An
// empty configPath reads the environment only. The returned Config is always
// usable: when the file cannot be read, err is set and the Config holds
// defaults plus the environment.
func LoadLenient(configPath string, environ map[string]string) (*Config, []string, error) {
	cfg := Defaults()
	var loadErr error
	if configPath != "" {
		fileCfg, err := readFile(configPath, environ)
		if err != nil {
			loadErr = err
		} else {
			cfg = fileCfg
		}
	}

	var warnings []string
	if err := overlayEnv(cfg, environ); err != nil {
		warnings = append(warnings, err.Error())
	}
	warnings = append(warnings, repair(cfg)...)
	return cfg, warnings, loadErr
}

func readFile(configPath string, environ map[string]string) (*Config, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("config file not found: %s\n"+
			"Hint: Check the path or run with --config flag", absPath)
	}
	if info.IsDir() {
		absPath = filepath.Join(absPath, "config.yaml")
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", absPath, err)
	}

	cfg := Defaults()
	if err := yaml.Unmarshal([]byte(interpolateEnv(string(data), environ)), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", absPath, err)
	}
	return cfg, nil
}

func finish(cfg *Config, environ map[string]string) (*Config, error) {
	if err := overlayEnv(cfg, environ); err != nil {
		return nil, err
	}
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// overlayEnv applies environment variables over cfg. Fields that parse are
// applied even when another field fails.
func overlayEnv(cfg *Config, environ map[string]string) error {
	err := env.ParseWithOptions(cfg, env.Options{Environment: environ})

	// A placeholder left unexpanded must never act as a secret.
	cfg.Relay.SharedSecret = dropUnresolved(cfg.Relay.SharedSecret)
	cfg.Relay.WebhookURL = dropUnresolved(cfg.Relay.WebhookURL)

	if err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}
	return nil
}

// interpolateEnv replaces ${VAR} with environment variable values.
// Undefined variables are left as-is (not expanded).
func interpolateEnv(input string, environ map[string]string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if value, exists := lookup(environ, varName); exists {
			return value
		}
		return match
	})
}

func lookup(environ map[string]string, name string) (string, bool) {
	if environ == nil {
		return os.LookupEnv(name)
	}
	v, ok := environ[name]
	return v, ok
}

func dropUnresolved(v string) string {
	if envVarPattern.MatchString(v) {
		return ""
	}
	return v
}

// validLogLevel accepts the names log.ParseLevel understands.
func validLogLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}

// validWebhookURL reports whether raw is an absolute http(s) URL. Errors are
// not surfaced because they would echo the URL, which carries a token.
func validWebhookURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "https" || u.Scheme == "http") && u.Host != ""
}

// validate performs basic validation on the configuration.
func validate(cfg *Config) error {
	if !validLogLevel(cfg.Service.LogLevel) {
		return fmt.Errorf("service.log_level must be one of: debug, info, warn, error (got %q)", cfg.Service.LogLevel)
	}

	if cfg.Server.Listen == "" {
		return fmt.Errorf("server.listen is required")
	}
	if !strings.HasPrefix(cfg.Server.Path, "/") {
		return fmt.Errorf("server.path must start with / (got %q)", cfg.Server.Path)
	}

	if cfg.Relay.WebhookURL != "" && !validWebhookURL(cfg.Relay.WebhookURL) {
		return fmt.Errorf("relay.webhook_url must be an absolute http(s) URL")
	}

	return nil
}

// repair resets invalid service and server settings to their defaults and
// returns one warning per change. Relay values are kept as given; a bad
// webhook URL is only reported, so delivery fails with its own error.
func repair(cfg *Config) []string {
	d := Defaults()
	var warnings []string

	if !validLogLevel(cfg.Service.LogLevel) {
		warnings = append(warnings, fmt.Sprintf("service.log_level %q not recognised, using %q", cfg.Service.LogLevel, d.Service.LogLevel))
		cfg.Service.LogLevel = d.Service.LogLevel
	}
	if cfg.Server.Listen == "" {
		warnings = append(warnings, fmt.Sprintf("server.listen is empty, using %q", d.Server.Listen))
		cfg.Server.Listen = d.Server.Listen
	}
	if !strings.HasPrefix(cfg.Server.Path, "/") {
		warnings = append(warnings, fmt.Sprintf("server.path %q must start with /, using %q", cfg.Server.Path, d.Server.Path))
		cfg.Server.Path = d.Server.Path
	}
	if cfg.Relay.WebhookURL != "" && !validWebhookURL(cfg.Relay.WebhookURL) {
		warnings = append(warnings, "relay.webhook_url is not an absolute http(s) URL, deliveries will fail")
	}

	return warnings
}

// Problems lists settings that will make every request fail. Values are
// never included.
func Problems(cfg *Config) []string {
	var out []string
	if cfg.Relay.SharedSecret == "" && cfg.Secrets.SharedSecretParam == "" {
		out = append(out, "relay.shared_secret is not set (FLOW_SHARED_SECRET)")
	}
	if cfg.Relay.WebhookURL == "" && cfg.Secrets.WebhookURLParam == "" {
		out = append(out, "relay.webhook_url is not set (SLACK_WEBHOOK_URL)")
	}
	return out
}
