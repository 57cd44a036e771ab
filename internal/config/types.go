package config

// Config represents the complete orderhook configuration.
type Config struct {
	Service ServiceConfig `yaml:"service"`
	Server  ServerConfig  `yaml:"server"`
	Relay   RelayConfig   `yaml:"relay"`
	Secrets SecretsConfig `yaml:"secrets,omitempty"`
}

// ServiceConfig defines core service settings.
type ServiceConfig struct {
	Name     string `yaml:"name" env:"ORDERHOOK_SERVICE_NAME"`
	LogLevel string `yaml:"log_level" env:"ORDERHOOK_LOG_LEVEL"`
}

// ServerConfig defines the local HTTP listener. Ignored when running in Lambda.
type ServerConfig struct {
	Listen  string `yaml:"listen" env:"ORDERHOOK_LISTEN"`
	Path    string `yaml:"path" env:"ORDERHOOK_PATH"`
	Metrics bool   `yaml:"metrics" env:"ORDERHOOK_METRICS"`
}

// RelayConfig holds the values the relay handler checks on every request.
type RelayConfig struct {
	// SharedSecret is the bearer token callers must present.
	SharedSecret string `yaml:"shared_secret" env:"FLOW_SHARED_SECRET"`

	// WebhookURL is the Slack incoming webhook messages are posted to.
	WebhookURL string `yaml:"webhook_url" env:"SLACK_WEBHOOK_URL"`

	ConnectionReuse bool `yaml:"connection_reuse" env:"ORDERHOOK_CONNECTION_REUSE"`
	ErrorStack      bool `yaml:"error_stack" env:"ORDERHOOK_ERROR_STACK"`
}

// SecretsConfig names SSM parameters to read at startup when the matching
// relay value is empty.
type SecretsConfig struct {
	SharedSecretParam string `yaml:"shared_secret_param,omitempty" env:"ORDERHOOK_SHARED_SECRET_PARAM"`
	WebhookURLParam   string `yaml:"webhook_url_param,omitempty" env:"ORDERHOOK_WEBHOOK_URL_PARAM"`
}

// Defaults returns a Config with sensible defaults.
func Defaults() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:     "orderhook",
			LogLevel: "info",
		},
		Server: ServerConfig{
			Listen:  "127.0.0.1:8080",
			Path:    "/",
			Metrics: true,
		},
		Relay: RelayConfig{
			ConnectionReuse: true,
		},
	}
}
