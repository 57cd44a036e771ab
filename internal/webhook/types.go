package webhook

import (
	"context"

	"github.com/mattjoyce/orderhook/internal/relay"
)

// Relayer handles one relay request.
type Relayer interface {
	Handle(ctx context.Context, req relay.Request) relay.Response
}

// Config holds webhook server configuration.
type Config struct {
	Listen string `yaml:"listen"`

	// Path is the relay route, e.g. "/" or "/*" to accept any path.
	Path string `yaml:"path"`

	// Health exposes GET /healthz.
	Health bool `yaml:"health"`

	// Metrics exposes GET /metrics.
	Metrics bool `yaml:"metrics"`

	// CORS answers browser preflights. Off behind a Function URL, which
	// applies its own CORS policy.
	CORS bool `yaml:"cors"`
}

// HealthResponse is the JSON body of GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the JSON response for errors raised outside the relay.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Default values
const (
	DefaultListen = "127.0.0.1:8080"
	DefaultPath   = "/"
)
