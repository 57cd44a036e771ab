package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattjoyce/orderhook/internal/config"
	"github.com/mattjoyce/orderhook/internal/infra"
	"github.com/mattjoyce/orderhook/internal/lambda"
	"github.com/mattjoyce/orderhook/internal/log"
	"github.com/mattjoyce/orderhook/internal/metrics"
	"github.com/mattjoyce/orderhook/internal/notify"
	"github.com/mattjoyce/orderhook/internal/order"
	"github.com/mattjoyce/orderhook/internal/relay"
	"github.com/mattjoyce/orderhook/internal/secrets"
	"github.com/mattjoyce/orderhook/internal/webhook"
)

const version = "0.1.0"

func main() {
	// The Lambda runtime starts the bootstrap binary without arguments.
	if len(os.Args) < 2 && lambda.IsLambda() {
		os.Exit(runLambda(nil))
	}
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) < 1 {
		printUsage(os.Stderr)
		return 1
	}

	cmd := args[0]
	rest := args[1:]

	switch cmd {
	case "serve":
		return runServe(rest)
	case "lambda":
		return runLambda(rest)
	case "config":
		return runConfigNoun(rest)
	case "notify":
		return runNotifyNoun(rest)
	case "infra":
		return runInfraNoun(rest)
	case "version":
		fmt.Printf("orderhook version %s\n", version)
		return 0
	case "help", "--help", "-h":
		printUsage(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage(os.Stderr)
		return 1
	}
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `orderhook - order webhook to Slack relay

Usage:
  orderhook <command> [flags]

Commands:
  serve             Run the relay as a local HTTP server
  lambda            Run the relay inside AWS Lambda (automatic when started by the runtime)
  config check      Validate configuration without printing secrets
  notify send       Post a single order notification to Slack
  infra template    Print the CloudFormation template for the Lambda deployment
  version           Show version information
  help              Show this help message

Configuration comes from --config (YAML) and/or environment variables:
  FLOW_SHARED_SECRET, SLACK_WEBHOOK_URL, ORDERHOOK_LISTEN, ORDERHOOK_LOG_LEVEL, ...
`)
}

func isHelpToken(token string) bool {
	return token == "help" || token == "--help" || token == "-h"
}

// loadConfig reads the YAML file when given, else the environment only.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.FromEnv()
	}
	return config.Load(path)
}

// resolveSecrets fills relay values from SSM when configured. Failures are
// logged and left for the handler to report as configuration faults.
func resolveSecrets(ctx context.Context, cfg *config.Config, logger *slog.Logger) {
	if !secrets.Needed(cfg) {
		return
	}
	resolver, err := secrets.NewDefaultSSMResolver(ctx)
	if err != nil {
		logger.Error("failed to create SSM client", "error", err)
		return
	}
	if err := resolver.Apply(ctx, cfg); err != nil {
		logger.Error("failed to resolve SSM parameters", "error", err)
		return
	}
	logger.Info("relay settings resolved from SSM")
}

func buildRelay(cfg *config.Config, logger *slog.Logger) *relay.Handler {
	deliverer := metrics.InstrumentDeliverer(
		notify.NewSlackClient(notify.NewHTTPClient(cfg.Relay.ConnectionReuse)),
	)
	return relay.New(relay.Config{
		SharedSecret: cfg.Relay.SharedSecret,
		WebhookURL:   cfg.Relay.WebhookURL,
		ErrorStack:   cfg.Relay.ErrorStack,
	}, deliverer, log.FromSlog(logger))
}

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file (default: environment only)")
	listen := fs.String("listen", "", "Listen address (overrides config)")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}
	if *listen != "" {
		cfg.Server.Listen = *listen
	}

	log.Setup(cfg.Service.LogLevel)
	logger := log.WithComponent("main")
	logger.Info("orderhook starting", "version", version, "mode", "serve", "config", *configPath)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	resolveSecrets(ctx, cfg, logger)
	for _, p := range config.Problems(cfg) {
		logger.Warn("configuration incomplete, requests will fail", "problem", p)
	}

	server := webhook.New(webhook.Config{
		Listen:  cfg.Server.Listen,
		Path:    cfg.Server.Path,
		Health:  true,
		Metrics: cfg.Server.Metrics,
		CORS:    true,
	}, buildRelay(cfg, logger), log.WithComponent("webhook"))

	if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server stopped", "error", err)
		return 1
	}
	logger.Info("orderhook stopped")
	return 0
}

func runLambda(args []string) int {
	fs := flag.NewFlagSet("lambda", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file (default: environment only)")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	lambda.Start(lambdaHandler(context.Background(), *configPath))
	return 0
}

// lambdaHandler builds the router served under the Lambda runtime. It never
// fails: bad ambient settings fall back to defaults with a warning, and
// missing relay values surface per request as configuration faults.
func lambdaHandler(ctx context.Context, configPath string) http.Handler {
	cfg, warnings, err := config.LoadLenient(configPath, nil)

	log.Setup(cfg.Service.LogLevel)
	logger := log.WithComponent("main")
	logger.Info("orderhook starting", "version", version, "mode", "lambda")
	if err != nil {
		logger.Error("failed to load config file, using environment only", "error", err)
	}
	for _, w := range warnings {
		logger.Warn("invalid setting ignored", "warning", w)
	}

	resolveSecrets(ctx, cfg, logger)

	server := webhook.New(webhook.Config{
		Path: "/*",
	}, buildRelay(cfg, logger), log.WithComponent("webhook"))
	return server.Handler()
}

// --- config ---

func runConfigNoun(args []string) int {
	if len(args) < 1 || isHelpToken(args[0]) {
		fmt.Fprintln(os.Stdout, "Usage: orderhook config check [--config path]")
		if len(args) < 1 {
			return 1
		}
		return 0
	}

	switch args[0] {
	case "check":
		return runConfigCheck(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown config action: %s\n", args[0])
		return 1
	}
}

func runConfigCheck(args []string) int {
	fs := flag.NewFlagSet("config check", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file (default: environment only)")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration invalid: %v\n", err)
		return 1
	}

	if *configPath != "" {
		if fp, err := config.Fingerprint(*configPath); err == nil {
			fmt.Printf("Config: %s (%s)\n", *configPath, fp)
		}
	} else {
		fmt.Println("Config: environment")
	}
	fmt.Printf("Listen: %s%s\n", cfg.Server.Listen, cfg.Server.Path)
	fmt.Printf("Shared secret: %s\n", presence(cfg.Relay.SharedSecret, cfg.Secrets.SharedSecretParam))
	fmt.Printf("Webhook URL: %s\n", presence(cfg.Relay.WebhookURL, cfg.Secrets.WebhookURLParam))

	problems := config.Problems(cfg)
	if len(problems) > 0 {
		for _, p := range problems {
			fmt.Fprintf(os.Stderr, "PROBLEM: %s\n", p)
		}
		return 1
	}
	fmt.Println("Configuration OK")
	return 0
}

func presence(value, param string) string {
	switch {
	case value != "":
		return "set"
	case param != "":
		return "from SSM " + param
	default:
		return "MISSING"
	}
}

// --- notify ---

func runNotifyNoun(args []string) int {
	if len(args) < 1 || isHelpToken(args[0]) {
		fmt.Fprintln(os.Stdout, "Usage: orderhook notify send [--config path] [--name N] [--total T] [--order-id ID]")
		if len(args) < 1 {
			return 1
		}
		return 0
	}

	switch args[0] {
	case "send":
		return runNotifySend(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown notify action: %s\n", args[0])
		return 1
	}
}

func runNotifySend(args []string) int {
	fs := flag.NewFlagSet("notify send", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file (default: environment only)")
	name := fs.String("name", "", "Order display name")
	total := fs.String("total", "", "Order total")
	orderID := fs.String("order-id", "", "Order id")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	ctx := context.Background()
	resolveSecrets(ctx, cfg, log.WithComponent("notify"))
	if cfg.Relay.WebhookURL == "" {
		fmt.Fprintln(os.Stderr, "Webhook URL is not configured (SLACK_WEBHOOK_URL)")
		return 1
	}

	text := order.Payload{OrderID: *orderID, Name: *name, Total: *total}.Message()
	client := notify.NewSlackClient(notify.NewHTTPClient(cfg.Relay.ConnectionReuse))
	res, err := client.Deliver(ctx, cfg.Relay.WebhookURL, notify.Message{Text: text})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Delivery failed: %v\n", err)
		return 1
	}
	if !res.OK() {
		fmt.Fprintf(os.Stderr, "Slack returned %d %s: %s\n", res.StatusCode, res.Status, res.Body)
		return 1
	}

	fmt.Printf("Sent: %s\n", text)
	return 0
}

// --- infra ---

func runInfraNoun(args []string) int {
	if len(args) < 1 || isHelpToken(args[0]) {
		fmt.Fprintln(os.Stdout, "Usage: orderhook infra template [--function-name N] [--memory MB] [--timeout S] [--retention DAYS] [--arch A] [--out file]")
		if len(args) < 1 {
			return 1
		}
		return 0
	}

	switch args[0] {
	case "template":
		return runInfraTemplate(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown infra action: %s\n", args[0])
		return 1
	}
}

func runInfraTemplate(args []string) int {
	defaults := infra.DefaultOptions()
	fs := flag.NewFlagSet("infra template", flag.ContinueOnError)
	functionName := fs.String("function-name", defaults.FunctionName, "Lambda function name")
	memory := fs.Int("memory", defaults.MemorySize, "Memory size in MB")
	timeout := fs.Int("timeout", defaults.TimeoutSeconds, "Timeout in seconds")
	retention := fs.Int("retention", defaults.LogRetentionDays, "Log retention in days")
	arch := fs.String("arch", defaults.Architecture, "Architecture (arm64 or x86_64)")
	out := fs.String("out", "", "Write to file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	tpl := infra.Build(infra.Options{
		FunctionName:     *functionName,
		MemorySize:       *memory,
		TimeoutSeconds:   *timeout,
		LogRetentionDays: *retention,
		Architecture:     *arch,
	})

	var w io.Writer = os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create %s: %v\n", *out, err)
			return 1
		}
		defer f.Close()
		w = f
	}

	if err := tpl.Render(w); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render template: %v\n", err)
		return 1
	}
	return 0
}
