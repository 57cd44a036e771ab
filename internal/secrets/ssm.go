// Package secrets resolves relay settings from AWS SSM Parameter Store at
// cold start, for deployments that keep the shared secret and webhook URL
// out of the function environment.
package secrets

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/mattjoyce/orderhook/internal/config"
)

// ParameterGetter is the subset of the SSM client used here.
type ParameterGetter interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// SSMResolver reads decrypted parameters.
type SSMResolver struct {
	client ParameterGetter
}

// NewSSMResolver wraps an existing client.
func NewSSMResolver(client ParameterGetter) *SSMResolver {
	return &SSMResolver{client: client}
}

// NewDefaultSSMResolver builds a client from the default AWS credential chain.
func NewDefaultSSMResolver(ctx context.Context) (*SSMResolver, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return NewSSMResolver(ssm.NewFromConfig(cfg)), nil
}

// Resolve returns the decrypted value of the named parameter.
func (r *SSMResolver) Resolve(ctx context.Context, name string) (string, error) {
	out, err := r.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("get parameter %s: %w", name, err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("get parameter %s: no value", name)
	}
	return aws.ToString(out.Parameter.Value), nil
}

// Needed reports whether cfg names a parameter for a value that is still empty.
func Needed(cfg *config.Config) bool {
	return (cfg.Relay.SharedSecret == "" && cfg.Secrets.SharedSecretParam != "") ||
		(cfg.Relay.WebhookURL == "" && cfg.Secrets.WebhookURLParam != "")
}

// Apply fills empty relay values from their SSM parameters. Values already
// set in the environment or config file win.
func (r *SSMResolver) Apply(ctx context.Context, cfg *config.Config) error {
	if cfg.Relay.SharedSecret == "" && cfg.Secrets.SharedSecretParam != "" {
		v, err := r.Resolve(ctx, cfg.Secrets.SharedSecretParam)
		if err != nil {
			return err
		}
		cfg.Relay.SharedSecret = v
	}
	if cfg.Relay.WebhookURL == "" && cfg.Secrets.WebhookURLParam != "" {
		v, err := r.Resolve(ctx, cfg.Secrets.WebhookURLParam)
		if err != nil {
			return err
		}
		cfg.Relay.WebhookURL = v
	}
	return nil
}
