// Package lambda runs the webhook router inside AWS Lambda behind a
// Function URL or an HTTP API (payload format 2.0).
package lambda

import (
	"context"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/events"
	awslambda "github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
)

// RuntimeAPIEnv is set by the Lambda runtime for custom runtimes.
const RuntimeAPIEnv = "AWS_LAMBDA_RUNTIME_API"

// IsLambda reports whether the process was started by the Lambda runtime.
func IsLambda() bool {
	return os.Getenv(RuntimeAPIEnv) != ""
}

// ProxyFunc converts one Function URL event into an HTTP response.
type ProxyFunc func(ctx context.Context, event events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error)

// Proxy adapts h to Function URL events. The invocation context, including
// lambdacontext, flows into the request.
func Proxy(h http.Handler) ProxyFunc {
	return httpadapter.NewV2(h).ProxyWithContext
}

// Start hands control to the Lambda runtime. It does not return.
func Start(h http.Handler) {
	awslambda.Start(Proxy(h))
}
