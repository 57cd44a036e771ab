// Package webhook serves the order relay over HTTP.
//
// The same router backs the local server started with "orderhook serve" and
// the Lambda Function URL entry point, so both paths share middleware,
// correlation ids and response encoding.
//
// # Routes
//
//   - <path> (any method): relay endpoint, see package relay
//   - GET /healthz: liveness, always {"status":"ok"}
//   - GET /metrics: Prometheus metrics, when enabled
//
// # Correlation IDs
//
// Inside Lambda the invocation's AwsRequestID is used. Otherwise the id set
// by chi's RequestID middleware (honouring an inbound X-Request-Id header)
// is used, with a random UUID as the last resort. The id is logged with every
// line and echoed in success responses.
//
// # Example Usage
//
//	h := relay.New(relay.Config{
//		SharedSecret: os.Getenv("FLOW_SHARED_SECRET"),
//		WebhookURL:   os.Getenv("SLACK_WEBHOOK_URL"),
//	}, notify.NewSlackClient(nil), log.FromSlog(logger))
//
//	server := webhook.New(webhook.Config{Listen: "127.0.0.1:8080", Path: "/"}, h, logger)
//	if err := server.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
package webhook
