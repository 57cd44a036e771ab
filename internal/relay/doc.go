// Package relay implements the order notification handler.
//
// A request is authenticated with a static bearer token, its JSON body is
// read as an order event, and a one-line summary is posted to a Slack
// incoming webhook. The handler is synchronous and keeps no state between
// calls: a failed post is reported to the caller and dropped.
//
// # Request Flow
//
//  1. Shared secret and webhook URL must be configured (500 otherwise)
//  2. Authorization must be exactly "Bearer <secret>" (401 otherwise)
//  3. Body must be empty or a JSON object (400 otherwise)
//  4. Message is formatted as "📦 New Order: <name> • $<total> • ID: <orderId>"
//  5. Message is posted to the webhook (502 on transport error or non-2xx)
//  6. 200 with {"message":"Success","requestId":...}
//
// # Error Responses
//
// Every failure body is {"error": "..."} with a fixed message. Secrets,
// tokens and request bodies are never written to logs or responses.
package relay
